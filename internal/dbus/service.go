// Package dbus exposes battery history and analytics on the session bus.
package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/cptspacemanspiff/powerpulse/internal/analytics"
	"github.com/cptspacemanspiff/powerpulse/internal/battery"
	"github.com/cptspacemanspiff/powerpulse/internal/notify"
)

const (
	busName   = "io.github.PowerPulse"
	objPath   = "/io/github/PowerPulse"
	ifaceName = "io.github.PowerPulse"

	maxRangeSeconds = 366 * 24 * 60 * 60
	callTimeout     = 10 * time.Second
)

const introspectXML = `
<node>
  <interface name="` + ifaceName + `">
    <method name="GetCurrentStats">
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetHistory">
      <arg direction="in" type="x" name="from_epoch"/>
      <arg direction="in" type="x" name="to_epoch"/>
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetStatistics">
      <arg direction="in" type="i" name="days"/>
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetChargingSpans">
      <arg direction="in" type="i" name="days"/>
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetDailyUsage">
      <arg direction="in" type="i" name="days"/>
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetReport">
      <arg direction="in" type="i" name="days"/>
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetNotificationRules">
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="SetNotificationRule">
      <arg direction="in" type="s" name="type"/>
      <arg direction="in" type="i" name="level"/>
      <arg direction="in" type="b" name="enabled"/>
    </method>
  </interface>
` + introspect.IntrospectDataString + `
</node>`

// Store is the subset of storage.DB the service reads and writes.
type Store interface {
	analytics.HistoryProvider
	LatestSample() (*battery.Sample, error)
	SamplesInRange(from, to time.Time) ([]battery.Sample, error)
	NotificationRules() ([]notify.Rule, error)
	UpdateNotificationRule(typ notify.Type, level int, enabled bool) error
}

// Service exposes the battery history over D-Bus.
type Service struct {
	store Store
	log   *slog.Logger
}

// NewService creates a new D-Bus service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, log: logger}
}

// Export registers the service on the session bus.
func (s *Service) Export() (*godbus.Conn, error) {
	conn, err := godbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	conn.Export(s, objPath, ifaceName)
	conn.Export(introspect.Introspectable(introspectXML), objPath, "org.freedesktop.DBus.Introspectable")

	reply, err := conn.RequestName(busName, godbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("request name: %w", err)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("name %s already taken", busName)
	}

	return conn, nil
}

func validateRange(fromEpoch, toEpoch int64) error {
	if fromEpoch < 0 || toEpoch < 0 {
		return fmt.Errorf("time range must not be negative")
	}
	if toEpoch < fromEpoch {
		return fmt.Errorf("to_epoch %d is before from_epoch %d", toEpoch, fromEpoch)
	}
	if toEpoch-fromEpoch > maxRangeSeconds {
		return fmt.Errorf("time range exceeds 366 days")
	}
	return nil
}

func (s *Service) fail(method string, err error) *godbus.Error {
	s.log.Warn("call failed", "method", method, "err", err)
	return godbus.MakeFailedError(err)
}

func marshal(v any) (string, *godbus.Error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return string(data), nil
}

// GetCurrentStats returns the latest sample as JSON, or null before the
// first sample is stored.
func (s *Service) GetCurrentStats() (string, *godbus.Error) {
	latest, err := s.store.LatestSample()
	if err != nil {
		return "", s.fail("GetCurrentStats", err)
	}
	return marshal(latest)
}

// GetHistory returns the samples in a time range as a JSON array.
func (s *Service) GetHistory(fromEpoch, toEpoch int64) (string, *godbus.Error) {
	if err := validateRange(fromEpoch, toEpoch); err != nil {
		return "", godbus.MakeFailedError(err)
	}
	samples, err := s.store.SamplesInRange(time.Unix(fromEpoch, 0), time.Unix(toEpoch, 0))
	if err != nil {
		return "", s.fail("GetHistory", err)
	}
	if samples == nil {
		samples = []battery.Sample{}
	}
	return marshal(samples)
}

func (s *Service) report(method string, days int32) (*analytics.Report, *godbus.Error) {
	if err := battery.ValidateWindow(int(days)); err != nil {
		return nil, godbus.MakeFailedError(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	start := time.Now()
	r, err := analytics.BuildReport(ctx, s.store, int(days))
	if err != nil {
		return nil, s.fail(method, err)
	}
	if r.ChargingSpans == nil {
		r.ChargingSpans = []analytics.Span{}
	}
	if r.Daily == nil {
		r.Daily = []analytics.DailyAggregate{}
	}
	s.log.Debug("report built", "method", method, "days", days, "samples", r.SampleCount, "elapsed", time.Since(start))
	return r, nil
}

// GetStatistics returns usage statistics for the trailing days as JSON.
// Fields without data are null.
func (s *Service) GetStatistics(days int32) (string, *godbus.Error) {
	r, dbusErr := s.report("GetStatistics", days)
	if dbusErr != nil {
		return "", dbusErr
	}
	return marshal(r.Statistics)
}

// GetChargingSpans returns the charging intervals for the trailing days.
func (s *Service) GetChargingSpans(days int32) (string, *godbus.Error) {
	r, dbusErr := s.report("GetChargingSpans", days)
	if dbusErr != nil {
		return "", dbusErr
	}
	return marshal(r.ChargingSpans)
}

// GetDailyUsage returns per-day aggregates for the trailing days.
func (s *Service) GetDailyUsage(days int32) (string, *godbus.Error) {
	r, dbusErr := s.report("GetDailyUsage", days)
	if dbusErr != nil {
		return "", dbusErr
	}
	return marshal(r.Daily)
}

// GetReport returns statistics, spans and daily aggregates computed from a
// single snapshot.
func (s *Service) GetReport(days int32) (string, *godbus.Error) {
	r, dbusErr := s.report("GetReport", days)
	if dbusErr != nil {
		return "", dbusErr
	}
	return marshal(r)
}

// GetNotificationRules returns the stored notification thresholds.
func (s *Service) GetNotificationRules() (string, *godbus.Error) {
	rules, err := s.store.NotificationRules()
	if err != nil {
		return "", s.fail("GetNotificationRules", err)
	}
	return marshal(rules)
}

// SetNotificationRule updates one notification threshold.
func (s *Service) SetNotificationRule(typ string, level int32, enabled bool) *godbus.Error {
	t, err := notify.ParseType(typ)
	if err != nil {
		return godbus.MakeFailedError(err)
	}
	if err := notify.ValidateLevel(int(level)); err != nil {
		return godbus.MakeFailedError(err)
	}
	if err := s.store.UpdateNotificationRule(t, int(level), enabled); err != nil {
		return s.fail("SetNotificationRule", err)
	}
	s.log.Info("notification rule updated", "type", typ, "level", level, "enabled", enabled)
	return nil
}
