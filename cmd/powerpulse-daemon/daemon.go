package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/cptspacemanspiff/powerpulse/internal/battery"
	"github.com/cptspacemanspiff/powerpulse/internal/config"
	"github.com/cptspacemanspiff/powerpulse/internal/notify"
	"github.com/cptspacemanspiff/powerpulse/internal/storage"
)

const lastCleanupKey = "last_cleanup"

// daemon holds the state shared by the collection loop's handlers.
type daemon struct {
	cfg     *config.Config
	store   *storage.DB
	collect func() (*battery.Sample, error)
	tracker *notify.Tracker
	sender  notify.Sender
	now     func() time.Time

	batteryLog *slog.Logger
	notifyLog  *slog.Logger
	cleanupLog *slog.Logger
}

// sample collects one reading, stores it and raises any notifications.
func (d *daemon) sample() {
	s, err := d.collect()
	if err != nil {
		d.batteryLog.Debug("collect failed", "err", err)
		return
	}
	attrs := []any{"percentage", s.Percentage, "status", s.Status()}
	if s.Temperature != nil {
		attrs = append(attrs, "temperature", *s.Temperature)
	}
	if s.RemainingTime != nil {
		attrs = append(attrs, "remaining_secs", int(*s.RemainingTime))
	}
	d.batteryLog.Info("sample", attrs...)
	if err := d.store.InsertSample(*s); err != nil {
		d.batteryLog.Error("store sample", "err", err)
		return
	}

	rules, err := d.store.NotificationRules()
	if err != nil {
		d.notifyLog.Error("load notification rules", "err", err)
		return
	}
	for _, a := range d.tracker.Observe(*s, rules) {
		if err := d.sender.Send(a); err != nil {
			d.notifyLog.Warn("send notification", "type", string(a.Type), "err", err)
		}
	}
}

// cleanupIfDue deletes samples past the retention period when at least
// cleanup.interval_hours have passed since the last run. It reports whether
// a cleanup ran.
func (d *daemon) cleanupIfDue() bool {
	now := d.now()
	last, err := d.store.Setting(lastCleanupKey, "0")
	if err != nil {
		d.cleanupLog.Error("read last cleanup", "err", err)
		return false
	}
	lastUnix, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		d.cleanupLog.Warn("ignoring malformed last cleanup time", "value", last)
		lastUnix = 0
	}
	interval := time.Duration(d.cfg.Cleanup.IntervalHours) * time.Hour
	if now.Sub(time.Unix(lastUnix, 0)) < interval {
		return false
	}

	cutoff := now.AddDate(0, 0, -d.cfg.Cleanup.RetentionDays)
	deleted, err := d.store.DeleteOlderThan(cutoff)
	if err != nil {
		d.cleanupLog.Error("cleanup", "err", err)
		return false
	}
	if err := d.store.SetSetting(lastCleanupKey, strconv.FormatInt(now.Unix(), 10)); err != nil {
		d.cleanupLog.Error("record cleanup time", "err", err)
	}
	d.cleanupLog.Info("cleanup done", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	return true
}
