package collector

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cptspacemanspiff/powerpulse/internal/battery"
)

// sysfsRoot is overridden in tests.
var sysfsRoot = "/sys"

var errNoBattery = errors.New("no battery found")

// Collector reads the current battery state. It prefers the kernel's
// power_supply class and falls back to a portable reader elsewhere.
type Collector struct {
	log *slog.Logger
	now func() time.Time
}

// New creates a Collector.
func New(logger *slog.Logger) *Collector {
	return &Collector{log: logger, now: time.Now}
}

// Collect returns one Sample stamped with the current time.
func (c *Collector) Collect() (*battery.Sample, error) {
	now := c.now()
	s, err := collectSysfs(now)
	if errors.Is(err, errNoBattery) {
		c.log.Debug("no sysfs battery, trying portable reader")
		return collectPortable(now)
	}
	if err != nil {
		return nil, err
	}
	if s.Temperature == nil {
		if temp, ok := sensorTemperature(); ok {
			s.Temperature = battery.Float(temp)
		} else {
			c.log.Debug("battery temperature unavailable")
		}
	}
	return s, nil
}

// collectSysfs reads <sysfsRoot>/class/power_supply/BAT*/uevent.
func collectSysfs(now time.Time) (*battery.Sample, error) {
	matches, err := filepath.Glob(filepath.Join(sysfsRoot, "class/power_supply/BAT*"))
	if err != nil {
		return nil, fmt.Errorf("glob battery: %w", err)
	}
	if len(matches) == 0 {
		return nil, errNoBattery
	}

	data, err := os.ReadFile(filepath.Join(matches[0], "uevent"))
	if err != nil {
		return nil, fmt.Errorf("read uevent: %w", err)
	}
	props := parseUevent(string(data))

	pct, err := strconv.ParseFloat(props["POWER_SUPPLY_CAPACITY"], 64)
	if err != nil {
		return nil, fmt.Errorf("parse capacity: %w", err)
	}

	s := &battery.Sample{
		Timestamp:  now,
		Percentage: pct,
	}

	status := props["POWER_SUPPLY_STATUS"]
	switch status {
	case "Charging":
		s.IsCharging = true
		s.PowerPlugged = true
	case "Full", "Not charging":
		s.PowerPlugged = true
	default:
		// Some firmware reports "Discharging" at full capacity while on AC
		// power, and "Unknown" while plugged and idle.
		s.PowerPlugged = isACOnline()
	}

	if raw, err := strconv.ParseInt(props["POWER_SUPPLY_TEMP"], 10, 64); err == nil && raw != 0 {
		s.Temperature = battery.Float(normalizeTempC(raw))
	}

	if !s.IsCharging && !s.PowerPlugged {
		if secs, ok := timeToEmpty(props); ok {
			s.RemainingTime = battery.Float(secs)
		}
	}

	return s, nil
}

// timeToEmpty prefers the firmware estimate and otherwise derives one from
// energy/power or charge/current.
func timeToEmpty(props map[string]string) (float64, bool) {
	if v, err := strconv.ParseFloat(props["POWER_SUPPLY_TIME_TO_EMPTY_NOW"], 64); err == nil && v > 0 {
		return v, true
	}
	ratio := func(numKey, denKey string) (float64, bool) {
		num, err1 := strconv.ParseFloat(props[numKey], 64)
		den, err2 := strconv.ParseFloat(props[denKey], 64)
		if err1 != nil || err2 != nil || num <= 0 || den <= 0 {
			return 0, false
		}
		return num / den * 3600, true
	}
	if v, ok := ratio("POWER_SUPPLY_ENERGY_NOW", "POWER_SUPPLY_POWER_NOW"); ok {
		return capEstimate(v)
	}
	if v, ok := ratio("POWER_SUPPLY_CHARGE_NOW", "POWER_SUPPLY_CURRENT_NOW"); ok {
		return capEstimate(v)
	}
	return 0, false
}

// capEstimate drops estimates beyond a week; near-zero draw produces nonsense.
func capEstimate(secs float64) (float64, bool) {
	const maxSecs = 7 * 24 * 3600
	if secs > maxSecs {
		return 0, false
	}
	return secs, true
}

// normalizeTempC converts the raw sysfs temperature to °C. Most drivers use
// tenths of a degree; a few report milli-degrees.
func normalizeTempC(raw int64) float64 {
	if raw >= 10000 {
		return float64(raw) / 1000
	}
	return float64(raw) / 10
}

// isACOnline checks if any mains adapter is online.
func isACOnline() bool {
	for _, pattern := range []string{"class/power_supply/AC*/online", "class/power_supply/ADP*/online"} {
		matches, err := filepath.Glob(filepath.Join(sysfsRoot, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err == nil && strings.TrimSpace(string(data)) == "1" {
				return true
			}
		}
	}
	return false
}

func parseUevent(data string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(data, "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			props[k] = strings.TrimSpace(v)
		}
	}
	return props
}
