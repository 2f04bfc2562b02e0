package battery

import (
	"fmt"
	"time"
)

const (
	// FullChargeThreshold is the level at or above which a charging sample
	// counts as full.
	FullChargeThreshold = 99.5

	DefaultWindowDays = 7
	MinWindowDays     = 1
	MaxWindowDays     = 365
)

// Sample is one reading of battery state at an instant.
type Sample struct {
	Timestamp    time.Time `json:"timestamp"`
	Percentage   float64   `json:"percentage"`
	IsCharging   bool      `json:"is_charging"`
	PowerPlugged bool      `json:"power_plugged"`
	// Temperature is in °C, nil when the source cannot report it.
	Temperature *float64 `json:"temperature"`
	// RemainingTime is seconds to empty while discharging, nil when unknown.
	RemainingTime *float64 `json:"remaining_time"`
}

// Status renders the charging state the way the CLI and logs show it.
func (s Sample) Status() string {
	switch {
	case s.IsCharging:
		return "Charging"
	case s.PowerPlugged:
		return "Plugged in"
	default:
		return "Discharging"
	}
}

// ValidateWindow rejects trailing windows outside [MinWindowDays, MaxWindowDays].
func ValidateWindow(days int) error {
	if days < MinWindowDays || days > MaxWindowDays {
		return fmt.Errorf("window must be between %d and %d days, got %d", MinWindowDays, MaxWindowDays, days)
	}
	return nil
}

// Float returns a pointer to v, for filling the optional Sample fields.
func Float(v float64) *float64 {
	return &v
}
