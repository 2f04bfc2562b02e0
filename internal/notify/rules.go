// Package notify turns battery samples into threshold alerts and delivers
// them to the desktop.
package notify

import (
	"fmt"

	"github.com/cptspacemanspiff/powerpulse/internal/battery"
)

// Type identifies a notification rule.
type Type string

const (
	LowBattery  Type = "low_battery"
	FullCharge  Type = "full_charge"
	CustomLevel Type = "custom_level"
)

// Types lists every known rule type.
var Types = []Type{LowBattery, FullCharge, CustomLevel}

// ParseType validates a rule type name.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown notification type %q", s)
}

// Rule is one configurable threshold.
type Rule struct {
	Type    Type `json:"type"`
	Level   int  `json:"level"`
	Enabled bool `json:"enabled"`
}

// DefaultRules are stored on first start.
func DefaultRules() []Rule {
	return []Rule{
		{Type: LowBattery, Level: 20, Enabled: true},
		{Type: FullCharge, Level: 100, Enabled: true},
		{Type: CustomLevel, Level: 80, Enabled: false},
	}
}

// ValidateLevel rejects thresholds outside 0..100.
func ValidateLevel(level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("level must be between 0 and 100, got %d", level)
	}
	return nil
}

// Alert is a rule that matched a sample.
type Alert struct {
	Type    Type
	Title   string
	Message string
}

// matches reports whether r's condition holds for s.
func (r Rule) matches(s battery.Sample) bool {
	level := float64(r.Level)
	switch r.Type {
	case LowBattery:
		return s.Percentage <= level && !s.PowerPlugged
	case FullCharge:
		return s.Percentage >= level && s.PowerPlugged
	case CustomLevel:
		return s.Percentage >= level && s.IsCharging
	}
	return false
}

func (r Rule) alert(s battery.Sample) Alert {
	a := Alert{Type: r.Type}
	switch r.Type {
	case LowBattery:
		a.Title = "Low Battery Alert"
		a.Message = fmt.Sprintf("Battery at %.0f%%, please connect charger", s.Percentage)
	case FullCharge:
		a.Title = "Battery Fully Charged"
		a.Message = fmt.Sprintf("Battery reached %.0f%%, you can disconnect charger", s.Percentage)
	default:
		a.Title = "Battery Level Reached"
		a.Message = fmt.Sprintf("Battery reached %.0f%%", s.Percentage)
	}
	return a
}

// Check returns an alert for every enabled rule whose condition holds.
func Check(s battery.Sample, rules []Rule) []Alert {
	var alerts []Alert
	for _, r := range rules {
		if r.Enabled && r.matches(s) {
			alerts = append(alerts, r.alert(s))
		}
	}
	return alerts
}

// Tracker fires each rule once per crossing: after an alert, the rule stays
// quiet until its condition stops holding.
type Tracker struct {
	active map[Type]bool
}

// NewTracker returns a Tracker with every rule armed.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[Type]bool)}
}

// Observe returns the alerts that became true with this sample.
func (t *Tracker) Observe(s battery.Sample, rules []Rule) []Alert {
	var fired []Alert
	for _, r := range rules {
		on := r.Enabled && r.matches(s)
		if on && !t.active[r.Type] {
			fired = append(fired, r.alert(s))
		}
		t.active[r.Type] = on
	}
	return fired
}
