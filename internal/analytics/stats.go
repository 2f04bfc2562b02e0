// Package analytics derives usage statistics and chart series from an ordered
// battery sample history. Everything here is a pure function of its input:
// callers fetch a snapshot and may analyse it from any number of goroutines.
package analytics

import (
	"github.com/cptspacemanspiff/powerpulse/internal/battery"
)

const hoursPerDay = 24

// Statistics summarises a sample window.
type Statistics struct {
	// AverageDischargeRate is the mean depletion rate in %/h while on battery.
	AverageDischargeRate Optional `json:"average_discharge_rate"`
	// AverageChargeRate is the mean gain rate in %/h while charging.
	AverageChargeRate Optional `json:"average_charge_rate"`
	// DischargeCycles counts charging-start edges.
	DischargeCycles int `json:"discharge_cycles"`
	// FullCharges counts upward crossings of battery.FullChargeThreshold
	// while charging.
	FullCharges int `json:"full_charges"`
	// AverageDailyUsage is the total percentage drained per day of history.
	AverageDailyUsage Optional `json:"average_daily_usage"`
	// LongestSession is the longest stretch on battery, in hours.
	LongestSession Optional `json:"longest_session"`
}

// mean accumulates a running average.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m mean) value() Optional {
	if m.n == 0 {
		return None
	}
	return Some(m.sum / float64(m.n))
}

// Compute derives Statistics from samples ordered by timestamp. Empty and
// single-sample input yield no data and zero counts. Pairs with a
// non-positive time delta are left out of the rates only; cycles, full
// charges and sessions depend on the charging flags alone.
func Compute(samples []battery.Sample) Statistics {
	var st Statistics
	if len(samples) < 2 {
		return st
	}

	var dischargeRate, chargeRate mean
	var drained float64
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		delta := cur.Percentage - prev.Percentage

		if delta < 0 {
			drained -= delta
		}
		if !prev.IsCharging && cur.IsCharging {
			st.DischargeCycles++
		}
		if cur.IsCharging && cur.Percentage >= battery.FullChargeThreshold && prev.Percentage < battery.FullChargeThreshold {
			st.FullCharges++
		}

		hours := cur.Timestamp.Sub(prev.Timestamp).Hours()
		if hours <= 0 {
			continue
		}
		switch {
		case cur.IsCharging && delta > 0:
			chargeRate.add(delta / hours)
		case !cur.IsCharging && delta < 0:
			dischargeRate.add(-delta / hours)
		}
	}

	st.AverageDischargeRate = dischargeRate.value()
	st.AverageChargeRate = chargeRate.value()

	spanDays := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp).Hours() / hoursPerDay
	if spanDays > 0 {
		st.AverageDailyUsage = Some(drained / spanDays)
	}

	st.LongestSession = longestSession(samples)
	return st
}

// longestSession returns the duration in hours of the longest discharge run.
// A run lasts from its first sample to the charging sample that ends it, or
// to the final timestamp if it is still open. No run means no data.
func longestSession(samples []battery.Sample) Optional {
	longest := None
	for _, r := range runs(samples, discharging) {
		hours := samples[r.end].Timestamp.Sub(samples[r.start].Timestamp).Hours()
		if hours < 0 {
			// Out-of-order timestamps.
			hours = 0
		}
		if !longest.Valid || hours > longest.Value {
			longest = Some(hours)
		}
	}
	return longest
}
