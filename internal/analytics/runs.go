package analytics

import "github.com/cptspacemanspiff/powerpulse/internal/battery"

// run is a maximal stretch of samples for which a predicate holds.
// start is the first sample inside the run. end is the sample that closed it:
// the first sample outside the run, or the last sample if the input ended
// inside the run.
type run struct {
	start, end int
}

// runs walks the OUTSIDE/INSIDE state machine over samples. The initial state
// comes from the first sample; a run still INSIDE when the input ends is
// closed at the last sample.
func runs(samples []battery.Sample, inside func(battery.Sample) bool) []run {
	var out []run
	in := false
	start := 0
	for i, s := range samples {
		switch v := inside(s); {
		case v && !in:
			in = true
			start = i
		case !v && in:
			in = false
			out = append(out, run{start: start, end: i})
		}
	}
	if in {
		out = append(out, run{start: start, end: len(samples) - 1})
	}
	return out
}

func charging(s battery.Sample) bool { return s.IsCharging }
func discharging(s battery.Sample) bool { return !s.IsCharging }
