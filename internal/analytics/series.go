package analytics

import (
	"sort"
	"time"

	"github.com/cptspacemanspiff/powerpulse/internal/battery"
)

// Span is a charging interval on the raw timeline.
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// ChargingSpans returns the maximal charging runs in ascending order. A run
// ends at the first non-charging sample after it; a run still charging at
// the end of the input ends at the last sample.
func ChargingSpans(samples []battery.Sample) []Span {
	var spans []Span
	for _, r := range runs(samples, charging) {
		spans = append(spans, Span{
			Start: samples[r.start].Timestamp,
			End:   samples[r.end].Timestamp,
		})
	}
	return spans
}

// DailyAggregate holds one local calendar day of samples.
type DailyAggregate struct {
	// Date is local midnight of the day.
	Date            time.Time `json:"date"`
	Min             float64   `json:"min_percentage"`
	Max             float64   `json:"max_percentage"`
	Usage           float64   `json:"daily_usage"`
	ChargingRatio   float64   `json:"charging_ratio"`
	Samples         int       `json:"samples"`
	ChargingSamples int       `json:"charging_samples"`
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

// DailyAggregates buckets samples by calendar day in the local time zone.
func DailyAggregates(samples []battery.Sample) []DailyAggregate {
	return DailyAggregatesIn(samples, time.Local)
}

// DailyAggregatesIn buckets samples by calendar day in loc, or in the local
// zone if loc is nil. Only days with at least one sample are returned, sorted
// by date.
func DailyAggregatesIn(samples []battery.Sample, loc *time.Location) []DailyAggregate {
	if len(samples) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	buckets := make(map[dayKey]*DailyAggregate)
	for _, s := range samples {
		t := s.Timestamp.In(loc)
		key := dayKey{t.Year(), t.Month(), t.Day()}
		b, ok := buckets[key]
		if !ok {
			// Seeded from the first sample so a one-sample day has
			// min == max even outside 0..100.
			b = &DailyAggregate{
				Date: time.Date(key.year, key.month, key.day, 0, 0, 0, 0, loc),
				Min:  s.Percentage,
				Max:  s.Percentage,
			}
			buckets[key] = b
		}
		if s.Percentage < b.Min {
			b.Min = s.Percentage
		}
		if s.Percentage > b.Max {
			b.Max = s.Percentage
		}
		b.Samples++
		if s.IsCharging {
			b.ChargingSamples++
		}
	}

	days := make([]DailyAggregate, 0, len(buckets))
	for _, b := range buckets {
		b.Usage = b.Max - b.Min
		b.ChargingRatio = float64(b.ChargingSamples) / float64(b.Samples) * 100
		days = append(days, *b)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}
