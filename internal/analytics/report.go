package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/cptspacemanspiff/powerpulse/internal/battery"
)

// HistoryProvider supplies samples for a trailing window of days, ordered
// by timestamp. An empty result is valid.
type HistoryProvider interface {
	Fetch(ctx context.Context, windowDays int) ([]battery.Sample, error)
}

// Report bundles everything derived from one history snapshot.
type Report struct {
	WindowDays    int              `json:"window_days"`
	GeneratedAt   time.Time        `json:"generated_at"`
	SampleCount   int              `json:"sample_count"`
	Statistics    Statistics       `json:"statistics"`
	ChargingSpans []Span           `json:"charging_spans"`
	Daily         []DailyAggregate `json:"daily"`
}

// BuildReport fetches the window once and runs every derivation on that
// snapshot. Only the fetch can fail.
func BuildReport(ctx context.Context, p HistoryProvider, windowDays int) (*Report, error) {
	samples, err := p.Fetch(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("fetch %d day history: %w", windowDays, err)
	}
	return &Report{
		WindowDays:    windowDays,
		GeneratedAt:   time.Now(),
		SampleCount:   len(samples),
		Statistics:    Compute(samples),
		ChargingSpans: ChargingSpans(samples),
		Daily:         DailyAggregates(samples),
	}, nil
}

// SliceProvider serves a fixed, already-ordered history. It ignores the
// window and is mostly useful in tests and for offline analysis of exports.
type SliceProvider []battery.Sample

func (p SliceProvider) Fetch(context.Context, int) ([]battery.Sample, error) {
	return p, nil
}
