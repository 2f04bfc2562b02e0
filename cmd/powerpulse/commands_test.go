package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cptspacemanspiff/powerpulse/internal/analytics"
	"github.com/cptspacemanspiff/powerpulse/internal/battery"
	"github.com/cptspacemanspiff/powerpulse/internal/notify"
	"github.com/cptspacemanspiff/powerpulse/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func history() analytics.SliceProvider {
	at := func(h int, pct float64, charging bool) battery.Sample {
		return battery.Sample{Timestamp: t0.Add(time.Duration(h) * time.Hour), Percentage: pct, IsCharging: charging}
	}
	return analytics.SliceProvider{
		at(0, 50, false),
		at(1, 40, false),
		at(2, 35, true),
		at(3, 60, true),
		at(4, 100, true),
	}
}

func TestRunStats(t *testing.T) {
	var out bytes.Buffer
	if err := runStats(&out, history(), 7, false); err != nil {
		t.Fatalf("runStats() error = %v", err)
	}

	for _, want := range []string{
		"Battery Statistics (Last 7 days)",
		"Average Discharge Rate: 10.00% per hour",
		"Average Charge Rate: 32.50% per hour",
		"Discharge/Charge Cycles: 1",
		"Full Charges: 1",
		"Longest Battery Session: 2.00 hours",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("runStats() output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunStats_NoData(t *testing.T) {
	var out bytes.Buffer
	if err := runStats(&out, analytics.SliceProvider(nil), 7, false); err != nil {
		t.Fatalf("runStats() error = %v", err)
	}
	for _, want := range []string{
		"Average Discharge Rate: No data",
		"Average Charge Rate: No data",
		"Discharge/Charge Cycles: 0",
		"Average Daily Usage: No data",
		"Longest Battery Session: No data",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("runStats() output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunStats_RejectsWindow(t *testing.T) {
	for _, days := range []int{-1, 366} {
		if err := runStats(&bytes.Buffer{}, history(), days, false); err == nil {
			t.Fatalf("runStats(days=%d) error = nil, want error", days)
		}
	}
}

func TestRunStats_JSON(t *testing.T) {
	var out bytes.Buffer
	if err := runStats(&out, analytics.SliceProvider(nil), 7, true); err != nil {
		t.Fatalf("runStats() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out.String())
	}
	if v, ok := got["longest_session"]; !ok || v != nil {
		t.Fatalf("longest_session = %v (present %v), want null", v, ok)
	}
}

func TestRunSpansAndDaily(t *testing.T) {
	var out bytes.Buffer
	if err := runSpans(&out, history(), 7, false); err != nil {
		t.Fatalf("runSpans() error = %v", err)
	}
	if !strings.Contains(out.String(), "(2h0m0s)") {
		t.Fatalf("runSpans() output missing span duration:\n%s", out.String())
	}

	out.Reset()
	if err := runSpans(&out, analytics.SliceProvider(nil), 7, true); err != nil {
		t.Fatalf("runSpans(json) error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("runSpans(json) on empty history = %q, want []", out.String())
	}

	out.Reset()
	if err := runDaily(&out, analytics.SliceProvider(nil), 7, false); err != nil {
		t.Fatalf("runDaily() error = %v", err)
	}
	if !strings.Contains(out.String(), "No data") {
		t.Fatalf("runDaily() on empty history = %q, want No data", out.String())
	}
}

func TestRunNotification(t *testing.T) {
	db := openTestDB(t)
	level := 15

	var out bytes.Buffer
	if err := runNotification(&out, db, &notificationCmd{Type: "low_battery", Level: &level}); err != nil {
		t.Fatalf("runNotification(level) error = %v", err)
	}
	if err := runNotification(&out, db, &notificationCmd{Type: "custom_level", Enable: true}); err != nil {
		t.Fatalf("runNotification(enable) error = %v", err)
	}

	out.Reset()
	if err := runNotification(&out, db, &notificationCmd{List: true}); err != nil {
		t.Fatalf("runNotification(list) error = %v", err)
	}
	for _, want := range []string{"low_battery: 15% - Enabled", "custom_level: 80% - Enabled", "full_charge: 100% - Enabled"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("list output missing %q:\n%s", want, out.String())
		}
	}

	tests := []struct {
		name string
		cmd  *notificationCmd
	}{
		{"no type", &notificationCmd{}},
		{"unknown type", &notificationCmd{Type: "overheat", Enable: true}},
		{"no action", &notificationCmd{Type: "low_battery"}},
		{"enable and disable", &notificationCmd{Type: "low_battery", Enable: true, Disable: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runNotification(&bytes.Buffer{}, db, tt.cmd); err == nil {
				t.Fatal("runNotification() error = nil, want error")
			}
		})
	}
}

func TestRunCleanup(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	for _, age := range []int{40, 35, 1} {
		if err := db.InsertSample(battery.Sample{Timestamp: now.AddDate(0, 0, -age), Percentage: 50}); err != nil {
			t.Fatalf("InsertSample() error = %v", err)
		}
	}

	var out bytes.Buffer
	if err := runCleanup(&out, db, 30); err != nil {
		t.Fatalf("runCleanup() error = %v", err)
	}
	if !strings.Contains(out.String(), "Cleaned up 2 records older than 30 days.") {
		t.Fatalf("runCleanup() output = %q", out.String())
	}
	if err := runCleanup(&out, db, 0); err == nil {
		t.Fatal("runCleanup(0) error = nil, want error")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type quietSender struct{ n int }

func (q *quietSender) Send(notify.Alert) error {
	q.n++
	return nil
}

func TestMonitorRecordsOnceWhenCanceled(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collect := func() (*battery.Sample, error) {
		return &battery.Sample{Timestamp: t0, Percentage: 10}, nil
	}
	sender := &quietSender{}
	var out bytes.Buffer
	if err := monitor(ctx, &out, discardLogger(), collect, db, sender, time.Hour); err != nil {
		t.Fatalf("monitor() error = %v", err)
	}

	latest, err := db.LatestSample()
	if err != nil || latest == nil {
		t.Fatalf("LatestSample() = %v, %v, want the recorded sample", latest, err)
	}
	if sender.n != 1 {
		t.Fatalf("sent %d alerts, want 1 low battery alert", sender.n)
	}
	if !strings.Contains(out.String(), "Battery: 10% - Discharging") {
		t.Fatalf("monitor() output = %q", out.String())
	}
}

func TestPrintSample(t *testing.T) {
	var out bytes.Buffer
	printSample(&out, &battery.Sample{
		Percentage:    42,
		PowerPlugged:  false,
		Temperature:   battery.Float(31.5),
		RemainingTime: battery.Float(5400),
	})
	for _, want := range []string{"Battery Level: 42%", "Status: Discharging", "Power Connected: No", "Temperature: 31.5°C", "Estimated Time Remaining: 1h 30m"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("printSample() missing %q:\n%s", want, out.String())
		}
	}
}

type failingSender struct{}

func (failingSender) Send(notify.Alert) error {
	return errors.New("org.freedesktop.Notifications: no such name")
}

func TestMonitorLogsFailures(t *testing.T) {
	tests := []struct {
		name    string
		collect func() (*battery.Sample, error)
		want    string
	}{
		{
			name: "send error",
			collect: func() (*battery.Sample, error) {
				return &battery.Sample{Timestamp: t0, Percentage: 10}, nil
			},
			want: "send notification",
		},
		{
			name: "collect error",
			collect: func() (*battery.Sample, error) {
				return nil, errors.New("no battery found")
			},
			want: "collect failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			if err := monitor(ctx, io.Discard, logger, tt.collect, db, failingSender{}, time.Hour); err != nil {
				t.Fatalf("monitor() error = %v", err)
			}
			if !strings.Contains(logs.String(), tt.want) {
				t.Fatalf("monitor() logs = %q, want %q", logs.String(), tt.want)
			}
		})
	}
}
