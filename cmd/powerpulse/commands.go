package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cptspacemanspiff/powerpulse/internal/analytics"
	"github.com/cptspacemanspiff/powerpulse/internal/battery"
	"github.com/cptspacemanspiff/powerpulse/internal/collector"
	"github.com/cptspacemanspiff/powerpulse/internal/notify"
	"github.com/cptspacemanspiff/powerpulse/internal/storage"
)

const rule = "----------------------------------------"

func runInfo(out io.Writer, logger *slog.Logger) error {
	s, err := collector.New(logger).Collect()
	if err != nil {
		return fmt.Errorf("could not retrieve battery information: %w", err)
	}
	printSample(out, s)

	if h, err := collector.CollectHealth(); err == nil {
		if h.Manufacturer != "" || h.Model != "" {
			fmt.Fprintf(out, "Battery: %s %s (%s)\n", h.Manufacturer, h.Model, h.Technology)
		}
		if h.CycleCount > 0 {
			fmt.Fprintf(out, "Cycle Count: %d\n", h.CycleCount)
		}
		if h.HealthPct > 0 {
			fmt.Fprintf(out, "Health: %.1f%% of design capacity\n", h.HealthPct)
		}
	} else {
		logger.Debug("battery health unavailable", "err", err)
	}
	return nil
}

func printSample(out io.Writer, s *battery.Sample) {
	fmt.Fprintln(out, "\nCurrent Battery Information")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Battery Level: %.0f%%\n", s.Percentage)
	fmt.Fprintf(out, "Status: %s\n", s.Status())
	fmt.Fprintf(out, "Power Connected: %s\n", yesNo(s.PowerPlugged))
	if s.Temperature != nil {
		fmt.Fprintf(out, "Temperature: %.1f°C\n", *s.Temperature)
	}
	if s.RemainingTime != nil && *s.RemainingTime > 0 {
		label := "Time Remaining"
		if s.IsCharging {
			label = "Time to Full"
		}
		d := time.Duration(*s.RemainingTime) * time.Second
		fmt.Fprintf(out, "Estimated %s: %dh %dm\n", label, int(d.Hours()), int(d.Minutes())%60)
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func runMonitor(out io.Writer, logger *slog.Logger, store *storage.DB, intervalSecs int) error {
	if intervalSecs < 1 {
		return fmt.Errorf("interval must be at least 1 second, got %d", intervalSecs)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	senders := notify.Multi{notify.LogSender{Log: logger}}
	if desktop, err := notify.NewDesktopSender(); err != nil {
		logger.Warn("desktop notifications unavailable", "err", err)
	} else {
		senders = append(senders, desktop)
	}

	fmt.Fprintln(out, "PowerPulse Battery Monitor")
	fmt.Fprintf(out, "Monitoring every %d seconds. Press Ctrl+C to exit.\n", intervalSecs)
	err := monitor(ctx, out, logger, collector.New(logger).Collect, store, senders, time.Duration(intervalSecs)*time.Second)
	fmt.Fprintln(out, "\nMonitoring stopped.")
	return err
}

// monitor records a reading every interval until ctx is done.
func monitor(ctx context.Context, out io.Writer, logger *slog.Logger, collect func() (*battery.Sample, error), store *storage.DB, sender notify.Sender, interval time.Duration) error {
	tracker := notify.NewTracker()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s, err := collect()
		if err != nil {
			logger.Warn("collect failed", "err", err)
		} else {
			if err := store.InsertSample(*s); err != nil {
				return err
			}
			rules, err := store.NotificationRules()
			if err != nil {
				return err
			}
			for _, a := range tracker.Observe(*s, rules) {
				if err := sender.Send(a); err != nil {
					logger.Warn("send notification", "type", string(a.Type), "err", err)
				}
			}
			fmt.Fprintf(out, "\rBattery: %.0f%% - %s", s.Percentage, s.Status())
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func buildReport(store analytics.HistoryProvider, days int) (*analytics.Report, error) {
	if err := battery.ValidateWindow(days); err != nil {
		return nil, err
	}
	return analytics.BuildReport(context.Background(), store, days)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStats(out io.Writer, store analytics.HistoryProvider, days int, asJSON bool) error {
	r, err := buildReport(store, days)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(out, r.Statistics)
	}

	st := r.Statistics
	fmt.Fprintf(out, "\nBattery Statistics (Last %d days)\n", days)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Average Discharge Rate: %s\n", withUnit(st.AverageDischargeRate, "% per hour"))
	fmt.Fprintf(out, "Average Charge Rate: %s\n", withUnit(st.AverageChargeRate, "% per hour"))
	fmt.Fprintf(out, "Discharge/Charge Cycles: %d\n", st.DischargeCycles)
	fmt.Fprintf(out, "Full Charges: %d\n", st.FullCharges)
	fmt.Fprintf(out, "Average Daily Usage: %s\n", withUnit(st.AverageDailyUsage, "%"))
	fmt.Fprintf(out, "Longest Battery Session: %s\n", withUnit(st.LongestSession, " hours"))
	return nil
}

func withUnit(o analytics.Optional, unit string) string {
	if !o.Valid {
		return o.Format(2)
	}
	return o.Format(2) + unit
}

func runSpans(out io.Writer, store analytics.HistoryProvider, days int, asJSON bool) error {
	r, err := buildReport(store, days)
	if err != nil {
		return err
	}
	if asJSON {
		spans := r.ChargingSpans
		if spans == nil {
			spans = []analytics.Span{}
		}
		return printJSON(out, spans)
	}

	fmt.Fprintf(out, "\nCharging Periods (Last %d days)\n", days)
	fmt.Fprintln(out, rule)
	if len(r.ChargingSpans) == 0 {
		fmt.Fprintln(out, "No data")
		return nil
	}
	for _, s := range r.ChargingSpans {
		fmt.Fprintf(out, "%s - %s  (%s)\n",
			s.Start.Local().Format("2006-01-02 15:04"),
			s.End.Local().Format("2006-01-02 15:04"),
			s.Duration().Round(time.Minute))
	}
	return nil
}

func runDaily(out io.Writer, store analytics.HistoryProvider, days int, asJSON bool) error {
	r, err := buildReport(store, days)
	if err != nil {
		return err
	}
	if asJSON {
		daily := r.Daily
		if daily == nil {
			daily = []analytics.DailyAggregate{}
		}
		return printJSON(out, daily)
	}

	fmt.Fprintf(out, "\nDaily Usage (Last %d days)\n", days)
	fmt.Fprintln(out, rule)
	if len(r.Daily) == 0 {
		fmt.Fprintln(out, "No data")
		return nil
	}
	fmt.Fprintf(out, "%-10s  %6s  %6s  %6s  %9s\n", "Date", "Min", "Max", "Usage", "Charging")
	for _, d := range r.Daily {
		fmt.Fprintf(out, "%-10s  %5.1f%%  %5.1f%%  %5.1f%%  %8.1f%%\n",
			d.Date.Format("2006-01-02"), d.Min, d.Max, d.Usage, d.ChargingRatio)
	}
	return nil
}

func runNotification(out io.Writer, store *storage.DB, cmd *notificationCmd) error {
	if cmd.List {
		rules, err := store.NotificationRules()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nNotification Settings")
		fmt.Fprintln(out, rule)
		for _, r := range rules {
			status := "Disabled"
			if r.Enabled {
				status = "Enabled"
			}
			fmt.Fprintf(out, "%s: %d%% - %s\n", r.Type, r.Level, status)
		}
		return nil
	}

	if cmd.Type == "" {
		return errors.New("use --list to see current settings or provide --type and --level/--enable/--disable")
	}
	if cmd.Enable && cmd.Disable {
		return errors.New("--enable and --disable are mutually exclusive")
	}
	typ, err := notify.ParseType(cmd.Type)
	if err != nil {
		return err
	}

	switch {
	case cmd.Level != nil:
		if err := store.UpdateNotificationLevel(typ, *cmd.Level); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated %s notification level to %d%%\n", typ, *cmd.Level)
	case cmd.Enable || cmd.Disable:
		if err := store.SetNotificationEnabled(typ, cmd.Enable); err != nil {
			return err
		}
		verb := "Disabled"
		if cmd.Enable {
			verb = "Enabled"
		}
		fmt.Fprintf(out, "%s %s notifications\n", verb, typ)
	default:
		return errors.New("provide --level, --enable or --disable with --type")
	}
	return nil
}

func runCleanup(out io.Writer, store *storage.DB, days int) error {
	if days < 1 {
		return fmt.Errorf("days must be at least 1, got %d", days)
	}
	deleted, err := store.DeleteOlderThan(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Cleaned up %d records older than %d days.\n", deleted, days)
	return nil
}
