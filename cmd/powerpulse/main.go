package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"

	"github.com/cptspacemanspiff/powerpulse/internal/config"
	"github.com/cptspacemanspiff/powerpulse/internal/storage"
)

var version = "<not set>"

type Args struct {
	Info         *infoCmd         `arg:"subcommand:info" help:"show the current battery reading"`
	Monitor      *monitorCmd      `arg:"subcommand:monitor" help:"print and record a reading every interval"`
	Stats        *windowCmd       `arg:"subcommand:stats" help:"show usage statistics"`
	Spans        *windowCmd       `arg:"subcommand:spans" help:"list charging periods"`
	Daily        *windowCmd       `arg:"subcommand:daily" help:"show per-day usage"`
	Notification *notificationCmd `arg:"subcommand:notification" help:"view or change notification thresholds"`
	Cleanup      *cleanupCmd      `arg:"subcommand:cleanup" help:"delete old history"`

	Config  string `arg:"--config" help:"path to the TOML config file"`
	DB      string `arg:"--db" help:"override storage.db_path"`
	Verbose bool   `arg:"-v,--verbose" help:"log debug output to stderr"`
}

type infoCmd struct{}

type monitorCmd struct {
	Interval int `arg:"--interval" default:"30" help:"seconds between readings"`
}

type windowCmd struct {
	Days int  `arg:"--days" help:"trailing window in days (default analytics.window_days)"`
	JSON bool `arg:"--json" help:"print JSON instead of text"`
}

type notificationCmd struct {
	List    bool   `arg:"--list" help:"list current thresholds"`
	Type    string `arg:"--type" help:"low_battery, full_charge or custom_level"`
	Level   *int   `arg:"--level" help:"threshold percentage"`
	Enable  bool   `arg:"--enable" help:"enable the notification"`
	Disable bool   `arg:"--disable" help:"disable the notification"`
}

type cleanupCmd struct {
	Days int `arg:"--days" help:"keep history newer than this many days (default cleanup.retention_days)"`
}

func (Args) Version() string {
	return "powerpulse " + version
}

func (Args) Description() string {
	return "powerpulse reports battery history recorded by powerpulse-daemon."
}

func main() {
	args := Args{Config: config.DefaultPath}
	p := arg.MustParse(&args)
	if p.Subcommand() == nil {
		args.Info = &infoCmd{}
	}

	if err := run(args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args Args, out io.Writer) error {
	level := slog.LevelWarn
	if args.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadOrDefault(args.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if args.DB != "" {
		cfg.Storage.DBPath = args.DB
	}

	if args.Info != nil {
		return runInfo(out, logger)
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch {
	case args.Monitor != nil:
		return runMonitor(out, logger, store, args.Monitor.Interval)
	case args.Stats != nil:
		return runStats(out, store, windowOr(args.Stats.Days, cfg), args.Stats.JSON)
	case args.Spans != nil:
		return runSpans(out, store, windowOr(args.Spans.Days, cfg), args.Spans.JSON)
	case args.Daily != nil:
		return runDaily(out, store, windowOr(args.Daily.Days, cfg), args.Daily.JSON)
	case args.Notification != nil:
		return runNotification(out, store, args.Notification)
	case args.Cleanup != nil:
		days := args.Cleanup.Days
		if days == 0 {
			days = cfg.Cleanup.RetentionDays
		}
		return runCleanup(out, store, days)
	}
	return nil
}

func windowOr(days int, cfg *config.Config) int {
	if days == 0 {
		return cfg.Analytics.WindowDays
	}
	return days
}
