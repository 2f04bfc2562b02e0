package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cptspacemanspiff/powerpulse/internal/collector"
	"github.com/cptspacemanspiff/powerpulse/internal/config"
	dbussvc "github.com/cptspacemanspiff/powerpulse/internal/dbus"
	"github.com/cptspacemanspiff/powerpulse/internal/notify"
	"github.com/cptspacemanspiff/powerpulse/internal/storage"
)

// cleanupCheckInterval is how often the loop asks whether a cleanup is due.
const cleanupCheckInterval = time.Hour

func main() {
	verbose := flag.Bool("verbose", false, "enable all verbose logging (equivalent to -log=all)")
	logFlag := flag.String("log", "", "comma-separated log topics: battery,notify,cleanup,dbus,sleep (or 'all')")
	resetDB := flag.Bool("reset-db", false, "delete the database and start fresh")
	configPath := flag.String("config", config.DefaultPath, "path to the TOML config file")
	flag.Parse()

	handler := &topicHandler{
		inner:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		topics: parseTopics(*logFlag, *verbose),
	}
	logger := slog.New(handler)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}

	dbPath := cfg.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("create data dir", "err", err)
		os.Exit(1)
	}

	if *resetDB {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
				logger.Error("delete database", "err", err)
				os.Exit(1)
			}
		}
		logger.Info("database deleted", "path", dbPath)
		return
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := dbussvc.NewService(store, logger.With("topic", "dbus"))
	conn, err := svc.Export()
	if err != nil {
		logger.Error("export dbus service", "err", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("D-Bus service registered", "name", "io.github.PowerPulse")

	notifyLog := logger.With("topic", "notify")
	senders := notify.Multi{notify.LogSender{Log: notifyLog}}
	if desktop, err := notify.NewDesktopSender(); err != nil {
		logger.Warn("desktop notifications unavailable", "err", err)
	} else {
		senders = append(senders, desktop)
	}

	d := &daemon{
		cfg:        cfg,
		store:      store,
		collect:    collector.New(logger.With("topic", "battery")).Collect,
		tracker:    notify.NewTracker(),
		sender:     senders,
		now:        time.Now,
		batteryLog: logger.With("topic", "battery"),
		notifyLog:  notifyLog,
		cleanupLog: logger.With("topic", "cleanup"),
	}

	// Sample on both edges of a suspend so the timeline brackets the gap.
	var sleepCh <-chan bool
	if mon, err := collector.NewSuspendMonitor(logger.With("topic", "sleep")); err != nil {
		logger.Warn("suspend monitor unavailable", "err", err)
	} else {
		sleepCh = mon.Events()
		defer mon.Close()
	}

	interval := time.Duration(cfg.Collection.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	cleanupTicker := time.NewTicker(cleanupCheckInterval)
	defer cleanupTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("powerpulse-daemon started", "interval", interval, "db", dbPath)
	d.cleanupIfDue()
	d.sample()
	for {
		select {
		case <-ticker.C:
			d.sample()
		case <-cleanupTicker.C:
			d.cleanupIfDue()
		case sleeping := <-sleepCh:
			d.sample()
			if !sleeping {
				ticker.Reset(interval)
			}
		case <-sigCh:
			logger.Info("shutting down")
			return
		}
	}
}
