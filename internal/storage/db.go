package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cptspacemanspiff/powerpulse/internal/battery"
	"github.com/cptspacemanspiff/powerpulse/internal/notify"
)

const schema = `
CREATE TABLE IF NOT EXISTS battery_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	percentage REAL NOT NULL,
	is_charging INTEGER NOT NULL,
	power_plugged INTEGER NOT NULL,
	temperature REAL,
	remaining_time REAL
);
CREATE INDEX IF NOT EXISTS idx_battery_history_ts ON battery_history(timestamp);

CREATE TABLE IF NOT EXISTS notifications (
	type TEXT PRIMARY KEY,
	level INTEGER NOT NULL,
	enabled INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const sampleColumns = "timestamp, percentage, is_charging, power_plugged, temperature, remaining_time"

// DB wraps a SQLite database holding battery history and user settings.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	d := &DB{db: db, now: time.Now}
	if err := d.seedNotificationRules(notify.DefaultRules()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed notifications: %w", err)
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// InsertSample appends a battery sample.
func (d *DB) InsertSample(s battery.Sample) error {
	_, err := d.db.Exec(
		"INSERT INTO battery_history ("+sampleColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		s.Timestamp.Unix(), s.Percentage, boolToInt(s.IsCharging), boolToInt(s.PowerPlugged),
		nullFloat(s.Temperature), nullFloat(s.RemainingTime),
	)
	return err
}

// LatestSample returns the most recent sample, or nil if there is none.
func (d *DB) LatestSample() (*battery.Sample, error) {
	row := d.db.QueryRow("SELECT " + sampleColumns + " FROM battery_history ORDER BY timestamp DESC, id DESC LIMIT 1")
	s, err := scanSample(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SamplesInRange returns samples with from <= timestamp <= to, oldest first.
func (d *DB) SamplesInRange(from, to time.Time) ([]battery.Sample, error) {
	return d.samplesInRange(context.Background(), from, to)
}

// Fetch returns the trailing windowDays of history up to now. It implements
// analytics.HistoryProvider.
func (d *DB) Fetch(ctx context.Context, windowDays int) ([]battery.Sample, error) {
	now := d.now()
	from := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	return d.samplesInRange(ctx, from, now)
}

func (d *DB) samplesInRange(ctx context.Context, from, to time.Time) ([]battery.Sample, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT "+sampleColumns+" FROM battery_history WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp, id",
		from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var samples []battery.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(sc scanner) (battery.Sample, error) {
	var (
		s                        battery.Sample
		ts                       int64
		charging, plugged        int
		temperature, remainingTm sql.NullFloat64
	)
	if err := sc.Scan(&ts, &s.Percentage, &charging, &plugged, &temperature, &remainingTm); err != nil {
		return s, err
	}
	s.Timestamp = time.Unix(ts, 0)
	s.IsCharging = charging != 0
	s.PowerPlugged = plugged != 0
	if temperature.Valid {
		s.Temperature = battery.Float(temperature.Float64)
	}
	if remainingTm.Valid {
		s.RemainingTime = battery.Float(remainingTm.Float64)
	}
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
