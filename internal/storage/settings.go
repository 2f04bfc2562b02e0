package storage

import (
	"database/sql"
	"fmt"

	"github.com/cptspacemanspiff/powerpulse/internal/notify"
)

// seedNotificationRules inserts rules whose type is not stored yet.
func (d *DB) seedNotificationRules(rules []notify.Rule) error {
	for _, r := range rules {
		_, err := d.db.Exec(
			"INSERT OR IGNORE INTO notifications (type, level, enabled) VALUES (?, ?, ?)",
			string(r.Type), r.Level, boolToInt(r.Enabled),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// NotificationRules returns the stored threshold rules ordered by type.
func (d *DB) NotificationRules() ([]notify.Rule, error) {
	rows, err := d.db.Query("SELECT type, level, enabled FROM notifications ORDER BY type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []notify.Rule
	for rows.Next() {
		var (
			r       notify.Rule
			typ     string
			enabled int
		)
		if err := rows.Scan(&typ, &r.Level, &enabled); err != nil {
			return nil, err
		}
		r.Type = notify.Type(typ)
		r.Enabled = enabled != 0
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// UpdateNotificationLevel changes the threshold of one rule.
func (d *DB) UpdateNotificationLevel(typ notify.Type, level int) error {
	if err := notify.ValidateLevel(level); err != nil {
		return err
	}
	res, err := d.db.Exec("UPDATE notifications SET level = ? WHERE type = ?", level, string(typ))
	if err != nil {
		return fmt.Errorf("update %s level: %w", typ, err)
	}
	return requireRow(res, typ)
}

// SetNotificationEnabled turns one rule on or off.
func (d *DB) SetNotificationEnabled(typ notify.Type, enabled bool) error {
	res, err := d.db.Exec("UPDATE notifications SET enabled = ? WHERE type = ?", boolToInt(enabled), string(typ))
	if err != nil {
		return fmt.Errorf("update %s enabled: %w", typ, err)
	}
	return requireRow(res, typ)
}

// UpdateNotificationRule sets the threshold and enabled flag of one rule in a
// single statement.
func (d *DB) UpdateNotificationRule(typ notify.Type, level int, enabled bool) error {
	if err := notify.ValidateLevel(level); err != nil {
		return err
	}
	res, err := d.db.Exec("UPDATE notifications SET level = ?, enabled = ? WHERE type = ?", level, boolToInt(enabled), string(typ))
	if err != nil {
		return fmt.Errorf("update %s rule: %w", typ, err)
	}
	return requireRow(res, typ)
}

func requireRow(res sql.Result, typ notify.Type) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("unknown notification type %q", typ)
	}
	return nil
}

// Setting returns the stored value for key, or def if it is unset.
func (d *DB) Setting(key, def string) (string, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (d *DB) SetSetting(key, value string) error {
	_, err := d.db.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	return err
}
