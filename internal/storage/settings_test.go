package storage

import (
	"path/filepath"
	"testing"

	"github.com/cptspacemanspiff/powerpulse/internal/notify"
)

func ruleByType(t *testing.T, db *DB, typ notify.Type) notify.Rule {
	t.Helper()

	rules, err := db.NotificationRules()
	if err != nil {
		t.Fatalf("NotificationRules() error = %v", err)
	}
	for _, r := range rules {
		if r.Type == typ {
			return r
		}
	}
	t.Fatalf("NotificationRules() has no %s rule", typ)
	return notify.Rule{}
}

func TestDefaultNotificationRules(t *testing.T) {
	db := openTestDB(t)

	rules, err := db.NotificationRules()
	if err != nil {
		t.Fatalf("NotificationRules() error = %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("NotificationRules() = %#v, want 3 rules", rules)
	}
	for _, want := range notify.DefaultRules() {
		if got := ruleByType(t, db, want.Type); got != want {
			t.Fatalf("rule %s = %#v, want %#v", want.Type, got, want)
		}
	}
}

func TestNotificationRulesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.UpdateNotificationLevel(notify.LowBattery, 15); err != nil {
		t.Fatalf("UpdateNotificationLevel() error = %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	if got := ruleByType(t, db, notify.LowBattery); got.Level != 15 {
		t.Fatalf("low_battery level after reopen = %d, want 15", got.Level)
	}
}

func TestUpdateNotificationLevel(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpdateNotificationLevel(notify.CustomLevel, 90); err != nil {
		t.Fatalf("UpdateNotificationLevel() error = %v", err)
	}
	if got := ruleByType(t, db, notify.CustomLevel); got.Level != 90 || got.Enabled {
		t.Fatalf("custom_level = %#v, want level=90 disabled", got)
	}

	if err := db.UpdateNotificationLevel(notify.CustomLevel, 101); err == nil {
		t.Fatal("UpdateNotificationLevel(101) succeeded, want error")
	}
	if err := db.UpdateNotificationLevel(notify.Type("overheat"), 50); err == nil {
		t.Fatal("UpdateNotificationLevel(unknown) succeeded, want error")
	}
}

func TestSetNotificationEnabled(t *testing.T) {
	db := openTestDB(t)

	if err := db.SetNotificationEnabled(notify.CustomLevel, true); err != nil {
		t.Fatalf("SetNotificationEnabled() error = %v", err)
	}
	if got := ruleByType(t, db, notify.CustomLevel); !got.Enabled {
		t.Fatalf("custom_level = %#v, want enabled", got)
	}
	if err := db.SetNotificationEnabled(notify.Type("overheat"), true); err == nil {
		t.Fatal("SetNotificationEnabled(unknown) succeeded, want error")
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)

	v, err := db.Setting("last_cleanup", "never")
	if err != nil {
		t.Fatalf("Setting() error = %v", err)
	}
	if v != "never" {
		t.Fatalf("Setting() = %q, want default", v)
	}

	for _, want := range []string{"100", "200"} {
		if err := db.SetSetting("last_cleanup", want); err != nil {
			t.Fatalf("SetSetting() error = %v", err)
		}
		v, err = db.Setting("last_cleanup", "never")
		if err != nil {
			t.Fatalf("Setting() error = %v", err)
		}
		if v != want {
			t.Fatalf("Setting() = %q, want %q", v, want)
		}
	}
}

func TestUpdateNotificationRule(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpdateNotificationRule(notify.CustomLevel, 90, true); err != nil {
		t.Fatalf("UpdateNotificationRule() error = %v", err)
	}
	want := notify.Rule{Type: notify.CustomLevel, Level: 90, Enabled: true}
	if got := ruleByType(t, db, notify.CustomLevel); got != want {
		t.Fatalf("custom_level = %#v, want %#v", got, want)
	}

	// A rejected update leaves both fields as they were.
	if err := db.UpdateNotificationRule(notify.CustomLevel, 101, false); err == nil {
		t.Fatal("UpdateNotificationRule(101) succeeded, want error")
	}
	if got := ruleByType(t, db, notify.CustomLevel); got != want {
		t.Fatalf("custom_level after rejected update = %#v, want %#v", got, want)
	}

	if err := db.UpdateNotificationRule(notify.Type("overheat"), 50, true); err == nil {
		t.Fatal("UpdateNotificationRule(unknown) succeeded, want error")
	}
}
