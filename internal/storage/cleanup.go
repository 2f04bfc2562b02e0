package storage

import (
	"fmt"
	"time"
)

// DeleteOlderThan deletes samples taken before the given time and returns
// the number of deleted rows.
func (d *DB) DeleteOlderThan(before time.Time) (int64, error) {
	res, err := d.db.Exec("DELETE FROM battery_history WHERE timestamp < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete from battery_history: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
