package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Setting keys used across the application.
const (
	SettingPasswordHash = "password_hash"
	SettingSortKey      = "sort_key"
	SettingSortDesc     = "sort_desc"
	SettingLastScan     = "last_scan_time"
)

// GetSetting retrieves a setting value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetSetting(ctx context.Context, key string) (string, error) {
	done := observeQuery("get_setting")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		done(err)
		return "", err
	}
	done(nil)
	return value, nil
}

// SetSetting sets a setting key-value pair.
func (d *Database) SetSetting(ctx context.Context, key, value string) error {
	done := observeQuery("set_setting")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = strftime('%s', 'now')
	`, key, value)
	done(err)
	return err
}

// DeleteSetting removes a setting key. Deleting an absent key is a no-op.
func (d *Database) DeleteSetting(ctx context.Context, key string) error {
	done := observeQuery("set_setting")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	done(err)
	return err
}

// GetLastScanTime returns the timestamp of the last completed scan.
// Returns zero time if never run.
func (d *Database) GetLastScanTime(ctx context.Context) (time.Time, error) {
	value, err := d.GetSetting(ctx, SettingLastScan)
	if errors.Is(err, sql.ErrNoRows) {
		// Key doesn't exist, never run
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return timestamp, nil
}

// SetLastScanTime stores the timestamp of the last completed scan.
func (d *Database) SetLastScanTime(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		// Clear the value
		return d.SetSetting(ctx, SettingLastScan, "")
	}
	return d.SetSetting(ctx, SettingLastScan, t.Format(time.RFC3339))
}
