package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ─── Engagement State ───────────────────────────────────────────────────────
// Whole-entity blobs keyed by name. One UPSERT per entity keeps each save atomic.

// Load returns the blob stored under key. found is false if the key was never saved.
func (d *DB) Load(key string) ([]byte, bool, error) {
	var value []byte
	err := d.db.QueryRow(`SELECT value FROM engagement_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return value, true, nil
}

// Save replaces the blob stored under key.
func (d *DB) Save(key string, value []byte) error {
	_, err := d.db.Exec(
		`INSERT INTO engagement_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored entity key, for diagnostics.
func (d *DB) Keys() ([]string, error) {
	rows, err := d.db.Query(`SELECT key FROM engagement_state ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
