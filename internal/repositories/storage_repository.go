package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "dashboard/internal/config"
	intdb "dashboard/internal/db"
)

// StorageRepository is the durable key/value storage behind the session.
// REPLACE INTO is understood by both MySQL and SQLite.
type StorageRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func (r StorageRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r StorageRepository) ctx() (context.Context, context.CancelFunc) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// Get returns the value for key; ok is false when the key is absent.
func (r StorageRepository) Get(key string) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("storage key is empty")
	}
	db := r.db()
	if db == nil {
		return "", false, fmt.Errorf("storage database not connected")
	}
	ctx, cancel := r.ctx()
	defer cancel()

	var value string
	err := db.QueryRowContext(ctx,
		`SELECT storage_value FROM `+intdb.StorageTable+` WHERE storage_key = ? LIMIT 1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (r StorageRepository) Set(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("storage key is empty")
	}
	db := r.db()
	if db == nil {
		return fmt.Errorf("storage database not connected")
	}
	ctx, cancel := r.ctx()
	defer cancel()

	if _, err := db.ExecContext(ctx,
		`REPLACE INTO `+intdb.StorageTable+` (storage_key, storage_value) VALUES (?, ?)`, key, value,
	); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error.
func (r StorageRepository) Remove(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("storage key is empty")
	}
	db := r.db()
	if db == nil {
		return fmt.Errorf("storage database not connected")
	}
	ctx, cancel := r.ctx()
	defer cancel()

	if _, err := db.ExecContext(ctx,
		`DELETE FROM `+intdb.StorageTable+` WHERE storage_key = ?`, key,
	); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Count returns the number of stored keys; used by the storage health check.
func (r StorageRepository) Count(ctx context.Context) (int, error) {
	db := r.db()
	if db == nil {
		return 0, fmt.Errorf("storage database not connected")
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+intdb.StorageTable).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
