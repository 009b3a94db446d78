package db

import (
	"context"
	"database/sql"
	"fmt"
)

// StorageTable holds the persisted dashboard session keys.
const StorageTable = "dashboard_storage"

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// HasTable checks table presence for the given driver ("mysql" or "sqlite3").
func HasTable(ctx context.Context, q QueryRower, driverName, table string) bool {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1`
	if driverName == "sqlite3" {
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ? LIMIT 1`
	}

	var name sql.NullString
	if err := q.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// EnsureStorageTable creates the key/value table when missing.
func EnsureStorageTable(ctx context.Context, db Execer, driverName string) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS ` + StorageTable + ` (
			storage_key   VARCHAR(64)  NOT NULL PRIMARY KEY,
			storage_value MEDIUMTEXT   NOT NULL,
			updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	if driverName == "sqlite3" {
		ddl = `
		CREATE TABLE IF NOT EXISTS ` + StorageTable + ` (
			storage_key   TEXT     NOT NULL PRIMARY KEY,
			storage_value TEXT     NOT NULL,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", StorageTable, err)
	}
	return nil
}
