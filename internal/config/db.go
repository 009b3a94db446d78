package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"dashboard/internal/utils"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Storage drivers. DriverMemory needs no database.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
	DriverMemory = "memory"
)

var (
	DB       *sql.DB
	DBDriver string
	dbMu     sync.Mutex
)

// ConnectDB opens the session storage database (idempotent).
func ConnectDB(env Env) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}

	switch env.StorageDriver {
	case DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", env.StorageDriver)
	}
	if env.StorageDSN == "" {
		return nil, fmt.Errorf("storage dsn is empty")
	}

	if env.StorageDriver == "sqlite3" {
		if err := ensureSQLiteDir(env.StorageDSN); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(env.StorageDriver, env.StorageDSN)
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	if env.StorageDriver == "mysql" {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(10 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
	} else {
		// sqlite serializes writers anyway
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping storage db: %w", err)
	}

	DB = db
	DBDriver = env.StorageDriver
	utils.L().Info("storage database connected", zap.String("driver", env.StorageDriver))
	return DB, nil
}

func EnsureDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB == nil {
		return fmt.Errorf("storage database not connected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return DB.PingContext(ctx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
		DBDriver = ""
	}
}

func ensureSQLiteDir(dsn string) error {
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	return nil
}
