package repositories

import (
	"context"
	"time"

	intconfig "dashboard/internal/config"
	intdb "dashboard/internal/db"
)

// KeyValueStorage is what the session mirrors its keys into.
type KeyValueStorage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// OpenStorage returns the storage selected by env.StorageDriver. The memory
// driver keeps the session only for the life of the process.
func OpenStorage(ctx context.Context, env intconfig.Env) (KeyValueStorage, error) {
	if env.StorageDriver == intconfig.DriverMemory {
		return NewMemoryStorage(), nil
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := intdb.EnsureStorageTable(ctx, db, env.StorageDriver); err != nil {
		return nil, err
	}
	return StorageRepository{DB: db}, nil
}
