// Package storage opens the repository backend selected by configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/infra/boltstore"
	"classroom_sync/internal/infra/config"
	"classroom_sync/internal/infra/database"
	"classroom_sync/internal/infra/memstore"
)

// Backend is an opened store. Close releases the underlying connection or file.
type Backend struct {
	Driver string
	Repos  store.Repositories
	// SQL is set for the postgres driver only.
	SQL   *sql.DB
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the backend named by cfg.StoreDriver. The postgres schema is
// migrated when migrate is true.
func Open(ctx context.Context, cfg *config.AppConfig, migrate bool) (*Backend, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := database.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &Backend{Driver: cfg.StoreDriver, Repos: database.NewRepositories(db), SQL: db, close: db.Close}, nil
	case "bolt":
		s, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store at %s: %w", cfg.BoltPath, err)
		}
		return &Backend{Driver: cfg.StoreDriver, Repos: s.Repositories(), close: s.Close}, nil
	case "memory":
		return &Backend{Driver: cfg.StoreDriver, Repos: memstore.NewRepositories(memstore.NewDB())}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
