// Package persistence selects the snapshot cache backing slice state between
// entityctl runs.
package persistence

import (
	"context"
	"fmt"

	"github.com/hugperez/jhipster-listener/internal/config"
	"github.com/hugperez/jhipster-listener/internal/infra/persistence/memory"
	"github.com/hugperez/jhipster-listener/internal/infra/persistence/postgres"
	"github.com/hugperez/jhipster-listener/internal/infra/persistence/sqlite"
)

// Store persists opaque bucket payloads. Save is atomic across the buckets it
// receives; buckets not mentioned are left untouched.
type Store interface {
	Save(ctx context.Context, snapshot map[string][]byte) error
	Load(ctx context.Context) (map[string][]byte, error)
	Buckets(ctx context.Context) ([]string, error)
	Close() error
}

// Compile-time assertions that every driver satisfies Store.
var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

// Open builds the store selected by cfg.Driver (sqlite when empty).
func Open(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.CacheSQLite
	}
	switch driver {
	case config.CacheMemory:
		return memory.NewStore(), nil
	case config.CacheSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case config.CachePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown cache driver %s", driver)
	}
}
