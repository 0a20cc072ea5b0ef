package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hugperez/jhipster-listener/internal/config"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	mem, err := Open(ctx, config.CacheConfig{Driver: config.CacheMemory})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if err := mem.Save(ctx, map[string][]byte{"entityA": []byte(`{}`)}); err != nil {
		t.Fatalf("memory save: %v", err)
	}

	lite, err := Open(ctx, config.CacheConfig{SQLitePath: filepath.Join(t.TempDir(), "cache.db")})
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = lite.Close() })
	names, err := lite.Buckets(ctx)
	if err != nil || len(names) != 0 {
		t.Fatalf("fresh sqlite buckets = %v %v", names, err)
	}

	if _, err := Open(ctx, config.CacheConfig{Driver: "redis"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
