// Package blob is the entry point to blob storage. Callers depend on Store and
// Open; the concrete drivers live under internal/infra/blob.
package blob

import (
	"context"
	"fmt"

	"github.com/hugperez/jhipster-listener/internal/blob/core"
	"github.com/hugperez/jhipster-listener/internal/config"
	fsstore "github.com/hugperez/jhipster-listener/internal/infra/blob/fs"
	memstore "github.com/hugperez/jhipster-listener/internal/infra/blob/memory"
	s3store "github.com/hugperez/jhipster-listener/internal/infra/blob/s3"
)

type (
	Store      = core.Store
	Driver     = core.Driver
	PutOptions = core.PutOptions
	Info       = core.Info
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound = core.ErrNotFound
	ErrExists   = core.ErrExists
)

// Open builds the store selected by cfg.Driver (default fs).
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverMemory:
		return memstore.New(), nil
	case DriverS3:
		return s3store.New(ctx, s3store.Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns an in-memory store.
func NewMemory() Store { return memstore.New() }
