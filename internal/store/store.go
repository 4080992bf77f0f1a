// Package store persists generation history behind a driver-agnostic
// interface with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/tradeforge/stratgen/internal/config"
	"github.com/tradeforge/stratgen/internal/model"
)

// Filter specifies criteria for listing generations.
type Filter struct {
	UserID string                 `json:"user_id,omitempty"`
	Status model.GenerationStatus `json:"status,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
	Offset int                    `json:"offset,omitempty"`
}

// Store defines the persistence interface for generation history.
type Store interface {
	SaveGeneration(ctx context.Context, gen model.Generation) error
	GetGeneration(ctx context.Context, id string) (*model.Generation, error)
	ListGenerations(ctx context.Context, filter Filter) ([]model.Generation, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the store the config selects. An empty driver returns nil with
// no error; callers treat a nil store as history disabled.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
