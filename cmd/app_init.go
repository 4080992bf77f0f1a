package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tradeforge/stratgen/internal/catalog"
	"github.com/tradeforge/stratgen/internal/orchestrator"
	"github.com/tradeforge/stratgen/internal/provider"
	"github.com/tradeforge/stratgen/internal/store"
	"github.com/tradeforge/stratgen/internal/validator"
)

// appEnv holds the initialized components shared by the generate, providers
// and serve commands.
type appEnv struct {
	Catalog      *catalog.Catalog
	Registry     *provider.Registry
	Orchestrator *orchestrator.Orchestrator
	History      store.Store // nil when history is disabled
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.History != nil {
		_ = e.History.Close()
	}
}

// initApp builds providers, catalog, history store, and the orchestrator.
// Callers should defer env.Close().
func initApp(ctx context.Context) (*appEnv, error) {
	reg := provider.FromConfig(cfg.Providers)
	if reg.Len() == 0 {
		return nil, eris.New("no providers enabled, check provider config and api keys")
	}

	cat := catalog.New()
	if cfg.Catalog.SeedFile != "" {
		n, err := cat.LoadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, eris.Wrapf(err, "load seed file %s", cfg.Catalog.SeedFile)
		}
		zap.L().Info("loaded seed templates",
			zap.String("file", cfg.Catalog.SeedFile),
			zap.Int("count", n),
		)
	}

	history, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open history store")
	}
	if history != nil {
		if err := history.Migrate(ctx); err != nil {
			_ = history.Close()
			return nil, eris.Wrap(err, "migrate history store")
		}
	}

	orch := orchestrator.New(reg, validator.New(), cat, history, cfg.Providers.Primary, cfg.Orchestrator)

	return &appEnv{
		Catalog:      cat,
		Registry:     reg,
		Orchestrator: orch,
		History:      history,
	}, nil
}
