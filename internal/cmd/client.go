package cmd

import (
	"context"
	"fmt"

	"github.com/sonarlens/sonarlens/internal/config"
	"github.com/sonarlens/sonarlens/internal/history"
	"github.com/sonarlens/sonarlens/internal/pplx"
	"github.com/sonarlens/sonarlens/internal/prompt"
)

// buildClient constructs a Perplexity client from the loaded configuration.
func buildClient() (*pplx.Client, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return pplx.New(cfg.API)
}

// openHistory opens the exchange history store and runs migrations. It
// returns nil without error when history is disabled.
func openHistory(ctx context.Context) (*history.Store, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if !cfg.History.Enabled {
		return nil, nil
	}

	db, err := history.Open(ctx, cfg.History)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// buildRegistry loads the embedded presets plus any presets from the
// configured directory.
func buildRegistry() (prompt.Registry, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return prompt.DefaultRegistry(cfg.Prompts.Dir)
}
