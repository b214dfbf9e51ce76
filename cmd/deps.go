package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/secrets"
	"github.com/spigell/teacherlink-search/internal/store"
	"github.com/spigell/teacherlink-search/internal/teacherlink"
)

func newClient(config *Config, logger *zap.Logger) (*teacherlink.Client, error) {
	if err := config.requireAPI(); err != nil {
		return nil, err
	}

	// The candidate endpoints work without a key; some deployments require one.
	apiKey, err := secrets.Optional(secrets.Source{
		Name: "teacherlink api key",
		File: config.APIKeyFile,
		Env:  envPrefix + "_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	return teacherlink.New(config.TeacherLink, apiKey, logger)
}

func newEngine(config *Config, logger *zap.Logger) (*filtering.Engine, error) {
	retention, err := config.retention()
	if err != nil {
		return nil, err
	}
	return filtering.New(&filtering.Config{Retention: retention}, logger), nil
}

func newStore(config *Config, logger *zap.Logger) (store.FilterStore, error) {
	cfg := config.Store
	if cfg == nil {
		cfg = &store.Config{}
	}
	return store.New(cfg, logger)
}

// loadPool returns an empty pool when loading fails so the listing stays usable.
func loadPool(ctx context.Context, client *teacherlink.Client, logger *zap.Logger) []*candidate.Candidate {
	pool, err := client.LoadPool(ctx)
	if err != nil {
		logger.Warn("continuing with an empty candidate pool", zap.Error(err))
	}
	if pool == nil {
		return []*candidate.Candidate{}
	}
	return pool.Items
}
