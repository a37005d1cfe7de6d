package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/de-tools/test-atlas/pkg/services/config"
	"github.com/de-tools/test-atlas/pkg/services/dashboard"
	"github.com/de-tools/test-atlas/pkg/services/querycache"
	"github.com/de-tools/test-atlas/pkg/services/views"
	"github.com/de-tools/test-atlas/pkg/store/activedata"
	"github.com/de-tools/test-atlas/pkg/store/duckdb"
	cachestore "github.com/de-tools/test-atlas/pkg/store/duckdb/querycache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// App holds the components shared by the web server and the CLI.
type App struct {
	Dashboards dashboard.Service
	Cache      querycache.Cache
	Metrics    *prometheus.Registry

	db *sql.DB
}

type Options struct {
	Settings *config.Settings
	// Client overrides the ActiveData client built from settings.
	Client activedata.Client
}

// New wires the dashboard service: dashboard registry, persistent cache store when
// cache.db_path is set, query cache and per-dashboard view catalogs.
func New(ctx context.Context, opts Options) (*App, error) {
	logger := zerolog.Ctx(ctx)
	s := opts.Settings
	if s == nil {
		return nil, errors.New("settings are required")
	}

	registry, err := config.NewRegistry(s.Dashboards.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard registry: %w", err)
	}

	a := &App{Metrics: prometheus.NewRegistry()}

	var store cachestore.Store
	if s.Cache.DBPath != "" {
		a.db, err = duckdb.NewDB(duckdb.Settings{DbPath: s.Cache.DBPath})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		store, err = cachestore.NewStore(a.db)
		if err != nil {
			_ = a.db.Close()
			return nil, fmt.Errorf("failed to create query cache store: %w", err)
		}
		logger.Info().Str("path", s.Cache.DBPath).Msg("persisting query results")
	}

	client := opts.Client
	if client == nil {
		client = activedata.NewClient(s.ActiveData.URL, s.ActiveData.Timeout)
	}

	a.Cache = querycache.NewCache(client, querycache.Options{
		TTL:        s.Cache.TTL,
		Store:      store,
		Registerer: a.Metrics,
	})

	a.Dashboards = dashboard.NewService(registry, func(name string) (views.Catalog, error) {
		return views.NewCatalog(name, views.DefaultTemplates(), a.Cache)
	})

	return a, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
