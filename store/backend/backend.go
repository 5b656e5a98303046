// Package backend builds the configured list store.
package backend

import (
	"context"
	"fmt"

	"github.com/NomadCrew/customer-feedback-portal/config"
	"github.com/NomadCrew/customer-feedback-portal/db"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/store/postgres"
	"github.com/NomadCrew/customer-feedback-portal/store/sharepoint"
	"github.com/NomadCrew/customer-feedback-portal/store/supabase"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend is a constructed list store plus what it needs to shut down.
type Backend struct {
	Name  config.ListBackend
	Store store.ListStore
	// Identity is nil when the backend cannot look up the current user.
	Identity store.IdentityProvider
	// Pool is set for the postgres backend so health checks can ping it.
	Pool  *pgxpool.Pool
	close func()
}

// Close releases connections held by the backend.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// New constructs the list backend selected by cfg.List.Backend.
func New(ctx context.Context, cfg *config.Config) (*Backend, error) {
	log := logger.GetLogger()

	switch cfg.List.Backend {
	case config.BackendSharePoint:
		client, err := sharepoint.NewClient(sharepoint.Config{
			SiteURL:     cfg.SharePoint.SiteURL,
			AccessToken: cfg.SharePoint.AccessToken,
			Timeout:     cfg.SharePoint.Timeout,
		})
		if err != nil {
			return nil, err
		}
		log.Infow("Using SharePoint list backend", "site", cfg.SharePoint.SiteURL)
		return &Backend{Name: cfg.List.Backend, Store: client, Identity: client}, nil

	case config.BackendSupabase:
		s, err := supabase.NewStore(supabase.Config{
			URL:    cfg.Supabase.URL,
			Key:    cfg.Supabase.Key,
			Schema: cfg.Supabase.Schema,
		})
		if err != nil {
			return nil, err
		}
		log.Infow("Using Supabase list backend", "url", cfg.Supabase.URL)
		return &Backend{Name: cfg.List.Backend, Store: s}, nil

	case config.BackendPostgres:
		if cfg.Database.RunMigrations {
			if err := db.RunMigrations(cfg.Database.URL()); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		poolConfig, err := config.ConfigurePostgresPool(&cfg.Database)
		if err != nil {
			return nil, err
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Infow("Using PostgreSQL list backend", "schema", cfg.Database.Schema)
		return &Backend{
			Name:  cfg.List.Backend,
			Store: postgres.NewPgListStore(pool, cfg.Database.Schema),
			Pool:  pool,
			close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown list backend %q", cfg.List.Backend)
	}
}
