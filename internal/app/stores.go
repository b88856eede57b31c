package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/great-cookie/db"
	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/cookie"
	"github.com/xenking/great-cookie/internal/domain/order"
	"github.com/xenking/great-cookie/internal/domain/review"
	"github.com/xenking/great-cookie/internal/seed"
	"github.com/xenking/great-cookie/internal/storage/memory"
	"github.com/xenking/great-cookie/internal/storage/postgres"
	"github.com/xenking/great-cookie/pkg/health"
)

// Stores groups the repositories of one storage driver.
type Stores struct {
	Cookies cookie.Repository
	Orders  order.Repository
	Reviews review.Repository
	APIKeys auth.Store

	// Pinger is nil for in-process storage.
	Pinger health.Pinger
	Close  func()
}

// OpenStores connects the configured storage driver and applies migrations.
func OpenStores(ctx context.Context, cfg *Config) (*Stores, error) {
	switch cfg.Storage {
	case StorageMemory:
		return &Stores{
			Cookies: memory.NewCookies(),
			Orders:  memory.NewOrders(),
			Reviews: memory.NewReviews(),
			APIKeys: memory.NewAPIKeys(),
			Close:   func() {},
		}, nil
	case StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return &Stores{
			Cookies: postgres.NewCookieRepository(pool),
			Orders:  postgres.NewOrderRepository(pool),
			Reviews: postgres.NewReviewRepository(pool),
			APIKeys: postgres.NewAPIKeyRepository(pool),
			Pinger:  pool,
			Close:   pool.Close,
		}, nil
	default:
		return nil, errors.Errorf("unknown storage %q", cfg.Storage)
	}
}

// Bootstrap loads the starter menu and registers the configured admin key.
func Bootstrap(ctx context.Context, lg *zap.Logger, cfg *Config, s *Stores) error {
	if cfg.SeedMenu {
		cookies, err := seed.ParseCookies(db.SeedCookies)
		if err != nil {
			return errors.Wrap(err, "parse seed menu")
		}
		added, err := seed.Cookies(ctx, s.Cookies, cookies, time.Now())
		if err != nil {
			return errors.Wrap(err, "seed menu")
		}
		lg.Info("Menu seeded", zap.Int("added", added))
	}
	if cfg.AdminAPIKey != "" {
		id, err := seed.APIKey(ctx, s.APIKeys, []byte(cfg.APIKeyPepper), "bootstrap", cfg.AdminAPIKey)
		if err != nil {
			return errors.Wrap(err, "register admin key")
		}
		lg.Info("Admin API key registered", zap.String("id", id))
	}
	return nil
}
