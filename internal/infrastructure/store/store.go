// Package store opens the UserRepository backend selected by STORE_DRIVER.
package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-accounts/config"
	"github.com/oksasatya/go-user-accounts/internal/domain/repository"
	meminfra "github.com/oksasatya/go-user-accounts/internal/infrastructure/memory"
	mongoinfra "github.com/oksasatya/go-user-accounts/internal/infrastructure/mongo"
	pginfra "github.com/oksasatya/go-user-accounts/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
)

// Open connects to the configured backend and prepares its schema.
// The returned close func releases the connection.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		helpers.LogInfo(logger, "user store ready", logrus.Fields{"driver": cfg.StoreDriver})
		return pginfra.NewUserRepository(pool), pool.Close, nil

	case config.StoreMongo:
		client, err := mongoinfra.NewClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		repo := mongoinfra.NewUserRepository(client, cfg.MongoDatabase, cfg.MongoCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		helpers.LogInfo(logger, "user store ready", logrus.Fields{"driver": cfg.StoreDriver})
		return repo, closeFn, nil

	case config.StoreMemory:
		logger.WithField("driver", cfg.StoreDriver).Warn("user store is in-memory; data is lost on exit")
		return meminfra.NewUserRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
