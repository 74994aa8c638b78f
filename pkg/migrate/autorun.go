package migrate

import (
	"context"
	"fmt"

	"github.com/dnghuy/vietcart-backend/pkg/config"
	"github.com/dnghuy/vietcart-backend/pkg/db"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot when autorun is enabled.
// Production deploys run migrations as a separate step instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || client == nil {
		return fmt.Errorf("config and db client are required")
	}
	if !cfg.Migrate.AutoRun {
		return nil
	}
	if cfg.App.IsProd() {
		logg.Warn(ctx, "migration autorun ignored in prod")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle for migrations: %w", err)
	}

	dir := cfg.Migrate.Dir
	if dir == "" {
		dir = DefaultDir
	}
	logg.Info(ctx, "running dev migrations")
	return Up(ctx, sqlDB, dir)
}
