// Package backend opens the storage.Storage selected by configuration,
// retrying the initial connection with a doubling backoff.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aanand-mishra/roster-api/internal/config"
	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/storage/mongo"
	"github.com/aanand-mishra/roster-api/internal/storage/sqlite"
)

// Open connects to the configured backend. It makes at most
// cfg.Storage.ConnectRetries attempts, sleeping ConnectBackoff after the
// first failure and doubling the wait after each subsequent one.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	connect, err := connector(cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.Storage.ConnectRetries, 1)
	wait := cfg.Storage.ConnectBackoff

	for attempt := 1; ; attempt++ {
		s, err := connect(ctx, cfg)
		if err == nil {
			return s, nil
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("backend.Open: %s: giving up after %d attempts: %w",
				cfg.Storage.Driver, attempt, err)
		}

		log.Warn("storage connection failed, retrying",
			slog.String("driver", cfg.Storage.Driver),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("backend.Open: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
}

type connectFunc func(context.Context, *config.Config) (storage.Storage, error)

func connector(driver string) (connectFunc, error) {
	switch driver {
	case config.DriverSQLite:
		return func(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
			return sqlite.New(ctx, cfg)
		}, nil
	case config.DriverMongo:
		return func(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
			return mongo.New(ctx, cfg)
		}, nil
	default:
		return nil, fmt.Errorf("backend.Open: unknown storage driver %q", driver)
	}
}
