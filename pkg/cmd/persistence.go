// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/agarg/collabot/pkg/persistence"
	"github.com/agarg/collabot/pkg/persistence/file"
	"github.com/agarg/collabot/pkg/persistence/postgres"
	"github.com/agarg/collabot/pkg/persistence/redis"
)

// NewPersistence selects the backend from the database URL scheme:
// postgres://, redis://, anything else is treated as a file root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgres.NewPersistence(ctx, databaseURL)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to initialize postgres persistence", "error", err)
			panic(err)
		}

		return p
	case redis.Supported(databaseURL):
		p, err := redis.NewPersistence(ctx, databaseURL)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to initialize redis persistence", "error", err)
			panic(err)
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}
