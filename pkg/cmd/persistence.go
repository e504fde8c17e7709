package cmd

import (
	"context"
	"strings"

	"github.com/goalflow/goalflow/pkg/persistence"
	"github.com/goalflow/goalflow/pkg/persistence/file"
	"github.com/goalflow/goalflow/pkg/persistence/redis"
)

// NewPersistence selects a snapshot backend by URL scheme: redis:// connects
// to Redis, anything else is treated as a file root.
func NewPersistence(ctx context.Context, databaseURL string) (persistence.Persistence, error) {
	switch parseScheme(databaseURL) {
	case "redis", "rediss":
		return redis.NewPersistence(ctx, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parseScheme(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
