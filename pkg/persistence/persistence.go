// Package persistence provides the storage abstraction for workflow
// snapshots. A snapshot is written once, at finalization; backends only need
// durable key-value semantics.
package persistence

import (
	"context"

	"github.com/goalflow/goalflow/pkg/models"
)

type Persistence interface {
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	SnapshotByID(ctx context.Context, id string) (*models.Snapshot, error)
	Snapshots(ctx context.Context) ([]*models.Snapshot, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
