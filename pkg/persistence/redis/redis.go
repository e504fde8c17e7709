// Package redis provides Redis-backed snapshot persistence. Snapshots are
// stored as JSON strings under goalflow:workflow:<id>, with an index set of
// known ids for listing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/goalflow/goalflow/pkg/persistence"
)

const (
	keyPrefix = "goalflow:workflow:"
	indexKey  = "goalflow:workflows"
)

// Persistence implements persistence.Persistence on a Redis server.
type Persistence struct {
	client *redis.Client
}

// NewPersistence connects to the server described by a redis:// URL.
func NewPersistence(ctx context.Context, url string) (*Persistence, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Persistence{client: client}, nil
}

func snapshotKey(id string) string {
	return keyPrefix + id
}

// SaveSnapshot stores the snapshot and records its id in the index.
func (rp *Persistence) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	id := snapshot.Context.ID
	if id == "" {
		return persistence.NewSnapshotError("Save", id, fmt.Errorf("snapshot has no workflow id"))
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return persistence.NewSnapshotError("Save", id, err)
	}

	pipe := rp.client.TxPipeline()
	pipe.Set(ctx, snapshotKey(id), data, 0)
	pipe.SAdd(ctx, indexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewSnapshotError("Save", id, err)
	}

	return nil
}

// SnapshotByID loads one snapshot. Missing workflows report
// persistence.ErrSnapshotNotFound.
func (rp *Persistence) SnapshotByID(ctx context.Context, id string) (*models.Snapshot, error) {
	data, err := rp.client.Get(ctx, snapshotKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrSnapshotNotFound
		}

		return nil, persistence.NewSnapshotError("ByID", id, err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, persistence.NewSnapshotError("ByID", id, err)
	}

	return &snapshot, nil
}

// Snapshots loads every indexed snapshot, sorted by workflow id. Index
// entries whose document has expired are skipped.
func (rp *Persistence) Snapshots(ctx context.Context) ([]*models.Snapshot, error) {
	ids, err := rp.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, persistence.NewSnapshotError("List", "", err)
	}

	sort.Strings(ids)

	snapshots := make([]*models.Snapshot, 0, len(ids))

	for _, id := range ids {
		snapshot, err := rp.SnapshotByID(ctx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrSnapshotNotFound) {
				continue
			}

			return nil, err
		}

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

// HealthCheck pings the server.
func (rp *Persistence) HealthCheck(ctx context.Context) error {
	return rp.client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (rp *Persistence) Close(_ context.Context) error {
	return rp.client.Close()
}
