// Package file provides file-based snapshot persistence. Each workflow is one
// JSON document under <root>/workflows/<id>.json.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/goalflow/goalflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
}

// NewPersistence creates a file store rooted at the given directory. A
// file:// prefix is tolerated so URL-style configuration works unchanged.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

func (fp *Persistence) workflowsDir() string {
	return filepath.Join(fp.root, "workflows")
}

func (fp *Persistence) snapshotPath(id string) string {
	return filepath.Join(fp.workflowsDir(), id+".json")
}

// SaveSnapshot writes the snapshot, replacing any previous one for the same
// workflow id.
func (fp *Persistence) SaveSnapshot(_ context.Context, snapshot *models.Snapshot) error {
	id := snapshot.Context.ID
	if id == "" {
		return persistence.NewSnapshotError("Save", id, fmt.Errorf("snapshot has no workflow id"))
	}

	if err := os.MkdirAll(fp.workflowsDir(), 0o755); err != nil {
		return persistence.NewSnapshotError("Save", id, err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return persistence.NewSnapshotError("Save", id, err)
	}

	if err := os.WriteFile(fp.snapshotPath(id), data, 0o644); err != nil {
		return persistence.NewSnapshotError("Save", id, err)
	}

	return nil
}

// SnapshotByID loads one snapshot. Missing workflows report
// persistence.ErrSnapshotNotFound.
func (fp *Persistence) SnapshotByID(_ context.Context, id string) (*models.Snapshot, error) {
	data, err := os.ReadFile(fp.snapshotPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
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

// Snapshots loads every stored snapshot, sorted by workflow id.
func (fp *Persistence) Snapshots(ctx context.Context) ([]*models.Snapshot, error) {
	entries, err := os.ReadDir(fp.workflowsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, persistence.NewSnapshotError("List", "", err)
	}

	snapshots := make([]*models.Snapshot, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		snapshot, err := fp.SnapshotByID(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		snapshots = append(snapshots, snapshot)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Context.ID < snapshots[j].Context.ID
	})

	return snapshots, nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
