package memory

import (
	"testing"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetLastWriterWins(t *testing.T) {
	store := NewStore()

	store.Set("x", 1, "t1")
	store.Set("x", 2, "t2")

	value, ok := store.Get("x")
	require.True(t, ok)
	assert.Equal(t, 2, value)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestStore_AuditAttributesEveryWrite(t *testing.T) {
	store := NewStore()

	store.Set("x", 1, "t1")
	store.Set("x", 2, "t2")
	store.Set("y", 3, "t1")

	audit := store.Audit()
	require.Len(t, audit, 3)
	assert.Equal(t, "t1", audit[0].TaskID)
	assert.Equal(t, "t2", audit[1].TaskID)
	assert.Equal(t, "x", audit[1].Key)
	assert.Equal(t, "y", audit[2].Key)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := NewStore()
	store.Set("x", "before", "t1")

	snapshot := store.Snapshot()
	store.Set("x", "after", "t2")

	assert.Equal(t, "before", snapshot["x"])

	value, _ := store.Get("x")
	assert.Equal(t, "after", value)
}

func TestStore_HistoryAppendOnlyOrder(t *testing.T) {
	store := NewStore()

	first := models.ExecutionRecord{TaskID: "t1", Attempt: 1, Outcome: models.OutcomeFailure, StartedAt: time.Now()}
	second := models.ExecutionRecord{TaskID: "t1", Attempt: 2, Outcome: models.OutcomeSuccess, StartedAt: time.Now()}

	store.Append(first)
	store.Append(second)

	history := store.History()
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Attempt)
	assert.Equal(t, 2, history[1].Attempt)

	// Mutating the returned slice must not affect the store.
	history[0].TaskID = "tampered"
	assert.Equal(t, "t1", store.History()[0].TaskID)
}
