package dbquery

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(map[string]any{}, "postgres://localhost/db")
	assert.Error(t, err, "query is required")

	_, err = New(map[string]any{"query": "SELECT 1"}, "")
	assert.Error(t, err, "dsn is required when no default is configured")

	executor, err := New(map[string]any{"query": "SELECT 1"}, "postgres://default/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://default/db", executor.DSN)

	executor, err = New(map[string]any{"query": "SELECT 1", "dsn": "postgres://override/db"}, "postgres://default/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://override/db", executor.DSN)
}

type fakeRows struct {
	fields []pgconn.FieldDescription
	rows   [][]any
	pos    int
}

func (r *fakeRows) Close() {}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}
func (r *fakeRows) Scan(...any) error { return nil }
func (r *fakeRows) Values() ([]any, error) { return r.rows[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn { return nil }

type fakeConn struct {
	rows   pgx.Rows
	err    error
	closed bool
}

func (c *fakeConn) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return c.rows, c.err
}

func (c *fakeConn) Close(_ context.Context) error {
	c.closed = true
	return nil
}

func TestExecute_MapsRows(t *testing.T) {
	db := &fakeConn{rows: &fakeRows{
		fields: []pgconn.FieldDescription{{Name: "id"}, {Name: "name"}},
		rows:   [][]any{{int64(1), "ada"}, {int64(2), "grace"}},
	}}

	executor, err := New(map[string]any{"query": "SELECT id, name FROM users", "memory_key": "users"}, "postgres://test/db")
	require.NoError(t, err)

	executor.connect = func(_ context.Context, _ string) (conn, error) { return db, nil }

	result, err := executor.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, db.closed)

	output := result.Output.(map[string]any)
	assert.Equal(t, 2, output["row_count"])

	rows := output["rows"].([]map[string]any)
	assert.Equal(t, "ada", rows[0]["name"])
	assert.Equal(t, int64(2), rows[1]["id"])

	require.Len(t, result.MemoryWrites, 1)
	assert.Equal(t, "users", result.MemoryWrites[0].Key)
}

func TestExecute_ConnectFailure(t *testing.T) {
	executor, err := New(map[string]any{"query": "SELECT 1"}, "postgres://test/db")
	require.NoError(t, err)

	executor.connect = func(_ context.Context, _ string) (conn, error) {
		return nil, errors.New("connection refused")
	}

	_, err = executor.Execute(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}
