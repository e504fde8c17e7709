// Package dbquery provides the db_query executor: SQL statements against a
// PostgreSQL database.
package dbquery

import (
	"context"
	"fmt"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/jackc/pgx/v5"
)

// Executor runs one SQL statement per invocation. Connections are opened per
// execution: task attempts are independent and the engine's per-task timeout
// bounds the whole call.
type Executor struct {
	DSN       string
	Query     string
	Params    []any
	MemoryKey string

	// connect is swapped out in tests.
	connect func(ctx context.Context, dsn string) (conn, error)
}

type conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

// New builds an executor from an action config. defaultDSN is the engine-wide
// database URL; the action config may override it with its own "dsn".
func New(config map[string]any, defaultDSN string) (*Executor, error) {
	query, _ := config["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("db_query requires a query")
	}

	dsn, _ := config["dsn"].(string)
	if dsn == "" {
		dsn = defaultDSN
	}

	if dsn == "" {
		return nil, fmt.Errorf("db_query requires a dsn (none configured)")
	}

	params, _ := config["params"].([]any)
	memoryKey, _ := config["memory_key"].(string)

	return &Executor{
		DSN:       dsn,
		Query:     query,
		Params:    params,
		MemoryKey: memoryKey,
		connect: func(ctx context.Context, dsn string) (conn, error) {
			return pgx.Connect(ctx, dsn)
		},
	}, nil
}

// Execute runs the statement and returns the rows as column-name maps.
func (e *Executor) Execute(ctx context.Context, _ map[string]any, _ models.MemorySnapshot) (*models.ExecutionResult, error) {
	db, err := e.connect(ctx, e.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	defer func() {
		_ = db.Close(ctx)
	}()

	rows, err := db.Query(ctx, e.Query, e.Params...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns := make([]string, 0, len(rows.FieldDescriptions()))
	for _, fd := range rows.FieldDescriptions() {
		columns = append(columns, string(fd.Name))
	}

	var collected []map[string]any

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}

		collected = append(collected, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	output := map[string]any{
		"rows":      collected,
		"row_count": len(collected),
	}

	result := &models.ExecutionResult{Output: output}
	if e.MemoryKey != "" {
		result.MemoryWrites = []models.MemoryWrite{{Key: e.MemoryKey, Value: output}}
	}

	return result, nil
}
