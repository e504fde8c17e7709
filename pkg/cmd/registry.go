// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/goalflow/goalflow/pkg/executors/apicall"
	"github.com/goalflow/goalflow/pkg/executors/dbquery"
	"github.com/goalflow/goalflow/pkg/executors/fileop"
	"github.com/goalflow/goalflow/pkg/executors/transform"
	"github.com/goalflow/goalflow/pkg/executors/wait"
	"github.com/goalflow/goalflow/pkg/registry"
)

// NewRegistry builds a registry with every builtin executor registered.
// defaultDSN is the fallback connection string for db_query tasks whose
// config carries none.
func NewRegistry(logger *slog.Logger, defaultDSN string) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterExecutor(apicall.NewFactory())
	reg.RegisterExecutor(dbquery.NewFactory(defaultDSN))
	reg.RegisterExecutor(fileop.NewFactory())
	reg.RegisterExecutor(transform.NewFactory())
	reg.RegisterExecutor(wait.NewFactory())

	return reg
}
