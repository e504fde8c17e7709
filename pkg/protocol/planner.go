package protocol

import (
	"context"

	"github.com/goalflow/goalflow/pkg/models"
)

// Planner converts a natural-language goal into an initial task list. It is a
// black box to the core: LLM-backed planners plug in here, and the
// deterministic planners in pkg/planner serve tests and manifests.
type Planner interface {
	Plan(ctx context.Context, goal string, cfg models.Config) ([]models.TaskDeclaration, error)
}
