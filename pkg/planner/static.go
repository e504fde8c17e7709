// Package planner provides deterministic planner implementations. A planner
// turns a goal into the ordered task declarations the engine will execute.
package planner

import (
	"context"
	"fmt"

	"github.com/goalflow/goalflow/pkg/models"
)

// Static returns a fixed set of task declarations regardless of the goal.
// It backs the example plans and plan-file runs, and is the planner of
// choice in tests.
type Static struct {
	declarations []models.TaskDeclaration
}

func NewStatic(declarations []models.TaskDeclaration) *Static {
	return &Static{declarations: declarations}
}

// Plan returns a copy of the fixed declarations in declaration order.
func (s *Static) Plan(_ context.Context, _ string, _ models.Config) ([]models.TaskDeclaration, error) {
	if len(s.declarations) == 0 {
		return nil, fmt.Errorf("static plan is empty")
	}

	out := make([]models.TaskDeclaration, len(s.declarations))
	copy(out, s.declarations)

	return out, nil
}
