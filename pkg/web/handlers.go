// Package web provides the read-only HTTP inspection API over persisted
// workflow snapshots. It never sits on the execution path.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/goalflow/goalflow/pkg/models"
	"github.com/goalflow/goalflow/pkg/persistence"
)

type APIHandlers struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewAPIHandlers(p persistence.Persistence, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		persistence: p,
		logger:      logger,
	}
}

// RegisterRoutes mounts every inspection endpoint on the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)

	w := app.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Get("/:id", h.GetWorkflow)
	w.Get("/:id/history", h.GetWorkflowHistory)
}

func (h *APIHandlers) Health(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// workflowSummary is the list-view projection of a snapshot.
type workflowSummary struct {
	ID            string                `json:"id"`
	Goal          string                `json:"goal"`
	Status        models.WorkflowStatus `json:"status"`
	FailureReason string                `json:"failure_reason,omitempty"`
	Tasks         int                   `json:"tasks"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	snapshots, err := h.persistence.Snapshots(c.Context())
	if err != nil {
		return handlePersistenceError(c, err)
	}

	summaries := make([]workflowSummary, 0, len(snapshots))
	for _, snapshot := range snapshots {
		summaries = append(summaries, workflowSummary{
			ID:            snapshot.Context.ID,
			Goal:          snapshot.Context.Goal,
			Status:        snapshot.Context.Status,
			FailureReason: snapshot.Context.FailureReason,
			Tasks:         len(snapshot.Tasks),
			CreatedAt:     snapshot.Context.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:     snapshot.Context.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return c.JSON(fiber.Map{
		"workflows":   summaries,
		"total_count": len(summaries),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	snapshot, err := h.persistence.SnapshotByID(c.Context(), c.Params("id"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(snapshot)
}

func (h *APIHandlers) GetWorkflowHistory(c fiber.Ctx) error {
	snapshot, err := h.persistence.SnapshotByID(c.Context(), c.Params("id"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow_id": snapshot.Context.ID,
		"history":     snapshot.History,
	})
}
