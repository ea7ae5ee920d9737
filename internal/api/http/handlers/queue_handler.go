package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-guard/internal/api/dto"
	"github.com/spec-kit/sla-guard/internal/queueproj"
)

// QueueHandler serves the prioritized intervention queue.
type QueueHandler struct {
	projector *queueproj.Projector
}

// NewQueueHandler constructs handler.
func NewQueueHandler(projector *queueproj.Projector) *QueueHandler {
	return &QueueHandler{projector: projector}
}

// List GET /v1/queue.
func (h *QueueHandler) List(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries := h.projector.CurrentQueue()
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	out := make([]dto.QueueEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.QueueEntryResponse{
			Position:          e.Position,
			TicketID:          e.TicketID,
			Title:             e.Title,
			Priority:          e.Priority,
			Category:          e.Category,
			Band:              e.Band,
			Probability:       e.Probability,
			Confidence:        e.Confidence,
			TimeToBreachSec:   int64(e.TimeToBreach.Seconds()),
			RecommendedAction: e.RecommendedAction,
			Degraded:          e.Degraded,
		})
	}
	return c.JSON(fiber.Map{"data": out, "total": h.projector.Len()})
}
