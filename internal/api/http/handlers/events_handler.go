package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-guard/internal/api/dto"
	"github.com/spec-kit/sla-guard/internal/ingress"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

// EventsHandler accepts ticket lifecycle events from the ticketing system.
type EventsHandler struct {
	pipeline *ingress.Pipeline
}

// NewEventsHandler constructs handler.
func NewEventsHandler(pipeline *ingress.Pipeline) *EventsHandler {
	return &EventsHandler{pipeline: pipeline}
}

// Ingest POST /v1/events.
func (h *EventsHandler) Ingest(c *fiber.Ctx) error {
	var req dto.IngestEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	disposition, err := h.pipeline.Ingest(c.Context(), ingress.TicketEvent{
		EventID:      req.EventID,
		TicketID:     req.TicketID,
		Title:        req.Title,
		Priority:     req.Priority,
		Category:     req.Category,
		Status:       req.Status,
		AssignedTech: req.AssignedTech,
		OccurredAt:   req.OccurredAt,
	})
	if err != nil {
		return err
	}

	status := http.StatusAccepted
	if disposition == ingress.DispositionDuplicate {
		status = http.StatusOK
	}
	return c.Status(status).JSON(dto.IngestEventResponse{
		EventID:     req.EventID,
		Disposition: string(disposition),
	})
}
