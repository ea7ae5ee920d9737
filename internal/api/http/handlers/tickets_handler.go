package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-guard/internal/api/dto"
	"github.com/spec-kit/sla-guard/internal/domain"
	"github.com/spec-kit/sla-guard/internal/repository"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

// TicketsHandler serves per-ticket risk views.
type TicketsHandler struct {
	tickets     repository.TicketRepository
	assessments repository.AssessmentRepository
	workflows   repository.WorkflowRepository
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets repository.TicketRepository, assessments repository.AssessmentRepository, workflows repository.WorkflowRepository) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assessments: assessments, workflows: workflows}
}

// Get GET /v1/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	ticket, err := h.tickets.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	resp := dto.TicketRiskResponse{
		ID:                 ticket.ID,
		Title:              ticket.Title,
		Priority:           ticket.Priority,
		Category:           ticket.Category,
		Status:             ticket.Status,
		AssignedTech:       ticket.AssignedTech,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
		ResponseDeadline:   ticket.ResponseDeadline,
		ResolutionDeadline: ticket.ResolutionDeadline,
	}

	latest, err := h.assessments.Latest(c.Context(), id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if latest != nil {
		resp.Assessment = assessmentResponse(latest)
	}

	wf, err := h.workflows.GetActive(c.Context(), id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if wf != nil {
		resp.Workflow = workflowResponse(wf)
		trail, err := h.workflows.ListTransitions(c.Context(), wf.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		resp.Workflow.Transitions = transitionResponses(trail)
	}

	return c.JSON(fiber.Map{"data": resp})
}

// ListAssessments GET /v1/tickets/:id/assessments.
func (h *TicketsHandler) ListAssessments(c *fiber.Ctx) error {
	id := c.Params("id")
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	assessments, err := h.assessments.ListByTicket(c.Context(), id, limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}

	out := make([]dto.AssessmentResponse, 0, len(assessments))
	for i := range assessments {
		out = append(out, *assessmentResponse(&assessments[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

func assessmentResponse(a *domain.RiskAssessment) *dto.AssessmentResponse {
	return &dto.AssessmentResponse{
		ID:              a.ID,
		Band:            a.Band,
		Probability:     a.Probability,
		Confidence:      a.Confidence,
		TimeToBreachSec: int64(a.TimeToBreach.Seconds()),
		Degraded:        a.Degraded,
		SchemaVersion:   a.SchemaVersion,
		AssessedAt:      a.AssessedAt,
	}
}

func workflowResponse(wf *domain.ActionWorkflow) *dto.WorkflowResponse {
	attempts := make([]dto.AttemptResponse, 0, len(wf.Attempts))
	for _, a := range wf.Attempts {
		attempts = append(attempts, dto.AttemptResponse{
			ActionName:     a.ActionName,
			IdempotencyKey: a.IdempotencyKey,
			Attempt:        a.Attempt,
			Outcome:        a.Outcome,
			Detail:         a.Detail,
			DispatchedAt:   a.DispatchedAt,
			CompletedAt:    a.CompletedAt,
		})
	}
	return &dto.WorkflowResponse{
		ID:         wf.ID,
		Generation: wf.Generation,
		State:      wf.State,
		Actions:    wf.Actions,
		RetryCount: wf.RetryCount,
		Attempts:   attempts,
	}
}

func transitionResponses(trail []domain.TransitionRecord) []dto.TransitionResponse {
	out := make([]dto.TransitionResponse, 0, len(trail))
	for _, rec := range trail {
		entry := dto.TransitionResponse{
			FromState:  rec.FromState,
			ToState:    rec.ToState,
			Reason:     rec.Reason,
			OccurredAt: rec.OccurredAt,
		}
		if !rec.AssessedAt.IsZero() {
			assessedAt := rec.AssessedAt
			entry.AssessedAt = &assessedAt
		}
		out = append(out, entry)
	}
	return out
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
