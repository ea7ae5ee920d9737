package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-guard/internal/api/dto"
	"github.com/spec-kit/sla-guard/internal/domain"
	"github.com/spec-kit/sla-guard/internal/orchestrator"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

// CompletionSink accepts action completion signals.
type CompletionSink interface {
	SubmitCompletion(sig orchestrator.CompletionSignal) bool
}

// CompletionsHandler receives action outcomes from the automation system.
type CompletionsHandler struct {
	engine CompletionSink
}

// NewCompletionsHandler constructs handler.
func NewCompletionsHandler(engine CompletionSink) *CompletionsHandler {
	return &CompletionsHandler{engine: engine}
}

// Complete POST /v1/actions/completions.
func (h *CompletionsHandler) Complete(c *fiber.Ctx) error {
	var req dto.ActionCompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.IdempotencyKey == "" || !strings.Contains(req.IdempotencyKey, ":") {
		return apperrors.NewValidationError("idempotency_key required", nil)
	}

	var outcome domain.ActionOutcome
	switch strings.ToUpper(strings.TrimSpace(req.Outcome)) {
	case string(domain.OutcomeSucceeded):
		outcome = domain.OutcomeSucceeded
	case string(domain.OutcomeFailed):
		outcome = domain.OutcomeFailed
	default:
		return apperrors.NewValidationError("outcome must be SUCCEEDED or FAILED", nil)
	}

	if !h.engine.SubmitCompletion(orchestrator.CompletionSignal{
		IdempotencyKey: req.IdempotencyKey,
		Outcome:        outcome,
		Detail:         req.Detail,
	}) {
		return apperrors.NewConflict("completion backlog full", nil)
	}
	return c.SendStatus(http.StatusAccepted)
}
