package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-guard/internal/api/dto"
	"github.com/spec-kit/sla-guard/internal/domain"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

type stubTicketRepo struct {
	ticket *domain.Ticket
}

func (s *stubTicketRepo) Upsert(context.Context, *domain.Ticket) error { return nil }

func (s *stubTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	if s.ticket == nil || s.ticket.ID != id {
		return nil, pgx.ErrNoRows
	}
	return s.ticket, nil
}

func (s *stubTicketRepo) ListOpen(context.Context) ([]domain.Ticket, error) { return nil, nil }

type stubAssessmentRepo struct {
	latest *domain.RiskAssessment
	list   []domain.RiskAssessment
}

func (s *stubAssessmentRepo) Insert(context.Context, *domain.RiskAssessment) error { return nil }

func (s *stubAssessmentRepo) Latest(context.Context, string) (*domain.RiskAssessment, error) {
	return s.latest, nil
}

func (s *stubAssessmentRepo) ListByTicket(context.Context, string, int, int) ([]domain.RiskAssessment, error) {
	return s.list, nil
}

type stubWorkflowRepo struct {
	active *domain.ActionWorkflow
	trail  []domain.TransitionRecord
}

func (s *stubWorkflowRepo) GetActive(context.Context, string) (*domain.ActionWorkflow, error) {
	return s.active, nil
}

func (s *stubWorkflowRepo) CountActive(context.Context, string) (int, error) { return 0, nil }

func (s *stubWorkflowRepo) MaxGeneration(context.Context, string) (int, error) { return 0, nil }

func (s *stubWorkflowRepo) SaveTransition(context.Context, *domain.ActionWorkflow, domain.TransitionRecord) error {
	return nil
}

func (s *stubWorkflowRepo) ListNonTerminal(context.Context) ([]domain.ActionWorkflow, error) {
	return nil, nil
}

func (s *stubWorkflowRepo) ListTransitions(context.Context, string) ([]domain.TransitionRecord, error) {
	return s.trail, nil
}

func newTicketsApp(h *TicketsHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code}})
		},
	})
	app.Get("/v1/tickets/:id", h.Get)
	return app
}

func TestGetTicketIncludesWorkflowAuditTrail(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:        "INC-1",
		Title:     "db outage",
		Priority:  1,
		Category:  domain.CategoryInfrastructure,
		Status:    domain.TicketStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	wf := &domain.ActionWorkflow{
		ID:         "wf-1",
		TicketID:   "INC-1",
		Generation: 1,
		State:      domain.WorkflowActionInProgress,
		Actions:    []string{"escalate-immediately"},
	}
	trail := []domain.TransitionRecord{
		{WorkflowID: "wf-1", FromState: domain.WorkflowIdle, ToState: domain.WorkflowEvaluating, Reason: "assessment a-1", AssessedAt: now, OccurredAt: now},
		{WorkflowID: "wf-1", FromState: domain.WorkflowEvaluating, ToState: domain.WorkflowActionPending, Reason: "selected escalate-immediately", OccurredAt: now},
	}
	latest := &domain.RiskAssessment{ID: "a-1", TicketID: "INC-1", Band: domain.BandBreachImminent, AssessedAt: now}

	h := NewTicketsHandler(&stubTicketRepo{ticket: ticket}, &stubAssessmentRepo{latest: latest}, &stubWorkflowRepo{active: wf, trail: trail})
	app := newTicketsApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/tickets/INC-1", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Data dto.TicketRiskResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Assessment == nil || body.Data.Assessment.Band != domain.BandBreachImminent {
		t.Fatalf("assessment = %+v", body.Data.Assessment)
	}
	if body.Data.Workflow == nil {
		t.Fatal("workflow missing from response")
	}
	transitions := body.Data.Workflow.Transitions
	if len(transitions) != 2 {
		t.Fatalf("transitions = %+v", transitions)
	}
	if transitions[0].ToState != domain.WorkflowEvaluating || transitions[1].ToState != domain.WorkflowActionPending {
		t.Fatalf("transition states = %+v", transitions)
	}
	if transitions[0].AssessedAt == nil {
		t.Fatal("assessment-driven transition lost its assessed_at")
	}
	if transitions[1].AssessedAt != nil {
		t.Fatalf("assessed_at = %v on a transition without one", transitions[1].AssessedAt)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	h := NewTicketsHandler(&stubTicketRepo{}, &stubAssessmentRepo{}, &stubWorkflowRepo{})
	app := newTicketsApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/tickets/NOPE", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
