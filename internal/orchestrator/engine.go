package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-guard/internal/config"
	"github.com/spec-kit/sla-guard/internal/domain"
	"github.com/spec-kit/sla-guard/internal/events"
	"github.com/spec-kit/sla-guard/internal/features"
	"github.com/spec-kit/sla-guard/internal/observability"
	"github.com/spec-kit/sla-guard/internal/queueproj"
	"github.com/spec-kit/sla-guard/internal/repository"
	"github.com/spec-kit/sla-guard/internal/scoring"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

// Engine runs the per-ticket prediction and preventive-action pipeline. All
// mutations for a given ticket happen on that ticket's lane, so workflow
// state transitions need no locking beyond atomic persistence.
type Engine struct {
	cfg    config.OrchestratorConfig
	policy config.SLAPolicy

	tickets     repository.TicketRepository
	assessments repository.AssessmentRepository
	workflows   repository.WorkflowRepository
	extractor   *features.Extractor
	scorer      scoring.Scorer
	executor    Executor
	notifier    Notifier
	dispatcher  events.Dispatcher
	projector   *queueproj.Projector
	lanes       *Lanes
	logger      *zap.Logger

	fallbackAfter int

	mu          sync.Mutex
	scorerFails map[string]int
	quarantined map[string]bool

	now      func() time.Time
	schedule func(d time.Duration, fn func())
}

// Dependencies bundles collaborators for the engine.
type Dependencies struct {
	TicketRepo     repository.TicketRepository
	AssessmentRepo repository.AssessmentRepository
	WorkflowRepo   repository.WorkflowRepository
	Extractor      *features.Extractor
	Scorer         scoring.Scorer
	Executor       Executor
	Notifier       Notifier
	Dispatcher     events.Dispatcher
	Projector      *queueproj.Projector
}

// NewEngine constructs the engine and its lane pool.
func NewEngine(cfg config.OrchestratorConfig, scorerCfg config.ScorerConfig, policy config.SLAPolicy, deps Dependencies, logger *zap.Logger) *Engine {
	fallbackAfter := scorerCfg.FallbackAfterFailures
	if fallbackAfter <= 0 {
		fallbackAfter = 3
	}
	return &Engine{
		cfg:           cfg,
		policy:        policy,
		tickets:       deps.TicketRepo,
		assessments:   deps.AssessmentRepo,
		workflows:     deps.WorkflowRepo,
		extractor:     deps.Extractor,
		scorer:        deps.Scorer,
		executor:      deps.Executor,
		notifier:      deps.Notifier,
		dispatcher:    deps.Dispatcher,
		projector:     deps.Projector,
		lanes:         NewLanes(cfg.Lanes, cfg.LaneBuffer, logger),
		logger:        logger,
		fallbackAfter: fallbackAfter,
		scorerFails:   make(map[string]int),
		quarantined:   make(map[string]bool),
		now:           time.Now,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// Start launches the lane workers.
func (e *Engine) Start() {
	e.lanes.Start()
}

// Stop drains lanes and stops the workers.
func (e *Engine) Stop() {
	e.lanes.Stop()
}

// SubmitTicketChange routes a normalized ticket event onto its lane.
func (e *Engine) SubmitTicketChange(change TicketChange) bool {
	return e.lanes.Submit(change.TicketID, func() {
		e.applyTicketChange(change)
	})
}

// SubmitCompletion routes an executor completion signal onto its lane.
func (e *Engine) SubmitCompletion(sig CompletionSignal) bool {
	return e.lanes.Submit(sig.TicketID(), func() {
		e.handleCompletion(sig)
	})
}

// Resume rebuilds in-memory state after a restart: the queue projection is
// repopulated from stored assessments and non-terminal workflows get their
// next step scheduled. In-progress workflows simply wait for completion
// signals.
func (e *Engine) Resume(ctx context.Context) error {
	if err := e.rebuildProjection(ctx); err != nil {
		return err
	}
	wfs, err := e.workflows.ListNonTerminal(ctx)
	if err != nil {
		return err
	}
	for _, wf := range wfs {
		ticketID, generation := wf.TicketID, wf.Generation
		switch wf.State {
		case domain.WorkflowEvaluating, domain.WorkflowActionPending:
			e.lanes.Submit(ticketID, func() {
				e.resumeDispatch(ticketID, generation)
			})
		case domain.WorkflowActionFailed:
			e.scheduleRetry(ticketID, generation, wf.RetryCount)
		}
	}
	e.logger.Info("resumed workflows", zap.Int("count", len(wfs)))
	return nil
}

// rebuildProjection restores the intervention queue from open tickets and
// their latest stored assessment. Resolved tickets and tickets never assessed
// stay off the queue until their next event.
func (e *Engine) rebuildProjection(ctx context.Context) error {
	tickets, err := e.tickets.ListOpen(ctx)
	if err != nil {
		return err
	}
	restored := 0
	for i := range tickets {
		if tickets[i].IsResolved() {
			continue
		}
		latest, err := e.assessments.Latest(ctx, tickets[i].ID)
		if err != nil {
			return err
		}
		if latest == nil {
			continue
		}
		e.projectTicket(&tickets[i], latest)
		restored++
	}
	e.logger.Info("queue projection rebuilt", zap.Int("tickets", restored))
	return nil
}

func (e *Engine) applyTicketChange(change TicketChange) {
	ctx := context.Background()
	if e.isQuarantined(change.TicketID) {
		e.logger.Warn("ticket quarantined, event ignored", zap.String("ticket_id", change.TicketID))
		return
	}

	existing, err := e.tickets.GetByID(ctx, change.TicketID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		e.logger.Error("load ticket", zap.String("ticket_id", change.TicketID), zap.Error(err))
		return
	}
	if existing != nil && change.OccurredAt.Before(existing.UpdatedAt) {
		observability.ObserveEventIngested("stale")
		e.logger.Debug("out-of-order event dropped",
			zap.String("ticket_id", change.TicketID),
			zap.String("event_id", change.EventID))
		return
	}

	ticket := e.mergeChange(existing, change)
	if err := e.tickets.Upsert(ctx, ticket); err != nil {
		e.logger.Error("upsert ticket", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	e.publish(ctx, events.Event{
		Type:     events.EventTicketUpserted,
		TicketID: ticket.ID,
		Payload: events.TicketUpsertedPayload{
			Priority: ticket.Priority,
			Category: ticket.Category,
			Status:   ticket.Status,
		},
	})

	if ticket.IsClosed() {
		e.cancelWorkflow(ctx, ticket, "ticket closed externally")
		e.projector.Remove(ticket.ID)
		e.publish(ctx, events.Event{
			Type:     events.EventTicketClosed,
			TicketID: ticket.ID,
			Payload:  events.TicketClosedPayload{Status: ticket.Status},
		})
		return
	}
	if ticket.Status == domain.TicketStatusResolved {
		e.closeResolvedWorkflow(ctx, ticket)
		e.projector.Remove(ticket.ID)
		return
	}

	e.evaluate(ctx, ticket, change.OccurredAt)
}

// mergeChange folds an event into the stored ticket. SLA deadlines are
// stamped at creation and re-stamped only when the priority changes.
func (e *Engine) mergeChange(existing *domain.Ticket, change TicketChange) *domain.Ticket {
	ticket := &domain.Ticket{
		ID:           change.TicketID,
		Title:        change.Title,
		Priority:     change.Priority,
		Category:     change.Category,
		Status:       change.Status,
		AssignedTech: change.AssignedTech,
		CreatedAt:    change.OccurredAt,
		UpdatedAt:    change.OccurredAt,
	}
	if existing != nil {
		ticket.CreatedAt = existing.CreatedAt
		ticket.ResponseDeadline = existing.ResponseDeadline
		ticket.ResolutionDeadline = existing.ResolutionDeadline
		ticket.ClosedAt = existing.ClosedAt
		if ticket.Title == "" {
			ticket.Title = existing.Title
		}
	}
	if existing == nil || existing.Priority != change.Priority {
		threshold := e.policy.Threshold(ticket.Priority)
		ticket.ResponseDeadline = ticket.CreatedAt.Add(threshold.Response())
		ticket.ResolutionDeadline = ticket.CreatedAt.Add(threshold.Resolution())
	}
	if ticket.IsClosed() && ticket.ClosedAt == nil {
		closedAt := change.OccurredAt
		ticket.ClosedAt = &closedAt
	}
	return ticket
}

func (e *Engine) evaluate(ctx context.Context, ticket *domain.Ticket, assessedAt time.Time) {
	vector, err := e.extractor.Extract(ctx, ticket, e.now())
	if err != nil {
		e.logger.Error("feature extraction", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	ruleProb := scoring.RuleProbability(ticket, e.now())

	var assessment *domain.RiskAssessment
	pred, err := e.scorer.Score(ctx, vector)
	if err != nil {
		fails := e.bumpScorerFailure(ticket.ID)
		e.logger.Warn("scorer unavailable",
			zap.String("ticket_id", ticket.ID),
			zap.Int("consecutive_failures", fails),
			zap.Error(err))
		if fails < e.fallbackAfter {
			return
		}
		// Fail-safe policy: never treat unavailability as zero risk.
		band := domain.BandWatch
		if ticket.Priority <= 2 {
			band = domain.BandBreachImminent
		}
		assessment = &domain.RiskAssessment{
			Probability: ruleProb,
			Confidence:  0,
			Band:        band,
			Degraded:    true,
		}
		e.publish(ctx, events.Event{
			Type:     events.EventDegradedAssessment,
			TicketID: ticket.ID,
			Payload:  events.AssessmentProducedPayload{Band: band, Probability: ruleProb, Degraded: true},
		})
	} else {
		e.resetScorerFailure(ticket.ID)
		p := scoring.Blend(ruleProb, pred)
		assessment = &domain.RiskAssessment{
			Probability: p,
			Confidence:  pred.Confidence,
			Band:        scoring.Classify(p),
		}
	}

	assessment.ID = uuid.NewString()
	assessment.TicketID = ticket.ID
	assessment.TimeToBreach = scoring.TimeToBreach(ticket, e.now())
	assessment.SchemaVersion = vector.SchemaVersion
	assessment.AssessedAt = assessedAt

	latest, err := e.assessments.Latest(ctx, ticket.ID)
	if err != nil {
		e.logger.Error("load latest assessment", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	if err := e.assessments.Insert(ctx, assessment); err != nil {
		e.logger.Error("store assessment", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	observability.ObserveAssessment(string(assessment.Band), assessment.Degraded)

	payload := events.AssessmentProducedPayload{
		Band:        assessment.Band,
		Probability: assessment.Probability,
		Degraded:    assessment.Degraded,
		AssessedAt:  assessment.AssessedAt,
	}
	if latest != nil {
		payload.PrevBand = latest.Band
	}
	e.publish(ctx, events.Event{Type: events.EventAssessmentProduced, TicketID: ticket.ID, Payload: payload})

	if latest != nil && assessment.AssessedAt.Before(latest.AssessedAt) {
		e.logger.Info("out-of-order assessment stored for audit",
			zap.String("ticket_id", ticket.ID),
			zap.Time("assessed_at", assessment.AssessedAt),
			zap.Time("latest_at", latest.AssessedAt))
		return
	}

	if latest == nil && assessment.Band != domain.BandHealthy ||
		latest != nil && assessment.Band.Severity() > latest.Band.Severity() {
		e.notify(ctx, Notification{
			TicketID: ticket.ID,
			Band:     assessment.Band,
			Message:  fmt.Sprintf("breach risk now %s (p=%.2f)", assessment.Band, assessment.Probability),
		})
	}

	e.applyAssessment(ctx, ticket, assessment)
	e.projectTicket(ticket, assessment)
}

func (e *Engine) projectTicket(ticket *domain.Ticket, a *domain.RiskAssessment) {
	recommended := "monitor"
	if actions := SelectActions(ticket, a.Band, a.Probability); len(actions) > 0 {
		recommended = actions[0]
	}
	e.projector.Upsert(domain.QueueEntry{
		TicketID:          ticket.ID,
		Title:             ticket.Title,
		Priority:          ticket.Priority,
		Category:          ticket.Category,
		Band:              a.Band,
		Probability:       a.Probability,
		Confidence:        a.Confidence,
		TimeToBreach:      a.TimeToBreach,
		RecommendedAction: recommended,
		Degraded:          a.Degraded,
	})
}

func (e *Engine) applyAssessment(ctx context.Context, ticket *domain.Ticket, a *domain.RiskAssessment) {
	count, err := e.workflows.CountActive(ctx, ticket.ID)
	if err != nil {
		e.logger.Error("count workflows", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	if count > 1 {
		e.raiseInvariant(ctx, ticket.ID, fmt.Sprintf("%d active workflows", count))
		return
	}

	wf, err := e.workflows.GetActive(ctx, ticket.ID)
	if err != nil {
		e.logger.Error("load workflow", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	if wf == nil {
		e.startWorkflow(ctx, ticket, a)
		return
	}
	if a.AssessedAt.Before(wf.TriggerAt) {
		// Accepted for audit history; workflow state never regresses.
		return
	}

	if wf.State == domain.WorkflowActionSucceeded {
		// Re-evaluation loop: the completed workflow yields to a fresh one.
		if err := e.transition(ctx, wf, domain.WorkflowClosed, a.AssessedAt, "superseded by new assessment"); err != nil {
			return
		}
		e.startWorkflow(ctx, ticket, a)
	}
	// Otherwise the workflow is in flight; the assessment is recorded for
	// audit and the state machine proceeds on executor signals.
}

func (e *Engine) startWorkflow(ctx context.Context, ticket *domain.Ticket, a *domain.RiskAssessment) {
	actions := SelectActions(ticket, a.Band, a.Probability)
	if a.Band == domain.BandHealthy || len(actions) == 0 {
		// No-op, not a failure: the ticket stays IDLE with no workflow.
		return
	}

	generation, err := e.workflows.MaxGeneration(ctx, ticket.ID)
	if err != nil {
		e.logger.Error("max generation", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	now := e.now()
	wf := &domain.ActionWorkflow{
		ID:             uuid.NewString(),
		TicketID:       ticket.ID,
		Generation:     generation + 1,
		State:          domain.WorkflowIdle,
		Actions:        actions,
		TriggerAt:      a.AssessedAt,
		LastTransition: now,
		CreatedAt:      now,
	}
	if err := e.transition(ctx, wf, domain.WorkflowEvaluating, a.AssessedAt, "assessment "+a.ID); err != nil {
		return
	}
	if err := e.transition(ctx, wf, domain.WorkflowActionPending, a.AssessedAt, "selected "+strings.Join(actions, ",")); err != nil {
		return
	}
	e.dispatchActions(ctx, ticket, wf)
}

func (e *Engine) dispatchActions(ctx context.Context, ticket *domain.Ticket, wf *domain.ActionWorkflow) {
	dispatchCtx := ctx
	if e.cfg.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, e.cfg.DispatchTimeout)
		defer cancel()
	}

	now := e.now()
	var rejected error
	for _, action := range wf.Actions {
		if actionSucceeded(wf, action) {
			continue
		}
		key := wf.IdempotencyKey(action)
		err := e.executor.Dispatch(dispatchCtx, ActionDispatch{
			IdempotencyKey: key,
			TicketID:       ticket.ID,
			ActionName:     action,
			Parameters: map[string]any{
				"priority": ticket.Priority,
				"category": string(ticket.Category),
			},
		})
		attempt := e.upsertAttempt(wf, action, key, now)
		if err != nil {
			observability.ObserveDispatch(action, "rejected")
			completed := now
			attempt.Outcome = domain.OutcomeFailed
			attempt.Detail = err.Error()
			attempt.CompletedAt = &completed
			rejected = err
			break
		}
		observability.ObserveDispatch(action, "accepted")
	}

	if rejected != nil {
		e.failCycle(ctx, ticket, wf, rejected.Error())
		return
	}
	_ = e.transition(ctx, wf, domain.WorkflowActionInProgress, time.Time{}, "dispatch accepted")
}

// upsertAttempt returns the attempt record for (key, current retry cycle),
// creating it when absent. Redispatch after a restart reuses the record.
func (e *Engine) upsertAttempt(wf *domain.ActionWorkflow, action, key string, now time.Time) *domain.ActionAttempt {
	for i := range wf.Attempts {
		if wf.Attempts[i].IdempotencyKey == key && wf.Attempts[i].Attempt == wf.RetryCount {
			return &wf.Attempts[i]
		}
	}
	wf.Attempts = append(wf.Attempts, domain.ActionAttempt{
		ActionName:     action,
		IdempotencyKey: key,
		Attempt:        wf.RetryCount,
		DispatchedAt:   now,
		Outcome:        domain.OutcomePending,
	})
	return &wf.Attempts[len(wf.Attempts)-1]
}

func (e *Engine) handleCompletion(sig CompletionSignal) {
	ctx := context.Background()
	ticketID := sig.TicketID()
	if e.isQuarantined(ticketID) {
		return
	}

	wf, err := e.workflows.GetActive(ctx, ticketID)
	if err != nil {
		e.logger.Error("load workflow", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}
	if wf == nil {
		e.logger.Debug("completion for inactive workflow", zap.String("idempotency_key", sig.IdempotencyKey))
		return
	}

	idx := -1
	for i := range wf.Attempts {
		if wf.Attempts[i].IdempotencyKey == sig.IdempotencyKey && wf.Attempts[i].Outcome == domain.OutcomePending {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Duplicate or late completion; the first signal already won.
		return
	}

	now := e.now()
	wf.Attempts[idx].CompletedAt = &now
	wf.Attempts[idx].Detail = sig.Detail

	ticket, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		e.logger.Error("load ticket", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}

	if sig.Outcome == domain.OutcomeFailed {
		wf.Attempts[idx].Outcome = domain.OutcomeFailed
		observability.ObserveDispatch(wf.Attempts[idx].ActionName, "failed")
		e.failCycle(ctx, ticket, wf, sig.Detail)
		return
	}

	wf.Attempts[idx].Outcome = domain.OutcomeSucceeded
	observability.ObserveDispatch(wf.Attempts[idx].ActionName, "succeeded")

	if !allActionsSucceeded(wf) {
		_ = e.transition(ctx, wf, wf.State, time.Time{}, wf.Attempts[idx].ActionName+" succeeded")
		return
	}
	if err := e.transition(ctx, wf, domain.WorkflowActionSucceeded, time.Time{}, "all actions confirmed"); err != nil {
		return
	}
	if ticket.IsResolved() {
		_ = e.transition(ctx, wf, domain.WorkflowClosed, time.Time{}, "ticket resolved")
	}
}

func (e *Engine) failCycle(ctx context.Context, ticket *domain.Ticket, wf *domain.ActionWorkflow, detail string) {
	if err := e.transition(ctx, wf, domain.WorkflowActionFailed, time.Time{}, detail); err != nil {
		return
	}
	wf.RetryCount++
	if wf.RetryCount > e.cfg.MaxRetries {
		e.escalate(ctx, ticket, wf)
		return
	}
	if err := e.workflows.SaveTransition(ctx, wf, e.record(wf, wf.State, wf.State, time.Time{},
		fmt.Sprintf("retry %d scheduled", wf.RetryCount))); err != nil {
		e.logger.Error("persist retry state", zap.String("ticket_id", wf.TicketID), zap.Error(err))
		return
	}
	e.scheduleRetry(wf.TicketID, wf.Generation, wf.RetryCount)
}

func (e *Engine) scheduleRetry(ticketID string, generation, retryCount int) {
	delay := e.backoff(retryCount)
	e.schedule(delay, func() {
		e.lanes.Submit(ticketID, func() {
			e.retryWorkflow(ticketID, generation)
		})
	})
}

func (e *Engine) retryWorkflow(ticketID string, generation int) {
	ctx := context.Background()
	if e.isQuarantined(ticketID) {
		return
	}
	wf, err := e.workflows.GetActive(ctx, ticketID)
	if err != nil {
		e.logger.Error("load workflow", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}
	if wf == nil || wf.Generation != generation || wf.State != domain.WorkflowActionFailed {
		// Cancelled, escalated, or superseded while the retry was pending.
		return
	}
	ticket, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		e.logger.Error("load ticket", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}
	if ticket.IsResolved() {
		_ = e.transition(ctx, wf, domain.WorkflowClosed, time.Time{}, "ticket resolved before retry")
		return
	}
	if err := e.transition(ctx, wf, domain.WorkflowActionPending, time.Time{}, fmt.Sprintf("retry %d", wf.RetryCount)); err != nil {
		return
	}
	e.dispatchActions(ctx, ticket, wf)
}

func (e *Engine) resumeDispatch(ticketID string, generation int) {
	ctx := context.Background()
	wf, err := e.workflows.GetActive(ctx, ticketID)
	if err != nil || wf == nil || wf.Generation != generation {
		return
	}
	ticket, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		e.logger.Error("load ticket", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}
	if wf.State == domain.WorkflowEvaluating {
		if err := e.transition(ctx, wf, domain.WorkflowActionPending, time.Time{}, "resumed after restart"); err != nil {
			return
		}
	}
	e.dispatchActions(ctx, ticket, wf)
}

func (e *Engine) escalate(ctx context.Context, ticket *domain.Ticket, wf *domain.ActionWorkflow) {
	if err := e.transition(ctx, wf, domain.WorkflowEscalated, time.Time{}, "retry budget exhausted"); err != nil {
		return
	}
	observability.ObserveEscalation()
	e.publish(ctx, events.Event{
		Type:     events.EventWorkflowEscalated,
		TicketID: wf.TicketID,
		Payload: events.WorkflowEscalatedPayload{
			WorkflowID: wf.ID,
			Generation: wf.Generation,
			Actions:    wf.Actions,
			RetryCount: wf.RetryCount,
		},
	})
	e.notify(ctx, Notification{
		TicketID: wf.TicketID,
		Band:     e.currentBand(ctx, wf.TicketID),
		Message:  fmt.Sprintf("automation exhausted after %d retries, human intervention required", e.cfg.MaxRetries),
	})
}

// cancelWorkflow closes the active workflow when the ticket is closed or
// cancelled externally. In-flight dispatches are marked cancelled, never
// retried.
func (e *Engine) cancelWorkflow(ctx context.Context, ticket *domain.Ticket, reason string) {
	wf, err := e.workflows.GetActive(ctx, ticket.ID)
	if err != nil {
		e.logger.Error("load workflow", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	if wf == nil {
		return
	}
	if open := wf.OpenAttempts(); len(open) > 0 {
		e.logger.Info("cancelling in-flight dispatches",
			zap.String("ticket_id", ticket.ID),
			zap.Int("count", len(open)))
	}
	now := e.now()
	for i := range wf.Attempts {
		if wf.Attempts[i].Outcome == domain.OutcomePending {
			wf.Attempts[i].Outcome = domain.OutcomeCancelled
			wf.Attempts[i].CompletedAt = &now
		}
	}
	_ = e.transition(ctx, wf, domain.WorkflowClosed, time.Time{}, reason)
}

func (e *Engine) closeResolvedWorkflow(ctx context.Context, ticket *domain.Ticket) {
	wf, err := e.workflows.GetActive(ctx, ticket.ID)
	if err != nil || wf == nil {
		return
	}
	if wf.State == domain.WorkflowActionSucceeded {
		_ = e.transition(ctx, wf, domain.WorkflowClosed, time.Time{}, "ticket resolved")
	}
	// Workflows still dispatching close on their completion signal.
}

func (e *Engine) transition(ctx context.Context, wf *domain.ActionWorkflow, to domain.WorkflowState, assessedAt time.Time, reason string) error {
	from := wf.State
	wf.State = to
	wf.LastTransition = e.now()
	if !assessedAt.IsZero() {
		wf.TriggerAt = assessedAt
	}
	if err := e.workflows.SaveTransition(ctx, wf, e.record(wf, from, to, assessedAt, reason)); err != nil {
		wf.State = from
		e.logger.Error("persist transition",
			zap.String("ticket_id", wf.TicketID),
			zap.String("to", string(to)),
			zap.Error(err))
		return err
	}
	e.publish(ctx, events.Event{
		Type:     events.EventWorkflowTransition,
		TicketID: wf.TicketID,
		Payload: events.WorkflowTransitionPayload{
			WorkflowID: wf.ID,
			Generation: wf.Generation,
			FromState:  from,
			ToState:    to,
			Reason:     reason,
		},
	})
	return nil
}

func (e *Engine) record(wf *domain.ActionWorkflow, from, to domain.WorkflowState, assessedAt time.Time, reason string) domain.TransitionRecord {
	return domain.TransitionRecord{
		ID:         uuid.NewString(),
		WorkflowID: wf.ID,
		TicketID:   wf.TicketID,
		FromState:  from,
		ToState:    to,
		AssessedAt: assessedAt,
		Reason:     reason,
		OccurredAt: e.now(),
	}
}

func (e *Engine) raiseInvariant(ctx context.Context, ticketID, detail string) {
	e.mu.Lock()
	e.quarantined[ticketID] = true
	e.mu.Unlock()
	violation := apperrors.NewInvariantViolation(ticketID, detail)
	e.logger.Error("ticket quarantined",
		zap.String("ticket_id", ticketID),
		zap.Error(violation))
	e.publish(ctx, events.Event{
		Type:     events.EventInvariantViolation,
		TicketID: ticketID,
		Payload:  events.InvariantViolationPayload{Detail: detail},
	})
	e.notify(ctx, Notification{
		TicketID: ticketID,
		Band:     e.currentBand(ctx, ticketID),
		Message:  violation.Error() + ", manual intervention required",
	})
}

func (e *Engine) currentBand(ctx context.Context, ticketID string) domain.RiskBand {
	latest, err := e.assessments.Latest(ctx, ticketID)
	if err != nil || latest == nil {
		return domain.BandAtRisk
	}
	return latest.Band
}

func (e *Engine) backoff(retryCount int) time.Duration {
	base := e.cfg.BackoffBase
	if base <= 0 {
		base = 2 * time.Second
	}
	delay := base
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if e.cfg.BackoffMax > 0 && delay >= e.cfg.BackoffMax {
			return e.cfg.BackoffMax
		}
	}
	if e.cfg.BackoffMax > 0 && delay > e.cfg.BackoffMax {
		delay = e.cfg.BackoffMax
	}
	return delay
}

func (e *Engine) bumpScorerFailure(ticketID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scorerFails[ticketID]++
	return e.scorerFails[ticketID]
}

func (e *Engine) resetScorerFailure(ticketID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scorerFails, ticketID)
}

func (e *Engine) isQuarantined(ticketID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quarantined[ticketID]
}

func (e *Engine) notify(ctx context.Context, n Notification) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, n)
}

func (e *Engine) publish(ctx context.Context, event events.Event) {
	if e.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.SchemaVersion == "" {
		event.SchemaVersion = events.SchemaVersion
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	_ = e.dispatcher.Publish(ctx, event)
}

func actionSucceeded(wf *domain.ActionWorkflow, action string) bool {
	for _, a := range wf.Attempts {
		if a.ActionName == action && a.Outcome == domain.OutcomeSucceeded {
			return true
		}
	}
	return false
}

func allActionsSucceeded(wf *domain.ActionWorkflow) bool {
	for _, action := range wf.Actions {
		if !actionSucceeded(wf, action) {
			return false
		}
	}
	return true
}
