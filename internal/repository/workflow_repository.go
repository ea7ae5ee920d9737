package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-guard/internal/domain"
)

// WorkflowRepository persists action workflows, their attempts, and the
// transition audit log.
type WorkflowRepository interface {
	// GetActive returns the ticket's non-terminal workflow, or nil.
	GetActive(ctx context.Context, ticketID string) (*domain.ActionWorkflow, error)
	// CountActive reports how many non-terminal workflows exist for a ticket.
	// Anything above one is an invariant violation.
	CountActive(ctx context.Context, ticketID string) (int, error)
	// MaxGeneration returns the highest workflow generation seen for a ticket.
	MaxGeneration(ctx context.Context, ticketID string) (int, error)
	// SaveTransition persists the workflow state plus its audit record in a
	// single transaction.
	SaveTransition(ctx context.Context, wf *domain.ActionWorkflow, rec domain.TransitionRecord) error
	// ListNonTerminal returns workflows to resume after a restart.
	ListNonTerminal(ctx context.Context) ([]domain.ActionWorkflow, error)
	// ListTransitions returns the audit trail for a workflow.
	ListTransitions(ctx context.Context, workflowID string) ([]domain.TransitionRecord, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository instantiates repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

func (r *workflowRepository) GetActive(ctx context.Context, ticketID string) (*domain.ActionWorkflow, error) {
	const query = `
        SELECT id, ticket_id, generation, state, actions, retry_count, trigger_at, last_transition, created_at
        FROM action_workflows
        WHERE ticket_id=$1 AND state NOT IN ('ESCALATED','CLOSED')
        ORDER BY generation DESC LIMIT 1`
	wf, err := r.scanWorkflow(r.pool.QueryRow(ctx, query, ticketID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	wf.Attempts, err = r.listAttempts(ctx, wf.ID)
	return wf, err
}

func (r *workflowRepository) CountActive(ctx context.Context, ticketID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM action_workflows
        WHERE ticket_id=$1 AND state NOT IN ('ESCALATED','CLOSED')`
	var count int
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(&count)
	return count, err
}

func (r *workflowRepository) MaxGeneration(ctx context.Context, ticketID string) (int, error) {
	const query = `SELECT COALESCE(MAX(generation), 0) FROM action_workflows WHERE ticket_id=$1`
	var gen int
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(&gen)
	return gen, err
}

func (r *workflowRepository) SaveTransition(ctx context.Context, wf *domain.ActionWorkflow, rec domain.TransitionRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const upsert = `
        INSERT INTO action_workflows (id, ticket_id, generation, state, actions, retry_count,
                                      trigger_at, last_transition, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (id) DO UPDATE SET
            state=EXCLUDED.state, actions=EXCLUDED.actions, retry_count=EXCLUDED.retry_count,
            trigger_at=EXCLUDED.trigger_at, last_transition=EXCLUDED.last_transition`
	if _, err := tx.Exec(ctx, upsert,
		wf.ID, wf.TicketID, wf.Generation, wf.State, wf.Actions,
		wf.RetryCount, wf.TriggerAt, wf.LastTransition, wf.CreatedAt,
	); err != nil {
		return err
	}

	const upsertAttempt = `
        INSERT INTO action_attempts (workflow_id, action_name, idempotency_key, attempt,
                                     dispatched_at, completed_at, outcome, detail)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (idempotency_key, attempt) DO UPDATE SET
            completed_at=EXCLUDED.completed_at, outcome=EXCLUDED.outcome, detail=EXCLUDED.detail`
	for _, attempt := range wf.Attempts {
		if _, err := tx.Exec(ctx, upsertAttempt,
			wf.ID, attempt.ActionName, attempt.IdempotencyKey, attempt.Attempt,
			attempt.DispatchedAt, attempt.CompletedAt, attempt.Outcome, attempt.Detail,
		); err != nil {
			return err
		}
	}

	const insertTransition = `
        INSERT INTO workflow_transitions (id, workflow_id, ticket_id, from_state, to_state,
                                          assessed_at, reason, occurred_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	var assessedAt *time.Time
	if !rec.AssessedAt.IsZero() {
		assessedAt = &rec.AssessedAt
	}
	if _, err := tx.Exec(ctx, insertTransition,
		rec.ID, rec.WorkflowID, rec.TicketID, rec.FromState, rec.ToState,
		assessedAt, rec.Reason, rec.OccurredAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *workflowRepository) ListNonTerminal(ctx context.Context) ([]domain.ActionWorkflow, error) {
	const query = `
        SELECT id, ticket_id, generation, state, actions, retry_count, trigger_at, last_transition, created_at
        FROM action_workflows
        WHERE state NOT IN ('ESCALATED','CLOSED')
        ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActionWorkflow
	for rows.Next() {
		wf, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *wf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		attempts, err := r.listAttempts(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Attempts = attempts
	}
	return result, nil
}

func (r *workflowRepository) ListTransitions(ctx context.Context, workflowID string) ([]domain.TransitionRecord, error) {
	const query = `
        SELECT id, workflow_id, ticket_id, from_state, to_state, assessed_at, reason, occurred_at
        FROM workflow_transitions WHERE workflow_id=$1 ORDER BY occurred_at`
	rows, err := r.pool.Query(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TransitionRecord
	for rows.Next() {
		var rec domain.TransitionRecord
		var assessedAt *time.Time
		if err := rows.Scan(
			&rec.ID, &rec.WorkflowID, &rec.TicketID, &rec.FromState,
			&rec.ToState, &assessedAt, &rec.Reason, &rec.OccurredAt,
		); err != nil {
			return nil, err
		}
		if assessedAt != nil {
			rec.AssessedAt = *assessedAt
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *workflowRepository) scanWorkflow(row pgx.Row) (*domain.ActionWorkflow, error) {
	var wf domain.ActionWorkflow
	if err := row.Scan(
		&wf.ID,
		&wf.TicketID,
		&wf.Generation,
		&wf.State,
		&wf.Actions,
		&wf.RetryCount,
		&wf.TriggerAt,
		&wf.LastTransition,
		&wf.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *workflowRepository) listAttempts(ctx context.Context, workflowID string) ([]domain.ActionAttempt, error) {
	const query = `
        SELECT action_name, idempotency_key, attempt, dispatched_at, completed_at, outcome, detail
        FROM action_attempts WHERE workflow_id=$1 ORDER BY dispatched_at`
	rows, err := r.pool.Query(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActionAttempt
	for rows.Next() {
		var a domain.ActionAttempt
		if err := rows.Scan(
			&a.ActionName, &a.IdempotencyKey, &a.Attempt,
			&a.DispatchedAt, &a.CompletedAt, &a.Outcome, &a.Detail,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
