package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-guard/internal/domain"
)

// time_to_breach is stored as nanoseconds.
func timeDuration(ns int64) time.Duration {
	return time.Duration(ns)
}

// AssessmentRepository stores risk assessment history per ticket.
type AssessmentRepository interface {
	Insert(ctx context.Context, assessment *domain.RiskAssessment) error
	Latest(ctx context.Context, ticketID string) (*domain.RiskAssessment, error)
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.RiskAssessment, error)
}

type assessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository instantiates repository.
func NewAssessmentRepository(pool *pgxpool.Pool) AssessmentRepository {
	return &assessmentRepository{pool: pool}
}

func (r *assessmentRepository) Insert(ctx context.Context, a *domain.RiskAssessment) error {
	const query = `
        INSERT INTO risk_assessments (id, ticket_id, probability, confidence, time_to_breach,
                                      band, degraded, schema_version, assessed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.TicketID,
		a.Probability,
		a.Confidence,
		int64(a.TimeToBreach),
		a.Band,
		a.Degraded,
		a.SchemaVersion,
		a.AssessedAt,
	)
	return err
}

func (r *assessmentRepository) Latest(ctx context.Context, ticketID string) (*domain.RiskAssessment, error) {
	const query = `
        SELECT id, ticket_id, probability, confidence, time_to_breach,
               band, degraded, schema_version, assessed_at
        FROM risk_assessments WHERE ticket_id=$1
        ORDER BY assessed_at DESC LIMIT 1`
	assessment, err := r.fetchSingle(ctx, query, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return assessment, err
}

func (r *assessmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.RiskAssessment, error) {
	var a domain.RiskAssessment
	var ttb int64
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.TicketID,
		&a.Probability,
		&a.Confidence,
		&ttb,
		&a.Band,
		&a.Degraded,
		&a.SchemaVersion,
		&a.AssessedAt,
	); err != nil {
		return nil, err
	}
	a.TimeToBreach = timeDuration(ttb)
	return &a, nil
}

func (r *assessmentRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.RiskAssessment, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, probability, confidence, time_to_breach,
               band, degraded, schema_version, assessed_at
        FROM risk_assessments WHERE ticket_id=$1
        ORDER BY assessed_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RiskAssessment
	for rows.Next() {
		var a domain.RiskAssessment
		var ttb int64
		if err := rows.Scan(
			&a.ID,
			&a.TicketID,
			&a.Probability,
			&a.Confidence,
			&ttb,
			&a.Band,
			&a.Degraded,
			&a.SchemaVersion,
			&a.AssessedAt,
		); err != nil {
			return nil, err
		}
		a.TimeToBreach = timeDuration(ttb)
		result = append(result, a)
	}
	return result, rows.Err()
}
