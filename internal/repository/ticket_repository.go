package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-guard/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Upsert(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListOpen(ctx context.Context) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Upsert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, priority, category, status, assigned_tech,
                             created_at, updated_at, response_deadline, resolution_deadline, closed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (id) DO UPDATE SET
            title=EXCLUDED.title, priority=EXCLUDED.priority, category=EXCLUDED.category,
            status=EXCLUDED.status, assigned_tech=EXCLUDED.assigned_tech,
            updated_at=EXCLUDED.updated_at, response_deadline=EXCLUDED.response_deadline,
            resolution_deadline=EXCLUDED.resolution_deadline, closed_at=EXCLUDED.closed_at`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Priority,
		ticket.Category,
		ticket.Status,
		ticket.AssignedTech,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ResponseDeadline,
		ticket.ResolutionDeadline,
		ticket.ClosedAt,
	)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, priority, category, status, assigned_tech,
               created_at, updated_at, response_deadline, resolution_deadline, closed_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Priority,
		&ticket.Category,
		&ticket.Status,
		&ticket.AssignedTech,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResponseDeadline,
		&ticket.ResolutionDeadline,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT id, title, priority, category, status, assigned_tech,
               created_at, updated_at, response_deadline, resolution_deadline, closed_at
        FROM tickets WHERE status NOT IN ('CLOSED','CANCELLED')
        ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Priority,
			&ticket.Category,
			&ticket.Status,
			&ticket.AssignedTech,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ResponseDeadline,
			&ticket.ResolutionDeadline,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
