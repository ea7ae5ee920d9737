package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
)

// TicketChange is the normalized ticket event handed off by ingress. All
// pipeline work it triggers runs on the ticket's lane.
type TicketChange struct {
	EventID      string
	TicketID     string
	Title        string
	Priority     int
	Category     domain.TicketCategory
	Status       domain.TicketStatus
	AssignedTech *string
	OccurredAt   time.Time
}

// ActionDispatch is the payload sent to the action execution collaborator.
type ActionDispatch struct {
	IdempotencyKey string         `json:"idempotency_key"`
	TicketID       string         `json:"ticket_id"`
	ActionName     string         `json:"action_name"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

// Executor dispatches preventive actions. A nil error means the dispatch was
// accepted, not that the action completed; completion arrives asynchronously
// as a CompletionSignal. The executor must treat repeated dispatches with
// the same idempotency key as a no-op beyond the first.
type Executor interface {
	Dispatch(ctx context.Context, dispatch ActionDispatch) error
}

// CompletionSignal is the asynchronous outcome report for one dispatch.
type CompletionSignal struct {
	IdempotencyKey string
	Outcome        domain.ActionOutcome
	Detail         string
}

// TicketID extracts the ticket identifier embedded in the idempotency key.
func (s CompletionSignal) TicketID() string {
	if idx := strings.Index(s.IdempotencyKey, ":"); idx > 0 {
		return s.IdempotencyKey[:idx]
	}
	return s.IdempotencyKey
}

// Notification is the fire-and-forget payload for the alerting collaborator.
type Notification struct {
	TicketID    string          `json:"ticket_id"`
	Band        domain.RiskBand `json:"band"`
	Message     string          `json:"message"`
	ChannelHint string          `json:"channel_hint,omitempty"`
}

// Notifier delivers notifications best-effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
