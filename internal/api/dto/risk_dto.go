package dto

import (
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
)

// IngestEventRequest is the POST /v1/events payload.
type IngestEventRequest struct {
	EventID      string    `json:"event_id"`
	TicketID     string    `json:"ticket_id"`
	Title        string    `json:"title"`
	Priority     int       `json:"priority"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	AssignedTech *string   `json:"assigned_tech,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// IngestEventResponse acknowledges an event.
type IngestEventResponse struct {
	EventID     string `json:"event_id"`
	Disposition string `json:"disposition"`
}

// ActionCompletionRequest is the POST /v1/actions/completions payload sent
// by the downstream automation system.
type ActionCompletionRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Outcome        string `json:"outcome"`
	Detail         string `json:"detail,omitempty"`
}

// QueueEntryResponse is one row of the prioritized intervention queue.
type QueueEntryResponse struct {
	Position          int                   `json:"position"`
	TicketID          string                `json:"ticket_id"`
	Title             string                `json:"title,omitempty"`
	Priority          int                   `json:"priority"`
	Category          domain.TicketCategory `json:"category"`
	Band              domain.RiskBand       `json:"band"`
	Probability       float64               `json:"probability"`
	Confidence        float64               `json:"confidence"`
	TimeToBreachSec   int64                 `json:"time_to_breach_seconds"`
	RecommendedAction string                `json:"recommended_action"`
	Degraded          bool                  `json:"degraded,omitempty"`
}

// TicketRiskResponse is the GET /v1/tickets/:id view: the stored ticket plus
// its latest assessment and active workflow, when present.
type TicketRiskResponse struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	Priority           int                   `json:"priority"`
	Category           domain.TicketCategory `json:"category"`
	Status             domain.TicketStatus   `json:"status"`
	AssignedTech       *string               `json:"assigned_tech,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	ResponseDeadline   time.Time             `json:"response_deadline"`
	ResolutionDeadline time.Time             `json:"resolution_deadline"`
	Assessment         *AssessmentResponse   `json:"assessment,omitempty"`
	Workflow           *WorkflowResponse     `json:"workflow,omitempty"`
}

// AssessmentResponse is one risk assessment.
type AssessmentResponse struct {
	ID              string          `json:"id"`
	Band            domain.RiskBand `json:"band"`
	Probability     float64         `json:"probability"`
	Confidence      float64         `json:"confidence"`
	TimeToBreachSec int64           `json:"time_to_breach_seconds"`
	Degraded        bool            `json:"degraded,omitempty"`
	SchemaVersion   string          `json:"schema_version"`
	AssessedAt      time.Time       `json:"assessed_at"`
}

// WorkflowResponse is the active workflow for a ticket, including its
// transition audit trail.
type WorkflowResponse struct {
	ID          string               `json:"id"`
	Generation  int                  `json:"generation"`
	State       domain.WorkflowState `json:"state"`
	Actions     []string             `json:"actions"`
	RetryCount  int                  `json:"retry_count"`
	Attempts    []AttemptResponse    `json:"attempts,omitempty"`
	Transitions []TransitionResponse `json:"transitions,omitempty"`
}

// TransitionResponse is one audit trail entry.
type TransitionResponse struct {
	FromState  domain.WorkflowState `json:"from_state"`
	ToState    domain.WorkflowState `json:"to_state"`
	Reason     string               `json:"reason"`
	AssessedAt *time.Time           `json:"assessed_at,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// AttemptResponse is one dispatch attempt.
type AttemptResponse struct {
	ActionName     string               `json:"action_name"`
	IdempotencyKey string               `json:"idempotency_key"`
	Attempt        int                  `json:"attempt"`
	Outcome        domain.ActionOutcome `json:"outcome"`
	Detail         string               `json:"detail,omitempty"`
	DispatchedAt   time.Time            `json:"dispatched_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
}
