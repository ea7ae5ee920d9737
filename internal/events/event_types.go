package events

import (
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
)

// SchemaVersion stamps every internal event payload.
const SchemaVersion = "v1"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketUpserted      EventType = "ticket_upserted"
	EventTicketClosed        EventType = "ticket_closed"
	EventAssessmentProduced  EventType = "assessment_produced"
	EventWorkflowTransition  EventType = "workflow_transition"
	EventWorkflowEscalated   EventType = "workflow_escalated"
	EventInvariantViolation  EventType = "invariant_violation"
	EventDegradedAssessment  EventType = "degraded_assessment"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	TicketID      string      `json:"ticket_id"`
	SchemaVersion string      `json:"schema_version"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// TicketUpsertedPayload payload.
type TicketUpsertedPayload struct {
	Priority int                   `json:"priority"`
	Category domain.TicketCategory `json:"category"`
	Status   domain.TicketStatus   `json:"status"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	Status domain.TicketStatus `json:"status"`
}

// AssessmentProducedPayload payload.
type AssessmentProducedPayload struct {
	Band        domain.RiskBand `json:"band"`
	PrevBand    domain.RiskBand `json:"prev_band,omitempty"`
	Probability float64         `json:"probability"`
	Degraded    bool            `json:"degraded"`
	AssessedAt  time.Time       `json:"assessed_at"`
}

// WorkflowTransitionPayload payload.
type WorkflowTransitionPayload struct {
	WorkflowID string               `json:"workflow_id"`
	Generation int                  `json:"generation"`
	FromState  domain.WorkflowState `json:"from_state"`
	ToState    domain.WorkflowState `json:"to_state"`
	Reason     string               `json:"reason,omitempty"`
}

// WorkflowEscalatedPayload payload.
type WorkflowEscalatedPayload struct {
	WorkflowID string   `json:"workflow_id"`
	Generation int      `json:"generation"`
	Actions    []string `json:"actions"`
	RetryCount int      `json:"retry_count"`
}

// InvariantViolationPayload payload.
type InvariantViolationPayload struct {
	Detail string `json:"detail"`
}
