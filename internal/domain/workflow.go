package domain

import (
	"fmt"
	"time"
)

// WorkflowState enumerates the orchestrator state machine.
type WorkflowState string

const (
	WorkflowIdle             WorkflowState = "IDLE"
	WorkflowEvaluating       WorkflowState = "EVALUATING"
	WorkflowActionPending    WorkflowState = "ACTION_PENDING"
	WorkflowActionInProgress WorkflowState = "ACTION_IN_PROGRESS"
	WorkflowActionSucceeded  WorkflowState = "ACTION_SUCCEEDED"
	WorkflowActionFailed     WorkflowState = "ACTION_FAILED"
	WorkflowEscalated        WorkflowState = "ESCALATED"
	WorkflowClosed           WorkflowState = "CLOSED"
)

// IsTerminal reports whether no further automated transitions are possible.
func (s WorkflowState) IsTerminal() bool {
	return s == WorkflowEscalated || s == WorkflowClosed
}

// ActionOutcome enumerates completion results reported by the executor.
type ActionOutcome string

const (
	OutcomePending   ActionOutcome = "PENDING"
	OutcomeSucceeded ActionOutcome = "SUCCEEDED"
	OutcomeFailed    ActionOutcome = "FAILED"
	OutcomeCancelled ActionOutcome = "CANCELLED"
)

// ActionAttempt records one dispatched action and its eventual outcome.
type ActionAttempt struct {
	ActionName     string
	IdempotencyKey string
	Attempt        int
	DispatchedAt   time.Time
	CompletedAt    *time.Time
	Outcome        ActionOutcome
	Detail         string
}

// ActionWorkflow is the per-ticket preventive action state machine. At most
// one workflow per ticket may be in a non-terminal state.
type ActionWorkflow struct {
	ID             string
	TicketID       string
	Generation     int
	State          WorkflowState
	Actions        []string // candidate action set chosen during evaluation
	Attempts       []ActionAttempt
	RetryCount     int
	TriggerAt      time.Time // timestamp of the assessment that last drove a transition
	LastTransition time.Time
	CreatedAt      time.Time
}

// IdempotencyKey derives the stable dispatch key for one action of this
// workflow. Repeated dispatches with the same key must be no-ops downstream.
func (w *ActionWorkflow) IdempotencyKey(action string) string {
	return fmt.Sprintf("%s:%d:%s", w.TicketID, w.Generation, action)
}

// OpenAttempts returns attempts that have not completed yet.
func (w *ActionWorkflow) OpenAttempts() []ActionAttempt {
	open := make([]ActionAttempt, 0, len(w.Attempts))
	for _, a := range w.Attempts {
		if a.Outcome == OutcomePending {
			open = append(open, a)
		}
	}
	return open
}

// TransitionRecord is the audit entry persisted atomically with every
// workflow state change.
type TransitionRecord struct {
	ID         string
	WorkflowID string
	TicketID   string
	FromState  WorkflowState
	ToState    WorkflowState
	AssessedAt time.Time // assessment timestamp that triggered the transition, if any
	Reason     string
	OccurredAt time.Time
}
