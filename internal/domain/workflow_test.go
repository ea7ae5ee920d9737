package domain

import (
	"testing"
	"time"
)

func TestIdempotencyKeyFormat(t *testing.T) {
	wf := &ActionWorkflow{TicketID: "INC-9", Generation: 3}
	if got := wf.IdempotencyKey("boost-priority"); got != "INC-9:3:boost-priority" {
		t.Fatalf("key = %q", got)
	}
}

func TestIdempotencyKeyChangesPerGeneration(t *testing.T) {
	first := &ActionWorkflow{TicketID: "INC-9", Generation: 1}
	second := &ActionWorkflow{TicketID: "INC-9", Generation: 2}
	if first.IdempotencyKey("boost-priority") == second.IdempotencyKey("boost-priority") {
		t.Fatal("generations must not share idempotency keys")
	}
}

func TestWorkflowTerminalStates(t *testing.T) {
	terminal := map[WorkflowState]bool{
		WorkflowEscalated: true,
		WorkflowClosed:    true,
	}
	all := []WorkflowState{
		WorkflowIdle,
		WorkflowEvaluating,
		WorkflowActionPending,
		WorkflowActionInProgress,
		WorkflowActionSucceeded,
		WorkflowActionFailed,
		WorkflowEscalated,
		WorkflowClosed,
	}
	for _, state := range all {
		if state.IsTerminal() != terminal[state] {
			t.Fatalf("IsTerminal(%s) = %v", state, state.IsTerminal())
		}
	}
}

func TestOpenAttempts(t *testing.T) {
	completed := time.Now()
	wf := &ActionWorkflow{
		Attempts: []ActionAttempt{
			{IdempotencyKey: "a", Outcome: OutcomePending},
			{IdempotencyKey: "b", Outcome: OutcomeSucceeded, CompletedAt: &completed},
			{IdempotencyKey: "c", Outcome: OutcomePending},
		},
	}
	open := wf.OpenAttempts()
	if len(open) != 2 || open[0].IdempotencyKey != "a" || open[1].IdempotencyKey != "c" {
		t.Fatalf("open attempts = %+v", open)
	}
}
