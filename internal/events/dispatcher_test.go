package events

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishLogsAndContinuesPastFailingHandler(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var calls []string
	d.Subscribe(EventWorkflowEscalated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return fmt.Errorf("handler broken")
	})
	d.Subscribe(EventWorkflowEscalated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventWorkflowEscalated, TicketID: "INC-1"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(calls) != 2 || calls[1] != "second" {
		t.Fatalf("calls = %v, want both handlers invoked in order", calls)
	}
	if logs.FilterMessage("event handler failed").Len() != 1 {
		t.Fatalf("handler failure not logged: %+v", logs.All())
	}
}

func TestPublishOnlyReachesMatchingSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	invoked := false
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		invoked = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketUpserted, TicketID: "INC-2"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if invoked {
		t.Fatal("handler invoked for an unrelated event type")
	}
}
