package orchestrator

import (
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestLanesSerializePerTicket(t *testing.T) {
	lanes := NewLanes(4, 256, zap.NewNop())
	lanes.Start()

	var mu sync.Mutex
	seen := map[string][]int{}
	var wg sync.WaitGroup

	tickets := []string{"T-1", "T-2", "T-3", "T-4", "T-5"}
	for _, ticketID := range tickets {
		for i := 0; i < 50; i++ {
			ticketID, i := ticketID, i
			wg.Add(1)
			if !lanes.Submit(ticketID, func() {
				defer wg.Done()
				mu.Lock()
				seen[ticketID] = append(seen[ticketID], i)
				mu.Unlock()
			}) {
				t.Fatal("submit rejected")
			}
		}
	}
	wg.Wait()
	lanes.Stop()

	for _, ticketID := range tickets {
		order := seen[ticketID]
		if len(order) != 50 {
			t.Fatalf("%s processed %d tasks, want 50", ticketID, len(order))
		}
		for i, v := range order {
			if v != i {
				t.Fatalf("%s tasks ran out of order: %v", ticketID, order)
			}
		}
	}
}

func TestLanesSubmitAfterStop(t *testing.T) {
	lanes := NewLanes(2, 8, zap.NewNop())
	lanes.Start()
	lanes.Stop()

	if lanes.Submit("T-1", func() {}) {
		t.Fatal("submit after stop should be rejected")
	}
}

func TestLanesRejectWhenBufferFull(t *testing.T) {
	lanes := NewLanes(1, 1, zap.NewNop())
	// Not started: nothing drains the buffer.
	if !lanes.Submit("T-1", func() {}) {
		t.Fatal("first submit should fit the buffer")
	}
	if lanes.Submit("T-1", func() {}) {
		t.Fatal("second submit should be rejected with a full buffer")
	}
}

func TestLanesStopDrainsInFlightTasks(t *testing.T) {
	lanes := NewLanes(2, 64, zap.NewNop())
	lanes.Start()

	var done atomic.Int32
	for i := 0; i < 20; i++ {
		lanes.Submit("T-1", func() { done.Add(1) })
	}
	lanes.Stop()

	if got := done.Load(); got != 20 {
		t.Fatalf("drained %d tasks, want 20", got)
	}
}
