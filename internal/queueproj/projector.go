// Package queueproj maintains the "What Next" read projection: a priority
// ordered view over active tickets, updated incrementally as assessments and
// workflow states change. Only this package writes to the projection.
package queueproj

import (
	"sort"
	"sync"

	"github.com/spec-kit/sla-guard/internal/domain"
	"github.com/spec-kit/sla-guard/internal/observability"
)

// Projector is the in-memory ordered projection.
type Projector struct {
	mu      sync.RWMutex
	byID    map[string]int // ticket ID -> index into ordered
	ordered []domain.QueueEntry
}

// NewProjector creates an empty projection.
func NewProjector() *Projector {
	return &Projector{
		byID: make(map[string]int),
	}
}

// Upsert inserts or repositions one ticket's entry. The slice stays sorted,
// so each update touches only the affected entry's neighborhood.
func (p *Projector) Upsert(entry domain.QueueEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removeLocked(entry.TicketID)

	idx := sort.Search(len(p.ordered), func(i int) bool {
		return entry.Less(p.ordered[i])
	})
	p.ordered = append(p.ordered, domain.QueueEntry{})
	copy(p.ordered[idx+1:], p.ordered[idx:])
	p.ordered[idx] = entry

	p.reindexLocked(idx)
	observability.SetQueueDepth(len(p.ordered))
}

// Remove drops a ticket from the projection, typically on close.
func (p *Projector) Remove(ticketID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(ticketID)
	observability.SetQueueDepth(len(p.ordered))
}

// CurrentQueue returns an ordered snapshot, consistent at one instant.
func (p *Projector) CurrentQueue() []domain.QueueEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make([]domain.QueueEntry, len(p.ordered))
	copy(snapshot, p.ordered)
	for i := range snapshot {
		snapshot[i].Position = i + 1
	}
	return snapshot
}

// Len reports the projection depth.
func (p *Projector) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ordered)
}

func (p *Projector) removeLocked(ticketID string) {
	idx, ok := p.byID[ticketID]
	if !ok {
		return
	}
	delete(p.byID, ticketID)
	p.ordered = append(p.ordered[:idx], p.ordered[idx+1:]...)
	p.reindexLocked(idx)
}

func (p *Projector) reindexLocked(from int) {
	for i := from; i < len(p.ordered); i++ {
		p.byID[p.ordered[i].TicketID] = i
	}
}
