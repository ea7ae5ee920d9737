package orchestrator

import (
	"hash/fnv"
	"sync"

	"go.uber.org/zap"
)

type task func()

// Lanes partitions work by ticket ID so that all processing for one ticket
// is strictly serialized while different tickets proceed concurrently.
type Lanes struct {
	lanes  []chan task
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *zap.Logger
}

// NewLanes creates a lane pool with the given fan-out and per-lane buffer.
func NewLanes(count, buffer int, logger *zap.Logger) *Lanes {
	if count <= 0 {
		count = 8
	}
	if buffer <= 0 {
		buffer = 64
	}
	lanes := make([]chan task, count)
	for i := range lanes {
		lanes[i] = make(chan task, buffer)
	}
	return &Lanes{lanes: lanes, logger: logger}
}

// Start launches one worker goroutine per lane.
func (l *Lanes) Start() {
	for i := range l.lanes {
		l.wg.Add(1)
		go func(ch chan task) {
			defer l.wg.Done()
			for fn := range ch {
				fn()
			}
		}(l.lanes[i])
	}
}

// Submit enqueues fn onto the lane owning ticketID. Returns false when the
// pool is shut down or the lane buffer is full.
func (l *Lanes) Submit(ticketID string, fn task) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	lane := l.lanes[l.laneFor(ticketID)]
	select {
	case lane <- fn:
		return true
	default:
		l.logger.Warn("lane buffer full, dropping task", zap.String("ticket_id", ticketID))
		return false
	}
}

// Stop closes all lanes and waits for in-flight tasks to drain.
func (l *Lanes) Stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for _, lane := range l.lanes {
		close(lane)
	}
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Lanes) laneFor(ticketID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ticketID))
	return int(h.Sum32() % uint32(len(l.lanes)))
}
