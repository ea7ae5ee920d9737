package features

import "context"

// ActiveCounter reports the number of tickets currently under watch.
type ActiveCounter interface {
	Len() int
}

// SystemAggregates sources the active-ticket count from the live risk queue
// and leaves the remaining statistics to their imputation defaults.
type SystemAggregates struct {
	counter ActiveCounter
}

// NewSystemAggregates constructs the source. A nil counter yields fully
// imputed aggregates.
func NewSystemAggregates(counter ActiveCounter) *SystemAggregates {
	return &SystemAggregates{counter: counter}
}

// Snapshot implements AggregateSource.
func (s *SystemAggregates) Snapshot(ctx context.Context) Aggregates {
	if s.counter == nil {
		return Aggregates{}
	}
	active := float64(s.counter.Len())
	return Aggregates{ActiveTickets: &active}
}
