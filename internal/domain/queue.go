package domain

import "time"

// QueueEntry is the read-only "What Next" projection row for one ticket.
type QueueEntry struct {
	Position          int
	TicketID          string
	Title             string
	Priority          int
	Category          TicketCategory
	Band              RiskBand
	Probability       float64
	Confidence        float64
	TimeToBreach      time.Duration
	RecommendedAction string
	Degraded          bool
}

// Less orders queue entries by band severity desc, probability desc,
// time-to-breach asc, then ticket ID for a deterministic snapshot.
func (e QueueEntry) Less(other QueueEntry) bool {
	if e.Band.Severity() != other.Band.Severity() {
		return e.Band.Severity() > other.Band.Severity()
	}
	if e.Probability != other.Probability {
		return e.Probability > other.Probability
	}
	if e.TimeToBreach != other.TimeToBreach {
		return e.TimeToBreach < other.TimeToBreach
	}
	return e.TicketID < other.TicketID
}
