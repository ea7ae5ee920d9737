package domain

import "time"

// RiskBand classifies breach probability into discrete severity levels.
type RiskBand string

const (
	BandHealthy        RiskBand = "HEALTHY"
	BandWatch          RiskBand = "WATCH"
	BandAtRisk         RiskBand = "AT_RISK"
	BandBreachImminent RiskBand = "BREACH_IMMINENT"
)

var bandSeverity = map[RiskBand]int{
	BandHealthy:        0,
	BandWatch:          1,
	BandAtRisk:         2,
	BandBreachImminent: 3,
}

// Severity returns the ordering rank of the band, higher is more severe.
func (b RiskBand) Severity() int {
	return bandSeverity[b]
}

// RiskAssessment records one scoring pass over a ticket. The latest
// assessment per ticket is current; older ones are retained for audit.
type RiskAssessment struct {
	ID            string
	TicketID      string
	Probability   float64
	Confidence    float64
	TimeToBreach  time.Duration
	Band          RiskBand
	Degraded      bool // produced by the fallback policy, not the scorer
	SchemaVersion string
	AssessedAt    time.Time
}
