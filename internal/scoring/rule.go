package scoring

import (
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
)

// RuleProbability computes the elapsed-time breach probability for a ticket.
// Response risk dominates while the ticket is still unacknowledged; resolved
// and closed tickets carry zero risk.
func RuleProbability(ticket *domain.Ticket, now time.Time) float64 {
	if ticket == nil || ticket.IsResolved() {
		return 0
	}

	elapsed := now.Sub(ticket.CreatedAt)
	responseWindow := ticket.ResponseDeadline.Sub(ticket.CreatedAt)
	resolutionWindow := ticket.ResolutionDeadline.Sub(ticket.CreatedAt)

	responseRisk := windowRisk(elapsed, responseWindow)
	resolutionRisk := windowRisk(elapsed, resolutionWindow)

	responseWeight := 0.3
	if ticket.Status == domain.TicketStatusOpen {
		responseWeight = 0.7
	}
	return clamp01(responseRisk*responseWeight + resolutionRisk*(1-responseWeight))
}

// TimeToBreach returns the shorter of the remaining response and resolution
// windows, floored at zero.
func TimeToBreach(ticket *domain.Ticket, now time.Time) time.Duration {
	responseLeft := ticket.ResponseDeadline.Sub(now)
	resolutionLeft := ticket.ResolutionDeadline.Sub(now)
	remaining := responseLeft
	if resolutionLeft < remaining {
		remaining = resolutionLeft
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

func windowRisk(elapsed, window time.Duration) float64 {
	if window <= 0 {
		return 1
	}
	risk := float64(elapsed) / float64(window)
	return clamp01(risk)
}
