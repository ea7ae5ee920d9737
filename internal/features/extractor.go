package features

import (
	"context"
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

// Imputation defaults applied when rolling aggregates are unavailable.
// Values mirror the historical fleet averages the model was trained against;
// missing history is never silently zeroed.
const (
	DefaultAvgResolutionMinutes  = 240.0
	DefaultBreachRate            = 0.15
	DefaultEscalationRate        = 0.25
	DefaultActiveTickets         = 10.0
	DefaultTechnicianUtilization = 0.7
	DefaultAvgResponseMinutes    = 30.0
)

// Aggregates carries rolling system-load statistics. Nil fields mean the
// statistic is unknown and the documented default is imputed.
type Aggregates struct {
	AvgResolutionMinutes  *float64
	BreachRate            *float64
	EscalationRate        *float64
	ActiveTickets         *float64
	TechnicianUtilization *float64
	AvgResponseMinutes    *float64
}

// AggregateSource supplies the current rolling aggregates. Implementations
// may return zero-value Aggregates when no history exists.
type AggregateSource interface {
	Snapshot(ctx context.Context) Aggregates
}

// Extractor derives fixed-width feature vectors from tickets.
type Extractor struct {
	aggregates AggregateSource
}

// NewExtractor constructs the extractor.
func NewExtractor(aggregates AggregateSource) *Extractor {
	return &Extractor{aggregates: aggregates}
}

// Extract produces the feature vector for a ticket at the given instant.
// Deterministic for identical (ticket, aggregates, now) inputs. Fails only
// when the ticket itself is absent.
func (e *Extractor) Extract(ctx context.Context, ticket *domain.Ticket, now time.Time) (domain.FeatureVector, error) {
	if ticket == nil {
		return domain.FeatureVector{}, apperrors.NewInsufficientData("")
	}

	var agg Aggregates
	if e.aggregates != nil {
		agg = e.aggregates.Snapshot(ctx)
	}

	values := []float64{
		float64(ticket.Priority),
		boolFeature(ticket.Status == domain.TicketStatusOpen),
		boolFeature(ticket.Status == domain.TicketStatusInProgress),
		remainingMinutes(ticket.ResponseDeadline, now),
		remainingMinutes(ticket.ResolutionDeadline, now),
		boolFeature(ticket.Category == domain.CategoryHardware),
		boolFeature(ticket.Category == domain.CategorySoftware),
		boolFeature(ticket.Category == domain.CategoryInfrastructure),
		boolFeature(ticket.Category == domain.CategoryAccess),
		impute(agg.AvgResolutionMinutes, DefaultAvgResolutionMinutes),
		impute(agg.BreachRate, DefaultBreachRate),
		impute(agg.EscalationRate, DefaultEscalationRate),
		impute(agg.ActiveTickets, DefaultActiveTickets),
		impute(agg.TechnicianUtilization, DefaultTechnicianUtilization),
		impute(agg.AvgResponseMinutes, DefaultAvgResponseMinutes),
	}

	return domain.FeatureVector{
		TicketID:      ticket.ID,
		SchemaVersion: domain.FeatureSchemaVersion,
		Values:        values,
		ExtractedAt:   now,
	}, nil
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func remainingMinutes(deadline, now time.Time) float64 {
	remaining := deadline.Sub(now).Minutes()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func impute(value *float64, fallback float64) float64 {
	if value != nil {
		return *value
	}
	return fallback
}
