package features

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

type staticAggregates struct {
	agg Aggregates
}

func (s staticAggregates) Snapshot(context.Context) Aggregates { return s.agg }

func extractorTicket() (*domain.Ticket, time.Time) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Ticket{
		ID:                 "INC-42",
		Priority:           1,
		Category:           domain.CategoryHardware,
		Status:             domain.TicketStatusOpen,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
		ResponseDeadline:   createdAt.Add(15 * time.Minute),
		ResolutionDeadline: createdAt.Add(4 * time.Hour),
	}, createdAt.Add(5 * time.Minute)
}

func TestExtractVectorLayout(t *testing.T) {
	extractor := NewExtractor(nil)
	ticket, now := extractorTicket()

	vector, err := extractor.Extract(context.Background(), ticket, now)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(vector.Values) != len(domain.FeatureNames) {
		t.Fatalf("vector length = %d, want %d", len(vector.Values), len(domain.FeatureNames))
	}
	if vector.SchemaVersion != domain.FeatureSchemaVersion {
		t.Fatalf("schema version = %q", vector.SchemaVersion)
	}
	if got := vector.Feature("priority"); got != 1 {
		t.Fatalf("priority feature = %v", got)
	}
	if got := vector.Feature("status_open"); got != 1 {
		t.Fatalf("status_open feature = %v", got)
	}
	if got := vector.Feature("status_in_progress"); got != 0 {
		t.Fatalf("status_in_progress feature = %v", got)
	}
	if got := vector.Feature("response_remaining_minutes"); got != 10 {
		t.Fatalf("response_remaining_minutes = %v, want 10", got)
	}
	if got := vector.Feature("category_hardware"); got != 1 {
		t.Fatalf("category_hardware = %v", got)
	}
	if got := vector.Feature("category_software"); got != 0 {
		t.Fatalf("category_software = %v", got)
	}
}

func TestExtractImputesMissingAggregates(t *testing.T) {
	extractor := NewExtractor(staticAggregates{})
	ticket, now := extractorTicket()

	vector, err := extractor.Extract(context.Background(), ticket, now)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	checks := map[string]float64{
		"avg_resolution_time":    DefaultAvgResolutionMinutes,
		"breach_rate":            DefaultBreachRate,
		"escalation_rate":        DefaultEscalationRate,
		"active_tickets":         DefaultActiveTickets,
		"technician_utilization": DefaultTechnicianUtilization,
		"avg_response_time":      DefaultAvgResponseMinutes,
	}
	for name, want := range checks {
		if got := vector.Feature(name); got != want {
			t.Fatalf("%s = %v, want imputed %v", name, got, want)
		}
	}
}

func TestExtractUsesProvidedAggregates(t *testing.T) {
	breachRate := 0.42
	extractor := NewExtractor(staticAggregates{agg: Aggregates{BreachRate: &breachRate}})
	ticket, now := extractorTicket()

	vector, err := extractor.Extract(context.Background(), ticket, now)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := vector.Feature("breach_rate"); got != breachRate {
		t.Fatalf("breach_rate = %v, want %v", got, breachRate)
	}
	// Unset fields still fall back.
	if got := vector.Feature("active_tickets"); got != DefaultActiveTickets {
		t.Fatalf("active_tickets = %v, want %v", got, DefaultActiveTickets)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	extractor := NewExtractor(staticAggregates{})
	ticket, now := extractorTicket()

	first, err := extractor.Extract(context.Background(), ticket, now)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	second, err := extractor.Extract(context.Background(), ticket, now)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !reflect.DeepEqual(first.Values, second.Values) {
		t.Fatalf("same inputs produced different vectors: %v vs %v", first.Values, second.Values)
	}
}

func TestExtractClampsExpiredWindows(t *testing.T) {
	extractor := NewExtractor(nil)
	ticket, _ := extractorTicket()

	vector, err := extractor.Extract(context.Background(), ticket, ticket.ResolutionDeadline.Add(time.Hour))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := vector.Feature("response_remaining_minutes"); got != 0 {
		t.Fatalf("response_remaining_minutes = %v, want 0", got)
	}
	if got := vector.Feature("resolution_remaining_minutes"); got != 0 {
		t.Fatalf("resolution_remaining_minutes = %v, want 0", got)
	}
}

func TestExtractNilTicket(t *testing.T) {
	extractor := NewExtractor(nil)
	if _, err := extractor.Extract(context.Background(), nil, time.Now()); !apperrors.IsCode(err, "INSUFFICIENT_DATA") {
		t.Fatalf("expected INSUFFICIENT_DATA, got %v", err)
	}
}
