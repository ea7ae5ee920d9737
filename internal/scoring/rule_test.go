package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
)

func testTicket(status domain.TicketStatus, responseWindow, resolutionWindow time.Duration) (*domain.Ticket, time.Time) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Ticket{
		ID:                 "INC-1",
		Priority:           2,
		Category:           domain.CategorySoftware,
		Status:             status,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
		ResponseDeadline:   createdAt.Add(responseWindow),
		ResolutionDeadline: createdAt.Add(resolutionWindow),
	}, createdAt
}

func TestRuleProbabilityResolvedIsZero(t *testing.T) {
	ticket, createdAt := testTicket(domain.TicketStatusResolved, time.Hour, 8*time.Hour)
	if got := RuleProbability(ticket, createdAt.Add(10*time.Hour)); got != 0 {
		t.Fatalf("resolved ticket probability = %v, want 0", got)
	}
}

func TestRuleProbabilityGrowsWithElapsedTime(t *testing.T) {
	ticket, createdAt := testTicket(domain.TicketStatusOpen, time.Hour, 8*time.Hour)

	early := RuleProbability(ticket, createdAt.Add(10*time.Minute))
	late := RuleProbability(ticket, createdAt.Add(50*time.Minute))
	if late <= early {
		t.Fatalf("probability should grow with elapsed time: early=%v late=%v", early, late)
	}
}

func TestRuleProbabilityOpenWeighsResponseWindow(t *testing.T) {
	open, createdAt := testTicket(domain.TicketStatusOpen, time.Hour, 8*time.Hour)
	inProgress, _ := testTicket(domain.TicketStatusInProgress, time.Hour, 8*time.Hour)

	at := createdAt.Add(45 * time.Minute)
	if RuleProbability(open, at) <= RuleProbability(inProgress, at) {
		t.Fatal("open ticket near response deadline should score above in-progress ticket")
	}
}

func TestRuleProbabilityPastDeadlinesClamps(t *testing.T) {
	ticket, createdAt := testTicket(domain.TicketStatusOpen, time.Hour, 2*time.Hour)
	if got := RuleProbability(ticket, createdAt.Add(3*time.Hour)); got != 1 {
		t.Fatalf("probability past both deadlines = %v, want 1", got)
	}
}

func TestTimeToBreachTakesNearestDeadline(t *testing.T) {
	ticket, createdAt := testTicket(domain.TicketStatusOpen, time.Hour, 8*time.Hour)

	got := TimeToBreach(ticket, createdAt.Add(30*time.Minute))
	if got != 30*time.Minute {
		t.Fatalf("TimeToBreach = %v, want 30m", got)
	}
}

func TestTimeToBreachFloorsAtZero(t *testing.T) {
	ticket, createdAt := testTicket(domain.TicketStatusOpen, time.Hour, 2*time.Hour)
	if got := TimeToBreach(ticket, createdAt.Add(5*time.Hour)); got != 0 {
		t.Fatalf("TimeToBreach past deadlines = %v, want 0", got)
	}
}

func TestBlendWeightsModelByConfidence(t *testing.T) {
	cases := []struct {
		name string
		rule float64
		pred Prediction
		want float64
	}{
		{"zero confidence keeps rule", 0.4, Prediction{Probability: 0.9, Confidence: 0}, 0.4},
		{"full confidence keeps model", 0.4, Prediction{Probability: 0.9, Confidence: 1}, 0.9},
		{"half confidence averages", 0.4, Prediction{Probability: 0.8, Confidence: 0.5}, 0.6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Blend(tc.rule, tc.pred)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Blend = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBlendClampsToUnitInterval(t *testing.T) {
	if got := Blend(0.9, Prediction{Probability: 1.5, Confidence: 1}); got != 1 {
		t.Fatalf("Blend above 1 = %v, want 1", got)
	}
	if got := Blend(0, Prediction{Probability: -0.5, Confidence: 1}); got != 0 {
		t.Fatalf("Blend below 0 = %v, want 0", got)
	}
}
