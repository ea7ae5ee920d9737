package scoring

import (
	"context"
	"testing"

	"github.com/spec-kit/sla-guard/internal/domain"
)

func vectorWithRemaining(t *testing.T, responseMin, resolutionMin float64) domain.FeatureVector {
	t.Helper()
	values := make([]float64, len(domain.FeatureNames))
	vector := domain.FeatureVector{SchemaVersion: domain.FeatureSchemaVersion, Values: values}
	for i, name := range domain.FeatureNames {
		switch name {
		case "response_remaining_minutes":
			values[i] = responseMin
		case "resolution_remaining_minutes":
			values[i] = resolutionMin
		}
	}
	return vector
}

func TestHeuristicScorerBands(t *testing.T) {
	cases := []struct {
		name            string
		responseMin     float64
		resolutionMin   float64
		wantProbability float64
	}{
		{"response nearly gone", 3, 500, 0.9},
		{"response tight", 12, 500, 0.7},
		{"resolution tight", 120, 45, 0.6},
		{"comfortable", 120, 500, 0.3},
	}

	scorer := NewHeuristicScorer()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pred, err := scorer.Score(context.Background(), vectorWithRemaining(t, tc.responseMin, tc.resolutionMin))
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if pred.Probability != tc.wantProbability {
				t.Fatalf("probability = %v, want %v", pred.Probability, tc.wantProbability)
			}
			if pred.Confidence != heuristicConfidence {
				t.Fatalf("confidence = %v, want %v", pred.Confidence, heuristicConfidence)
			}
		})
	}
}
