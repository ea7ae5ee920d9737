package scoring

import (
	"context"

	"github.com/spec-kit/sla-guard/internal/domain"
)

const heuristicConfidence = 0.85

// HeuristicScorer prices breach risk from time remaining. Used when no model
// endpoint is configured, and as a local stand-in during development.
type HeuristicScorer struct{}

// NewHeuristicScorer constructs the scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score derives a probability from the remaining response and resolution
// windows in the feature vector.
func (s *HeuristicScorer) Score(_ context.Context, vector domain.FeatureVector) (Prediction, error) {
	responseRemaining := vector.Feature("response_remaining_minutes")
	resolutionRemaining := vector.Feature("resolution_remaining_minutes")

	var probability float64
	switch {
	case responseRemaining <= 5:
		probability = 0.9
	case responseRemaining <= 15:
		probability = 0.7
	case resolutionRemaining <= 60:
		probability = 0.6
	default:
		probability = 0.3
	}

	return Prediction{Probability: probability, Confidence: heuristicConfidence}, nil
}
