package scoring

import (
	"context"

	"github.com/spec-kit/sla-guard/internal/domain"
)

// Prediction is the scorer output for one feature vector.
type Prediction struct {
	Probability float64
	Confidence  float64
}

// Scorer wraps the external prediction capability. Calls are stateless and
// safely retryable; failures surface as SCORER_UNAVAILABLE errors and the
// caller applies the fallback policy.
type Scorer interface {
	Score(ctx context.Context, vector domain.FeatureVector) (Prediction, error)
}

// Blend combines the rule-based probability with the model prediction,
// weighting the model by its own confidence.
func Blend(ruleProbability float64, pred Prediction) float64 {
	p := ruleProbability*(1-pred.Confidence) + pred.Probability*pred.Confidence
	return clamp01(p)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
