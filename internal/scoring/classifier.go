package scoring

import "github.com/spec-kit/sla-guard/internal/domain"

// Band thresholds are inclusive on the lower bound of each band, so exact
// boundary values resolve to the higher band.
const (
	ThresholdBreachImminent = 0.90
	ThresholdAtRisk         = 0.70
	ThresholdWatch          = 0.50
)

// Classify maps a breach probability to its risk band.
func Classify(probability float64) domain.RiskBand {
	switch {
	case probability >= ThresholdBreachImminent:
		return domain.BandBreachImminent
	case probability >= ThresholdAtRisk:
		return domain.BandAtRisk
	case probability >= ThresholdWatch:
		return domain.BandWatch
	default:
		return domain.BandHealthy
	}
}
