package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
	"github.com/spec-kit/sla-guard/internal/observability"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

// HTTPScorer invokes a remote prediction endpoint over HTTP.
type HTTPScorer struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTPScorer constructs a client targeting the configured model endpoint.
func NewHTTPScorer(endpoint string, timeout time.Duration) *HTTPScorer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPScorer{
		endpoint: strings.TrimRight(endpoint, "/"),
		timeout:  timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Score posts the feature vector and returns the model prediction. Timeouts
// and upstream failures map to SCORER_UNAVAILABLE.
func (s *HTTPScorer) Score(ctx context.Context, vector domain.FeatureVector) (Prediction, error) {
	if s.endpoint == "" {
		return Prediction{}, apperrors.NewScorerUnavailable(fmt.Errorf("scorer endpoint not configured"))
	}

	payload := map[string]interface{}{
		"schema_version": vector.SchemaVersion,
		"features":       vector.Values,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Prediction{}, apperrors.NewScorerUnavailable(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, apperrors.NewScorerUnavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		observability.ObserveScorerCall(time.Since(start), observability.OutcomeError)
		return Prediction{}, apperrors.NewScorerUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.ObserveScorerCall(time.Since(start), observability.OutcomeError)
		return Prediction{}, apperrors.NewScorerUnavailable(fmt.Errorf("scorer returned status %d", resp.StatusCode))
	}

	var decoded struct {
		Probability float64 `json:"probability"`
		Confidence  float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		observability.ObserveScorerCall(time.Since(start), observability.OutcomeError)
		return Prediction{}, apperrors.NewScorerUnavailable(err)
	}
	observability.ObserveScorerCall(time.Since(start), observability.OutcomeOK)

	if decoded.Probability < 0 || decoded.Probability > 1 || decoded.Confidence < 0 || decoded.Confidence > 1 {
		return Prediction{}, apperrors.NewScorerUnavailable(fmt.Errorf("scorer returned out-of-range values"))
	}
	return Prediction{Probability: decoded.Probability, Confidence: decoded.Confidence}, nil
}
