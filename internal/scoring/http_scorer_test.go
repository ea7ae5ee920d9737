package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spec-kit/sla-guard/internal/domain"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

func TestHTTPScorerSuccess(t *testing.T) {
	var received struct {
		SchemaVersion string    `json:"schema_version"`
		Features      []float64 `json:"features"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"probability": 0.82, "confidence": 0.9})
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(srv.URL, time.Second)
	vector := vectorWithRemaining(t, 10, 100)
	pred, err := scorer.Score(context.Background(), vector)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if pred.Probability != 0.82 || pred.Confidence != 0.9 {
		t.Fatalf("prediction = %+v", pred)
	}
	if received.SchemaVersion != domain.FeatureSchemaVersion {
		t.Fatalf("schema_version = %q", received.SchemaVersion)
	}
	if len(received.Features) != len(domain.FeatureNames) {
		t.Fatalf("features length = %d, want %d", len(received.Features), len(domain.FeatureNames))
	}
}

func TestHTTPScorerUpstreamErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(srv.URL, time.Second)
	if _, err := scorer.Score(context.Background(), vectorWithRemaining(t, 10, 100)); !apperrors.IsCode(err, "SCORER_UNAVAILABLE") {
		t.Fatalf("expected SCORER_UNAVAILABLE, got %v", err)
	}
}

func TestHTTPScorerRejectsOutOfRangeOutputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]float64{"probability": 1.7, "confidence": 0.9})
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(srv.URL, time.Second)
	if _, err := scorer.Score(context.Background(), vectorWithRemaining(t, 10, 100)); !apperrors.IsCode(err, "SCORER_UNAVAILABLE") {
		t.Fatalf("expected SCORER_UNAVAILABLE, got %v", err)
	}
}

func TestHTTPScorerTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	scorer := NewHTTPScorer(srv.URL, 50*time.Millisecond)
	if _, err := scorer.Score(context.Background(), vectorWithRemaining(t, 10, 100)); !apperrors.IsCode(err, "SCORER_UNAVAILABLE") {
		t.Fatalf("expected SCORER_UNAVAILABLE, got %v", err)
	}
}
