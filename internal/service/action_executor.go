package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-guard/internal/orchestrator"
	apperrors "github.com/spec-kit/sla-guard/pkg/util"
)

// WebhookExecutor forwards preventive actions to the downstream automation
// endpoint. A 2xx response means accepted, not completed; the automation
// system reports the outcome later through the completion API.
type WebhookExecutor struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewWebhookExecutor creates an executor for the given endpoint. With an
// empty endpoint every dispatch is accepted and logged, which keeps local
// environments runnable without an automation backend.
func NewWebhookExecutor(endpoint string, logger *zap.Logger) *WebhookExecutor {
	return &WebhookExecutor{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// Dispatch submits one action. Retries reuse the idempotency key so the
// downstream system can recognize and collapse duplicates.
func (w *WebhookExecutor) Dispatch(ctx context.Context, dispatch orchestrator.ActionDispatch) error {
	if w.endpoint == "" {
		w.logger.Info("action dispatch (no endpoint configured)",
			zap.String("ticket_id", dispatch.TicketID),
			zap.String("action", dispatch.ActionName),
			zap.String("idempotency_key", dispatch.IdempotencyKey))
		return nil
	}

	body, err := json.Marshal(dispatch)
	if err != nil {
		return apperrors.NewDispatchError(dispatch.ActionName, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewDispatchError(dispatch.ActionName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", dispatch.IdempotencyKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return apperrors.NewDispatchError(dispatch.ActionName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewDispatchError(dispatch.ActionName,
			fmt.Errorf("automation endpoint returned %d", resp.StatusCode))
	}
	return nil
}
