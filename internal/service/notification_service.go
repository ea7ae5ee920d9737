package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-guard/internal/config"
	"github.com/spec-kit/sla-guard/internal/events"
	"github.com/spec-kit/sla-guard/internal/orchestrator"
)

// NotificationService pushes alerts for risk escalations and workflow
// failures. Without a webhook configured it degrades to log-only alerts.
type NotificationService struct {
	dispatcher events.Dispatcher
	client     *http.Client
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		client:     &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
		cfg:        cfg,
	}
}

// Notify delivers one alert. Delivery is best effort: the orchestrator never
// blocks or retries on notification failure.
func (n *NotificationService) Notify(ctx context.Context, note orchestrator.Notification) {
	if note.ChannelHint == "" {
		note.ChannelHint = n.cfg.ChannelHint
	}
	n.logger.Info("alert",
		zap.String("ticket_id", note.TicketID),
		zap.String("band", string(note.Band)),
		zap.String("channel", note.ChannelHint),
		zap.String("message", note.Message))
	n.sendWebhook(ctx, note)
}

// RegisterHandlers subscribes to events that warrant operator attention
// beyond the direct orchestrator alerts.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventWorkflowEscalated, n.handleEscalated)
	n.dispatcher.Subscribe(events.EventInvariantViolation, n.handleInvariant)
	n.dispatcher.Subscribe(events.EventDegradedAssessment, n.handleDegraded)
}

func (n *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	n.logger.Warn("WorkflowEscalated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleInvariant(ctx context.Context, event events.Event) error {
	n.logger.Error("InvariantViolation", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleDegraded(ctx context.Context, event events.Event) error {
	n.logger.Warn("DegradedAssessment", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhook(ctx context.Context, note orchestrator.Notification) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	body, err := json.Marshal(note)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("notification webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("notification webhook delivery", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Warn("notification webhook rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("ticket_id", note.TicketID))
	}
}
