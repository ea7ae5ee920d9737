package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/sla-guard/internal/service"
)

// StartNotificationWorker subscribes the notification service to the
// alert-producing events. Without it escalations, invariant violations, and
// degraded assessments are persisted but never surfaced to operators.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Warn("notification service not configured, alerts disabled")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker started")
}
