package worker

import (
	"context"

	"github.com/spec-kit/daily-status/internal/service"
)

// StartNotificationWorker registers notification handlers and starts the
// webhook delivery loop, which stops with ctx.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	go notificationService.Run(ctx)
}
