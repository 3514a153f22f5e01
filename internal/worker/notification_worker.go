package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/service"
)

// NotificationWorker drains the notification queue off the request path.
type NotificationWorker struct {
	notifications *service.NotificationService
	logger        *zap.Logger
	wg            sync.WaitGroup
}

// NewNotificationWorker builds the worker.
func NewNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{notifications: notifications, logger: logger}
}

// Start launches the consumer goroutine. It exits when ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	if w.notifications == nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("notification worker stopping")
				return
			case event := <-w.notifications.Queue():
				w.notifications.Deliver(ctx, event)
			}
		}
	}()
}

// Wait blocks until the consumer goroutine has exited.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}
