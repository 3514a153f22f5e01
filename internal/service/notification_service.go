package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/events"
)

// NotificationService turns domain events into outbound notifications. The
// delivery targets are stubs; the interesting part is the subscription
// wiring and the payload shaping.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig

	queue chan events.Event
}

// NewNotificationService wires the service and registers its handlers on
// the dispatcher.
func NewNotificationService(dispatcher events.Dispatcher, cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		queue:      make(chan events.Event, 128),
	}

	for _, eventType := range []events.EventType{
		events.EventRequestCreated,
		events.EventRequestAssigned,
		events.EventRequestStatusChanged,
		events.EventProviderOnboarded,
		events.EventUpgradeRequested,
		events.EventUpgradeDecided,
	} {
		dispatcher.Subscribe(eventType, s.enqueue)
	}
	return s
}

// Queue exposes the event stream consumed by the notification worker.
func (s *NotificationService) Queue() <-chan events.Event {
	return s.queue
}

// enqueue hands the event to the worker without blocking the publisher. A
// full queue drops the notification; events are best-effort by contract.
func (s *NotificationService) enqueue(_ context.Context, event events.Event) error {
	select {
	case s.queue <- event:
	default:
		s.logger.Warn("notification queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID))
	}
	return nil
}

// Deliver sends one notification. Email and webhook delivery are stubbed as
// structured log lines carrying the would-be payload.
func (s *NotificationService) Deliver(ctx context.Context, event events.Event) {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("email_from", s.cfg.EmailFrom),
	}
	if s.cfg.WebhookURL != "" {
		fields = append(fields, zap.String("webhook_url", s.cfg.WebhookURL))
	}
	s.logger.Info("notification delivered", fields...)
}
