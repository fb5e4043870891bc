package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/daily-status/internal/config"
	"github.com/spec-kit/daily-status/internal/events"
	"github.com/spec-kit/daily-status/pkg/retry"
)

const (
	webhookQueueSize = 256
	webhookAttempts  = 3
)

// EventMetrics counts notification outcomes.
type EventMetrics interface {
	RecordUpdateEvent(eventType string)
	RecordWebhookFailure()
}

// NotificationService logs domain events and forwards them to the configured
// webhook. Deliveries are queued so publishing never waits on the network.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	metrics    EventMetrics
	client     *resty.Client
	queue      chan events.Event
	backoff    retry.Backoff
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, metrics EventMetrics) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(cfg.WebhookTimeout()).
		SetHeader("Content-Type", "application/json")
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		metrics:    metrics,
		client:     client,
		queue:      make(chan events.Event, webhookQueueSize),
		backoff:    retry.Exponential(200*time.Millisecond, 2*time.Second),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUpdateCreated, n.handleUpdateCreated)
	n.dispatcher.Subscribe(events.EventUpdateEdited, n.handleUpdateEdited)
	n.dispatcher.Subscribe(events.EventTeamCreated, n.handleTeamEvent)
	n.dispatcher.Subscribe(events.EventTeamMemberAdded, n.handleTeamEvent)
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
}

// Run delivers queued webhooks until ctx is done.
func (n *NotificationService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-n.queue:
			if err := n.deliver(ctx, event); err != nil {
				n.logger.Warn("webhook delivery failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
				if n.metrics != nil {
					n.metrics.RecordWebhookFailure()
				}
			}
		}
	}
}

func (n *NotificationService) handleUpdateCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("UpdateCreated", zap.String("update_id", event.SubjectID), zap.String("actor", event.Actor.Email), zap.Any("payload", event.Payload))
	n.count(event)
	n.enqueue(event)
	return nil
}

func (n *NotificationService) handleUpdateEdited(ctx context.Context, event events.Event) error {
	n.logger.Info("UpdateEdited", zap.String("update_id", event.SubjectID), zap.String("actor", event.Actor.Email), zap.Any("payload", event.Payload))
	n.count(event)
	n.enqueue(event)
	return nil
}

func (n *NotificationService) handleTeamEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("TeamChanged", zap.String("type", string(event.Type)), zap.String("subject_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.enqueue(event)
	return nil
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("user_id", event.SubjectID), zap.String("email", event.Actor.Email))
	return nil
}

func (n *NotificationService) count(event events.Event) {
	if n.metrics != nil {
		n.metrics.RecordUpdateEvent(string(event.Type))
	}
}

func (n *NotificationService) enqueue(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	select {
	case n.queue <- event:
	default:
		n.logger.Warn("webhook queue full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		if n.metrics != nil {
			n.metrics.RecordWebhookFailure()
		}
	}
}

// deliver posts one event, retrying transport errors and 5xx responses.
func (n *NotificationService) deliver(ctx context.Context, event events.Event) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		resp, err := n.client.R().
			SetContext(ctx).
			SetBody(event).
			Post(n.cfg.WebhookURL)
		if err != nil {
			return err
		}
		if resp.IsSuccess() {
			return nil
		}
		err = fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), resp.String())
		if resp.StatusCode() < http.StatusInternalServerError {
			return retry.Permanent(err)
		}
		return err
	},
		retry.WithMaxAttempts(webhookAttempts),
		retry.WithBackoff(n.backoff),
		retry.WithJitter(retry.FullJitter),
	)
}
