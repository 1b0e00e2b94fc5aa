package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/itdesk/internal/config"
	"github.com/spec-kit/itdesk/internal/domain"
	"github.com/spec-kit/itdesk/internal/events"
	"github.com/spec-kit/itdesk/internal/mailer"
	"github.com/spec-kit/itdesk/internal/observability"
	"github.com/spec-kit/itdesk/internal/repository"
)

// Publisher pushes a payload onto a named broadcast channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type redisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher adapts a Redis client to the Publisher interface.
func NewRedisPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client}
}

func (p *redisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// NotificationService fans issue lifecycle events out to email and to the
// shared Redis channel the realtime relay subscribes to. Every delivery is
// at-most-once and best-effort: failures are logged, never propagated back
// to the mutation that produced the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	mail       mailer.Mailer
	publisher  Publisher
	issues     repository.IssueRepository
	staff      repository.StaffRepository
	cfg        config.NotificationConfig
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Mailer     mailer.Mailer
	Publisher  Publisher
	IssueRepo  repository.IssueRepository
	StaffRepo  repository.StaffRepository
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotificationConfig, deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		mail:       deps.Mailer,
		publisher:  deps.Publisher,
		issues:     deps.IssueRepo,
		staff:      deps.StaffRepo,
		cfg:        cfg,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// RegisterHandlers subscribes to issue lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueCreated, n.handleIssueCreated)
	n.dispatcher.Subscribe(events.EventIssueUpdated, n.handleIssueUpdated)
	n.dispatcher.Subscribe(events.EventIssueResolved, n.handleIssueResolved)
}

// realtimePayload is the wire format pushed to connected clients.
type realtimePayload struct {
	IssueID   string      `json:"issue_id"`
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Detail    interface{} `json:"detail,omitempty"`
}

var eventKinds = map[events.EventType]string{
	events.EventIssueCreated:  "CREATED",
	events.EventIssueUpdated:  "UPDATED",
	events.EventIssueResolved: "RESOLVED",
}

func (n *NotificationService) handleIssueCreated(ctx context.Context, event events.Event) error {
	n.publish(ctx, event)

	issue, reporter, ok := n.loadIssue(ctx, event.IssueID)
	if !ok {
		return nil
	}
	n.sendMail(func() error {
		return n.mail.SendIssueLogged(reporter.Email, reporter.FullName(), issue)
	}, event, "reporter ack")
	n.sendMail(func() error {
		return n.mail.SendIssueLogged(n.cfg.SupportEmail, reporter.FullName(), issue)
	}, event, "support notify")
	return nil
}

func (n *NotificationService) handleIssueUpdated(ctx context.Context, event events.Event) error {
	n.publish(ctx, event)

	issue, reporter, ok := n.loadIssue(ctx, event.IssueID)
	if !ok {
		return nil
	}
	n.sendMail(func() error {
		return n.mail.SendIssueUpdated(reporter.Email, issue)
	}, event, "reporter update")
	return nil
}

func (n *NotificationService) handleIssueResolved(ctx context.Context, event events.Event) error {
	n.publish(ctx, event)

	issue, reporter, ok := n.loadIssue(ctx, event.IssueID)
	if !ok {
		return nil
	}
	n.sendMail(func() error {
		return n.mail.SendIssueResolved(reporter.Email, issue)
	}, event, "reporter resolution")
	n.sendMail(func() error {
		return n.mail.SendIssueResolved(n.cfg.SupportEmail, issue)
	}, event, "support resolution")
	return nil
}

// publish pushes the event payload onto the shared notification channel.
func (n *NotificationService) publish(ctx context.Context, event events.Event) {
	if n.publisher == nil {
		return
	}
	payload := realtimePayload{
		IssueID:   event.IssueID,
		Kind:      eventKinds[event.Type],
		Timestamp: event.Timestamp,
		Detail:    event.Payload,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("marshal notification payload", zap.Error(err))
		return
	}
	if err := n.publisher.Publish(ctx, n.cfg.Channel, raw); err != nil {
		n.logger.Error("publish notification",
			zap.String("channel", n.cfg.Channel),
			zap.String("issue_id", event.IssueID),
			zap.Error(err))
		return
	}
	n.metrics.RecordEventPublished()
}

func (n *NotificationService) loadIssue(ctx context.Context, issueID string) (*domain.Issue, *domain.StaffAccount, bool) {
	issue, err := n.issues.GetByID(ctx, issueID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			n.logger.Error("load issue for notification", zap.String("issue_id", issueID), zap.Error(err))
		}
		return nil, nil, false
	}
	reporter, err := n.staff.GetByID(ctx, issue.ReporterID)
	if err != nil {
		n.logger.Error("load reporter for notification", zap.String("issue_id", issueID), zap.Error(err))
		return nil, nil, false
	}
	return issue, reporter, true
}

func (n *NotificationService) sendMail(send func() error, event events.Event, what string) {
	go func() {
		if err := send(); err != nil {
			n.logger.Error("notification email failed",
				zap.String("kind", what),
				zap.String("issue_id", event.IssueID),
				zap.Error(err))
		}
	}()
}
