/**
 * @description
 * This file implements the side-effect dispatcher. One triggering event fans
 * out to up to four independent channels: a persisted notification row, a
 * realtime push over RabbitMQ, a templated email and an audit-log append.
 * Each channel reports its own result; no failure here ever propagates back
 * to the state change that triggered the event.
 *
 * @dependencies
 * - internal/store, pkg/rabbitmq, pkg/mailclient: The side-effect targets.
 */

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fundflow/campaign-service/internal/domain"
	"github.com/fundflow/campaign-service/internal/metrics"
	"github.com/fundflow/campaign-service/internal/store"
	"github.com/fundflow/campaign-service/pkg/mailclient"
	"github.com/fundflow/campaign-service/pkg/rabbitmq"
)

// Side-effect channel names, used in results, logs and metrics labels.
const (
	ChannelNotification = "notification"
	ChannelPush         = "push"
	ChannelEmail        = "email"
	ChannelAudit        = "audit"
)

// EmailSideEffect describes the templated email attached to an event. A nil
// value on the event means no email is sent for it.
type EmailSideEffect struct {
	To          string
	TemplateKey string
	Data        map[string]string
}

// Event is one fan-out trigger. Notification and push always run; email and
// audit only run when the corresponding field is set.
type Event struct {
	UserID   int64
	Type     domain.NotificationType
	Title    string
	Content  string
	Metadata map[string]string
	Email    *EmailSideEffect
	Audit    *domain.AuditLogEntry
}

// SideEffectResult is the outcome of one channel of one dispatched event.
type SideEffectResult struct {
	Channel string
	Err     error
}

// Failed reports whether the channel errored.
func (r SideEffectResult) Failed() bool {
	return r.Err != nil
}

// Dispatcher fans one event out to its side-effect channels.
type Dispatcher struct {
	repo     store.Repository
	producer rabbitmq.Publisher
	mailer   mailclient.Sender
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewDispatcher creates a new side-effect dispatcher.
func NewDispatcher(repo store.Repository, producer rabbitmq.Publisher, mailer mailclient.Sender, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		producer: producer,
		mailer:   mailer,
		metrics:  m,
		logger:   logger,
	}
}

// Dispatch runs every channel of the event and returns one result per
// channel attempted. Channels are independent: a failure in one never stops
// the others.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) []SideEffectResult {
	results := make([]SideEffectResult, 0, 4)

	notification := &domain.Notification{
		UserID:   event.UserID,
		Type:     event.Type,
		Title:    event.Title,
		Content:  event.Content,
		Metadata: event.Metadata,
	}
	results = append(results, SideEffectResult{
		Channel: ChannelNotification,
		Err:     d.repo.CreateNotification(ctx, notification),
	})

	results = append(results, SideEffectResult{
		Channel: ChannelPush,
		Err: d.producer.PublishNotificationEvent(ctx, domain.NotificationEvent{
			EventID:   uuid.New(),
			UserID:    event.UserID,
			Type:      event.Type,
			Title:     event.Title,
			Content:   event.Content,
			Metadata:  event.Metadata,
			Timestamp: time.Now().UTC(),
		}),
	})

	if event.Email != nil {
		results = append(results, SideEffectResult{
			Channel: ChannelEmail,
			Err:     d.mailer.Send(ctx, event.Email.To, event.Email.TemplateKey, event.Email.Data),
		})
	}

	if event.Audit != nil {
		results = append(results, SideEffectResult{
			Channel: ChannelAudit,
			Err:     d.repo.AppendAuditLog(ctx, event.Audit),
		})
	}

	for _, res := range results {
		if res.Failed() {
			d.metrics.SideEffectFailuresTotal.WithLabelValues(res.Channel).Inc()
		}
	}
	return results
}

// DispatchAndLog dispatches the event and logs any failed channels. Callers
// on the hot path use this form; the primary state change has already been
// persisted by the time it runs.
func (d *Dispatcher) DispatchAndLog(ctx context.Context, event Event) {
	for _, res := range d.Dispatch(ctx, event) {
		if res.Failed() {
			d.logger.Error("side effect failed",
				"channel", res.Channel,
				"user_id", event.UserID,
				"type", event.Type,
				"error", res.Err,
			)
		}
	}
}
