/**
 * @description
 * This file defines the event payloads published to RabbitMQ for realtime
 * fan-out. Connected clients subscribe per-user; delivery is best-effort and
 * a user with no active session simply never sees the message.
 *
 * @dependencies
 * - github.com/google/uuid: Event envelope ids, so consumers can de-dupe.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationEvent is the envelope pushed over the realtime channel when a
// notification is created for a user.
type NotificationEvent struct {
	EventID   uuid.UUID         `json:"event_id"`
	UserID    int64             `json:"user_id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
