/**
 * @description
 * This file defines the notification and audit-log models used by the
 * fan-out dispatcher. Notifications are persisted unread and optionally
 * pushed over the realtime channel; audit entries are append-only and never
 * mutated.
 */

package domain

import "time"

// NotificationType categorizes a persisted notification.
type NotificationType string

const (
	NotificationCampaignStatus   NotificationType = "CAMPAIGN_STATUS"
	NotificationDonationReceived NotificationType = "DONATION_RECEIVED"
	NotificationVerification     NotificationType = "VERIFICATION"
	NotificationEvidence         NotificationType = "EVIDENCE"
	NotificationDeadlineReminder NotificationType = "DEADLINE_REMINDER"
	NotificationBadgeAwarded     NotificationType = "BADGE_AWARDED"
)

// Notification maps to the `notifications` table.
type Notification struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// NotificationListOptions pages a user's notification feed.
type NotificationListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

// AuditAction is the action enum of an audit-log entry.
type AuditAction string

const (
	AuditCampaignStatusChanged AuditAction = "CAMPAIGN_STATUS_CHANGED"
	AuditVerificationRequested AuditAction = "VERIFICATION_REQUESTED"
	AuditEvidenceSubmitted     AuditAction = "EVIDENCE_SUBMITTED"
	AuditCampaignClosedBySweep AuditAction = "CAMPAIGN_CLOSED_BY_SWEEP"
)

// AuditLogEntry maps to the append-only `audit_log` table.
type AuditLogEntry struct {
	ID          int64             `json:"id"`
	Action      AuditAction       `json:"action"`
	Description string            `json:"description"`
	ActorID     int64             `json:"actor_id"`
	CampaignID  int64             `json:"campaign_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
