/**
 * @description
 * This file implements the badge, notification and audit-log sides of the
 * PostgreSQL repository. Badge awards ride on an ON CONFLICT DO NOTHING
 * insert against the (user_id, badge_id) unique constraint, which is what
 * makes awarding idempotent under concurrent qualifying events.
 *
 * @dependencies
 * - encoding/json: Notification and audit metadata are stored as JSONB.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fundflow/campaign-service/internal/domain"
)

// FindBadgeByType resolves the badge definition for a rule type.
func (r *PostgresRepository) FindBadgeByType(ctx context.Context, badgeType domain.BadgeType) (*domain.Badge, error) {
	var b domain.Badge
	query := `SELECT id, name, description, icon, type, created_at FROM badges WHERE type = $1`
	err := r.db.QueryRow(ctx, query, badgeType).Scan(
		&b.ID, &b.Name, &b.Description, &b.Icon, &b.Type, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBadgeNotFound
		}
		return nil, err
	}
	return &b, nil
}

// AwardBadge grants a badge to a user at most once. It returns the award row
// this call created, or nil when the user already holds the badge.
func (r *PostgresRepository) AwardBadge(ctx context.Context, userID, badgeID int64) (*domain.UserBadge, error) {
	var award domain.UserBadge
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_badges (user_id, badge_id, awarded_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, badge_id) DO NOTHING
		RETURNING id, user_id, badge_id, awarded_at
	`, userID, badgeID).Scan(&award.ID, &award.UserID, &award.BadgeID, &award.AwardedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &award, nil
}

// FindBadgesByUser lists the badges a user holds.
func (r *PostgresRepository) FindBadgesByUser(ctx context.Context, userID int64) ([]domain.Badge, error) {
	query := `
		SELECT b.id, b.name, b.description, b.icon, b.type, b.created_at
		FROM badges b
		JOIN user_badges ub ON ub.badge_id = b.id
		WHERE ub.user_id = $1
		ORDER BY ub.awarded_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Type, &b.CreatedAt); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// CreateNotification persists a notification row, unread by default.
func (r *PostgresRepository) CreateNotification(ctx context.Context, notification *domain.Notification) error {
	metadata, err := json.Marshal(notification.Metadata)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, content, metadata, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		RETURNING id, created_at
	`, notification.UserID, notification.Type, notification.Title, notification.Content, metadata).
		Scan(&notification.ID, &notification.CreatedAt)
}

// ListNotifications pages a user's notification feed, newest first.
func (r *PostgresRepository) ListNotifications(ctx context.Context, userID int64, opts domain.NotificationListOptions) ([]domain.Notification, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT id, user_id, type, title, content, metadata, read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, userID, opts.UnreadOnly, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var metadata []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Content, &metadata, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, err
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flips a single notification to read. It reports false
// when the notification does not exist or belongs to another user.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, userID, notificationID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountUnreadNotifications returns the user's unread notification count.
func (r *PostgresRepository) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`,
		userID,
	).Scan(&count)
	return count, err
}

// AppendAuditLog writes one append-only audit entry.
func (r *PostgresRepository) AppendAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO audit_log (action, description, actor_id, campaign_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`, entry.Action, entry.Description, entry.ActorID, entry.CampaignID, metadata).
		Scan(&entry.ID, &entry.CreatedAt)
}

// ListAuditLogByCampaign returns the most recent audit entries for a campaign.
func (r *PostgresRepository) ListAuditLogByCampaign(ctx context.Context, campaignID int64, limit int) ([]domain.AuditLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, action, description, actor_id, campaign_id, metadata, created_at
		FROM audit_log
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.Description, &e.ActorID, &e.CampaignID, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
