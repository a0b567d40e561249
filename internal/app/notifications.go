/**
 * @description
 * Thin application-layer pass-throughs for the in-app notification feed.
 */

package app

import (
	"context"

	"github.com/fundflow/campaign-service/internal/domain"
	"github.com/fundflow/campaign-service/internal/store"
)

// ListNotifications pages the user's in-app notification feed.
func (s *Service) ListNotifications(ctx context.Context, userID int64, opts domain.NotificationListOptions) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, userID, opts)
}

// MarkNotificationRead flips one of the user's notifications to read.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID int64) error {
	updated, err := s.repo.MarkNotificationRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return store.ErrNotificationNotFound
	}
	return nil
}

// CountUnreadNotifications returns the user's unread notification count.
func (s *Service) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnreadNotifications(ctx, userID)
}

// ListUserBadges returns the badges a user has earned.
func (s *Service) ListUserBadges(ctx context.Context, userID int64) ([]domain.Badge, error) {
	return s.repo.FindBadgesByUser(ctx, userID)
}
