/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access performed by the campaign-service. The application layer depends on
 * this interface only, which keeps the business logic independent of the
 * PostgreSQL implementation and lets tests substitute in-memory stubs.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/fundflow/campaign-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Campaign methods
	FindCampaignByID(ctx context.Context, campaignID int64) (*domain.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, campaignID int64, status domain.CampaignStatus) (*domain.Campaign, error)
	// CloseCampaign atomically closes a campaign into a terminal status
	// (FINISHED or CANCELLED). It reports false when the campaign was already
	// closed, which makes the deadline sweep idempotent.
	CloseCampaign(ctx context.Context, campaignID int64, status domain.CampaignStatus) (bool, error)
	FindCampaignsDueForCheck(ctx context.Context) ([]domain.Campaign, error)

	// Donation ledger methods
	// CreateDonation writes the donation row and increments the campaign's
	// running total in the same transaction.
	CreateDonation(ctx context.Context, donation *domain.Donation) error
	FindDonationByID(ctx context.Context, donationID int64) (*domain.Donation, error)
	FindDonationsByCampaign(ctx context.Context, campaignID int64) ([]domain.Donation, error)
	DonationHistogram(ctx context.Context, campaignID int64, groupBy domain.HistoryGroupBy, from, to time.Time) ([]domain.HistoryBucket, error)
	FirstDonationTime(ctx context.Context, campaignID int64) (*time.Time, error)
	FinancialReport(ctx context.Context, campaignID int64) (*domain.FinancialReport, error)
	CountDonationsByDonor(ctx context.Context, donorID int64) (int64, error)
	CountDistinctDonationMonths(ctx context.Context, donorID int64) (int64, error)

	// Verification methods
	// CreateVerificationRequest inserts the request and moves the campaign to
	// NEED_VERIFICATION in one transaction, refusing when an open request
	// already exists for the campaign.
	CreateVerificationRequest(ctx context.Context, request *domain.VerificationRequest) error
	FindOpenVerificationRequest(ctx context.Context, campaignID int64) (*domain.VerificationRequest, error)
	// ResolveVerificationRequest stores the evidence response, stamps the open
	// request resolved and returns the campaign to PENDING in one transaction.
	ResolveVerificationRequest(ctx context.Context, response *domain.EvidenceResponse) (*domain.VerificationRequest, error)

	// Badge methods
	FindBadgeByType(ctx context.Context, badgeType domain.BadgeType) (*domain.Badge, error)
	// AwardBadge returns the created award row; re-awarding an already held
	// badge is a no-op returning nil.
	AwardBadge(ctx context.Context, userID, badgeID int64) (*domain.UserBadge, error)
	FindBadgesByUser(ctx context.Context, userID int64) ([]domain.Badge, error)

	// Notification methods
	CreateNotification(ctx context.Context, notification *domain.Notification) error
	ListNotifications(ctx context.Context, userID int64, opts domain.NotificationListOptions) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID int64) (bool, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int64, error)

	// Audit methods
	AppendAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error
	ListAuditLogByCampaign(ctx context.Context, campaignID int64, limit int) ([]domain.AuditLogEntry, error)

	// User methods
	FindUserEmail(ctx context.Context, userID int64) (string, error)
}
