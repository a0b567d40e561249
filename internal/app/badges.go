/**
 * @description
 * This file implements the badge rule engine: a registry of named conditions
 * evaluated against ledger facts after each donation (and once at campaign
 * creation). Awards are idempotent through the store's unique (user, badge)
 * constraint; a rule that errors (for example a failed price lookup) fails
 * alone and never blocks the other rules or the donation itself.
 *
 * @dependencies
 * - pkg/priceclient: Token-to-reference-currency conversion for the
 *   milestone rule.
 */

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/fundflow/campaign-service/internal/domain"
	"github.com/fundflow/campaign-service/internal/metrics"
	"github.com/fundflow/campaign-service/internal/store"
	"github.com/fundflow/campaign-service/pkg/priceclient"
)

// donationFacts is the ledger snapshot a donation rule evaluates against.
// The counts include the donation that triggered the evaluation.
type donationFacts struct {
	donation            *domain.Donation
	donorDonationCount  int64
	distinctDonorMonths int64
}

// donationRule pairs a badge type with its qualifying condition.
type donationRule struct {
	badgeType domain.BadgeType
	qualifies func(ctx context.Context, facts donationFacts) (bool, error)
}

// BadgeEngine evaluates award rules and grants badges at most once per user.
type BadgeEngine struct {
	repo       store.Repository
	prices     priceclient.Lookup
	dispatcher *Dispatcher
	threshold  decimal.Decimal
	metrics    *metrics.Metrics
	logger     *slog.Logger

	donationRules []donationRule
}

// NewBadgeEngine creates a badge engine with the standard rule registry.
// threshold is the milestone cutoff in the reference currency.
func NewBadgeEngine(repo store.Repository, prices priceclient.Lookup, dispatcher *Dispatcher, threshold int64, m *metrics.Metrics, logger *slog.Logger) *BadgeEngine {
	e := &BadgeEngine{
		repo:       repo,
		prices:     prices,
		dispatcher: dispatcher,
		threshold:  decimal.NewFromInt(threshold),
		metrics:    m,
		logger:     logger,
	}
	e.donationRules = []donationRule{
		{
			badgeType: domain.BadgeFirstDonation,
			qualifies: func(ctx context.Context, facts donationFacts) (bool, error) {
				return facts.donorDonationCount == 1, nil
			},
		},
		{
			badgeType: domain.BadgeDonationMilestone,
			qualifies: e.milestoneReached,
		},
		{
			badgeType: domain.BadgeRegularDonor,
			qualifies: func(ctx context.Context, facts donationFacts) (bool, error) {
				return facts.distinctDonorMonths >= 3, nil
			},
		},
	}
	return e
}

// milestoneReached converts the donation into the reference currency and
// compares against the threshold. A failed price lookup fails only this rule.
func (e *BadgeEngine) milestoneReached(ctx context.Context, facts donationFacts) (bool, error) {
	converted := facts.donation.Amount
	if facts.donation.TokenName != nil {
		price, err := e.prices.GetPrice(ctx, *facts.donation.TokenName)
		if err != nil {
			return false, fmt.Errorf("price lookup for %s failed: %w", *facts.donation.TokenName, err)
		}
		converted = facts.donation.Amount.Mul(price)
	}
	return converted.GreaterThanOrEqual(e.threshold), nil
}

// EvaluateDonationBadges runs every donation rule for a freshly committed
// donation. Rule errors are logged and skipped; nothing propagates to the
// caller.
func (e *BadgeEngine) EvaluateDonationBadges(ctx context.Context, donation *domain.Donation) {
	count, err := e.repo.CountDonationsByDonor(ctx, donation.DonorID)
	if err != nil {
		e.logger.Error("badge evaluation aborted, could not count donations", "donor_id", donation.DonorID, "error", err)
		return
	}
	months, err := e.repo.CountDistinctDonationMonths(ctx, donation.DonorID)
	if err != nil {
		e.logger.Error("badge evaluation aborted, could not count donation months", "donor_id", donation.DonorID, "error", err)
		return
	}

	facts := donationFacts{
		donation:            donation,
		donorDonationCount:  count,
		distinctDonorMonths: months,
	}
	for _, rule := range e.donationRules {
		qualifies, err := rule.qualifies(ctx, facts)
		if err != nil {
			e.logger.Error("badge rule failed", "badge_type", rule.badgeType, "donor_id", donation.DonorID, "error", err)
			continue
		}
		if qualifies {
			e.award(ctx, donation.DonorID, rule.badgeType)
		}
	}
}

// EvaluateCampaignCreated runs the campaign-created rule for the acting user.
func (e *BadgeEngine) EvaluateCampaignCreated(ctx context.Context, actorID int64, campaign *domain.Campaign) {
	if campaign.OwnerID != actorID {
		return
	}
	e.award(ctx, actorID, domain.BadgeCampaignCreated)
}

// award grants the badge behind a rule type at most once. Re-awarding is a
// silent no-op; a missing badge definition is logged and skipped.
func (e *BadgeEngine) award(ctx context.Context, userID int64, badgeType domain.BadgeType) {
	badge, err := e.repo.FindBadgeByType(ctx, badgeType)
	if err != nil {
		e.logger.Error("no badge definition for rule", "badge_type", badgeType, "error", err)
		return
	}

	award, err := e.repo.AwardBadge(ctx, userID, badge.ID)
	if err != nil {
		e.logger.Error("badge award failed", "badge_type", badgeType, "user_id", userID, "error", err)
		return
	}
	if award == nil {
		// Already held.
		return
	}

	e.metrics.BadgesAwardedTotal.WithLabelValues(string(badgeType)).Inc()
	e.dispatcher.DispatchAndLog(ctx, Event{
		UserID:  userID,
		Type:    domain.NotificationBadgeAwarded,
		Title:   "Badge earned",
		Content: fmt.Sprintf("You earned the %q badge.", badge.Name),
		Metadata: map[string]string{
			"badge_type": string(badgeType),
			"badge_name": badge.Name,
		},
	})
}
