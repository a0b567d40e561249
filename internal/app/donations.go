/**
 * @description
 * This file implements the donation ingestion pipeline and the read-side
 * ledger queries: the gap-filled donation history and the financial report.
 * The pipeline validates the amount, persists the donation together with the
 * campaign-total increment in one store transaction, and only then runs the
 * badge evaluation and the owner notification, neither of which can undo the
 * recorded donation.
 */

package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundflow/campaign-service/internal/domain"
)

// CreateDonation runs the ingestion pipeline for one incoming donation and
// returns the persisted record.
func (s *Service) CreateDonation(ctx context.Context, donorID int64, req domain.CreateDonationRequest) (*domain.Donation, error) {
	if !req.Amount.IsPositive() {
		s.metrics.DonationsRejectedTotal.Inc()
		return nil, ErrInvalidDonationAmount
	}

	campaign, err := s.repo.FindCampaignByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	donation := &domain.Donation{
		CampaignID: req.CampaignID,
		DonorID:    donorID,
		Amount:     req.Amount,
		TxHash:     req.TxHash,
		TokenName:  req.TokenName,
	}
	if err := s.repo.CreateDonation(ctx, donation); err != nil {
		return nil, err
	}
	s.metrics.DonationsRecordedTotal.Inc()

	// The donation is committed; badge evaluation and notification run after
	// the fact and their failures are logged, never propagated.
	s.badges.EvaluateDonationBadges(ctx, donation)

	s.dispatcher.DispatchAndLog(ctx, Event{
		UserID:  campaign.OwnerID,
		Type:    domain.NotificationDonationReceived,
		Title:   "Donation received",
		Content: fmt.Sprintf("Your campaign %q received a donation of %s.", campaign.Title, donation.Amount.String()),
		Metadata: map[string]string{
			"campaign_id": strconv.FormatInt(campaign.ID, 10),
			"donation_id": strconv.FormatInt(donation.ID, 10),
			"amount":      donation.Amount.String(),
		},
	})

	return donation, nil
}

// DonationHistory aggregates a campaign's donations into day, week or month
// buckets. Every bucket between the first donation (or the supplied start)
// and now (or the supplied end) appears in the output, zero-filled when
// empty, sorted ascending by bucket start.
func (s *Service) DonationHistory(ctx context.Context, campaignID int64, opts domain.HistoryOptions) ([]domain.HistoryBucket, error) {
	if !opts.GroupBy.Valid() {
		return nil, ErrInvalidHistoryGrouping
	}
	if _, err := s.repo.FindCampaignByID(ctx, campaignID); err != nil {
		return nil, err
	}

	start := opts.StartDate
	if start.IsZero() {
		first, err := s.repo.FirstDonationTime(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		if first == nil {
			return []domain.HistoryBucket{}, nil
		}
		start = *first
	}
	end := opts.EndDate
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if end.Before(start) {
		return []domain.HistoryBucket{}, nil
	}

	sparse, err := s.repo.DonationHistogram(ctx, campaignID, opts.GroupBy, start, end)
	if err != nil {
		return nil, err
	}
	return fillHistoryGaps(sparse, start, end, opts.GroupBy), nil
}

// FinancialReport summarizes the ledger for one campaign.
func (s *Service) FinancialReport(ctx context.Context, campaignID int64) (*domain.FinancialReport, error) {
	return s.repo.FinancialReport(ctx, campaignID)
}

// GetDonation fetches one donation by id.
func (s *Service) GetDonation(ctx context.Context, donationID int64) (*domain.Donation, error) {
	return s.repo.FindDonationByID(ctx, donationID)
}

// ListDonations returns a campaign's donations, newest first.
func (s *Service) ListDonations(ctx context.Context, campaignID int64) ([]domain.Donation, error) {
	if _, err := s.repo.FindCampaignByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.repo.FindDonationsByCampaign(ctx, campaignID)
}

// truncateToBucket floors a timestamp to its bucket start, matching the
// semantics of Postgres DATE_TRUNC (weeks begin on Monday).
func truncateToBucket(t time.Time, groupBy domain.HistoryGroupBy) time.Time {
	t = t.UTC()
	switch groupBy {
	case domain.GroupByWeek:
		day := t.Truncate(24 * time.Hour)
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday
		}
		return day.AddDate(0, 0, -(weekday - 1))
	case domain.GroupByMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// nextBucket advances one bucket width.
func nextBucket(t time.Time, groupBy domain.HistoryGroupBy) time.Time {
	switch groupBy {
	case domain.GroupByWeek:
		return t.AddDate(0, 0, 7)
	case domain.GroupByMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// fillHistoryGaps merges the sparse histogram into a dense, ascending bucket
// list with zero-filled holes.
func fillHistoryGaps(sparse []domain.HistoryBucket, start, end time.Time, groupBy domain.HistoryGroupBy) []domain.HistoryBucket {
	byStart := make(map[int64]domain.HistoryBucket, len(sparse))
	for _, b := range sparse {
		byStart[b.BucketStart.UTC().Unix()] = b
	}

	first := truncateToBucket(start, groupBy)
	last := truncateToBucket(end, groupBy)

	dense := make([]domain.HistoryBucket, 0, len(sparse))
	for cursor := first; !cursor.After(last); cursor = nextBucket(cursor, groupBy) {
		if b, ok := byStart[cursor.Unix()]; ok {
			b.BucketStart = cursor
			dense = append(dense, b)
			continue
		}
		dense = append(dense, domain.HistoryBucket{
			BucketStart: cursor,
			Count:       0,
			Amount:      decimal.Zero,
		})
	}
	return dense
}
