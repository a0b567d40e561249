/**
 * @description
 * This file implements the donation ledger side of the PostgreSQL repository:
 * the transactional donation write with its atomic campaign-total increment,
 * the time-bucketed donation histogram, the per-campaign financial report and
 * the donor statistics consumed by the badge engine.
 *
 * @notes
 * - The total_donated increment is an UPDATE-by-expression on the campaign
 *   row. Postgres serializes concurrent increments on the same row, which is
 *   what prevents lost updates without any application-level locking.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/fundflow/campaign-service/internal/domain"
)

const donationColumns = `id, campaign_id, donor_id, amount, tx_hash, token_name, donated_at`

// CreateDonation appends the donation row and bumps the campaign aggregate in
// one transaction. A resubmitted on-chain reference trips the unique index on
// tx_hash and surfaces as ErrDuplicateDonation instead of a double count.
func (r *PostgresRepository) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO donations (campaign_id, donor_id, amount, tx_hash, token_name, donated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, donated_at
	`, donation.CampaignID, donation.DonorID, donation.Amount, donation.TxHash, donation.TokenName).
		Scan(&donation.ID, &donation.DonatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrDuplicateDonation
		}
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE campaigns
		SET total_donated = total_donated + $2, updated_at = NOW()
		WHERE id = $1
	`, donation.CampaignID, donation.Amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}

	return tx.Commit(ctx)
}

// FindDonationByID retrieves a single donation.
func (r *PostgresRepository) FindDonationByID(ctx context.Context, donationID int64) (*domain.Donation, error) {
	var d domain.Donation
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	err := r.db.QueryRow(ctx, query, donationID).Scan(
		&d.ID, &d.CampaignID, &d.DonorID, &d.Amount, &d.TxHash, &d.TokenName, &d.DonatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindDonationsByCampaign lists a campaign's donations, newest first.
func (r *PostgresRepository) FindDonationsByCampaign(ctx context.Context, campaignID int64) ([]domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE campaign_id = $1 ORDER BY donated_at DESC`
	rows, err := r.db.Query(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.DonorID, &d.Amount, &d.TxHash, &d.TokenName, &d.DonatedAt); err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// DonationHistogram aggregates a campaign's donations into day, week or
// month buckets. Only buckets that contain donations are returned; the
// application layer fills the gaps.
func (r *PostgresRepository) DonationHistogram(ctx context.Context, campaignID int64, groupBy domain.HistoryGroupBy, from, to time.Time) ([]domain.HistoryBucket, error) {
	query := `
		SELECT DATE_TRUNC($2, donated_at) AS bucket, COUNT(*), COALESCE(SUM(amount), 0)
		FROM donations
		WHERE campaign_id = $1 AND donated_at >= $3 AND donated_at < $4
		GROUP BY bucket
		ORDER BY bucket ASC
	`
	rows, err := r.db.Query(ctx, query, campaignID, string(groupBy), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []domain.HistoryBucket
	for rows.Next() {
		var b domain.HistoryBucket
		if err := rows.Scan(&b.BucketStart, &b.Count, &b.Amount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// FirstDonationTime returns the timestamp of a campaign's earliest donation,
// or nil when the campaign has none.
func (r *PostgresRepository) FirstDonationTime(ctx context.Context, campaignID int64) (*time.Time, error) {
	var first *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT MIN(donated_at) FROM donations WHERE campaign_id = $1`,
		campaignID,
	).Scan(&first)
	if err != nil {
		return nil, err
	}
	return first, nil
}

// FinancialReport computes the ledger summary for one campaign.
func (r *PostgresRepository) FinancialReport(ctx context.Context, campaignID int64) (*domain.FinancialReport, error) {
	campaign, err := r.FindCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	report := domain.FinancialReport{
		CampaignID:   campaign.ID,
		Goal:         campaign.Goal,
		TotalDonated: campaign.TotalDonated,
		GeneratedAt:  time.Now().UTC(),
	}

	query := `
		SELECT COUNT(*), COUNT(DISTINCT donor_id), COALESCE(MAX(amount), 0), COALESCE(AVG(amount), 0)
		FROM donations
		WHERE campaign_id = $1
	`
	err = r.db.QueryRow(ctx, query, campaignID).Scan(
		&report.DonationCount, &report.UniqueDonors, &report.LargestDonation, &report.AverageDonation,
	)
	if err != nil {
		return nil, err
	}

	if campaign.Goal.IsPositive() {
		report.ProgressPercent = campaign.TotalDonated.
			Div(campaign.Goal).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return &report, nil
}

// CountDonationsByDonor returns the donor's lifetime donation count.
func (r *PostgresRepository) CountDonationsByDonor(ctx context.Context, donorID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM donations WHERE donor_id = $1`,
		donorID,
	).Scan(&count)
	return count, err
}

// CountDistinctDonationMonths returns how many distinct calendar months the
// donor has donated in.
func (r *PostgresRepository) CountDistinctDonationMonths(ctx context.Context, donorID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT DATE_TRUNC('month', donated_at)) FROM donations WHERE donor_id = $1`,
		donorID,
	).Scan(&count)
	return count, err
}
