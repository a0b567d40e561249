/**
 * @description
 * This file defines the donation ledger models and the DTOs used by the
 * donation ingestion pipeline: the immutable donation record, the request
 * shape accepted by the API, the time-bucketed donation history, and the
 * per-campaign financial report.
 *
 * @notes
 * - A donation row is written exactly once and never updated on the hot
 *   path; `TxHash` is unique when present so a replayed on-chain reference
 *   surfaces as a conflict instead of a double count.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation is one append-only ledger record.
type Donation struct {
	ID         int64           `json:"id"`
	CampaignID int64           `json:"campaign_id"`
	DonorID    int64           `json:"donor_id"`
	Amount     decimal.Decimal `json:"amount"`
	TxHash     *string         `json:"tx_hash,omitempty"`
	TokenName  *string         `json:"token_name,omitempty"`
	DonatedAt  time.Time       `json:"donated_at"`
}

// CreateDonationRequest is the DTO for incoming donation API requests.
type CreateDonationRequest struct {
	CampaignID int64           `json:"campaign_id"`
	Amount     decimal.Decimal `json:"amount"`
	TxHash     *string         `json:"tx_hash,omitempty"`
	TokenName  *string         `json:"token_name,omitempty"`
}

// HistoryGroupBy selects the bucket width for donation history.
type HistoryGroupBy string

const (
	GroupByDay   HistoryGroupBy = "day"
	GroupByWeek  HistoryGroupBy = "week"
	GroupByMonth HistoryGroupBy = "month"
)

// Valid reports whether the grouping is one of the supported widths.
func (g HistoryGroupBy) Valid() bool {
	return g == GroupByDay || g == GroupByWeek || g == GroupByMonth
}

// HistoryBucket is one time bucket of the donation history. Buckets with no
// donations are still emitted with zero count and amount.
type HistoryBucket struct {
	BucketStart time.Time       `json:"bucket_start"`
	Count       int64           `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
}

// HistoryOptions bounds and groups a donation history query. Zero times mean
// "from the first donation" and "until now" respectively.
type HistoryOptions struct {
	StartDate time.Time
	EndDate   time.Time
	GroupBy   HistoryGroupBy
}

// FinancialReport summarizes the ledger for one campaign.
type FinancialReport struct {
	CampaignID      int64           `json:"campaign_id"`
	Goal            decimal.Decimal `json:"goal"`
	TotalDonated    decimal.Decimal `json:"total_donated"`
	DonationCount   int64           `json:"donation_count"`
	UniqueDonors    int64           `json:"unique_donors"`
	LargestDonation decimal.Decimal `json:"largest_donation"`
	AverageDonation decimal.Decimal `json:"average_donation"`
	ProgressPercent decimal.Decimal `json:"progress_percent"`
	GeneratedAt     time.Time       `json:"generated_at"`
}
