/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface for campaigns, verification requests and users. It contains the
 * SQL for campaign lifecycle writes, the due-for-check sweep query, and the
 * transactional verification request/resolve flows.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fundflow/campaign-service/internal/domain"
)

var (
	ErrCampaignNotFound            = errors.New("campaign not found")
	ErrDonationNotFound            = errors.New("donation not found")
	ErrUserNotFound                = errors.New("user not found")
	ErrBadgeNotFound               = errors.New("badge not found")
	ErrNotificationNotFound        = errors.New("notification not found")
	ErrVerificationRequestNotFound = errors.New("no open verification request for campaign")
	ErrOpenVerificationRequest     = errors.New("campaign already has an open verification request")
	ErrDuplicateDonation           = errors.New("donation with this transaction reference already exists")
)

const campaignColumns = `id, title, description, goal, total_donated, deadline, is_closed, status, owner_id, created_at, updated_at`

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Goal,
		&c.TotalDonated,
		&c.Deadline,
		&c.IsClosed,
		&c.Status,
		&c.OwnerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindCampaignByID retrieves a campaign by its id.
func (r *PostgresRepository) FindCampaignByID(ctx context.Context, campaignID int64) (*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return scanCampaign(r.db.QueryRow(ctx, query, campaignID))
}

// UpdateCampaignStatus persists a new lifecycle status and returns the
// updated campaign.
func (r *PostgresRepository) UpdateCampaignStatus(ctx context.Context, campaignID int64, status domain.CampaignStatus) (*domain.Campaign, error) {
	query := `
		UPDATE campaigns
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + campaignColumns
	return scanCampaign(r.db.QueryRow(ctx, query, campaignID, status))
}

// CloseCampaign moves a campaign into a terminal status and flips is_closed
// in a single atomic statement. The is_closed guard makes repeated sweeps
// over the same campaign a no-op.
func (r *PostgresRepository) CloseCampaign(ctx context.Context, campaignID int64, status domain.CampaignStatus) (bool, error) {
	query := `
		UPDATE campaigns
		SET status = $2, is_closed = TRUE, updated_at = NOW()
		WHERE id = $1 AND is_closed = FALSE
	`
	tag, err := r.db.Exec(ctx, query, campaignID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindCampaignsDueForCheck loads all open campaigns the deadline monitor has
// to look at: not closed and in a donation-accepting status.
func (r *PostgresRepository) FindCampaignsDueForCheck(ctx context.Context) ([]domain.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE is_closed = FALSE AND status IN ($1, $2)
		ORDER BY deadline ASC
	`
	rows, err := r.db.Query(ctx, query, domain.StatusApproved, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.Goal, &c.TotalDonated,
			&c.Deadline, &c.IsClosed, &c.Status, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// CreateVerificationRequest inserts a verification request and moves the
// campaign to NEED_VERIFICATION. The open-request check, the insert and the
// status write share one transaction so two concurrent admins cannot both
// open a request against the same campaign.
func (r *PostgresRepository) CreateVerificationRequest(ctx context.Context, request *domain.VerificationRequest) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var existing int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM verification_requests WHERE campaign_id = $1 AND resolved_at IS NULL FOR UPDATE`,
		request.CampaignID,
	).Scan(&existing)
	if err == nil {
		return ErrOpenVerificationRequest
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO verification_requests (campaign_id, requested_by, message, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`, request.CampaignID, request.RequestedBy, request.Message, request.Reason).Scan(&request.ID, &request.CreatedAt)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE campaigns SET status = $2, updated_at = NOW() WHERE id = $1`,
		request.CampaignID, domain.StatusNeedVerification,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}

	return tx.Commit(ctx)
}

// FindOpenVerificationRequest returns the unresolved request for a campaign,
// or ErrVerificationRequestNotFound when none is open.
func (r *PostgresRepository) FindOpenVerificationRequest(ctx context.Context, campaignID int64) (*domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	query := `
		SELECT id, campaign_id, requested_by, message, reason, created_at, resolved_at
		FROM verification_requests
		WHERE campaign_id = $1 AND resolved_at IS NULL
	`
	err := r.db.QueryRow(ctx, query, campaignID).Scan(
		&req.ID, &req.CampaignID, &req.RequestedBy, &req.Message, &req.Reason, &req.CreatedAt, &req.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVerificationRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ResolveVerificationRequest stores the evidence response, marks the open
// request resolved and returns the campaign to PENDING, all in one
// transaction. It returns the request that was resolved so callers can
// notify the admin who raised it.
func (r *PostgresRepository) ResolveVerificationRequest(ctx context.Context, response *domain.EvidenceResponse) (*domain.VerificationRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var req domain.VerificationRequest
	err = tx.QueryRow(ctx, `
		SELECT id, campaign_id, requested_by, message, reason, created_at, resolved_at
		FROM verification_requests
		WHERE campaign_id = $1 AND resolved_at IS NULL
		FOR UPDATE
	`, response.CampaignID).Scan(
		&req.ID, &req.CampaignID, &req.RequestedBy, &req.Message, &req.Reason, &req.CreatedAt, &req.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVerificationRequestNotFound
		}
		return nil, err
	}

	response.RequestID = req.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO evidence_responses (request_id, campaign_id, submitted_by, description, document_urls, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`, response.RequestID, response.CampaignID, response.SubmittedBy, response.Description, response.DocumentURLs).
		Scan(&response.ID, &response.CreatedAt)
	if err != nil {
		return nil, err
	}

	var resolvedAt time.Time
	err = tx.QueryRow(ctx,
		`UPDATE verification_requests SET resolved_at = NOW() WHERE id = $1 RETURNING resolved_at`,
		req.ID,
	).Scan(&resolvedAt)
	if err != nil {
		return nil, err
	}
	req.ResolvedAt = &resolvedAt

	if _, err := tx.Exec(ctx,
		`UPDATE campaigns SET status = $2, updated_at = NOW() WHERE id = $1`,
		response.CampaignID, domain.StatusPending,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &req, nil
}

// FindUserEmail resolves a user's email address for outbound mail.
func (r *PostgresRepository) FindUserEmail(ctx context.Context, userID int64) (string, error) {
	var email string
	err := r.db.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return email, nil
}
