/**
 * @description
 * This file defines the campaign domain model and the campaign lifecycle state
 * machine. The allowed-transition table and the per-status messaging lookup
 * live here so that every caller (API handlers, the deadline monitor, the
 * application service) shares a single source of truth for which lifecycle
 * moves are legal and what gets communicated when they happen.
 *
 * @notes
 * - Monetary fields use shopspring/decimal to avoid floating point drift on
 *   donation totals.
 * - `TotalDonated` is only ever mutated through the store's atomic increment;
 *   the struct carries whatever value was last read.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	StatusDraft            CampaignStatus = "DRAFT"
	StatusPending          CampaignStatus = "PENDING"
	StatusNeedVerification CampaignStatus = "NEED_VERIFICATION"
	StatusApproved         CampaignStatus = "APPROVED"
	StatusActive           CampaignStatus = "ACTIVE"
	StatusRejected         CampaignStatus = "REJECTED"
	StatusFinished         CampaignStatus = "FINISHED"
	StatusCancelled        CampaignStatus = "CANCELLED"
)

// Campaign maps directly to the `campaigns` table.
type Campaign struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Goal         decimal.Decimal `json:"goal"`
	TotalDonated decimal.Decimal `json:"total_donated"`
	Deadline     time.Time       `json:"deadline"`
	IsClosed     bool            `json:"is_closed"`
	Status       CampaignStatus  `json:"status"`
	OwnerID      int64           `json:"owner_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// GoalMet reports whether the running total has reached the campaign goal.
func (c *Campaign) GoalMet() bool {
	return c.TotalDonated.GreaterThanOrEqual(c.Goal)
}

// DeadlinePassed reports whether the campaign deadline is at or before now.
func (c *Campaign) DeadlinePassed(now time.Time) bool {
	return !c.Deadline.After(now)
}

// VerificationRequest is an admin's demand for evidence on a campaign. It is
// open while ResolvedAt is nil; at most one open request may exist per
// campaign at any time.
type VerificationRequest struct {
	ID          int64      `json:"id"`
	CampaignID  int64      `json:"campaign_id"`
	RequestedBy int64      `json:"requested_by"`
	Message     string     `json:"message"`
	Reason      *string    `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// EvidenceResponse resolves a verification request.
type EvidenceResponse struct {
	ID           int64     `json:"id"`
	RequestID    int64     `json:"request_id"`
	CampaignID   int64     `json:"campaign_id"`
	SubmittedBy  int64     `json:"submitted_by"`
	Description  string    `json:"description"`
	DocumentURLs []string  `json:"document_urls"`
	CreatedAt    time.Time `json:"created_at"`
}

// terminalStatuses receive no further automatic transitions.
var terminalStatuses = map[CampaignStatus]bool{
	StatusFinished:  true,
	StatusCancelled: true,
	StatusRejected:  true,
}

// IsTerminal reports whether a status is a dead end for the state machine.
func IsTerminal(s CampaignStatus) bool {
	return terminalStatuses[s]
}

// closingStatuses are the terminal statuses that also close the campaign.
// is_closed is only ever true alongside one of these; a rejected campaign
// stays open.
var closingStatuses = map[CampaignStatus]bool{
	StatusFinished:  true,
	StatusCancelled: true,
}

// IsClosing reports whether entering the status sets is_closed.
func IsClosing(s CampaignStatus) bool {
	return closingStatuses[s]
}

// allowedTransitions is the lifecycle edge list. Any (from, to) pair not
// present here is refused by CanTransition.
var allowedTransitions = map[CampaignStatus][]CampaignStatus{
	StatusDraft:            {StatusPending, StatusCancelled, StatusNeedVerification},
	StatusPending:          {StatusApproved, StatusRejected, StatusNeedVerification, StatusCancelled},
	StatusNeedVerification: {StatusPending, StatusRejected, StatusCancelled},
	StatusApproved:         {StatusActive, StatusFinished, StatusNeedVerification, StatusCancelled},
	StatusActive:           {StatusFinished, StatusNeedVerification, StatusCancelled},
}

// CanTransition reports whether the state machine permits moving a campaign
// from one status to another.
func CanTransition(from, to CampaignStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OpenStatuses returns the statuses from which a verification request may be
// raised.
func OpenStatuses() []CampaignStatus {
	return []CampaignStatus{StatusDraft, StatusPending, StatusApproved, StatusActive}
}

// StatusMessaging carries the user-facing copy attached to a status change.
type StatusMessaging struct {
	Title        string
	Body         string
	MailTemplate string
}

var statusMessages = map[CampaignStatus]StatusMessaging{
	StatusApproved: {
		Title:        "Campaign approved",
		Body:         "Your campaign has been approved and can start receiving donations.",
		MailTemplate: "campaign_approved",
	},
	StatusActive: {
		Title:        "Campaign activated",
		Body:         "Your campaign is now live.",
		MailTemplate: "campaign_activated",
	},
	StatusRejected: {
		Title:        "Campaign rejected",
		Body:         "Your campaign was rejected. Please review the feedback and try again.",
		MailTemplate: "campaign_rejected",
	},
	StatusNeedVerification: {
		Title:        "Verification required",
		Body:         "An administrator has requested additional evidence for your campaign.",
		MailTemplate: "campaign_need_verification",
	},
	StatusFinished: {
		Title:        "Campaign finished",
		Body:         "Your campaign has ended. Thank you for fundraising with us.",
		MailTemplate: "campaign_finished",
	},
	StatusCancelled: {
		Title:        "Campaign cancelled",
		Body:         "Your campaign has been cancelled.",
		MailTemplate: "campaign_cancelled",
	},
}

// defaultStatusMessage is used for any status without dedicated copy.
var defaultStatusMessage = StatusMessaging{
	Title:        "Campaign status updated",
	Body:         "The status of your campaign has changed.",
	MailTemplate: "campaign_status_changed",
}

// StatusMessage returns the messaging for a target status, falling back to a
// generic message for statuses without dedicated copy.
func StatusMessage(s CampaignStatus) StatusMessaging {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return defaultStatusMessage
}
