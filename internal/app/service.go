/**
 * @description
 * This file contains the campaign lifecycle state machine. The `Service`
 * struct owns every status transition: admin approval and rejection, the
 * verification round-trip, cancellation and the generic administrative
 * status override. Each transition persists its write first and only then
 * fans out notifications, email and audit entries; a failed side effect is
 * logged and swallowed, never rolled back.
 *
 * @dependencies
 * - internal/domain: Transition table and per-status messaging.
 * - internal/store: Persistence contract and its sentinel errors.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/fundflow/campaign-service/internal/domain"
	"github.com/fundflow/campaign-service/internal/metrics"
	"github.com/fundflow/campaign-service/internal/store"
)

var (
	ErrInvalidDonationAmount   = errors.New("donation amount must be greater than zero")
	ErrInvalidHistoryGrouping  = errors.New("history grouping must be day, week or month")
	ErrNotCampaignOwner        = errors.New("user does not own this campaign")
	ErrInvalidStatusTransition = errors.New("status transition not permitted")
	ErrCampaignClosed          = errors.New("campaign is in a terminal status")
)

// Service provides the core business logic for the campaign lifecycle and
// the donation ledger.
type Service struct {
	repo       store.Repository
	dispatcher *Dispatcher
	badges     *BadgeEngine
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewService creates a new campaign service instance.
func NewService(repo store.Repository, dispatcher *Dispatcher, badges *BadgeEngine, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		badges:     badges,
		metrics:    m,
		logger:     logger,
	}
}

// validateTransition refuses moves the lifecycle table does not allow.
// Terminal statuses report ErrCampaignClosed so callers can surface a
// conflict instead of a generic validation failure.
func validateTransition(from, to domain.CampaignStatus) error {
	if domain.IsTerminal(from) {
		return ErrCampaignClosed
	}
	if !domain.CanTransition(from, to) {
		return ErrInvalidStatusTransition
	}
	return nil
}

// statusEvent builds the fan-out event for a persisted status change. The
// owner's email is resolved best-effort; when the lookup fails the email
// channel is skipped and the failure logged.
func (s *Service) statusEvent(ctx context.Context, campaign *domain.Campaign, to domain.CampaignStatus, actorID int64, extra map[string]string) Event {
	msg := domain.StatusMessage(to)
	metadata := map[string]string{
		"campaign_id": strconv.FormatInt(campaign.ID, 10),
		"status":      string(to),
	}
	for k, v := range extra {
		metadata[k] = v
	}

	event := Event{
		UserID:   campaign.OwnerID,
		Type:     domain.NotificationCampaignStatus,
		Title:    msg.Title,
		Content:  msg.Body,
		Metadata: metadata,
		Audit: &domain.AuditLogEntry{
			Action:      domain.AuditCampaignStatusChanged,
			Description: fmt.Sprintf("campaign %d moved from %s to %s", campaign.ID, campaign.Status, to),
			ActorID:     actorID,
			CampaignID:  campaign.ID,
			Metadata:    metadata,
		},
	}

	email, err := s.repo.FindUserEmail(ctx, campaign.OwnerID)
	if err != nil {
		s.logger.Error("could not resolve owner email, skipping mail", "campaign_id", campaign.ID, "owner_id", campaign.OwnerID, "error", err)
		return event
	}
	data := map[string]string{"campaign_title": campaign.Title}
	for k, v := range extra {
		data[k] = v
	}
	event.Email = &EmailSideEffect{To: email, TemplateKey: msg.MailTemplate, Data: data}
	return event
}

// transition validates, persists and fans out one lifecycle move.
func (s *Service) transition(ctx context.Context, actorID, campaignID int64, to domain.CampaignStatus, extra map[string]string) (*domain.Campaign, error) {
	campaign, err := s.repo.FindCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := validateTransition(campaign.Status, to); err != nil {
		return nil, err
	}

	var updated *domain.Campaign
	if domain.IsClosing(to) {
		closed, err := s.repo.CloseCampaign(ctx, campaignID, to)
		if err != nil {
			return nil, err
		}
		if !closed {
			return nil, ErrCampaignClosed
		}
		updated, err = s.repo.FindCampaignByID(ctx, campaignID)
		if err != nil {
			return nil, err
		}
	} else {
		updated, err = s.repo.UpdateCampaignStatus(ctx, campaignID, to)
		if err != nil {
			return nil, err
		}
	}

	s.metrics.StatusTransitionsTotal.WithLabelValues(string(to)).Inc()
	s.dispatcher.DispatchAndLog(ctx, s.statusEvent(ctx, campaign, to, actorID, extra))
	return updated, nil
}

// ApproveCampaign moves a pending campaign to APPROVED.
func (s *Service) ApproveCampaign(ctx context.Context, actorID, campaignID int64) (*domain.Campaign, error) {
	return s.transition(ctx, actorID, campaignID, domain.StatusApproved, nil)
}

// RejectCampaign moves a pending campaign to REJECTED with an optional reason.
func (s *Service) RejectCampaign(ctx context.Context, actorID, campaignID int64, reason *string) (*domain.Campaign, error) {
	extra := map[string]string{}
	if reason != nil {
		extra["reason"] = *reason
	}
	return s.transition(ctx, actorID, campaignID, domain.StatusRejected, extra)
}

// ActivateCampaign moves an approved campaign to ACTIVE.
func (s *Service) ActivateCampaign(ctx context.Context, actorID, campaignID int64) (*domain.Campaign, error) {
	return s.transition(ctx, actorID, campaignID, domain.StatusActive, nil)
}

// CancelCampaign closes a campaign into CANCELLED.
func (s *Service) CancelCampaign(ctx context.Context, actorID, campaignID int64) (*domain.Campaign, error) {
	return s.transition(ctx, actorID, campaignID, domain.StatusCancelled, nil)
}

// UpdateCampaignStatus is the generic administrative override. It accepts
// any move the lifecycle table allows and refuses to leave terminal states.
func (s *Service) UpdateCampaignStatus(ctx context.Context, actorID, campaignID int64, to domain.CampaignStatus) (*domain.Campaign, error) {
	return s.transition(ctx, actorID, campaignID, to, nil)
}

// verifiableStatus reports whether a verification request may be raised from
// the campaign's current status.
func verifiableStatus(s domain.CampaignStatus) bool {
	for _, open := range domain.OpenStatuses() {
		if s == open {
			return true
		}
	}
	return false
}

// RequestVerification raises a verification request against an open campaign
// and moves it to NEED_VERIFICATION. The open-request check and the status
// write happen inside one store transaction.
func (s *Service) RequestVerification(ctx context.Context, adminID, campaignID int64, message string, reason *string) (*domain.VerificationRequest, error) {
	campaign, err := s.repo.FindCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if domain.IsTerminal(campaign.Status) {
		return nil, ErrCampaignClosed
	}
	if !verifiableStatus(campaign.Status) {
		// Already in NEED_VERIFICATION, so an open request exists.
		return nil, store.ErrOpenVerificationRequest
	}

	request := &domain.VerificationRequest{
		CampaignID:  campaignID,
		RequestedBy: adminID,
		Message:     message,
		Reason:      reason,
	}
	if err := s.repo.CreateVerificationRequest(ctx, request); err != nil {
		return nil, err
	}

	s.metrics.StatusTransitionsTotal.WithLabelValues(string(domain.StatusNeedVerification)).Inc()
	event := s.statusEvent(ctx, campaign, domain.StatusNeedVerification, adminID, map[string]string{"message": message})
	event.Type = domain.NotificationVerification
	event.Audit.Action = domain.AuditVerificationRequested
	event.Audit.Description = fmt.Sprintf("verification requested for campaign %d", campaignID)
	s.dispatcher.DispatchAndLog(ctx, event)

	return request, nil
}

// SubmitEvidence resolves the open verification request of a campaign. Only
// the campaign owner may submit; without an open request the call fails with
// the store's not-found sentinel.
func (s *Service) SubmitEvidence(ctx context.Context, actorID, campaignID int64, description string, documentURLs []string) (*domain.EvidenceResponse, error) {
	campaign, err := s.repo.FindCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.OwnerID != actorID {
		return nil, ErrNotCampaignOwner
	}

	response := &domain.EvidenceResponse{
		CampaignID:   campaignID,
		SubmittedBy:  actorID,
		Description:  description,
		DocumentURLs: documentURLs,
	}
	request, err := s.repo.ResolveVerificationRequest(ctx, response)
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransitionsTotal.WithLabelValues(string(domain.StatusPending)).Inc()

	// The requesting admin, not the owner, is told about the evidence.
	metadata := map[string]string{
		"campaign_id": strconv.FormatInt(campaignID, 10),
		"request_id":  strconv.FormatInt(request.ID, 10),
	}
	event := Event{
		UserID:   request.RequestedBy,
		Type:     domain.NotificationEvidence,
		Title:    "Evidence submitted",
		Content:  fmt.Sprintf("The owner of campaign %q has submitted evidence for review.", campaign.Title),
		Metadata: metadata,
		Audit: &domain.AuditLogEntry{
			Action:      domain.AuditEvidenceSubmitted,
			Description: fmt.Sprintf("evidence submitted for campaign %d, request %d", campaignID, request.ID),
			ActorID:     actorID,
			CampaignID:  campaignID,
			Metadata:    metadata,
		},
	}
	if email, err := s.repo.FindUserEmail(ctx, request.RequestedBy); err != nil {
		s.logger.Error("could not resolve admin email, skipping mail", "campaign_id", campaignID, "admin_id", request.RequestedBy, "error", err)
	} else {
		event.Email = &EmailSideEffect{
			To:          email,
			TemplateKey: "evidence_submitted",
			Data:        map[string]string{"campaign_title": campaign.Title},
		}
	}
	s.dispatcher.DispatchAndLog(ctx, event)

	return response, nil
}

// OpenVerificationRequest returns the campaign's unresolved verification
// request, or the store's not-found sentinel when none is open.
func (s *Service) OpenVerificationRequest(ctx context.Context, campaignID int64) (*domain.VerificationRequest, error) {
	if _, err := s.repo.FindCampaignByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.repo.FindOpenVerificationRequest(ctx, campaignID)
}

// CampaignAuditLog returns the most recent audit entries for a campaign.
func (s *Service) CampaignAuditLog(ctx context.Context, campaignID int64, limit int) ([]domain.AuditLogEntry, error) {
	if _, err := s.repo.FindCampaignByID(ctx, campaignID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListAuditLogByCampaign(ctx, campaignID, limit)
}

// RegisterCampaignCreated runs the campaign-created badge hook for a freshly
// created campaign. Campaign CRUD itself lives outside this service.
func (s *Service) RegisterCampaignCreated(ctx context.Context, actorID, campaignID int64) error {
	campaign, err := s.repo.FindCampaignByID(ctx, campaignID)
	if err != nil {
		return err
	}
	s.badges.EvaluateCampaignCreated(ctx, actorID, campaign)
	return nil
}
