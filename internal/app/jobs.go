/**
 * @description
 * Scheduled job implementations for the deadline monitor. Each sweep loads
 * every open campaign in a donation-accepting status, closes the ones whose
 * goal is met or whose deadline has passed, and emails a reminder for
 * campaigns inside the reminder window. A failure on one campaign never
 * aborts the rest of the batch.
 */

package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/fundflow/campaign-service/internal/domain"
	"github.com/fundflow/campaign-service/internal/metrics"
	"github.com/fundflow/campaign-service/internal/store"
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo           store.Repository
	dispatcher     *Dispatcher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	reminderWindow time.Duration
	now            func() time.Time
}

// NewJobs creates a new Jobs runner. reminderWindowHours bounds how far
// ahead of the deadline reminder emails are sent.
func NewJobs(repo store.Repository, dispatcher *Dispatcher, reminderWindowHours int, m *metrics.Metrics, logger *slog.Logger) *Jobs {
	if reminderWindowHours <= 0 {
		reminderWindowHours = 24
	}
	return &Jobs{
		repo:           repo,
		dispatcher:     dispatcher,
		metrics:        m,
		logger:         logger,
		reminderWindow: time.Duration(reminderWindowHours) * time.Hour,
		now:            time.Now,
	}
}

// ProcessCampaignDeadlines is one sweep of the deadline monitor.
func (j *Jobs) ProcessCampaignDeadlines() {
	j.logger.Info("starting campaign deadline sweep")
	ctx := context.Background()
	j.metrics.SweepRunsTotal.Inc()

	campaigns, err := j.repo.FindCampaignsDueForCheck(ctx)
	if err != nil {
		j.logger.Error("failed to load campaigns for deadline sweep, skipping run", "error", err)
		return
	}
	if len(campaigns) == 0 {
		j.logger.Info("no open campaigns to check")
		return
	}

	now := j.now().UTC()
	for i := range campaigns {
		campaign := &campaigns[i]
		switch {
		case campaign.GoalMet() || campaign.DeadlinePassed(now):
			j.finishCampaign(ctx, campaign, now)
		case campaign.Deadline.Sub(now) <= j.reminderWindow:
			j.remindCampaign(ctx, campaign, now)
		}
	}

	j.logger.Info("campaign deadline sweep finished", "checked", len(campaigns))
}

// finishCampaign closes one campaign and notifies its owner. The is_closed
// guard inside CloseCampaign keeps a second sweep from sending a second
// completion email.
func (j *Jobs) finishCampaign(ctx context.Context, campaign *domain.Campaign, now time.Time) {
	closed, err := j.repo.CloseCampaign(ctx, campaign.ID, domain.StatusFinished)
	if err != nil {
		j.logger.Error("failed to close campaign", "campaign_id", campaign.ID, "error", err)
		return
	}
	if !closed {
		// Raced with another closer; nothing left to do.
		return
	}
	j.metrics.SweepCampaignsClosedTotal.Inc()
	j.logger.Info("campaign closed by deadline sweep",
		"campaign_id", campaign.ID,
		"goal_met", campaign.GoalMet(),
		"deadline_passed", campaign.DeadlinePassed(now),
	)

	msg := domain.StatusMessage(domain.StatusFinished)
	event := Event{
		UserID:  campaign.OwnerID,
		Type:    domain.NotificationCampaignStatus,
		Title:   msg.Title,
		Content: msg.Body,
		Metadata: map[string]string{
			"campaign_id": strconv.FormatInt(campaign.ID, 10),
			"status":      string(domain.StatusFinished),
		},
		Audit: &domain.AuditLogEntry{
			Action:      domain.AuditCampaignClosedBySweep,
			Description: "campaign closed automatically on goal or deadline",
			ActorID:     campaign.OwnerID,
			CampaignID:  campaign.ID,
		},
	}
	if email, err := j.repo.FindUserEmail(ctx, campaign.OwnerID); err != nil {
		j.logger.Error("could not resolve owner email, skipping completion mail", "campaign_id", campaign.ID, "error", err)
	} else {
		event.Email = &EmailSideEffect{
			To:          email,
			TemplateKey: msg.MailTemplate,
			Data: map[string]string{
				"campaign_title": campaign.Title,
				"total_donated":  campaign.TotalDonated.String(),
			},
		}
	}
	j.dispatcher.DispatchAndLog(ctx, event)
}

// remindCampaign tells the owner the deadline is close, without touching the
// campaign status. The reminder fans out like every other event: in-app
// notification, realtime push and the reminder mail. Running two sweeps
// inside the same window sends the reminder twice; that tolerance is
// accepted.
func (j *Jobs) remindCampaign(ctx context.Context, campaign *domain.Campaign, now time.Time) {
	daysLeft := int(math.Ceil(campaign.Deadline.Sub(now).Hours() / 24))
	if daysLeft < 0 {
		daysLeft = 0
	}

	email, err := j.repo.FindUserEmail(ctx, campaign.OwnerID)
	if err != nil {
		j.logger.Error("could not resolve owner email, skipping reminder", "campaign_id", campaign.ID, "error", err)
		return
	}

	results := j.dispatcher.Dispatch(ctx, Event{
		UserID:  campaign.OwnerID,
		Type:    domain.NotificationDeadlineReminder,
		Title:   "Campaign deadline approaching",
		Content: fmt.Sprintf("Your campaign %q ends in %d day(s).", campaign.Title, daysLeft),
		Metadata: map[string]string{
			"campaign_id": strconv.FormatInt(campaign.ID, 10),
			"days_left":   strconv.Itoa(daysLeft),
		},
		Email: &EmailSideEffect{
			To:          email,
			TemplateKey: "campaign_deadline_reminder",
			Data: map[string]string{
				"campaign_title": campaign.Title,
				"days_left":      strconv.Itoa(daysLeft),
			},
		},
	})
	for _, res := range results {
		if res.Failed() {
			j.logger.Error("reminder side effect failed", "channel", res.Channel, "campaign_id", campaign.ID, "error", res.Err)
			if res.Channel == ChannelEmail {
				return
			}
		}
	}

	j.metrics.SweepRemindersTotal.Inc()
	j.logger.Info("deadline reminder sent", "campaign_id", campaign.ID, "days_left", daysLeft)
}
