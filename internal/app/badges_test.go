package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundflow/campaign-service/internal/domain"
)

func userBadgeTypes(t *testing.T, f *fixture, userID int64) []domain.BadgeType {
	t.Helper()
	badges, err := f.repo.FindBadgesByUser(context.Background(), userID)
	require.NoError(t, err)
	types := make([]domain.BadgeType, 0, len(badges))
	for _, b := range badges {
		types = append(types, b.Type)
	}
	return types
}

func TestBadges_FirstDonationAwardedOnce(t *testing.T) {
	f := newFixture()
	openCampaign(f, 1, 10, "1000000000")

	for i := 0; i < 3; i++ {
		_, err := f.service.CreateDonation(context.Background(), 20, domain.CreateDonationRequest{
			CampaignID: 1,
			Amount:     dec("10"),
		})
		require.NoError(t, err)
	}

	types := userBadgeTypes(t, f, 20)
	require.Len(t, types, 1)
	assert.Equal(t, domain.BadgeFirstDonation, types[0])

	// One award, one badge notification.
	var badgeNotes int
	for _, n := range f.repo.notificationsFor(20) {
		if n.Type == domain.NotificationBadgeAwarded {
			badgeNotes++
		}
	}
	assert.Equal(t, 1, badgeNotes)
}

func TestBadges_MilestoneInReferenceCurrency(t *testing.T) {
	f := newFixture()
	openCampaign(f, 1, 10, "1000000000")

	_, err := f.service.CreateDonation(context.Background(), 20, domain.CreateDonationRequest{
		CampaignID: 1,
		Amount:     dec("1000000"),
	})
	require.NoError(t, err)
	assert.Contains(t, userBadgeTypes(t, f, 20), domain.BadgeDonationMilestone)

	// Just under the threshold does not qualify.
	_, err = f.service.CreateDonation(context.Background(), 21, domain.CreateDonationRequest{
		CampaignID: 1,
		Amount:     dec("999999.99"),
	})
	require.NoError(t, err)
	assert.NotContains(t, userBadgeTypes(t, f, 21), domain.BadgeDonationMilestone)
}

func TestBadges_MilestoneConvertsTokenAmount(t *testing.T) {
	f := newFixture()
	openCampaign(f, 1, 10, "1000000000")
	f.prices.prices["ETH"] = dec("2500000")
	token := "ETH"

	// 0.5 ETH at 2,500,000 each crosses the 1,000,000 threshold.
	_, err := f.service.CreateDonation(context.Background(), 20, domain.CreateDonationRequest{
		CampaignID: 1,
		Amount:     dec("0.5"),
		TokenName:  &token,
	})
	require.NoError(t, err)
	assert.Contains(t, userBadgeTypes(t, f, 20), domain.BadgeDonationMilestone)
}

func TestBadges_PriceFailureOnlySkipsMilestoneRule(t *testing.T) {
	f := newFixture()
	openCampaign(f, 1, 10, "1000000000")
	f.prices.err = errors.New("price feed timeout")
	token := "ETH"

	donation, err := f.service.CreateDonation(context.Background(), 20, domain.CreateDonationRequest{
		CampaignID: 1,
		Amount:     dec("1000000"),
		TokenName:  &token,
	})
	require.NoError(t, err, "a dead price feed must not block the donation")
	require.NotNil(t, donation)

	types := userBadgeTypes(t, f, 20)
	assert.Contains(t, types, domain.BadgeFirstDonation, "the other rules still run")
	assert.NotContains(t, types, domain.BadgeDonationMilestone)
}

func TestBadges_RegularDonorNeedsThreeMonths(t *testing.T) {
	f := newFixture()
	openCampaign(f, 1, 10, "1000000000")

	months := []time.Time{
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
	}
	for i, at := range months {
		f.repo.donations = append(f.repo.donations, domain.Donation{
			ID: int64(i + 1), CampaignID: 1, DonorID: 20, Amount: dec("5"), DonatedAt: at,
		})
	}

	// Third distinct month arrives through the service.
	_, err := f.service.CreateDonation(context.Background(), 20, domain.CreateDonationRequest{
		CampaignID: 1,
		Amount:     dec("5"),
	})
	require.NoError(t, err)
	assert.Contains(t, userBadgeTypes(t, f, 20), domain.BadgeRegularDonor)
}

func TestBadges_CampaignCreatedOnlyForCreator(t *testing.T) {
	f := newFixture()
	c := openCampaign(f, 1, 10, "100")

	f.badges.EvaluateCampaignCreated(context.Background(), 99, c)
	assert.Empty(t, userBadgeTypes(t, f, 99), "acting on someone else's campaign earns nothing")

	f.badges.EvaluateCampaignCreated(context.Background(), 10, c)
	assert.Contains(t, userBadgeTypes(t, f, 10), domain.BadgeCampaignCreated)
}

func TestBadges_MissingDefinitionIsSkipped(t *testing.T) {
	f := newFixture()
	openCampaign(f, 1, 10, "100")
	delete(f.repo.badges, domain.BadgeFirstDonation)

	_, err := f.service.CreateDonation(context.Background(), 20, domain.CreateDonationRequest{
		CampaignID: 1,
		Amount:     dec("10"),
	})
	require.NoError(t, err)
	assert.Empty(t, userBadgeTypes(t, f, 20))
}
