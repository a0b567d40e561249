/**
 * @description
 * This file defines the badge models. A badge's `Type` selects which award
 * rule the badge engine evaluates for it; the (user, badge) pair is unique so
 * repeated qualifying events never create duplicate awards.
 */

package domain

import "time"

// BadgeType names the rule that decides whether a badge is awarded.
type BadgeType string

const (
	BadgeFirstDonation     BadgeType = "FIRST_DONATION"
	BadgeDonationMilestone BadgeType = "DONATION_MILESTONE"
	BadgeRegularDonor      BadgeType = "REGULAR_DONOR"
	BadgeCampaignCreated   BadgeType = "CAMPAIGN_CREATED"
)

// Badge maps to the `badges` table.
type Badge struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Type        BadgeType `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserBadge is the award join row, unique per (user, badge).
type UserBadge struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BadgeID   int64     `json:"badge_id"`
	AwardedAt time.Time `json:"awarded_at"`
}
