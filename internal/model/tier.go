package model

import "time"

type TierStatus string

const (
	TierActive   TierStatus = "active"
	TierInactive TierStatus = "inactive"
)

type Tier struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	DisplayName        string     `json:"display_name"`
	Color              string     `json:"color"`
	MilesRequired      int        `json:"miles_required"`
	Description        string     `json:"description"`
	Benefits           []string   `json:"benefits"`
	AutoRewards        []int64    `json:"auto_rewards"`
	Status             TierStatus `json:"status"`
	MaxRewardsPerMonth int        `json:"max_rewards_per_month"`
	TierBonus          int        `json:"tier_bonus"`
	MemberCount        int        `json:"member_count"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
