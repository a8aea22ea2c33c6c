package model

import "time"

type RewardStatus string

const (
	RewardDraft    RewardStatus = "draft"
	RewardActive   RewardStatus = "active"
	RewardInactive RewardStatus = "inactive"
)

type RewardType string

const (
	RewardVoucher  RewardType = "voucher"
	RewardCashback RewardType = "cashback"
	RewardGift     RewardType = "gift"
	RewardDiscount RewardType = "discount"
)

type Reward struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Type          RewardType   `json:"type"`
	Description   string       `json:"description"`
	Value         float64      `json:"value"`
	MilesCost     int          `json:"miles_cost"`
	ValidityStart time.Time    `json:"validity_start"`
	ValidityEnd   time.Time    `json:"validity_end"`
	Conditions    string       `json:"conditions"`
	Status        RewardStatus `json:"status"`
	UsageCount    int          `json:"usage_count"`
	MaxUsage      *int         `json:"max_usage,omitempty"`
	TierName      string       `json:"tier_name"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
