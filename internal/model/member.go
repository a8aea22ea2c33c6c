package model

import "time"

type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
)

type Member struct {
	ID                   int64        `json:"id"`
	Email                string       `json:"email"`
	Name                 string       `json:"name"`
	MemberNumber         string       `json:"member_number"`
	TotalQualifyingMiles int          `json:"total_qualifying_miles"`
	TotalAwardMiles      int          `json:"total_award_miles"`
	Tier                 string       `json:"tier"`
	Status               MemberStatus `json:"status"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// MemberReward records a reward granted to a member, currently only by tier auto-assignment.
type MemberReward struct {
	ID         int64     `json:"id"`
	MemberID   int64     `json:"member_id"`
	RewardID   int64     `json:"reward_id"`
	RewardName string    `json:"reward_name"`
	TierName   string    `json:"tier_name"`
	Source     string    `json:"source"`
	AssignedAt time.Time `json:"assigned_at"`
}

const RewardSourceAuto = "auto"
