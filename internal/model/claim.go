package model

import "time"

type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimReviewing ClaimStatus = "reviewing"
	ClaimApproved  ClaimStatus = "approved"
	ClaimRejected  ClaimStatus = "rejected"
)

// Open reports whether the claim can still be approved or rejected.
func (s ClaimStatus) Open() bool {
	return s == ClaimPending || s == ClaimReviewing
}

type Claim struct {
	ID              int64          `json:"id"`
	ClaimNumber     string         `json:"claim_number"`
	MemberName      string         `json:"member_name"`
	MemberEmail     string         `json:"member_email"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	Status          ClaimStatus    `json:"status"`
	Reason          string         `json:"reason"`
	FlightInfo      string         `json:"flight_info"`
	Miles           int            `json:"miles"`
	FlightDetails   *FlightDetails `json:"flight_details,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	ReviewedBy      string         `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// FlightDetails is the miles breakdown computed upstream when the claim was filed:
// base qualifying miles times the class multiplier gives the total.
type FlightDetails struct {
	FlightNumber        string  `json:"flight_number"`
	Airline             string  `json:"airline"`
	Origin              string  `json:"origin"`
	Destination         string  `json:"destination"`
	Distance            int     `json:"distance"`
	SeatClass           string  `json:"seat_class"`
	BaseQualifyingMiles int     `json:"base_qualifying_miles"`
	ClassMultiplier     float64 `json:"class_multiplier"`
	TotalMiles          int     `json:"total_miles"`
	QualifyingMiles     int     `json:"qualifying_miles"`
	BonusMiles          int     `json:"bonus_miles"`
}

// CreditedMiles returns the qualifying and award miles an approval credits.
func (c *Claim) CreditedMiles() (qualifying, award int) {
	if c.FlightDetails != nil && (c.FlightDetails.QualifyingMiles > 0 || c.FlightDetails.BonusMiles > 0) {
		return c.FlightDetails.QualifyingMiles, c.FlightDetails.BonusMiles
	}
	return c.Miles, c.Miles
}
