package loyalty

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
	"github.com/dustin/go-humanize"
)

func formatMiles(n int) string {
	return humanize.Comma(int64(n))
}

// ClaimResult is the committed outcome of a claim decision.
type ClaimResult struct {
	Claim       *model.Claim  `json:"claim"`
	Member      *model.Member `json:"member,omitempty"`
	MemberFound bool          `json:"member_found"`
	TierChange  *TierChange   `json:"tier_change,omitempty"`
}

func (s *Service) ListClaims(f store.ClaimFilter) ([]model.Claim, error) {
	return s.claims.List(f)
}

func (s *Service) GetClaim(id int64) (*model.Claim, error) {
	c, err := s.claims.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// CreateClaim files a new pending claim on behalf of a member.
func (s *Service) CreateClaim(ctx context.Context, c *model.Claim) (*model.Claim, error) {
	c.MemberEmail = strings.TrimSpace(c.MemberEmail)
	c.MemberName = strings.TrimSpace(c.MemberName)
	if c.MemberEmail == "" {
		return nil, &ValidationError{Field: "member_email", Message: "is required"}
	}
	if c.Miles < 0 {
		return nil, ErrInvalidMiles
	}
	if fd := c.FlightDetails; fd != nil && (fd.QualifyingMiles < 0 || fd.BonusMiles < 0) {
		return nil, ErrInvalidMiles
	}
	c.Status = model.ClaimPending
	c.ClaimNumber = ""

	var created *model.Claim
	err := s.inTx(ctx, func(ts *txStores) error {
		var err error
		created, err = ts.claims.Create(c)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	s.logger.Info("claim created", "claim_id", created.ID, "claim_number", created.ClaimNumber)
	return created, nil
}

// MarkReviewing moves a pending claim to reviewing. A claim already under
// review is returned unchanged.
func (s *Service) MarkReviewing(ctx context.Context, actor Actor, id int64) (*model.Claim, error) {
	var out *model.Claim
	err := s.inTx(ctx, func(ts *txStores) error {
		c, err := ts.claims.GetByID(id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		switch c.Status {
		case model.ClaimReviewing:
			out = c
			return nil
		case model.ClaimPending:
		default:
			return ErrClaimClosed
		}

		if err := ts.claims.Review(id, model.ClaimReviewing, actor.Name, ""); err != nil {
			return err
		}
		if err := ts.audit(actor, fmt.Sprintf("Started review of claim request %s", c.ClaimNumber)); err != nil {
			return err
		}
		out, err = ts.claims.GetByID(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("mark reviewing: %w", err)
	}
	return out, nil
}

// ApproveClaim approves an open claim and credits the member registered under
// the claim's email. A claim for an unknown member is still approved.
func (s *Service) ApproveClaim(ctx context.Context, actor Actor, id int64) (*ClaimResult, error) {
	var result ClaimResult
	err := s.inTx(ctx, func(ts *txStores) error {
		c, err := ts.claims.GetByID(id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		if !c.Status.Open() {
			return ErrClaimClosed
		}

		qualifying, award := c.CreditedMiles()
		m, change, err := s.creditMember(ts, actor, c.MemberEmail, qualifying, award)
		if err != nil {
			return err
		}

		if err := ts.claims.Review(id, model.ClaimApproved, actor.Name, ""); err != nil {
			return err
		}

		action := fmt.Sprintf("Approved claim request %s and credited %s miles", c.ClaimNumber, formatMiles(qualifying))
		if m == nil {
			action += " - Member not found in system"
		}
		if err := ts.audit(actor, action); err != nil {
			return err
		}

		result.Claim, err = ts.claims.GetByID(id)
		if err != nil {
			return err
		}
		result.Member = m
		result.MemberFound = m != nil
		result.TierChange = change
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("approve claim: %w", err)
	}

	s.logger.Info("claim approved", "claim_id", id, "member_found", result.MemberFound)
	return &result, nil
}

// RejectClaim rejects an open claim. The reason is checked before anything is
// read or written.
func (s *Service) RejectClaim(ctx context.Context, actor Actor, id int64, reason string) (*model.Claim, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonRequired
	}

	var out *model.Claim
	err := s.inTx(ctx, func(ts *txStores) error {
		c, err := ts.claims.GetByID(id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		if !c.Status.Open() {
			return ErrClaimClosed
		}

		if err := ts.claims.Review(id, model.ClaimRejected, actor.Name, reason); err != nil {
			return err
		}
		if err := ts.audit(actor, fmt.Sprintf("Rejected claim request %s - Reason: %s", c.ClaimNumber, reason)); err != nil {
			return err
		}
		out, err = ts.claims.GetByID(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reject claim: %w", err)
	}

	s.logger.Info("claim rejected", "claim_id", id)
	return out, nil
}
