package loyalty

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
	"github.com/dukerupert/mileswise/internal/tier"
)

// MemberInput carries the editable member fields.
type MemberInput struct {
	Email                string `json:"email"`
	Name                 string `json:"name"`
	MemberNumber         string `json:"member_number"`
	Tier                 string `json:"tier"`
	TotalQualifyingMiles int    `json:"total_qualifying_miles"`
	TotalAwardMiles      int    `json:"total_award_miles"`
}

func (in *MemberInput) normalize() error {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.MemberNumber = strings.TrimSpace(in.MemberNumber)
	in.Tier = tier.NormalizeName(in.Tier)

	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if in.TotalQualifyingMiles < 0 || in.TotalAwardMiles < 0 {
		return ErrInvalidMiles
	}
	return nil
}

func (s *Service) ListMembers(f store.MemberFilter) ([]model.Member, error) {
	return s.members.List(f)
}

func (s *Service) GetMember(id int64) (*model.Member, error) {
	m, err := s.members.GetByID(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *Service) MemberRewards(id int64) ([]model.MemberReward, error) {
	if _, err := s.GetMember(id); err != nil {
		return nil, err
	}
	return s.members.ListRewards(id)
}

// resolveTier checks that name refers to a configured tier. A blank name
// resolves to the tier the qualifying balance earns, possibly none.
func resolveTier(ts *txStores, name string, qualifying int) (string, error) {
	if name == "" {
		tiers, err := ts.tiers.List()
		if err != nil {
			return "", err
		}
		if t := tier.Eligible(tiers, qualifying); t != nil {
			return t.Name, nil
		}
		return "", nil
	}

	t, err := ts.tiers.GetByName(name)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", &ValidationError{Field: "tier", Message: fmt.Sprintf("unknown tier %q", name)}
	}
	return t.Name, nil
}

func (s *Service) CreateMember(ctx context.Context, actor Actor, in MemberInput) (*model.Member, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var created *model.Member
	err := s.inTx(ctx, func(ts *txStores) error {
		existing, err := ts.members.GetByEmail(in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}

		tierName, err := resolveTier(ts, in.Tier, in.TotalQualifyingMiles)
		if err != nil {
			return err
		}

		created, err = ts.members.Create(&model.Member{
			Email:                in.Email,
			Name:                 in.Name,
			MemberNumber:         in.MemberNumber,
			TotalQualifyingMiles: in.TotalQualifyingMiles,
			TotalAwardMiles:      in.TotalAwardMiles,
			Tier:                 tierName,
			Status:               model.MemberActive,
		})
		if err != nil {
			return err
		}
		return ts.audit(actor, fmt.Sprintf("Added new member: %s (%s)", created.Name, created.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return created, nil
}

// UpdateMember replaces the member's profile fields. Balances are changed
// through SetMiles so the tier engine sees them; a blank tier keeps the
// current one.
func (s *Service) UpdateMember(ctx context.Context, actor Actor, id int64, in MemberInput) (*model.Member, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var updated *model.Member
	err := s.inTx(ctx, func(ts *txStores) error {
		m, err := ts.members.GetByID(id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotFound
		}

		if !strings.EqualFold(m.Email, in.Email) {
			other, err := ts.members.GetByEmail(in.Email)
			if err != nil {
				return err
			}
			if other != nil {
				return ErrEmailTaken
			}
		}

		if in.Tier != "" && in.Tier != m.Tier {
			name, err := resolveTier(ts, in.Tier, m.TotalQualifyingMiles)
			if err != nil {
				return err
			}
			m.Tier = name
		}
		m.Email = in.Email
		m.Name = in.Name
		if in.MemberNumber != "" {
			m.MemberNumber = in.MemberNumber
		}

		updated, err = ts.members.Update(m)
		if err != nil {
			return err
		}
		return ts.audit(actor, fmt.Sprintf("Updated member: %s (%s)", updated.Name, updated.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return updated, nil
}

// SetMemberStatus sets the member's status. A blank status toggles it.
func (s *Service) SetMemberStatus(ctx context.Context, actor Actor, id int64, status model.MemberStatus) (*model.Member, error) {
	if status != "" && status != model.MemberActive && status != model.MemberInactive {
		return nil, &ValidationError{Field: "status", Message: "must be active or inactive"}
	}

	var out *model.Member
	err := s.inTx(ctx, func(ts *txStores) error {
		m, err := ts.members.GetByID(id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotFound
		}

		next := status
		if next == "" {
			next = model.MemberActive
			if m.Status == model.MemberActive {
				next = model.MemberInactive
			}
		}
		if next == m.Status {
			out = m
			return nil
		}

		if err := ts.members.SetStatus(id, next); err != nil {
			return err
		}
		verb := "Activated"
		if next == model.MemberInactive {
			verb = "Deactivated"
		}
		if err := ts.audit(actor, fmt.Sprintf("%s member: %s", verb, m.Name)); err != nil {
			return err
		}
		out, err = ts.members.GetByID(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("set member status: %w", err)
	}
	return out, nil
}

func (s *Service) DeleteMember(ctx context.Context, actor Actor, id int64) (*model.Member, error) {
	var removed *model.Member
	err := s.inTx(ctx, func(ts *txStores) error {
		m, err := ts.members.GetByID(id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotFound
		}
		if err := ts.members.Delete(id); err != nil {
			return err
		}
		removed = m
		return ts.audit(actor, fmt.Sprintf("Removed member: %s (%s)", m.Name, m.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("delete member: %w", err)
	}
	return removed, nil
}
