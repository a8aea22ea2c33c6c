package loyalty

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/tier"
)

// TierInput carries the editable tier fields.
type TierInput struct {
	Name               string           `json:"name"`
	DisplayName        string           `json:"display_name"`
	Color              string           `json:"color"`
	MilesRequired      int              `json:"miles_required"`
	Description        string           `json:"description"`
	Benefits           []string         `json:"benefits"`
	AutoRewards        []int64          `json:"auto_rewards"`
	Status             model.TierStatus `json:"status"`
	MaxRewardsPerMonth int              `json:"max_rewards_per_month"`
	TierBonus          int              `json:"tier_bonus"`
}

func (in TierInput) apply(t *model.Tier) {
	t.Name = tier.NormalizeName(in.Name)
	t.DisplayName = strings.TrimSpace(in.DisplayName)
	t.Color = strings.TrimSpace(in.Color)
	t.MilesRequired = in.MilesRequired
	t.Description = strings.TrimSpace(in.Description)
	t.MaxRewardsPerMonth = in.MaxRewardsPerMonth
	t.TierBonus = in.TierBonus
	t.AutoRewards = in.AutoRewards

	t.Benefits = t.Benefits[:0]
	for _, b := range in.Benefits {
		if b = strings.TrimSpace(b); b != "" {
			t.Benefits = append(t.Benefits, b)
		}
	}
	if in.Status != "" {
		t.Status = in.Status
	}
}

func (s *Service) ListTiers(status model.TierStatus) ([]model.Tier, error) {
	return s.tiers.ListByThreshold(status)
}

func (s *Service) GetTier(id int64) (*model.Tier, error) {
	t, err := s.tiers.GetByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// checkTier validates candidate against the configured tiers and makes sure
// its auto rewards exist.
func checkTier(ts *txStores, candidate model.Tier) error {
	if candidate.Status != model.TierActive && candidate.Status != model.TierInactive {
		return &ValidationError{Field: "status", Message: "must be active or inactive"}
	}
	existing, err := ts.tiers.List()
	if err != nil {
		return err
	}
	if err := tier.Validate(existing, candidate); err != nil {
		return err
	}
	for _, t := range existing {
		if t.ID != candidate.ID && t.Name == candidate.Name {
			return &ValidationError{Field: "name", Message: fmt.Sprintf("tier %q already exists", candidate.Name)}
		}
	}
	for _, id := range candidate.AutoRewards {
		r, err := ts.rewards.GetByID(id)
		if err != nil {
			return err
		}
		if r == nil {
			return &ValidationError{Field: "auto_rewards", Message: fmt.Sprintf("unknown reward %d", id)}
		}
	}
	return nil
}

func (s *Service) CreateTier(ctx context.Context, actor Actor, in TierInput) (*model.Tier, error) {
	t := model.Tier{Status: model.TierActive}
	in.apply(&t)

	var created *model.Tier
	err := s.inTx(ctx, func(ts *txStores) error {
		if err := checkTier(ts, t); err != nil {
			return err
		}
		var err error
		created, err = ts.tiers.Create(&t)
		if err != nil {
			return err
		}
		return ts.audit(actor, fmt.Sprintf("Created new tier %q (%s miles required)", created.DisplayName, formatMiles(created.MilesRequired)))
	})
	if err != nil {
		return nil, fmt.Errorf("create tier: %w", err)
	}
	return created, nil
}

// UpdateTier replaces a tier's fields. Renaming the tier moves its members and
// rewards to the new name in the same transaction.
func (s *Service) UpdateTier(ctx context.Context, actor Actor, id int64, in TierInput) (*model.Tier, error) {
	var updated *model.Tier
	err := s.inTx(ctx, func(ts *txStores) error {
		t, err := ts.tiers.GetByID(id)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}
		oldName := t.Name
		in.apply(t)

		if err := checkTier(ts, *t); err != nil {
			return err
		}
		updated, err = ts.tiers.Update(t)
		if err != nil {
			return err
		}

		if updated.Name != oldName {
			n, err := ts.members.RenameTier(oldName, updated.Name)
			if err != nil {
				return err
			}
			if err := ts.rewards.RenameTier(oldName, updated.Name); err != nil {
				return err
			}
			s.logger.Info("tier renamed", "from", oldName, "to", updated.Name, "members", n)
			updated, err = ts.tiers.GetByID(id)
			if err != nil {
				return err
			}
		}
		return ts.audit(actor, fmt.Sprintf("Updated tier %q (%s miles required)", updated.DisplayName, formatMiles(updated.MilesRequired)))
	})
	if err != nil {
		return nil, fmt.Errorf("update tier: %w", err)
	}
	return updated, nil
}

// ToggleTier flips a tier between active and inactive. Activation is subject to
// the same threshold uniqueness rule as create.
func (s *Service) ToggleTier(ctx context.Context, actor Actor, id int64) (*model.Tier, error) {
	var out *model.Tier
	err := s.inTx(ctx, func(ts *txStores) error {
		t, err := ts.tiers.GetByID(id)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}

		next := model.TierActive
		verb := "Activated"
		if t.Status == model.TierActive {
			next = model.TierInactive
			verb = "Deactivated"
		}
		t.Status = next
		if err := checkTier(ts, *t); err != nil {
			return err
		}

		if err := ts.tiers.SetStatus(id, next); err != nil {
			return err
		}
		if err := ts.audit(actor, fmt.Sprintf("%s tier %q", verb, t.DisplayName)); err != nil {
			return err
		}
		out, err = ts.tiers.GetByID(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("toggle tier: %w", err)
	}
	return out, nil
}

// DeleteTier removes a tier nobody holds. A tier still referenced by members
// is refused with ErrTierInUse.
func (s *Service) DeleteTier(ctx context.Context, actor Actor, id int64) error {
	err := s.inTx(ctx, func(ts *txStores) error {
		t, err := ts.tiers.GetByID(id)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}

		n, err := ts.members.CountByTier(t.Name)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d member(s) hold %q", ErrTierInUse, n, t.DisplayName)
		}

		if err := ts.tiers.Delete(id); err != nil {
			return err
		}
		return ts.audit(actor, fmt.Sprintf("Deleted tier %q", t.DisplayName))
	})
	if err != nil {
		return fmt.Errorf("delete tier: %w", err)
	}
	return nil
}
