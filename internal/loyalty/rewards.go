package loyalty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
	"github.com/dukerupert/mileswise/internal/tier"
)

// RewardInput carries the editable reward fields.
type RewardInput struct {
	Name          string             `json:"name"`
	Type          model.RewardType   `json:"type"`
	Description   string             `json:"description"`
	Value         float64            `json:"value"`
	MilesCost     int                `json:"miles_cost"`
	ValidityStart *time.Time         `json:"validity_start"`
	ValidityEnd   *time.Time         `json:"validity_end"`
	Conditions    string             `json:"conditions"`
	Status        model.RewardStatus `json:"status"`
	MaxUsage      *int               `json:"max_usage"`
	TierName      string             `json:"tier_name"`
}

func (in RewardInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return &ValidationError{Field: "name", Message: "is required"}
	case strings.TrimSpace(in.Description) == "":
		return &ValidationError{Field: "description", Message: "is required"}
	case in.Value <= 0:
		return &ValidationError{Field: "value", Message: "must be greater than 0"}
	case in.MilesCost <= 0:
		return &ValidationError{Field: "miles_cost", Message: "must be greater than 0"}
	case in.ValidityStart == nil || in.ValidityStart.IsZero():
		return &ValidationError{Field: "validity_start", Message: "is required"}
	case in.ValidityEnd == nil || in.ValidityEnd.IsZero():
		return &ValidationError{Field: "validity_end", Message: "is required"}
	case !in.ValidityEnd.After(*in.ValidityStart):
		return &ValidationError{Field: "validity_end", Message: "must be after the start date"}
	case in.MaxUsage != nil && *in.MaxUsage <= 0:
		return &ValidationError{Field: "max_usage", Message: "must be greater than 0"}
	}

	switch in.Type {
	case "", model.RewardVoucher, model.RewardCashback, model.RewardGift, model.RewardDiscount:
	default:
		return &ValidationError{Field: "type", Message: "must be voucher, cashback, gift or discount"}
	}
	switch in.Status {
	case "", model.RewardDraft, model.RewardActive, model.RewardInactive:
	default:
		return &ValidationError{Field: "status", Message: "must be draft, active or inactive"}
	}
	return nil
}

func (in RewardInput) apply(r *model.Reward) {
	r.Name = strings.TrimSpace(in.Name)
	r.Description = strings.TrimSpace(in.Description)
	r.Value = in.Value
	r.MilesCost = in.MilesCost
	r.ValidityStart = *in.ValidityStart
	r.ValidityEnd = *in.ValidityEnd
	r.Conditions = strings.TrimSpace(in.Conditions)
	r.MaxUsage = in.MaxUsage
	r.TierName = tier.NormalizeName(in.TierName)
	if in.Type != "" {
		r.Type = in.Type
	}
	if in.Status != "" {
		r.Status = in.Status
	}
}

// tierLabel returns the display name of the named tier, or the name itself.
func tierLabel(ts *txStores, name string) (string, error) {
	if name == "" {
		return "general", nil
	}
	t, err := ts.tiers.GetByName(name)
	if err != nil {
		return "", err
	}
	if t == nil {
		return name, nil
	}
	return t.DisplayName, nil
}

func (s *Service) ListRewards(f store.RewardFilter) ([]model.Reward, error) {
	return s.rewards.List(f)
}

func (s *Service) GetReward(id int64) (*model.Reward, error) {
	r, err := s.rewards.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *Service) CreateReward(ctx context.Context, actor Actor, in RewardInput) (*model.Reward, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	r := model.Reward{Type: model.RewardVoucher, Status: model.RewardDraft}
	in.apply(&r)

	var created *model.Reward
	err := s.inTx(ctx, func(ts *txStores) error {
		var err error
		created, err = ts.rewards.Create(&r)
		if err != nil {
			return err
		}
		label, err := tierLabel(ts, created.TierName)
		if err != nil {
			return err
		}
		return ts.audit(actor, fmt.Sprintf("Created new %s reward %q (%s)", label, created.Name, created.Status))
	})
	if err != nil {
		return nil, fmt.Errorf("create reward: %w", err)
	}
	return created, nil
}

func (s *Service) UpdateReward(ctx context.Context, actor Actor, id int64, in RewardInput) (*model.Reward, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *model.Reward
	err := s.inTx(ctx, func(ts *txStores) error {
		r, err := ts.rewards.GetByID(id)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrNotFound
		}
		in.apply(r)

		updated, err = ts.rewards.Update(r)
		if err != nil {
			return err
		}
		label, err := tierLabel(ts, updated.TierName)
		if err != nil {
			return err
		}
		return ts.audit(actor, fmt.Sprintf("Updated %s reward %q (%s)", label, updated.Name, updated.Status))
	})
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return updated, nil
}

// PublishReward moves a draft reward to active.
func (s *Service) PublishReward(ctx context.Context, actor Actor, id int64) (*model.Reward, error) {
	var out *model.Reward
	err := s.inTx(ctx, func(ts *txStores) error {
		r, err := ts.rewards.GetByID(id)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrNotFound
		}
		if r.Status != model.RewardDraft {
			return &ValidationError{Field: "status", Message: "only draft rewards can be published"}
		}

		if err := ts.rewards.SetStatus(id, model.RewardActive); err != nil {
			return err
		}
		if err := ts.audit(actor, fmt.Sprintf("Published reward %q", r.Name)); err != nil {
			return err
		}
		out, err = ts.rewards.GetByID(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("publish reward: %w", err)
	}
	return out, nil
}

// ToggleReward flips a published reward between active and inactive.
func (s *Service) ToggleReward(ctx context.Context, actor Actor, id int64) (*model.Reward, error) {
	var out *model.Reward
	err := s.inTx(ctx, func(ts *txStores) error {
		r, err := ts.rewards.GetByID(id)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrNotFound
		}
		if r.Status == model.RewardDraft {
			return &ValidationError{Field: "status", Message: "draft rewards must be published first"}
		}

		next, verb := model.RewardActive, "Activated"
		if r.Status == model.RewardActive {
			next, verb = model.RewardInactive, "Deactivated"
		}
		if err := ts.rewards.SetStatus(id, next); err != nil {
			return err
		}
		if err := ts.audit(actor, fmt.Sprintf("%s reward %q", verb, r.Name)); err != nil {
			return err
		}
		out, err = ts.rewards.GetByID(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("toggle reward: %w", err)
	}
	return out, nil
}

func (s *Service) DeleteReward(ctx context.Context, actor Actor, id int64) error {
	err := s.inTx(ctx, func(ts *txStores) error {
		r, err := ts.rewards.GetByID(id)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrNotFound
		}
		if err := ts.rewards.Delete(id); err != nil {
			return err
		}
		return ts.audit(actor, fmt.Sprintf("Deleted reward %q", r.Name))
	})
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}
