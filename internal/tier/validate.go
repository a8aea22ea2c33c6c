package tier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/mileswise/internal/model"
)

var (
	ErrNegativeThreshold  = errors.New("miles required must be >= 0")
	ErrDuplicateThreshold = errors.New("another active tier already uses this threshold")
	ErrNameRequired       = errors.New("name and display name are required")
)

// NormalizeName returns the reference key members store for a tier.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate checks candidate against the tiers already configured. Active tiers
// must have distinct thresholds so the eligible tier for any balance is unique;
// existing entries with candidate's ID are ignored, which makes it usable for
// updates as well as creates.
func Validate(existing []model.Tier, candidate model.Tier) error {
	if NormalizeName(candidate.Name) == "" || strings.TrimSpace(candidate.DisplayName) == "" {
		return ErrNameRequired
	}
	if candidate.MilesRequired < 0 {
		return ErrNegativeThreshold
	}
	if candidate.Status != model.TierActive {
		return nil
	}
	for _, t := range existing {
		if t.ID == candidate.ID || t.Status != model.TierActive {
			continue
		}
		if t.MilesRequired == candidate.MilesRequired {
			return fmt.Errorf("%w: %q requires %d miles", ErrDuplicateThreshold, t.DisplayName, t.MilesRequired)
		}
	}
	return nil
}
