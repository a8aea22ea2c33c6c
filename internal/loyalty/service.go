// Package loyalty applies the program's business rules on top of the stores:
// crediting miles through the tier engine, claim review, manual mileage entry
// and catalog maintenance. Every mutation and its audit entries commit in one
// SQLite transaction.
package loyalty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
	"github.com/dukerupert/mileswise/internal/tier"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrClaimClosed             = errors.New("claim request has already been processed")
	ErrFlightNotFound          = errors.New("flight not found")
	ErrTierInUse               = errors.New("tier is assigned to members")
	ErrInvalidMiles            = errors.New("miles must be >= 0")
	ErrEmailTaken              = errors.New("email is already registered")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Actor identifies who performed an operation, for the audit trail.
type Actor struct {
	Name      string
	RequestID string
}

// Service owns the loyalty stores. Reads go straight to the stores; writes run
// in a transaction built from tx-bound copies of them.
type Service struct {
	db      *sql.DB
	members *store.MemberStore
	tiers   *store.TierStore
	rewards *store.RewardStore
	claims  *store.ClaimStore
	history *store.HistoryStore
	flights *FlightResolver
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(db *sql.DB, flights *FlightResolver, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		members: store.NewMemberStore(db),
		tiers:   store.NewTierStore(db),
		rewards: store.NewRewardStore(db),
		claims:  store.NewClaimStore(db),
		history: store.NewHistoryStore(db),
		flights: flights,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// txStores are the stores bound to one transaction.
type txStores struct {
	members *store.MemberStore
	tiers   *store.TierStore
	rewards *store.RewardStore
	claims  *store.ClaimStore
	history *store.HistoryStore
}

func (s *Service) inTx(ctx context.Context, fn func(ts *txStores) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ts := &txStores{
		members: s.members.WithTx(tx),
		tiers:   s.tiers.WithTx(tx),
		rewards: s.rewards.WithTx(tx),
		claims:  s.claims.WithTx(tx),
		history: s.history.WithTx(tx),
	}
	if err := fn(ts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (ts *txStores) audit(actor Actor, action string) error {
	_, err := ts.history.Append(model.HistoryLog{AdminName: actor.Name, Action: action, RequestID: actor.RequestID})
	return err
}

// MilesResult is the outcome of a balance change.
type MilesResult struct {
	Member     *model.Member `json:"member"`
	TierChange *TierChange   `json:"tier_change,omitempty"`
}

// TierChange summarizes an engine-driven tier move.
type TierChange struct {
	From        string               `json:"from"`
	To          string               `json:"to"`
	DisplayName string               `json:"display_name"`
	Assigned    []model.MemberReward `json:"assigned_rewards"`
}

// evaluate runs the tier engine for m at the given balances and persists the
// result: updated member, reward assignments and audit entries.
func (s *Service) evaluate(ts *txStores, actor Actor, m *model.Member, u tier.Update) (*TierChange, error) {
	tiers, err := ts.tiers.List()
	if err != nil {
		return nil, err
	}

	var rewardIDs []int64
	if next := tier.Eligible(tiers, u.QualifyingMiles); next != nil {
		rewardIDs = next.AutoRewards
	}
	rewards, err := ts.rewards.ListByIDs(rewardIDs)
	if err != nil {
		return nil, err
	}

	res := tier.Evaluate(m, tiers, rewards, u, s.now())
	if !res.Changed {
		return nil, nil
	}

	updated, err := ts.members.Update(&res.Member)
	if err != nil {
		return nil, err
	}
	*m = *updated

	change := &TierChange{From: res.Previous, To: res.Tier.Name, DisplayName: res.Tier.DisplayName}
	for _, a := range res.Assignments {
		assigned, err := ts.members.AssignReward(a)
		if err != nil {
			return nil, err
		}
		change.Assigned = append(change.Assigned, *assigned)
	}
	for _, e := range res.Entries {
		e.RequestID = actor.RequestID
		if _, err := ts.history.Append(e); err != nil {
			return nil, err
		}
	}

	s.logger.Info("member tier changed",
		"member_id", m.ID,
		"from", res.Previous,
		"to", res.Tier.Name,
		"qualifying_miles", u.QualifyingMiles,
		"rewards_assigned", len(change.Assigned),
	)
	return change, nil
}

// setBalances writes the new balances to m and runs the engine on them.
func (s *Service) setBalances(ts *txStores, actor Actor, m *model.Member, qualifying, award int) (*TierChange, error) {
	m.TotalQualifyingMiles = qualifying
	m.TotalAwardMiles = award
	updated, err := ts.members.Update(m)
	if err != nil {
		return nil, err
	}
	*m = *updated
	return s.evaluate(ts, actor, m, tier.Update{QualifyingMiles: qualifying, AwardMiles: &award})
}

// EvaluateAndApply runs the tier engine for a member at the given balances.
// Balances are written only together with a tier change: when the eligible
// tier is the member's current one, or no active tier qualifies, nothing is
// written and no audit entry is added. An unknown member is a no-op and
// yields a nil result.
func (s *Service) EvaluateAndApply(ctx context.Context, actor Actor, memberID int64, qualifying int, award *int) (*MilesResult, error) {
	if qualifying < 0 || (award != nil && *award < 0) {
		return nil, ErrInvalidMiles
	}

	var result *MilesResult
	err := s.inTx(ctx, func(ts *txStores) error {
		m, err := ts.members.GetByID(memberID)
		if err != nil {
			return err
		}
		if m == nil {
			s.logger.Info("evaluate: unknown member", "member_id", memberID)
			return nil
		}
		change, err := s.evaluate(ts, actor, m, tier.Update{QualifyingMiles: qualifying, AwardMiles: award})
		if err != nil {
			return err
		}
		result = &MilesResult{Member: m, TierChange: change}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate member: %w", err)
	}
	return result, nil
}

// SetMiles is the admin balance correction: it overwrites the qualifying
// balance, and the award balance when award is non-nil, audits the change
// and then re-evaluates the member's tier. Unlike EvaluateAndApply it always
// writes, and an unknown member is reported as ErrNotFound.
func (s *Service) SetMiles(ctx context.Context, actor Actor, memberID int64, qualifying int, award *int) (*MilesResult, error) {
	if qualifying < 0 || (award != nil && *award < 0) {
		return nil, ErrInvalidMiles
	}

	var result MilesResult
	err := s.inTx(ctx, func(ts *txStores) error {
		m, err := ts.members.GetByID(memberID)
		if err != nil {
			return err
		}
		if m == nil {
			s.logger.Info("set miles: unknown member", "member_id", memberID)
			return ErrNotFound
		}

		newAward := m.TotalAwardMiles
		if award != nil {
			newAward = *award
		}
		change, err := s.setBalances(ts, actor, m, qualifying, newAward)
		if err != nil {
			return err
		}

		if err := ts.audit(actor, fmt.Sprintf("Set miles for member %s (%s) - Qualifying: %s, Award: %s",
			m.Name, m.Email, formatMiles(m.TotalQualifyingMiles), formatMiles(m.TotalAwardMiles))); err != nil {
			return err
		}

		result = MilesResult{Member: m, TierChange: change}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set miles: %w", err)
	}
	return &result, nil
}

// creditMember adds miles to the member with the given email. It returns a nil
// member when nobody is registered under that address.
func (s *Service) creditMember(ts *txStores, actor Actor, email string, qualifying, award int) (*model.Member, *TierChange, error) {
	m, err := ts.members.GetByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, nil
	}
	change, err := s.setBalances(ts, actor, m, m.TotalQualifyingMiles+qualifying, m.TotalAwardMiles+award)
	if err != nil {
		return nil, nil, err
	}
	return m, change, nil
}
