package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/mileswise/internal/model"
)

type TierStore struct {
	db querier
}

func NewTierStore(db *sql.DB) *TierStore {
	return &TierStore{db: db}
}

// WithTx returns a TierStore that runs its statements on tx.
func (s *TierStore) WithTx(tx *sql.Tx) *TierStore {
	return &TierStore{db: tx}
}

func scanTier(scanner interface{ Scan(...any) error }) (*model.Tier, error) {
	var t model.Tier
	var benefits string

	err := scanner.Scan(
		&t.ID, &t.Name, &t.DisplayName, &t.Color, &t.MilesRequired, &t.Description,
		&benefits, &t.Status, &t.MaxRewardsPerMonth, &t.TierBonus, &t.MemberCount,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(benefits), &t.Benefits); err != nil {
		return nil, fmt.Errorf("decode benefits: %w", err)
	}
	if t.Benefits == nil {
		t.Benefits = []string{}
	}
	t.AutoRewards = []int64{}
	return &t, nil
}

const tierCols = `t.id, t.name, t.display_name, t.color, t.miles_required, t.description, t.benefits, t.status,
	t.max_rewards_per_month, t.tier_bonus,
	(SELECT COUNT(*) FROM members m WHERE m.tier = t.name),
	t.created_at, t.updated_at`

func encodeBenefits(b []string) (string, error) {
	if b == nil {
		b = []string{}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode benefits: %w", err)
	}
	return string(data), nil
}

// Create inserts t and its auto-reward list.
func (s *TierStore) Create(t *model.Tier) (*model.Tier, error) {
	benefits, err := encodeBenefits(t.Benefits)
	if err != nil {
		return nil, err
	}
	status := t.Status
	if status == "" {
		status = model.TierActive
	}
	ts := now()

	result, err := s.db.Exec(
		`INSERT INTO tiers (name, display_name, color, miles_required, description, benefits, status,
		 max_rewards_per_month, tier_bonus, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.DisplayName, t.Color, t.MilesRequired, t.Description, benefits, status,
		t.MaxRewardsPerMonth, t.TierBonus, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tier: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := s.setAutoRewards(id, t.AutoRewards); err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *TierStore) GetByID(id int64) (*model.Tier, error) {
	row := s.db.QueryRow(`SELECT `+tierCols+` FROM tiers t WHERE t.id = ?`, id)
	t, err := scanTier(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tier: %w", err)
	}
	if err := s.loadAutoRewards(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TierStore) GetByName(name string) (*model.Tier, error) {
	row := s.db.QueryRow(`SELECT `+tierCols+` FROM tiers t WHERE t.name = ?`, name)
	t, err := scanTier(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tier by name: %w", err)
	}
	if err := s.loadAutoRewards(t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns all tiers ordered by id, the creation order the engine relies on
// for threshold ties.
func (s *TierStore) List() ([]model.Tier, error) {
	return s.list(`SELECT ` + tierCols + ` FROM tiers t ORDER BY t.id ASC`)
}

// ListByThreshold returns tiers in ascending threshold order, optionally
// restricted to one status.
func (s *TierStore) ListByThreshold(status model.TierStatus) ([]model.Tier, error) {
	if status == "" {
		return s.list(`SELECT ` + tierCols + ` FROM tiers t ORDER BY t.miles_required ASC, t.id ASC`)
	}
	return s.list(`SELECT `+tierCols+` FROM tiers t WHERE t.status = ? ORDER BY t.miles_required ASC, t.id ASC`, status)
}

func (s *TierStore) list(query string, args ...any) ([]model.Tier, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []model.Tier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers = append(tiers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tiers: %w", err)
	}
	rows.Close()

	for i := range tiers {
		if err := s.loadAutoRewards(&tiers[i]); err != nil {
			return nil, err
		}
	}
	return tiers, nil
}

// Update writes every mutable column of t and replaces its auto-reward list.
func (s *TierStore) Update(t *model.Tier) (*model.Tier, error) {
	benefits, err := encodeBenefits(t.Benefits)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`UPDATE tiers SET name = ?, display_name = ?, color = ?, miles_required = ?, description = ?,
		 benefits = ?, status = ?, max_rewards_per_month = ?, tier_bonus = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.DisplayName, t.Color, t.MilesRequired, t.Description,
		benefits, t.Status, t.MaxRewardsPerMonth, t.TierBonus, now(), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update tier: %w", err)
	}

	if err := s.setAutoRewards(t.ID, t.AutoRewards); err != nil {
		return nil, err
	}
	return s.GetByID(t.ID)
}

func (s *TierStore) SetStatus(id int64, status model.TierStatus) error {
	_, err := s.db.Exec(`UPDATE tiers SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
	if err != nil {
		return fmt.Errorf("set tier status: %w", err)
	}
	return nil
}

func (s *TierStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tiers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tier: %w", err)
	}
	return nil
}

// --- Auto-reward list ---

func (s *TierStore) setAutoRewards(tierID int64, rewardIDs []int64) error {
	if _, err := s.db.Exec(`DELETE FROM tier_auto_rewards WHERE tier_id = ?`, tierID); err != nil {
		return fmt.Errorf("clear auto rewards: %w", err)
	}

	seen := make(map[int64]bool, len(rewardIDs))
	for i, rid := range rewardIDs {
		if seen[rid] {
			continue
		}
		seen[rid] = true
		_, err := s.db.Exec(
			`INSERT INTO tier_auto_rewards (tier_id, reward_id, position) VALUES (?, ?, ?)`,
			tierID, rid, i,
		)
		if err != nil {
			return fmt.Errorf("insert auto reward %d: %w", rid, err)
		}
	}
	return nil
}

func (s *TierStore) loadAutoRewards(t *model.Tier) error {
	rows, err := s.db.Query(
		`SELECT reward_id FROM tier_auto_rewards WHERE tier_id = ? ORDER BY position ASC`, t.ID,
	)
	if err != nil {
		return fmt.Errorf("list auto rewards: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan auto reward: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate auto rewards: %w", err)
	}
	t.AutoRewards = ids
	return nil
}
