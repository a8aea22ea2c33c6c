package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mileswise/internal/model"
)

type RewardStore struct {
	db querier
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

// WithTx returns a RewardStore that runs its statements on tx.
func (s *RewardStore) WithTx(tx *sql.Tx) *RewardStore {
	return &RewardStore{db: tx}
}

// RewardFilter narrows List. Zero values match everything.
type RewardFilter struct {
	Status   model.RewardStatus
	TierName string
	Query    string
}

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var maxUsage sql.NullInt64

	err := scanner.Scan(
		&r.ID, &r.Name, &r.Type, &r.Description, &r.Value, &r.MilesCost,
		&r.ValidityStart, &r.ValidityEnd, &r.Conditions, &r.Status,
		&r.UsageCount, &maxUsage, &r.TierName, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if maxUsage.Valid {
		n := int(maxUsage.Int64)
		r.MaxUsage = &n
	}
	return &r, nil
}

const rewardCols = `id, name, type, description, value, miles_cost, validity_start, validity_end, conditions, status,
	usage_count, max_usage, tier_name, created_at, updated_at`

func (s *RewardStore) Create(r *model.Reward) (*model.Reward, error) {
	status := r.Status
	if status == "" {
		status = model.RewardDraft
	}
	rtype := r.Type
	if rtype == "" {
		rtype = model.RewardVoucher
	}
	ts := now()

	result, err := s.db.Exec(
		`INSERT INTO rewards (name, type, description, value, miles_cost, validity_start, validity_end,
		 conditions, status, max_usage, tier_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, rtype, r.Description, r.Value, r.MilesCost, r.ValidityStart.UTC(), r.ValidityEnd.UTC(),
		r.Conditions, status, nullInt(r.MaxUsage), r.TierName, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns rewards newest first.
func (s *RewardStore) List(f RewardFilter) ([]model.Reward, error) {
	query := `SELECT ` + rewardCols + ` FROM rewards WHERE 1 = 1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.TierName != "" {
		query += ` AND tier_name = ?`
		args = append(args, f.TierName)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		query += ` AND (name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`
		args = append(args, p, p)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// ListByIDs returns the rewards with the given ids in the order given. Unknown ids are skipped.
func (s *RewardStore) ListByIDs(ids []int64) ([]model.Reward, error) {
	var out []model.Reward
	for _, id := range ids {
		r, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *RewardStore) Update(r *model.Reward) (*model.Reward, error) {
	_, err := s.db.Exec(
		`UPDATE rewards SET name = ?, type = ?, description = ?, value = ?, miles_cost = ?,
		 validity_start = ?, validity_end = ?, conditions = ?, status = ?, max_usage = ?,
		 tier_name = ?, updated_at = ? WHERE id = ?`,
		r.Name, r.Type, r.Description, r.Value, r.MilesCost,
		r.ValidityStart.UTC(), r.ValidityEnd.UTC(), r.Conditions, r.Status, nullInt(r.MaxUsage),
		r.TierName, now(), r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(r.ID)
}

func (s *RewardStore) SetStatus(id int64, status model.RewardStatus) error {
	_, err := s.db.Exec(`UPDATE rewards SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
	if err != nil {
		return fmt.Errorf("set reward status: %w", err)
	}
	return nil
}

func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// RenameTier moves every reward owned by oldName to newName.
func (s *RewardStore) RenameTier(oldName, newName string) error {
	_, err := s.db.Exec(`UPDATE rewards SET tier_name = ?, updated_at = ? WHERE tier_name = ?`, newName, now(), oldName)
	if err != nil {
		return fmt.Errorf("rename reward tier: %w", err)
	}
	return nil
}
