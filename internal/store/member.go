package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/mileswise/internal/model"
)

type MemberStore struct {
	db querier
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

// WithTx returns a MemberStore that runs its statements on tx.
func (s *MemberStore) WithTx(tx *sql.Tx) *MemberStore {
	return &MemberStore{db: tx}
}

// MemberFilter narrows List. Zero values match everything.
type MemberFilter struct {
	Status model.MemberStatus
	Tier   string
	Query  string
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(
		&m.ID, &m.Email, &m.Name, &m.MemberNumber,
		&m.TotalQualifyingMiles, &m.TotalAwardMiles, &m.Tier, &m.Status,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, email, name, member_number, total_qualifying_miles, total_award_miles, tier, status, created_at, updated_at`

// Create inserts m. A blank member number is replaced by one derived from the row id.
func (s *MemberStore) Create(m *model.Member) (*model.Member, error) {
	status := m.Status
	if status == "" {
		status = model.MemberActive
	}
	ts := now()

	result, err := s.db.Exec(
		`INSERT INTO members (email, name, member_number, total_qualifying_miles, total_award_miles, tier, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(m.Email), m.Name, m.MemberNumber,
		m.TotalQualifyingMiles, m.TotalAwardMiles, m.Tier, status, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if strings.TrimSpace(m.MemberNumber) == "" {
		if _, err := s.db.Exec(`UPDATE members SET member_number = ? WHERE id = ?`, fmt.Sprintf("MW%06d", id), id); err != nil {
			return nil, fmt.Errorf("assign member number: %w", err)
		}
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetByEmail looks a member up case-insensitively.
func (s *MemberStore) GetByEmail(email string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE email = ?`, strings.TrimSpace(email))
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}

// List returns members ordered by name.
func (s *MemberStore) List(f MemberFilter) ([]model.Member, error) {
	query := `SELECT ` + memberCols + ` FROM members WHERE 1 = 1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Tier != "" {
		query += ` AND tier = ?`
		args = append(args, f.Tier)
	}
	if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		query += ` AND (name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR member_number LIKE ? ESCAPE '\')`
		args = append(args, p, p, p)
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// Update writes every mutable column of m.
func (s *MemberStore) Update(m *model.Member) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET email = ?, name = ?, member_number = ?, total_qualifying_miles = ?,
		 total_award_miles = ?, tier = ?, status = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(m.Email), m.Name, m.MemberNumber, m.TotalQualifyingMiles,
		m.TotalAwardMiles, m.Tier, m.Status, now(), m.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(m.ID)
}

func (s *MemberStore) SetStatus(id int64, status model.MemberStatus) error {
	_, err := s.db.Exec(`UPDATE members SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
	if err != nil {
		return fmt.Errorf("set member status: %w", err)
	}
	return nil
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (s *MemberStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// CountByTier returns how many members currently reference the tier name.
func (s *MemberStore) CountByTier(tier string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM members WHERE tier = ?`, tier).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members by tier: %w", err)
	}
	return n, nil
}

// RenameTier moves every member holding oldName to newName.
func (s *MemberStore) RenameTier(oldName, newName string) (int64, error) {
	result, err := s.db.Exec(`UPDATE members SET tier = ?, updated_at = ? WHERE tier = ?`, newName, now(), oldName)
	if err != nil {
		return 0, fmt.Errorf("rename member tier: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// --- Member reward methods ---

func scanMemberReward(scanner interface{ Scan(...any) error }) (*model.MemberReward, error) {
	var mr model.MemberReward
	err := scanner.Scan(&mr.ID, &mr.MemberID, &mr.RewardID, &mr.RewardName, &mr.TierName, &mr.Source, &mr.AssignedAt)
	if err != nil {
		return nil, err
	}
	return &mr, nil
}

const memberRewardCols = `mr.id, mr.member_id, mr.reward_id, r.name, mr.tier_name, mr.source, mr.assigned_at`

func (s *MemberStore) AssignReward(mr model.MemberReward) (*model.MemberReward, error) {
	source := mr.Source
	if source == "" {
		source = model.RewardSourceAuto
	}
	assigned := mr.AssignedAt.UTC()
	if mr.AssignedAt.IsZero() {
		assigned = now()
	}

	result, err := s.db.Exec(
		`INSERT INTO member_rewards (member_id, reward_id, tier_name, source, assigned_at) VALUES (?, ?, ?, ?, ?)`,
		mr.MemberID, mr.RewardID, mr.TierName, source, assigned,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT `+memberRewardCols+` FROM member_rewards mr JOIN rewards r ON r.id = mr.reward_id WHERE mr.id = ?`, id,
	)
	return scanMemberReward(row)
}

// ListRewards returns the rewards assigned to a member, newest first.
func (s *MemberStore) ListRewards(memberID int64) ([]model.MemberReward, error) {
	rows, err := s.db.Query(
		`SELECT `+memberRewardCols+` FROM member_rewards mr JOIN rewards r ON r.id = mr.reward_id
		 WHERE mr.member_id = ? ORDER BY mr.id DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list member rewards: %w", err)
	}
	defer rows.Close()

	var out []model.MemberReward
	for rows.Next() {
		mr, err := scanMemberReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member reward: %w", err)
		}
		out = append(out, *mr)
	}
	return out, rows.Err()
}
