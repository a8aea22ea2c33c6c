package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
)

type ClaimStore struct {
	db querier
}

func NewClaimStore(db *sql.DB) *ClaimStore {
	return &ClaimStore{db: db}
}

// WithTx returns a ClaimStore that runs its statements on tx.
func (s *ClaimStore) WithTx(tx *sql.Tx) *ClaimStore {
	return &ClaimStore{db: tx}
}

// ClaimFilter narrows List. Zero values match everything.
type ClaimFilter struct {
	Status model.ClaimStatus
	Query  string
	Since  time.Time
}

func scanClaim(scanner interface{ Scan(...any) error }) (*model.Claim, error) {
	var c model.Claim
	var details, rejection, reviewedBy sql.NullString
	var reviewedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.ClaimNumber, &c.MemberName, &c.MemberEmail, &c.SubmittedAt, &c.Status,
		&c.Reason, &c.FlightInfo, &c.Miles, &details, &rejection, &reviewedBy, &reviewedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if details.Valid && details.String != "" {
		var fd model.FlightDetails
		if err := json.Unmarshal([]byte(details.String), &fd); err != nil {
			return nil, fmt.Errorf("decode flight details: %w", err)
		}
		c.FlightDetails = &fd
	}
	c.RejectionReason = rejection.String
	c.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
	return &c, nil
}

const claimCols = `id, claim_number, member_name, member_email, submitted_at, status, reason, flight_info, miles,
	flight_details, rejection_reason, reviewed_by, reviewed_at, created_at, updated_at`

// Create inserts a claim. A blank claim number is derived from the row id.
func (s *ClaimStore) Create(c *model.Claim) (*model.Claim, error) {
	var details sql.NullString
	if c.FlightDetails != nil {
		data, err := json.Marshal(c.FlightDetails)
		if err != nil {
			return nil, fmt.Errorf("encode flight details: %w", err)
		}
		details = sql.NullString{String: string(data), Valid: true}
	}

	status := c.Status
	if status == "" {
		status = model.ClaimPending
	}
	ts := now()
	submitted := c.SubmittedAt.UTC()
	if c.SubmittedAt.IsZero() {
		submitted = ts
	}

	number := c.ClaimNumber
	if number == "" {
		// Unique placeholder until the id is known.
		number = fmt.Sprintf("pending-%d", ts.UnixNano())
	}

	result, err := s.db.Exec(
		`INSERT INTO claims (claim_number, member_name, member_email, submitted_at, status, reason, flight_info,
		 miles, flight_details, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		number, c.MemberName, c.MemberEmail, submitted, status, c.Reason, c.FlightInfo,
		c.Miles, details, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert claim: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if c.ClaimNumber == "" {
		if _, err := s.db.Exec(`UPDATE claims SET claim_number = ? WHERE id = ?`, fmt.Sprintf("CR%06d", id), id); err != nil {
			return nil, fmt.Errorf("assign claim number: %w", err)
		}
	}
	return s.GetByID(id)
}

func (s *ClaimStore) GetByID(id int64) (*model.Claim, error) {
	row := s.db.QueryRow(`SELECT `+claimCols+` FROM claims WHERE id = ?`, id)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// List returns claims most recently submitted first.
func (s *ClaimStore) List(f ClaimFilter) ([]model.Claim, error) {
	query := `SELECT ` + claimCols + ` FROM claims WHERE 1 = 1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		query += ` AND (claim_number LIKE ? ESCAPE '\' OR member_name LIKE ? ESCAPE '\' OR member_email LIKE ? ESCAPE '\')`
		args = append(args, p, p, p)
	}
	if !f.Since.IsZero() {
		query += ` AND submitted_at >= ?`
		args = append(args, f.Since.UTC())
	}
	query += ` ORDER BY submitted_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// Review records a status transition together with the reviewer.
func (s *ClaimStore) Review(id int64, status model.ClaimStatus, reviewer, rejectionReason string) error {
	ts := now()
	_, err := s.db.Exec(
		`UPDATE claims SET status = ?, reviewed_by = ?, reviewed_at = ?, rejection_reason = ?, updated_at = ? WHERE id = ?`,
		status, nullString(reviewer), ts, nullString(rejectionReason), ts, id,
	)
	if err != nil {
		return fmt.Errorf("review claim: %w", err)
	}
	return nil
}

// CountByStatus returns the number of claims in each status.
func (s *ClaimStore) CountByStatus() (map[model.ClaimStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM claims GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.ClaimStatus]int)
	for rows.Next() {
		var status model.ClaimStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan claim count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
