package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mileswise/internal/model"
)

// HistoryStore is the append-only audit sink.
type HistoryStore struct {
	db querier
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// WithTx returns a HistoryStore that runs its statements on tx.
func (s *HistoryStore) WithTx(tx *sql.Tx) *HistoryStore {
	return &HistoryStore{db: tx}
}

// HistoryFilter pages through the log. A zero Limit means no limit.
type HistoryFilter struct {
	Query  string
	Limit  int
	Offset int
}

func scanHistory(scanner interface{ Scan(...any) error }) (*model.HistoryLog, error) {
	var h model.HistoryLog
	var requestID sql.NullString
	if err := scanner.Scan(&h.ID, &h.AdminName, &h.Action, &requestID, &h.CreatedAt); err != nil {
		return nil, err
	}
	h.RequestID = requestID.String
	return &h, nil
}

const historyCols = `id, admin_name, action, request_id, created_at`

// Append writes one entry. A zero CreatedAt is stamped with the current time.
func (s *HistoryStore) Append(h model.HistoryLog) (*model.HistoryLog, error) {
	ts := h.CreatedAt.UTC()
	if h.CreatedAt.IsZero() {
		ts = now()
	}

	result, err := s.db.Exec(
		`INSERT INTO history_logs (admin_name, action, request_id, created_at) VALUES (?, ?, ?, ?)`,
		h.AdminName, h.Action, nullString(h.RequestID), ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	h.ID = id
	h.CreatedAt = ts
	return &h, nil
}

// List returns entries most recent first.
func (s *HistoryStore) List(f HistoryFilter) ([]model.HistoryLog, error) {
	query := `SELECT ` + historyCols + ` FROM history_logs`
	var args []any
	if f.Query != "" {
		p := likePattern(f.Query)
		query += ` WHERE (admin_name LIKE ? ESCAPE '\' OR action LIKE ? ESCAPE '\')`
		args = append(args, p, p)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var logs []model.HistoryLog
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		logs = append(logs, *h)
	}
	return logs, rows.Err()
}

func (s *HistoryStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM history_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
