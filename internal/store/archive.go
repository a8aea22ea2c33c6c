package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
)

// ArchiveStore tracks encrypted history exports held in object storage.
type ArchiveStore struct {
	db querier
}

func NewArchiveStore(db *sql.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

func scanArchive(scanner interface{ Scan(...any) error }) (*model.HistoryArchive, error) {
	var a model.HistoryArchive
	var completedAt sql.NullTime
	err := scanner.Scan(
		&a.ID, &a.Filename, &a.S3Key, &a.EntryCount, &a.SizeBytes, &a.Status,
		&a.ErrorMessage, &a.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}

const archiveCols = `id, filename, s3_key, entry_count, size_bytes, status, error_message, started_at, completed_at`

func (s *ArchiveStore) Create(filename, s3Key string) (*model.HistoryArchive, error) {
	ts := now()
	result, err := s.db.Exec(
		`INSERT INTO history_archives (filename, s3_key, status, started_at) VALUES (?, ?, ?, ?)`,
		filename, s3Key, model.ArchivePending, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ArchiveStore) GetByID(id int64) (*model.HistoryArchive, error) {
	row := s.db.QueryRow(`SELECT `+archiveCols+` FROM history_archives WHERE id = ?`, id)
	a, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get archive %d: %w", id, err)
	}
	return a, nil
}

// List returns up to limit archives, newest first.
func (s *ArchiveStore) List(limit int) ([]model.HistoryArchive, error) {
	rows, err := s.db.Query(`SELECT `+archiveCols+` FROM history_archives ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	var archives []model.HistoryArchive
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		archives = append(archives, *a)
	}
	return archives, rows.Err()
}

func (s *ArchiveStore) UpdateStatus(id int64, status model.ArchiveStatus, errorMsg string) error {
	_, err := s.db.Exec(
		`UPDATE history_archives SET status = ?, error_message = ? WHERE id = ?`,
		status, errorMsg, id,
	)
	if err != nil {
		return fmt.Errorf("update archive status: %w", err)
	}
	return nil
}

func (s *ArchiveStore) UpdateCompleted(id int64, entryCount int, sizeBytes int64) error {
	_, err := s.db.Exec(
		`UPDATE history_archives SET status = ?, entry_count = ?, size_bytes = ?, completed_at = ? WHERE id = ?`,
		model.ArchiveCompleted, entryCount, sizeBytes, now(), id,
	)
	if err != nil {
		return fmt.Errorf("update archive completed: %w", err)
	}
	return nil
}

// DeleteOlderThan deletes archives started before the given time and returns their S3 keys.
func (s *ArchiveStore) DeleteOlderThan(before time.Time) ([]string, error) {
	rows, err := s.db.Query(`SELECT s3_key FROM history_archives WHERE started_at < ?`, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("select old archives: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan s3 key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if _, err := s.db.Exec(`DELETE FROM history_archives WHERE started_at < ?`, before.UTC()); err != nil {
		return nil, fmt.Errorf("delete old archives: %w", err)
	}
	return keys, nil
}
