// Package archive exports the audit history as passphrase-encrypted JSON to
// S3-compatible object storage and prunes exports past their retention.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
)

var (
	ErrDisabled           = errors.New("history archiving is not configured")
	ErrNotFound           = errors.New("archive not found")
	ErrInProgress         = errors.New("an archive is already being written")
	ErrPassphraseTooShort = errors.New("passphrase must be at least 8 characters")
	ErrBadPassphrase      = errors.New("archive could not be decrypted with this passphrase")
)

const minPassphrase = 8

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	RetentionDays int
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State       State      `json:"state"`
	LastArchive *time.Time `json:"last_archive,omitempty"`
	Error       string     `json:"error,omitempty"`
	InProgress  bool       `json:"in_progress"`
}

// Document is the decrypted content of an archive.
type Document struct {
	ExportedAt time.Time          `json:"exported_at"`
	ExportedBy string             `json:"exported_by"`
	Entries    []model.HistoryLog `json:"entries"`
}

// Manager writes, lists, reads back and prunes history archives.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status
	client s3Client

	history  *store.HistoryStore
	archives *store.ArchiveStore
	logger   *slog.Logger
}

// NewManager creates a manager. Without a bucket and credentials the
// manager stays disabled and every operation returns ErrDisabled.
func NewManager(cfg Config, history *store.HistoryStore, archives *store.ArchiveStore, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		history:  history,
		archives: archives,
		logger:   logger,
		status:   Status{State: StateDisabled},
	}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		m.client = newS3Client(cfg)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) clientAndBucket() (s3Client, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client, m.cfg.Bucket
}

// begin claims the single archive slot.
func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return ErrDisabled
	}
	if m.status.InProgress {
		return ErrInProgress
	}
	m.status = Status{State: StateRunning, InProgress: true, LastArchive: m.status.LastArchive}
	return nil
}

// Export encrypts the complete audit history with passphrase and uploads it.
func (m *Manager) Export(ctx context.Context, exportedBy, passphrase string) (*model.HistoryArchive, error) {
	if len(passphrase) < minPassphrase {
		return nil, ErrPassphraseTooShort
	}
	if err := m.begin(); err != nil {
		return nil, err
	}
	client, bucket := m.clientAndBucket()
	last := m.Status().LastArchive

	started := time.Now().UTC()
	filename := fmt.Sprintf("history-%s.json.enc", started.Format("2006-01-02T150405Z"))
	key := "history/" + filename

	record, err := m.archives.Create(filename, key)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error(), LastArchive: last})
		return nil, fmt.Errorf("create archive record: %w", err)
	}

	fail := func(step string, err error) (*model.HistoryArchive, error) {
		if uerr := m.archives.UpdateStatus(record.ID, model.ArchiveFailed, err.Error()); uerr != nil {
			m.logger.Error("mark archive failed", "archive_id", record.ID, "error", uerr)
		}
		m.setStatus(Status{State: StateError, Error: err.Error(), LastArchive: last})
		m.logger.Error("history archive failed", "archive_id", record.ID, "step", step, "error", err)
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	entries, err := m.history.List(store.HistoryFilter{})
	if err != nil {
		return fail("load history", err)
	}
	doc, err := json.Marshal(Document{ExportedAt: started, ExportedBy: exportedBy, Entries: entries})
	if err != nil {
		return fail("encode history", err)
	}
	sealed, err := Encrypt(doc, passphrase)
	if err != nil {
		return fail("encrypt", err)
	}

	if err := m.archives.UpdateStatus(record.ID, model.ArchiveUploading, ""); err != nil {
		return fail("mark uploading", err)
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fail("upload to s3", err)
	}

	if err := m.archives.UpdateCompleted(record.ID, len(entries), int64(len(sealed))); err != nil {
		return fail("mark completed", err)
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastArchive: &now})
	m.logger.Info("history archived",
		"archive_id", record.ID,
		"entries", len(entries),
		"size", humanize.Bytes(uint64(len(sealed))),
		"took", time.Since(started).Round(time.Millisecond),
	)
	return m.archives.GetByID(record.ID)
}

// List returns the most recent archive records.
func (m *Manager) List(limit int) ([]model.HistoryArchive, error) {
	if limit <= 0 {
		limit = 50
	}
	return m.archives.List(limit)
}

// Fetch downloads and decrypts a completed archive.
func (m *Manager) Fetch(ctx context.Context, id int64, passphrase string) (*Document, error) {
	client, bucket := m.clientAndBucket()
	if client == nil {
		return nil, ErrDisabled
	}

	record, err := m.archives.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get archive: %w", err)
	}
	if record == nil || record.Status != model.ArchiveCompleted {
		return nil, ErrNotFound
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read archive body: %w", err)
	}
	plain, err := Decrypt(sealed, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPassphrase, err)
	}

	var doc Document
	if err := json.Unmarshal(plain, &doc); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return &doc, nil
}

// Cleanup deletes archives older than the retention period. A retention of
// zero keeps everything.
func (m *Manager) Cleanup(ctx context.Context) error {
	client, bucket := m.clientAndBucket()
	if client == nil || m.cfg.RetentionDays <= 0 {
		return nil
	}

	before := time.Now().UTC().AddDate(0, 0, -m.cfg.RetentionDays)
	keys, err := m.archives.DeleteOlderThan(before)
	if err != nil {
		return fmt.Errorf("delete old archives: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete archive object", "key", key, "error", err)
		}
	}
	if len(keys) > 0 {
		m.logger.Info("pruned history archives", "count", len(keys), "before", before)
	}
	return nil
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, every time.Duration) error {
	if m.Status().State == StateDisabled {
		return nil
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.Cleanup(ctx); err != nil {
				m.logger.Error("archive cleanup", "error", err)
			}
		}
	}
}
