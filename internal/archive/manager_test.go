package archive

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/mileswise/internal/database"
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type testEnv struct {
	db       *sql.DB
	mgr      *Manager
	s3       *mockS3Client
	history  *store.HistoryStore
	archives *store.ArchiveStore
}

func setupManager(t *testing.T, retentionDays int) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:       db,
		s3:       newMockS3(),
		history:  store.NewHistoryStore(db),
		archives: store.NewArchiveStore(db),
	}
	cfg := Config{Bucket: "mileswise", Region: "us-east-1", AccessKey: "key", SecretKey: "secret", RetentionDays: retentionDays}
	env.mgr = NewManager(cfg, env.history, env.archives, slog.New(slog.NewTextHandler(io.Discard, nil)))
	env.mgr.client = env.s3
	return env
}

func TestManagerDisabled(t *testing.T) {
	m := NewManager(Config{}, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want disabled", m.Status().State)
	}
	if _, err := m.Export(context.Background(), "Admin", "long enough"); !errors.Is(err, ErrDisabled) {
		t.Errorf("export err = %v, want ErrDisabled", err)
	}
	if _, err := m.Fetch(context.Background(), 1, "long enough"); !errors.Is(err, ErrDisabled) {
		t.Errorf("fetch err = %v, want ErrDisabled", err)
	}
	if err := m.RunCleanup(context.Background(), time.Hour); err != nil {
		t.Errorf("cleanup loop err = %v", err)
	}
}

func TestExportAndFetch(t *testing.T) {
	env := setupManager(t, 30)
	for _, action := range []string{"Added new member: Anna (anna@example.com)", "Approved claim request CR000001 and credited 2,500 miles"} {
		if _, err := env.history.Append(model.HistoryLog{AdminName: "Admin User", Action: action}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	ctx := context.Background()

	rec, err := env.mgr.Export(ctx, "Admin User", "correct horse")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if rec.Status != model.ArchiveCompleted || rec.EntryCount != 2 || rec.SizeBytes == 0 {
		t.Errorf("record = %+v", rec)
	}
	if _, ok := env.s3.objects[rec.S3Key]; !ok {
		t.Fatalf("object %q not uploaded", rec.S3Key)
	}
	if bytes.Contains(env.s3.objects[rec.S3Key], []byte("Anna")) {
		t.Error("uploaded object is not encrypted")
	}

	st := env.mgr.Status()
	if st.State != StateIdle || st.InProgress || st.LastArchive == nil {
		t.Errorf("status = %+v", st)
	}

	doc, err := env.mgr.Fetch(ctx, rec.ID, "correct horse")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(doc.Entries) != 2 || doc.ExportedBy != "Admin User" {
		t.Errorf("document = %+v", doc)
	}

	if _, err := env.mgr.Fetch(ctx, rec.ID, "wrong passphrase"); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("fetch err = %v, want ErrBadPassphrase", err)
	}
	if _, err := env.mgr.Fetch(ctx, 999, "correct horse"); !errors.Is(err, ErrNotFound) {
		t.Errorf("fetch unknown err = %v, want ErrNotFound", err)
	}
}

func TestExportShortPassphrase(t *testing.T) {
	env := setupManager(t, 30)
	if _, err := env.mgr.Export(context.Background(), "Admin User", "short"); !errors.Is(err, ErrPassphraseTooShort) {
		t.Errorf("err = %v, want ErrPassphraseTooShort", err)
	}
}

func TestExportUploadFailure(t *testing.T) {
	env := setupManager(t, 30)
	env.s3.putErr = errors.New("bucket unreachable")

	if _, err := env.mgr.Export(context.Background(), "Admin User", "correct horse"); err == nil {
		t.Fatal("expected upload error")
	}
	if st := env.mgr.Status(); st.State != StateError || st.InProgress {
		t.Errorf("status = %+v", st)
	}

	list, err := env.mgr.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != model.ArchiveFailed || list[0].ErrorMessage == "" {
		t.Errorf("archives = %+v", list)
	}

	// A failed run releases the slot.
	env.s3.putErr = nil
	if _, err := env.mgr.Export(context.Background(), "Admin User", "correct horse"); err != nil {
		t.Errorf("retry export: %v", err)
	}
}

func TestExportInProgress(t *testing.T) {
	env := setupManager(t, 30)
	if err := env.mgr.begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := env.mgr.Export(context.Background(), "Admin User", "correct horse"); !errors.Is(err, ErrInProgress) {
		t.Errorf("err = %v, want ErrInProgress", err)
	}
}

func TestCleanupRemovesExpired(t *testing.T) {
	env := setupManager(t, 30)
	ctx := context.Background()

	rec, err := env.mgr.Export(ctx, "Admin User", "correct horse")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	// Nothing is older than 30 days yet.
	if err := env.mgr.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, ok := env.s3.objects[rec.S3Key]; !ok {
		t.Fatal("fresh archive was pruned")
	}

	old := time.Now().UTC().AddDate(0, 0, -45)
	if _, err := env.db.Exec(`UPDATE history_archives SET started_at = ? WHERE id = ?`, old, rec.ID); err != nil {
		t.Fatalf("age archive: %v", err)
	}
	if err := env.mgr.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, ok := env.s3.objects[rec.S3Key]; ok {
		t.Error("expired archive object still in bucket")
	}
	if got, _ := env.archives.GetByID(rec.ID); got != nil {
		t.Error("expired archive record still present")
	}
}
