package store

import (
	"testing"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
)

func TestArchiveLifecycle(t *testing.T) {
	as := NewArchiveStore(setupTestDB(t))

	a, err := as.Create("history-20250810T090000Z.json.enc", "history/history-20250810T090000Z.json.enc")
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	if a.Status != model.ArchivePending {
		t.Errorf("status = %q, want pending", a.Status)
	}

	if err := as.UpdateStatus(a.ID, model.ArchiveUploading, ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := as.UpdateCompleted(a.ID, 12, 4096); err != nil {
		t.Fatalf("update completed: %v", err)
	}

	got, _ := as.GetByID(a.ID)
	if got.Status != model.ArchiveCompleted || got.EntryCount != 12 || got.SizeBytes != 4096 {
		t.Errorf("unexpected archive %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at")
	}

	list, _ := as.List(10)
	if len(list) != 1 {
		t.Errorf("list = %d, want 1", len(list))
	}
}

func TestArchiveDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	as := NewArchiveStore(db)

	old, _ := as.Create("old.json.enc", "history/old.json.enc")
	as.Create("new.json.enc", "history/new.json.enc")
	db.Exec(`UPDATE history_archives SET started_at = ? WHERE id = ?`, time.Now().UTC().AddDate(0, 0, -60), old.ID)

	keys, err := as.DeleteOlderThan(time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 1 || keys[0] != "history/old.json.enc" {
		t.Errorf("keys = %v", keys)
	}
	list, _ := as.List(10)
	if len(list) != 1 {
		t.Errorf("remaining = %d, want 1", len(list))
	}
}
