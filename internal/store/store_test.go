package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/mileswise/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLikePatternEscapes(t *testing.T) {
	got := likePattern(" 50%_off ")
	want := `%50\%\_off%`
	if got != want {
		t.Errorf("likePattern = %q, want %q", got, want)
	}
}
