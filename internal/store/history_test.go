package store

import (
	"fmt"
	"testing"

	"github.com/dukerupert/mileswise/internal/model"
)

func TestHistoryAppendAndList(t *testing.T) {
	hs := NewHistoryStore(setupTestDB(t))

	for i := 1; i <= 5; i++ {
		if _, err := hs.Append(model.HistoryLog{AdminName: "Admin", Action: fmt.Sprintf("action %d", i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := hs.Append(model.HistoryLog{AdminName: model.ActorAutoTier, Action: "tier change", RequestID: "req-1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	all, err := hs.List(HistoryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("len = %d, want 6", len(all))
	}
	if all[0].Action != "tier change" || all[0].RequestID != "req-1" {
		t.Errorf("newest = %+v", all[0])
	}

	page, _ := hs.List(HistoryFilter{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].Action != "action 5" {
		t.Errorf("page = %v", page)
	}

	search, _ := hs.List(HistoryFilter{Query: "auto-tier"})
	if len(search) != 1 {
		t.Errorf("search = %d, want 1", len(search))
	}

	n, _ := hs.Count()
	if n != 6 {
		t.Errorf("count = %d, want 6", n)
	}
}
