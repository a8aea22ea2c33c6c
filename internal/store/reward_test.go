package store

import (
	"testing"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
)

func TestRewardCRUD(t *testing.T) {
	rs := NewRewardStore(setupTestDB(t))

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	limit := 100

	reward, err := rs.Create(&model.Reward{
		Name: "Airport Lounge Access", Type: model.RewardGift, Description: "Single visit",
		Value: 50, MilesCost: 5000, ValidityStart: start, ValidityEnd: end,
		MaxUsage: &limit, TierName: "gold",
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	if reward.Status != model.RewardDraft {
		t.Errorf("status = %q, want draft", reward.Status)
	}
	if reward.MaxUsage == nil || *reward.MaxUsage != 100 {
		t.Errorf("max_usage = %v, want 100", reward.MaxUsage)
	}
	if !reward.ValidityEnd.Equal(end) {
		t.Errorf("validity_end = %v, want %v", reward.ValidityEnd, end)
	}

	reward.MaxUsage = nil
	reward.Value = 75
	updated, err := rs.Update(reward)
	if err != nil {
		t.Fatalf("update reward: %v", err)
	}
	if updated.MaxUsage != nil || updated.Value != 75 {
		t.Errorf("unexpected update %+v", updated)
	}

	if err := rs.SetStatus(reward.ID, model.RewardActive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	active, _ := rs.List(RewardFilter{Status: model.RewardActive})
	if len(active) != 1 {
		t.Errorf("active rewards = %d, want 1", len(active))
	}

	if err := rs.RenameTier("gold", "aurum"); err != nil {
		t.Fatalf("rename tier: %v", err)
	}
	owned, _ := rs.List(RewardFilter{TierName: "aurum"})
	if len(owned) != 1 {
		t.Errorf("aurum rewards = %d, want 1", len(owned))
	}

	if err := rs.Delete(reward.ID); err != nil {
		t.Fatalf("delete reward: %v", err)
	}
	got, err := rs.GetByID(reward.ID)
	if err != nil {
		t.Fatalf("get deleted reward: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestRewardListByIDs(t *testing.T) {
	rs := NewRewardStore(setupTestDB(t))
	start := time.Now()
	a, _ := rs.Create(&model.Reward{Name: "A", Description: "d", Value: 1, MilesCost: 1, ValidityStart: start, ValidityEnd: start})
	b, _ := rs.Create(&model.Reward{Name: "B", Description: "d", Value: 1, MilesCost: 1, ValidityStart: start, ValidityEnd: start})

	got, err := rs.ListByIDs([]int64{b.ID, 999, a.ID})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if len(got) != 2 || got[0].Name != "B" || got[1].Name != "A" {
		t.Errorf("ListByIDs = %v", got)
	}
}
