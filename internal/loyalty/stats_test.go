package loyalty

import (
	"context"
	"testing"
	"time"
)

func TestBuckets(t *testing.T) {
	now := time.Date(2025, 3, 15, 13, 30, 0, 0, time.UTC)

	days, monthly := buckets(Period7Days, now)
	if monthly || len(days) != 7 {
		t.Fatalf("7days = %d buckets, monthly=%v", len(days), monthly)
	}
	if !days[6].Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) || !days[0].Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("7days range = %v .. %v", days[0], days[6])
	}

	months, monthly := buckets(Period1Year, now)
	if !monthly || len(months) != 12 {
		t.Fatalf("1year = %d buckets, monthly=%v", len(months), monthly)
	}
	if !months[0].Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first month = %v", months[0])
	}

	if got, _ := buckets("bogus", now); len(got) != 7 {
		t.Errorf("unknown period = %d buckets, want 7", len(got))
	}
}

func TestDashboardStats(t *testing.T) {
	f := setupService(t)
	f.addMember(t, "anna@example.com", "bronze", 0)
	ctx := context.Background()

	approved := f.addClaim(t, "anna@example.com", 1000, nil)
	rejected := f.addClaim(t, "anna@example.com", 1000, nil)
	f.addClaim(t, "anna@example.com", 1000, nil)
	reviewing := f.addClaim(t, "anna@example.com", 1000, nil)

	if _, err := f.svc.ApproveClaim(ctx, admin, approved.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.RejectClaim(ctx, admin, rejected.ID, "duplicate"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.MarkReviewing(ctx, admin, reviewing.ID); err != nil {
		t.Fatalf("mark reviewing: %v", err)
	}

	stats, err := f.svc.DashboardStats(Period30Days)
	if err != nil {
		t.Fatalf("dashboard stats: %v", err)
	}
	if stats.TotalRequest != 4 || stats.TotalPending != 2 || stats.TotalApproved != 1 || stats.TotalRejected != 1 {
		t.Errorf("totals = %+v", stats)
	}
	if stats.TotalMember != 1 {
		t.Errorf("members = %d, want 1", stats.TotalMember)
	}
	if len(stats.ChartInfo) != 30 {
		t.Fatalf("chart buckets = %d, want 30", len(stats.ChartInfo))
	}
	today := stats.ChartInfo[29]
	if today.Approved != 1 || today.Rejected != 1 || today.Reviewing != 2 {
		t.Errorf("today = %+v", today)
	}
	if want := time.Now().UTC().Format("Jan 2"); today.Month != want {
		t.Errorf("label = %q, want %q", today.Month, want)
	}
}
