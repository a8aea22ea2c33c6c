package loyalty

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dukerupert/mileswise/internal/model"
)

func (f *fixture) addClaim(t *testing.T, email string, miles int, details *model.FlightDetails) *model.Claim {
	t.Helper()
	c, err := f.svc.CreateClaim(context.Background(), &model.Claim{
		MemberName: "Anna Nguyen", MemberEmail: email, Reason: "Missing miles",
		FlightInfo: "VN123", Miles: miles, FlightDetails: details,
	})
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}
	return c
}

func TestApproveClaimCreditsMember(t *testing.T) {
	f := setupService(t)
	m := f.addMember(t, "anna@example.com", "silver", 30000)
	c := f.addClaim(t, "ANNA@example.com", 25000, &model.FlightDetails{QualifyingMiles: 20000, BonusMiles: 5000})

	res, err := f.svc.ApproveClaim(context.Background(), admin, c.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Claim.Status != model.ClaimApproved || res.Claim.ReviewedBy != "Admin User" {
		t.Errorf("claim = %+v", res.Claim)
	}
	if !res.MemberFound {
		t.Fatal("expected member to be found")
	}

	stored, _ := f.members.GetByID(m.ID)
	if stored.TotalQualifyingMiles != 50000 || stored.TotalAwardMiles != 35000 {
		t.Errorf("balances = %d/%d, want 50000/35000", stored.TotalQualifyingMiles, stored.TotalAwardMiles)
	}
	if stored.Tier != "gold" {
		t.Errorf("tier = %q, want gold", stored.Tier)
	}

	logs := f.entries(t)
	want := "Approved claim request " + c.ClaimNumber + " and credited 20,000 miles"
	if logs[0].Action != want {
		t.Errorf("latest entry = %q, want %q", logs[0].Action, want)
	}
	if logs[0].RequestID != "req-42" {
		t.Errorf("request_id = %q", logs[0].RequestID)
	}
}

func TestApproveClaimUsesRequestedMilesWithoutDetails(t *testing.T) {
	f := setupService(t)
	m := f.addMember(t, "anna@example.com", "bronze", 1000)
	c := f.addClaim(t, "anna@example.com", 1500, nil)

	if _, err := f.svc.ApproveClaim(context.Background(), admin, c.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	stored, _ := f.members.GetByID(m.ID)
	if stored.TotalQualifyingMiles != 2500 || stored.TotalAwardMiles != 2500 {
		t.Errorf("balances = %d/%d, want 2500/2500", stored.TotalQualifyingMiles, stored.TotalAwardMiles)
	}
}

func TestApproveClaimUnknownMember(t *testing.T) {
	f := setupService(t)
	c := f.addClaim(t, "ghost@example.com", 1000, nil)

	res, err := f.svc.ApproveClaim(context.Background(), admin, c.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.MemberFound {
		t.Error("expected member_found = false")
	}
	if res.Claim.Status != model.ClaimApproved {
		t.Errorf("status = %q, want approved", res.Claim.Status)
	}
	if logs := f.entries(t); !strings.HasSuffix(logs[0].Action, "Member not found in system") {
		t.Errorf("entry = %q", logs[0].Action)
	}
}

func TestApproveClaimOnlyOnce(t *testing.T) {
	f := setupService(t)
	f.addMember(t, "anna@example.com", "bronze", 0)
	c := f.addClaim(t, "anna@example.com", 1000, nil)
	ctx := context.Background()

	if _, err := f.svc.ApproveClaim(ctx, admin, c.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.ApproveClaim(ctx, admin, c.ID); !errors.Is(err, ErrClaimClosed) {
		t.Errorf("second approve err = %v, want ErrClaimClosed", err)
	}
	if _, err := f.svc.RejectClaim(ctx, admin, c.ID, "late"); !errors.Is(err, ErrClaimClosed) {
		t.Errorf("reject after approve err = %v, want ErrClaimClosed", err)
	}
}

func TestRejectClaimRequiresReason(t *testing.T) {
	f := setupService(t)
	c := f.addClaim(t, "anna@example.com", 1000, nil)

	_, err := f.svc.RejectClaim(context.Background(), admin, c.ID, "   ")
	if !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("err = %v, want ErrRejectionReasonRequired", err)
	}

	stored, _ := f.svc.GetClaim(c.ID)
	if stored.Status != model.ClaimPending {
		t.Errorf("status = %q, want pending", stored.Status)
	}
	if logs := f.entries(t); len(logs) != 0 {
		t.Errorf("history = %d entries, want 0", len(logs))
	}
}

func TestRejectClaim(t *testing.T) {
	f := setupService(t)
	c := f.addClaim(t, "anna@example.com", 1000, nil)
	ctx := context.Background()

	if _, err := f.svc.MarkReviewing(ctx, admin, c.ID); err != nil {
		t.Fatalf("mark reviewing: %v", err)
	}
	out, err := f.svc.RejectClaim(ctx, admin, c.ID, "No boarding pass")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if out.Status != model.ClaimRejected || out.RejectionReason != "No boarding pass" {
		t.Errorf("claim = %+v", out)
	}

	want := "Rejected claim request " + c.ClaimNumber + " - Reason: No boarding pass"
	if logs := f.entries(t); logs[0].Action != want {
		t.Errorf("entry = %q, want %q", logs[0].Action, want)
	}
}

func TestMarkReviewingClosedClaim(t *testing.T) {
	f := setupService(t)
	c := f.addClaim(t, "anna@example.com", 1000, nil)
	ctx := context.Background()

	if _, err := f.svc.RejectClaim(ctx, admin, c.ID, "duplicate"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.MarkReviewing(ctx, admin, c.ID); !errors.Is(err, ErrClaimClosed) {
		t.Errorf("err = %v, want ErrClaimClosed", err)
	}
}

func TestClaimNotFound(t *testing.T) {
	f := setupService(t)
	if _, err := f.svc.ApproveClaim(context.Background(), admin, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateClaimIgnoresClientNumberAndStatus(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		c, err := f.svc.CreateClaim(ctx, &model.Claim{
			ClaimNumber: "LM-2025-001", Status: model.ClaimApproved,
			MemberName: "Anna Nguyen", MemberEmail: "anna@example.com", Miles: 1000,
		})
		if err != nil {
			t.Fatalf("create claim %d: %v", i, err)
		}
		if c.Status != model.ClaimPending {
			t.Errorf("status = %q, want pending", c.Status)
		}
		if !strings.HasPrefix(c.ClaimNumber, "CR") {
			t.Errorf("claim_number = %q, want server-assigned CR number", c.ClaimNumber)
		}
	}
}
