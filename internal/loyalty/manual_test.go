package loyalty

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/mileswise/internal/store"
)

func TestManualEntryCreditsMember(t *testing.T) {
	f := setupService(t)
	m := f.addMember(t, "anna@example.com", "silver", 48000)

	res, err := f.svc.ManualEntry(context.Background(), admin, ManualEntryInput{
		MemberEmail: "Anna@Example.com", MemberNumber: m.MemberNumber, FlightNumber: "vn123",
	})
	if err != nil {
		t.Fatalf("manual entry: %v", err)
	}
	if res.Miles != 2500 || !res.MemberFound {
		t.Errorf("result = %+v", res)
	}
	if res.Member.TotalQualifyingMiles != 50500 || res.Member.TotalAwardMiles != 50500 {
		t.Errorf("balances = %d/%d, want 50500/50500", res.Member.TotalQualifyingMiles, res.Member.TotalAwardMiles)
	}
	if res.Member.Tier != "gold" || res.TierChange == nil {
		t.Errorf("tier = %q, change = %+v", res.Member.Tier, res.TierChange)
	}

	want := "Added 2500 miles for member Anna@Example.com (Flight: VN123) - Qualifying: 50,500, Award: 50,500"
	if logs := f.entries(t); logs[0].Action != want {
		t.Errorf("entry = %q, want %q", logs[0].Action, want)
	}
}

func TestManualEntryMemberNotFound(t *testing.T) {
	f := setupService(t)

	res, err := f.svc.ManualEntry(context.Background(), admin, ManualEntryInput{
		MemberEmail: "ghost@example.com", MemberNumber: "MW999999", FlightNumber: "QR789",
	})
	if err != nil {
		t.Fatalf("manual entry: %v", err)
	}
	if res.MemberFound || res.Member != nil {
		t.Errorf("result = %+v", res)
	}

	want := "Added 5000 miles for member ghost@example.com (Flight: QR789) - Member not found in system"
	if logs := f.entries(t); len(logs) != 1 || logs[0].Action != want {
		t.Errorf("entries = %v, want [%q]", logs, want)
	}
}

func TestManualEntryUnknownFlight(t *testing.T) {
	f := setupService(t)
	m := f.addMember(t, "anna@example.com", "silver", 30000)

	_, err := f.svc.ManualEntry(context.Background(), admin, ManualEntryInput{
		MemberEmail: "anna@example.com", MemberNumber: m.MemberNumber, FlightNumber: "ZZ999",
	})
	if !errors.Is(err, ErrFlightNotFound) {
		t.Fatalf("err = %v, want ErrFlightNotFound", err)
	}

	stored, _ := f.members.GetByID(m.ID)
	if stored.TotalQualifyingMiles != 30000 {
		t.Errorf("qualifying = %d, want 30000", stored.TotalQualifyingMiles)
	}
	if logs := f.entries(t); len(logs) != 0 {
		t.Errorf("history = %d entries, want 0", len(logs))
	}
}

func TestManualEntryRequiresFields(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.ManualEntry(context.Background(), admin, ManualEntryInput{MemberEmail: "anna@example.com", FlightNumber: "VN123"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "member_number" {
		t.Errorf("err = %v, want member_number validation error", err)
	}
}

func TestFlightResolverCachesRemote(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	fl, err := f.svc.LookupFlight(ctx, "tg550")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if fl.Airline != "Thai Airways" {
		t.Errorf("airline = %q", fl.Airline)
	}
	if f.remote.calls != 1 {
		t.Errorf("remote calls = %d, want 1", f.remote.calls)
	}

	cached, _ := store.NewFlightStore(f.db).Get("TG550")
	if cached == nil {
		t.Fatal("expected remote flight cached locally")
	}

	if _, err := f.svc.LookupFlight(ctx, "TG550"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if f.remote.calls != 1 {
		t.Errorf("remote calls = %d, want 1 after cache hit", f.remote.calls)
	}
}

func TestFlightResolverWithoutRemote(t *testing.T) {
	f := setupService(t)
	r := NewFlightResolver(store.NewFlightStore(f.db), nil, f.svc.logger)

	if _, err := r.Resolve(context.Background(), "TG550"); !errors.Is(err, ErrFlightNotFound) {
		t.Errorf("err = %v, want ErrFlightNotFound", err)
	}
	if fl, err := r.Resolve(context.Background(), "SQ101"); err != nil || fl.Miles != 3500 {
		t.Errorf("SQ101 = %+v, %v", fl, err)
	}
}
