package loyalty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/mileswise/internal/backend"
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
)

// FlightSource looks flights up in a remote catalog.
type FlightSource interface {
	FetchFlight(ctx context.Context, number string) (*model.Flight, error)
}

// FlightResolver answers flight lookups from the local catalog first and falls
// back to the remote source, caching what it finds there.
type FlightResolver struct {
	local  *store.FlightStore
	remote FlightSource
	logger *slog.Logger
}

// NewFlightResolver returns a resolver. remote may be nil.
func NewFlightResolver(local *store.FlightStore, remote FlightSource, logger *slog.Logger) *FlightResolver {
	return &FlightResolver{local: local, remote: remote, logger: logger}
}

func (r *FlightResolver) Resolve(ctx context.Context, number string) (*model.Flight, error) {
	number = store.NormalizeFlightNumber(number)
	if number == "" {
		return nil, ErrFlightNotFound
	}

	f, err := r.local.Get(number)
	if err != nil {
		return nil, fmt.Errorf("resolve flight: %w", err)
	}
	if f != nil {
		return f, nil
	}
	if r.remote == nil {
		return nil, ErrFlightNotFound
	}

	f, err = r.remote.FetchFlight(ctx, number)
	if errors.Is(err, backend.ErrNotFound) {
		return nil, ErrFlightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve flight: %w", err)
	}

	f.Number = number
	if err := r.local.Upsert(*f); err != nil {
		r.logger.Warn("cache remote flight", "flight", number, "error", err)
	}
	return f, nil
}

// LookupFlight resolves a flight number for the manual entry form.
func (s *Service) LookupFlight(ctx context.Context, number string) (*model.Flight, error) {
	return s.flights.Resolve(ctx, number)
}

type ManualEntryInput struct {
	MemberEmail  string `json:"member_email"`
	MemberNumber string `json:"member_number"`
	FlightNumber string `json:"flight_number"`
}

type ManualEntryResult struct {
	Flight      *model.Flight `json:"flight"`
	Miles       int           `json:"miles"`
	MemberFound bool          `json:"member_found"`
	Member      *model.Member `json:"member,omitempty"`
	TierChange  *TierChange   `json:"tier_change,omitempty"`
}

// ManualEntry credits a flight's miles to a member. The entry is recorded in
// the audit trail even when no member is registered under the email.
func (s *Service) ManualEntry(ctx context.Context, actor Actor, in ManualEntryInput) (*ManualEntryResult, error) {
	in.MemberEmail = strings.TrimSpace(in.MemberEmail)
	in.MemberNumber = strings.TrimSpace(in.MemberNumber)
	switch {
	case in.MemberEmail == "":
		return nil, &ValidationError{Field: "member_email", Message: "is required"}
	case in.MemberNumber == "":
		return nil, &ValidationError{Field: "member_number", Message: "is required"}
	case strings.TrimSpace(in.FlightNumber) == "":
		return nil, &ValidationError{Field: "flight_number", Message: "is required"}
	}

	// Resolved outside the transaction: the lookup may call out and write the cache.
	flight, err := s.flights.Resolve(ctx, in.FlightNumber)
	if err != nil {
		return nil, err
	}

	result := ManualEntryResult{Flight: flight, Miles: flight.Miles}
	err = s.inTx(ctx, func(ts *txStores) error {
		m, change, err := s.creditMember(ts, actor, in.MemberEmail, flight.Miles, flight.Miles)
		if err != nil {
			return err
		}

		action := fmt.Sprintf("Added %d miles for member %s (Flight: %s)", flight.Miles, in.MemberEmail, flight.Number)
		if m != nil {
			action += fmt.Sprintf(" - Qualifying: %s, Award: %s",
				formatMiles(m.TotalQualifyingMiles), formatMiles(m.TotalAwardMiles))
		} else {
			action += " - Member not found in system"
		}
		if err := ts.audit(actor, action); err != nil {
			return err
		}

		result.Member = m
		result.MemberFound = m != nil
		result.TierChange = change
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manual entry: %w", err)
	}

	s.logger.Info("manual entry recorded", "flight", flight.Number, "miles", flight.Miles, "member_found", result.MemberFound)
	return &result, nil
}
