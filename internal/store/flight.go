package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/mileswise/internal/model"
)

// FlightStore is the local flight catalog used by manual mileage entry.
type FlightStore struct {
	db querier
}

func NewFlightStore(db *sql.DB) *FlightStore {
	return &FlightStore{db: db}
}

func scanFlight(scanner interface{ Scan(...any) error }) (*model.Flight, error) {
	var f model.Flight
	err := scanner.Scan(&f.Number, &f.Airline, &f.BookingClass, &f.FlightDate, &f.Origin, &f.Destination, &f.Distance, &f.Miles)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const flightCols = `number, airline, booking_class, flight_date, origin, destination, distance, miles`

// NormalizeFlightNumber upper-cases and trims a flight number.
func NormalizeFlightNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

func (s *FlightStore) Get(number string) (*model.Flight, error) {
	row := s.db.QueryRow(`SELECT `+flightCols+` FROM flights WHERE number = ?`, NormalizeFlightNumber(number))
	f, err := scanFlight(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get flight: %w", err)
	}
	return f, nil
}

// Upsert inserts f or replaces the catalog entry with the same number.
func (s *FlightStore) Upsert(f model.Flight) error {
	_, err := s.db.Exec(
		`INSERT INTO flights (`+flightCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(number) DO UPDATE SET airline = excluded.airline, booking_class = excluded.booking_class,
		 flight_date = excluded.flight_date, origin = excluded.origin, destination = excluded.destination,
		 distance = excluded.distance, miles = excluded.miles`,
		NormalizeFlightNumber(f.Number), f.Airline, f.BookingClass, f.FlightDate,
		f.Origin, f.Destination, f.Distance, f.Miles,
	)
	if err != nil {
		return fmt.Errorf("upsert flight: %w", err)
	}
	return nil
}

func (s *FlightStore) List() ([]model.Flight, error) {
	rows, err := s.db.Query(`SELECT ` + flightCols + ` FROM flights ORDER BY number ASC`)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	var flights []model.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}
