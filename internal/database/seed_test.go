package database

import "testing"

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var flights int
	if err := db.QueryRow(`SELECT COUNT(*) FROM flights`).Scan(&flights); err != nil {
		t.Fatalf("count flights: %v", err)
	}
	if flights != 5 {
		t.Errorf("flights = %d, want 5", flights)
	}
}

func TestSeedDemo(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	seeded, err := SeedDemo(db)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !seeded {
		t.Fatal("expected first seed to load data")
	}

	counts := map[string]int{
		"tiers":             5,
		"rewards":           4,
		"tier_auto_rewards": 10,
		"members":           4,
		"claims":            5,
	}
	for table, want := range counts {
		var got int
		if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s = %d, want %d", table, got, want)
		}
	}

	var number string
	if err := db.QueryRow(`SELECT member_number FROM members WHERE email = 'john.smith@email.com'`).Scan(&number); err != nil {
		t.Fatalf("member number: %v", err)
	}
	if number != "MW000001" {
		t.Errorf("member number = %q, want MW000001", number)
	}

	seeded, err = SeedDemo(db)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if seeded {
		t.Error("second seed should be a no-op")
	}
}
