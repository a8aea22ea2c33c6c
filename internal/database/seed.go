package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type seedReward struct {
	name, typ, description, conditions, status string
	value                                      float64
	milesCost, maxUsage                        int
	tier                                       string
}

type seedTier struct {
	name, displayName, color, description string
	milesRequired, maxRewards, bonus      int
	benefits                              []string
	// autoRewards counts how many of the seeded rewards, in order, the tier grants.
	autoRewards int
}

var demoRewards = []seedReward{
	{"Silver Flight Voucher", "voucher", "$50 flight discount voucher for Silver members",
		"Valid for domestic flights only. Cannot be combined with other offers.", "active", 50, 10000, 100, "silver"},
	{"Gold Lounge Access", "gift", "Complimentary airport lounge access for Gold members",
		"Valid at selected partner lounges. Must present digital voucher.", "active", 1, 15000, 50, "gold"},
	{"Platinum Cashback", "cashback", "$100 cashback for Platinum members",
		"Minimum purchase of $500 required. Cashback processed within 7 days.", "active", 100, 25000, 30, "platinum"},
	{"Diamond Elite Package", "gift", "Exclusive Diamond member luxury package",
		"Limited time exclusive offer for Diamond tier members only.", "draft", 500, 50000, 10, "diamond"},
}

var demoTiers = []seedTier{
	{"bronze", "Bronze", "#CD7F32", "Entry membership for every new member",
		0, 1, 0, []string{"Earn miles on every flight"}, 0},
	{"silver", "Silver", "#C0C0C0", "Mid-tier membership with enhanced benefits",
		25000, 3, 10, []string{"Priority customer support", "Free seat selection", "10% bonus miles on flights"}, 1},
	{"gold", "Gold", "#FFD700", "Premium membership with exclusive privileges",
		50000, 5, 25, []string{"Dedicated customer support", "Free seat selection", "25% bonus miles", "Priority boarding"}, 2},
	{"platinum", "Platinum", "#E5E4E2", "Elite membership with luxury benefits",
		100000, 8, 50, []string{"Personal concierge service", "Unlimited seat selection", "50% bonus miles", "Priority everything"}, 3},
	{"diamond", "Diamond", "#B9F2FF", "Ultimate tier with premium privileges",
		200000, 15, 100, []string{"White-glove service", "Unlimited everything", "100% bonus miles", "Exclusive access"}, 4},
}

// SeedDemo loads a demo tier ladder, reward catalog, members and claims.
// It does nothing once any tier exists, so it is safe to call on every start.
func SeedDemo(db *sql.DB) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM tiers`).Scan(&n); err != nil {
		return false, fmt.Errorf("count tiers: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Second)

	rewardIDs := make([]int64, 0, len(demoRewards))
	for _, r := range demoRewards {
		res, err := tx.Exec(
			`INSERT INTO rewards (name, type, description, value, miles_cost, validity_start, validity_end,
			 conditions, status, max_usage, tier_name, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.name, r.typ, r.description, r.value, r.milesCost, start, end,
			r.conditions, r.status, r.maxUsage, r.tier, now, now,
		)
		if err != nil {
			return false, fmt.Errorf("insert reward %q: %w", r.name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("last insert id: %w", err)
		}
		rewardIDs = append(rewardIDs, id)
	}

	for _, t := range demoTiers {
		benefits, err := json.Marshal(t.benefits)
		if err != nil {
			return false, fmt.Errorf("encode benefits: %w", err)
		}
		res, err := tx.Exec(
			`INSERT INTO tiers (name, display_name, color, miles_required, description, benefits, status,
			 max_rewards_per_month, tier_bonus, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, 'active', ?, ?, ?, ?)`,
			t.name, t.displayName, t.color, t.milesRequired, t.description, string(benefits),
			t.maxRewards, t.bonus, now, now,
		)
		if err != nil {
			return false, fmt.Errorf("insert tier %q: %w", t.name, err)
		}
		tierID, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("last insert id: %w", err)
		}
		for pos, rewardID := range rewardIDs[:t.autoRewards] {
			if _, err := tx.Exec(
				`INSERT INTO tier_auto_rewards (tier_id, reward_id, position) VALUES (?, ?, ?)`,
				tierID, rewardID, pos,
			); err != nil {
				return false, fmt.Errorf("insert auto reward: %w", err)
			}
		}
	}

	if err := seedMembers(tx, now); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

func seedMembers(tx *sql.Tx, now time.Time) error {
	members := []struct {
		name, email, tier, status string
		miles                     int
	}{
		{"John Smith", "john.smith@email.com", "gold", "active", 55000},
		{"Sarah Johnson", "sarah.j@email.com", "platinum", "active", 120000},
		{"Mike Davis", "mike.davis@email.com", "silver", "active", 28000},
		{"Lisa Chen", "lisa.chen@email.com", "bronze", "inactive", 15000},
	}
	for _, m := range members {
		if _, err := tx.Exec(
			`INSERT INTO members (email, name, total_qualifying_miles, total_award_miles, tier, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.email, m.name, m.miles, m.miles, m.tier, m.status, now, now,
		); err != nil {
			return fmt.Errorf("insert member %q: %w", m.email, err)
		}
	}
	if _, err := tx.Exec(`UPDATE members SET member_number = printf('MW%06d', id) WHERE member_number = ''`); err != nil {
		return fmt.Errorf("assign member numbers: %w", err)
	}

	claims := []struct {
		number, name, email, status, reason, flight, rejection string
		miles, daysAgo                                        int
	}{
		{"LM-2025-001", "John Smith", "john.smith@email.com", "pending", "Flight delay compensation", "VN123 - HAN to SGN", "", 2500, 0},
		{"LM-2025-002", "Sarah Johnson", "sarah.j@email.com", "approved", "Missing miles credit", "QR456 - SGN to DOH", "", 5000, 1},
		{"LM-2025-003", "Mike Davis", "mike.davis@email.com", "pending", "Upgrade miles credit", "EK789 - HAN to DXB", "", 1500, 2},
		{"LM-2025-004", "Lisa Chen", "lisa.chen@email.com", "rejected", "Duplicate miles request", "BA202 - SGN to LHR",
			"Miles already credited for this flight", 3200, 3},
		{"LM-2025-005", "David Wilson", "david.w@email.com", "approved", "Missing partner airline miles", "SQ101 - SGN to SIN", "", 1800, 4},
	}
	for _, c := range claims {
		submitted := now.AddDate(0, 0, -c.daysAgo)
		var reviewedBy, rejection any
		var reviewedAt any
		if c.status == "approved" || c.status == "rejected" {
			reviewedBy, reviewedAt = "Admin User", submitted.Add(2*time.Hour)
		}
		if c.rejection != "" {
			rejection = c.rejection
		}
		if _, err := tx.Exec(
			`INSERT INTO claims (claim_number, member_name, member_email, submitted_at, status, reason, flight_info,
			 miles, rejection_reason, reviewed_by, reviewed_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.number, c.name, c.email, submitted, c.status, c.reason, c.flight,
			c.miles, rejection, reviewedBy, reviewedAt, submitted, submitted,
		); err != nil {
			return fmt.Errorf("insert claim %s: %w", c.number, err)
		}
	}
	return nil
}
