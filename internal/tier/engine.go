// Package tier decides which membership tier a qualifying-miles balance earns
// and what an engine-driven tier change emits: the updated member, the rewards
// auto-assigned by the new tier and the audit entries describing both.
//
// Everything here is pure. Callers load member, tier and reward snapshots,
// call Evaluate and persist the Result themselves.
package tier

import (
	"fmt"
	"sort"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dustin/go-humanize"
)

// Update carries the balances the engine should treat as authoritative.
// A nil AwardMiles leaves the member's award balance untouched.
type Update struct {
	QualifyingMiles int
	AwardMiles      *int
}

// Result describes what a tier change produced. When Changed is false every
// other field is zero and nothing must be written.
type Result struct {
	Changed     bool
	Member      model.Member
	Previous    string
	Tier        *model.Tier
	Entries     []model.HistoryLog
	Assignments []model.MemberReward
}

// Eligible returns the active tier with the largest threshold not above miles,
// or nil when no active tier qualifies. Tiers sharing a threshold resolve to
// the one that appears first in tiers.
func Eligible(tiers []model.Tier, miles int) *model.Tier {
	active := make([]model.Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.Status == model.TierActive {
			active = append(active, t)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].MilesRequired > active[j].MilesRequired
	})

	for i := range active {
		if active[i].MilesRequired <= miles {
			return &active[i]
		}
	}
	return nil
}

// Evaluate computes the tier change, if any, for member at the balances in u.
//
// The comparison against the member's current tier is a plain name inequality,
// so a balance that dropped below the current threshold moves the member down
// just as a higher one moves it up. A nil member, no eligible tier or an
// unchanged tier all yield a zero Result.
func Evaluate(member *model.Member, tiers []model.Tier, rewards []model.Reward, u Update, now time.Time) Result {
	if member == nil {
		return Result{}
	}

	next := Eligible(tiers, u.QualifyingMiles)
	if next == nil || next.Name == member.Tier {
		return Result{}
	}

	updated := *member
	updated.Tier = next.Name
	updated.TotalQualifyingMiles = u.QualifyingMiles
	if u.AwardMiles != nil {
		updated.TotalAwardMiles = *u.AwardMiles
	}
	updated.UpdatedAt = now

	res := Result{
		Changed:  true,
		Member:   updated,
		Previous: member.Tier,
		Tier:     next,
	}

	for _, r := range autoRewards(next, rewards) {
		res.Assignments = append(res.Assignments, model.MemberReward{
			MemberID:   member.ID,
			RewardID:   r.ID,
			RewardName: r.Name,
			TierName:   next.Name,
			Source:     model.RewardSourceAuto,
			AssignedAt: now,
		})
		res.Entries = append(res.Entries, model.HistoryLog{
			AdminName: model.ActorAutoAssign,
			Action:    fmt.Sprintf("Auto-assigned reward %q to %s (%s tier achieved)", r.Name, member.Name, next.DisplayName),
			CreatedAt: now,
		})
	}

	verb := "upgraded"
	if prev := byName(tiers, member.Tier); prev != nil && prev.MilesRequired > next.MilesRequired {
		verb = "downgraded"
	}
	res.Entries = append(res.Entries, model.HistoryLog{
		AdminName: model.ActorAutoTier,
		Action: fmt.Sprintf("%s automatically %s to %s tier (%s miles)",
			member.Name, verb, next.DisplayName, humanize.Comma(int64(u.QualifyingMiles))),
		CreatedAt: now,
	})

	return res
}

// autoRewards returns the active rewards listed in t.AutoRewards, in the
// tier's configured order. Unknown and non-active ids are skipped.
func autoRewards(t *model.Tier, rewards []model.Reward) []model.Reward {
	byID := make(map[int64]model.Reward, len(rewards))
	for _, r := range rewards {
		byID[r.ID] = r
	}

	var out []model.Reward
	seen := make(map[int64]bool, len(t.AutoRewards))
	for _, id := range t.AutoRewards {
		r, ok := byID[id]
		if !ok || seen[id] || r.Status != model.RewardActive {
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out
}

func byName(tiers []model.Tier, name string) *model.Tier {
	for i := range tiers {
		if tiers[i].Name == name {
			return &tiers[i]
		}
	}
	return nil
}
