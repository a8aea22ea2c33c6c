package loyalty

import (
	"time"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
)

// Periods accepted by DashboardStats.
const (
	Period7Days   = "7days"
	Period30Days  = "30days"
	Period90Days  = "90days"
	Period6Months = "6months"
	Period1Year   = "1year"
)

// ValidPeriod reports whether p names a dashboard period.
func ValidPeriod(p string) bool {
	switch p {
	case Period7Days, Period30Days, Period90Days, Period6Months, Period1Year:
		return true
	}
	return false
}

// buckets returns the start of every chart bucket for period, oldest first,
// and whether the buckets are months rather than days.
func buckets(period string, now time.Time) ([]time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var n int
	monthly := false
	switch period {
	case Period30Days:
		n = 30
	case Period90Days:
		n, monthly = 3, true
	case Period6Months:
		n, monthly = 6, true
	case Period1Year:
		n, monthly = 12, true
	default:
		n = 7
	}

	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		if monthly {
			out[i] = month.AddDate(0, i-n+1, 0)
		} else {
			out[i] = day.AddDate(0, 0, i-n+1)
		}
	}
	return out, monthly
}

// DashboardStats returns claim and member totals plus a per-bucket series of
// claim outcomes over period. Open claims count as reviewing in the series.
func (s *Service) DashboardStats(period string) (*model.DashboardStats, error) {
	counts, err := s.claims.CountByStatus()
	if err != nil {
		return nil, err
	}
	members, err := s.members.Count()
	if err != nil {
		return nil, err
	}

	stats := &model.DashboardStats{
		TotalPending:  counts[model.ClaimPending] + counts[model.ClaimReviewing],
		TotalApproved: counts[model.ClaimApproved],
		TotalRejected: counts[model.ClaimRejected],
		TotalMember:   members,
	}
	stats.TotalRequest = stats.TotalPending + stats.TotalApproved + stats.TotalRejected

	starts, monthly := buckets(period, s.now())
	claims, err := s.claims.List(store.ClaimFilter{Since: starts[0]})
	if err != nil {
		return nil, err
	}

	stats.ChartInfo = make([]model.ChartData, len(starts))
	for i, start := range starts {
		label := start.Format("Jan 2")
		if monthly {
			label = start.Format("Jan 2006")
		}
		stats.ChartInfo[i].Month = label
	}

	for _, c := range claims {
		idx := -1
		for i := len(starts) - 1; i >= 0; i-- {
			if !c.SubmittedAt.Before(starts[i]) {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		switch c.Status {
		case model.ClaimApproved:
			stats.ChartInfo[idx].Approved++
		case model.ClaimRejected:
			stats.ChartInfo[idx].Rejected++
		default:
			stats.ChartInfo[idx].Reviewing++
		}
	}
	return stats, nil
}
