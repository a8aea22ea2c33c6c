package loyalty

import (
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
)

const maxHistoryPage = 500

// ListHistory returns audit entries most recent first. The page size is capped.
func (s *Service) ListHistory(f store.HistoryFilter) ([]model.HistoryLog, error) {
	if f.Limit <= 0 || f.Limit > maxHistoryPage {
		f.Limit = maxHistoryPage
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.history.List(f)
}
