package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dukerupert/mileswise/internal/loyalty"
)

type DashboardHandler struct {
	base
	svc *loyalty.Service
	db  *sql.DB
}

func NewDashboardHandler(svc *loyalty.Service, db *sql.DB, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{base: base{logger: logger}, svc: svc, db: db}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = loyalty.Period7Days
	}
	if !loyalty.ValidPeriod(period) {
		writeError(w, http.StatusBadRequest, "period must be one of 7days, 30days, 90days, 6months, 1year")
		return
	}
	stats, err := h.svc.DashboardStats(period)
	if err != nil {
		h.fail(w, r, "dashboard stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Health reports whether the database answers.
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("health check", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
