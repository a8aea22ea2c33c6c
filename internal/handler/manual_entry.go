package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/websocket"
)

type ManualEntryHandler struct {
	base
	svc *loyalty.Service
}

func NewManualEntryHandler(svc *loyalty.Service, hub *websocket.Hub, logger *slog.Logger) *ManualEntryHandler {
	return &ManualEntryHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

// Flight looks up a flight for the entry form.
func (h *ManualEntryHandler) Flight(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.LookupFlight(r.Context(), r.PathValue("number"))
	if err != nil {
		h.fail(w, r, "lookup flight", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *ManualEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in loyalty.ManualEntryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := h.svc.ManualEntry(r.Context(), actorFrom(r), in)
	if err != nil {
		h.fail(w, r, "manual entry", err)
		return
	}

	var memberID int64
	if res.Member != nil {
		memberID = res.Member.ID
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityManualEntry, "created", memberID, res))
	h.broadcastTierChange(r, res.Member, res.TierChange)
	writeJSON(w, http.StatusCreated, res)
}
