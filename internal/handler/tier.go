package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/websocket"
)

type TierHandler struct {
	base
	svc *loyalty.Service
}

func NewTierHandler(svc *loyalty.Service, hub *websocket.Hub, logger *slog.Logger) *TierHandler {
	return &TierHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

// List returns tiers in ascending threshold order.
func (h *TierHandler) List(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.svc.ListTiers(model.TierStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, "list tiers", err)
		return
	}
	if tiers == nil {
		tiers = []model.Tier{}
	}
	writeJSON(w, http.StatusOK, tiers)
}

func (h *TierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in loyalty.TierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.svc.CreateTier(r.Context(), actorFrom(r), in)
	if err != nil {
		h.fail(w, r, "create tier", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityTier, "created", t.ID, t))
	writeJSON(w, http.StatusCreated, t)
}

func (h *TierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in loyalty.TierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.svc.UpdateTier(r.Context(), actorFrom(r), id, in)
	if err != nil {
		h.fail(w, r, "update tier", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityTier, "updated", t.ID, t))
	writeJSON(w, http.StatusOK, t)
}

func (h *TierHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.ToggleTier(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, "toggle tier", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityTier, "status_changed", t.ID, t))
	writeJSON(w, http.StatusOK, t)
}

func (h *TierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTier(r.Context(), actorFrom(r), id); err != nil {
		h.fail(w, r, "delete tier", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityTier, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
