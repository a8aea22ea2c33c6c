package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
	"github.com/dukerupert/mileswise/internal/websocket"
)

type MemberHandler struct {
	base
	svc *loyalty.Service
}

func NewMemberHandler(svc *loyalty.Service, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	members, err := h.svc.ListMembers(store.MemberFilter{
		Status: model.MemberStatus(q.Get("status")),
		Tier:   q.Get("tier"),
		Query:  q.Get("q"),
	})
	if err != nil {
		h.fail(w, r, "list members", err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.svc.GetMember(id)
	if err != nil {
		h.fail(w, r, "get member", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in loyalty.MemberInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.svc.CreateMember(r.Context(), actorFrom(r), in)
	if err != nil {
		h.fail(w, r, "create member", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityMember, "created", m.ID, m))
	writeJSON(w, http.StatusCreated, m)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in loyalty.MemberInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.svc.UpdateMember(r.Context(), actorFrom(r), id, in)
	if err != nil {
		h.fail(w, r, "update member", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityMember, "updated", m.ID, m))
	writeJSON(w, http.StatusOK, m)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus sets the member's status; an empty body toggles it.
func (h *MemberHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	m, err := h.svc.SetMemberStatus(r.Context(), actorFrom(r), id, model.MemberStatus(req.Status))
	if err != nil {
		h.fail(w, r, "set member status", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityMember, "status_changed", m.ID, m))
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.DeleteMember(r.Context(), actorFrom(r), id); err != nil {
		h.fail(w, r, "delete member", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityMember, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type milesRequest struct {
	TotalQualifyingMiles *int `json:"total_qualifying_miles"`
	TotalAwardMiles      *int `json:"total_award_miles"`
}

// SetMiles sets the member's balances and re-evaluates their tier.
func (h *MemberHandler) SetMiles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req milesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TotalQualifyingMiles == nil {
		writeError(w, http.StatusBadRequest, "total_qualifying_miles is required")
		return
	}

	res, err := h.svc.SetMiles(r.Context(), actorFrom(r), id, *req.TotalQualifyingMiles, req.TotalAwardMiles)
	if err != nil {
		h.fail(w, r, "set miles", err)
		return
	}
	h.broadcastTierChange(r, res.Member, res.TierChange)
	h.broadcast(r, websocket.NewEvent(websocket.EntityMember, "miles_updated", res.Member.ID, res.Member))
	writeJSON(w, http.StatusOK, res)
}

type evaluateResponse struct {
	Changed    bool                `json:"changed"`
	Member     *model.Member       `json:"member,omitempty"`
	TierChange *loyalty.TierChange `json:"tier_change,omitempty"`
}

// Evaluate runs the tier engine at the given balances. Nothing is written
// unless the member's tier changes; an unknown member answers changed=false.
func (h *MemberHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req milesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TotalQualifyingMiles == nil {
		writeError(w, http.StatusBadRequest, "total_qualifying_miles is required")
		return
	}

	res, err := h.svc.EvaluateAndApply(r.Context(), actorFrom(r), id, *req.TotalQualifyingMiles, req.TotalAwardMiles)
	if err != nil {
		h.fail(w, r, "evaluate member", err)
		return
	}
	if res == nil {
		writeJSON(w, http.StatusOK, evaluateResponse{})
		return
	}
	h.broadcastTierChange(r, res.Member, res.TierChange)
	writeJSON(w, http.StatusOK, evaluateResponse{Changed: res.TierChange != nil, Member: res.Member, TierChange: res.TierChange})
}

func (h *MemberHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rewards, err := h.svc.MemberRewards(id)
	if err != nil {
		h.fail(w, r, "member rewards", err)
		return
	}
	if rewards == nil {
		rewards = []model.MemberReward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (b base) broadcastTierChange(r *http.Request, m *model.Member, change *loyalty.TierChange) {
	if m == nil || change == nil {
		return
	}
	b.broadcast(r, websocket.NewEvent(websocket.EntityMember, "tier_changed", m.ID, change))
}
