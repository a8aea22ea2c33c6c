package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
	"github.com/dukerupert/mileswise/internal/websocket"
)

type RewardHandler struct {
	base
	svc *loyalty.Service
}

func NewRewardHandler(svc *loyalty.Service, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rewards, err := h.svc.ListRewards(store.RewardFilter{
		Status:   model.RewardStatus(q.Get("status")),
		TierName: q.Get("tier"),
		Query:    q.Get("q"),
	})
	if err != nil {
		h.fail(w, r, "list rewards", err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reward, err := h.svc.GetReward(id)
	if err != nil {
		h.fail(w, r, "get reward", err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in loyalty.RewardInput
	if !decodeJSON(w, r, &in) {
		return
	}
	reward, err := h.svc.CreateReward(r.Context(), actorFrom(r), in)
	if err != nil {
		h.fail(w, r, "create reward", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityReward, "created", reward.ID, reward))
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in loyalty.RewardInput
	if !decodeJSON(w, r, &in) {
		return
	}
	reward, err := h.svc.UpdateReward(r.Context(), actorFrom(r), id, in)
	if err != nil {
		h.fail(w, r, "update reward", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityReward, "updated", reward.ID, reward))
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reward, err := h.svc.PublishReward(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, "publish reward", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityReward, "published", reward.ID, reward))
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reward, err := h.svc.ToggleReward(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, "toggle reward", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityReward, "status_changed", reward.ID, reward))
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteReward(r.Context(), actorFrom(r), id); err != nil {
		h.fail(w, r, "delete reward", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityReward, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
