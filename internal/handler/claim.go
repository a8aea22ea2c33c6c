package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
	"github.com/dukerupert/mileswise/internal/websocket"
)

type ClaimHandler struct {
	base
	svc *loyalty.Service
}

func NewClaimHandler(svc *loyalty.Service, hub *websocket.Hub, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	claims, err := h.svc.ListClaims(store.ClaimFilter{
		Status: model.ClaimStatus(q.Get("status")),
		Query:  q.Get("q"),
	})
	if err != nil {
		h.fail(w, r, "list claims", err)
		return
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetClaim(id)
	if err != nil {
		h.fail(w, r, "get claim", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// claimRequest is what a caller may set on a new claim. The claim number,
// status and review fields are always assigned by the server.
type claimRequest struct {
	MemberName    string               `json:"member_name"`
	MemberEmail   string               `json:"member_email"`
	Reason        string               `json:"reason"`
	FlightInfo    string               `json:"flight_info"`
	Miles         int                  `json:"miles"`
	FlightDetails *model.FlightDetails `json:"flight_details"`
}

// Create files a claim on behalf of a member. The status always starts pending.
func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.svc.CreateClaim(r.Context(), &model.Claim{
		MemberName:    req.MemberName,
		MemberEmail:   req.MemberEmail,
		Reason:        req.Reason,
		FlightInfo:    req.FlightInfo,
		Miles:         req.Miles,
		FlightDetails: req.FlightDetails,
	})
	if err != nil {
		h.fail(w, r, "create claim", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityClaim, "created", created.ID, created))
	writeJSON(w, http.StatusCreated, created)
}

func (h *ClaimHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.MarkReviewing(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, "review claim", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityClaim, "reviewing", c.ID, c))
	writeJSON(w, http.StatusOK, c)
}

func (h *ClaimHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ApproveClaim(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, "approve claim", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityClaim, "approved", res.Claim.ID, res.Claim))
	h.broadcastTierChange(r, res.Member, res.TierChange)
	writeJSON(w, http.StatusOK, res)
}

type rejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

func (h *ClaimHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	c, err := h.svc.RejectClaim(r.Context(), actorFrom(r), id, strings.TrimSpace(req.RejectionReason))
	if err != nil {
		h.fail(w, r, "reject claim", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityClaim, "rejected", c.ID, c))
	writeJSON(w, http.StatusOK, c)
}
