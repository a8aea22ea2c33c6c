package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/mileswise/internal/archive"
	"github.com/dukerupert/mileswise/internal/auth"
	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/tier"
	"github.com/dukerupert/mileswise/internal/websocket"
)

const maxBodyBytes = 1 << 20

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for bodies that may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// pathID parses the {id} path value, writing a 400 when it is not a number.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// actorFrom names the authenticated admin for the audit trail.
func actorFrom(r *http.Request) loyalty.Actor {
	name := auth.AdminName(r.Context())
	if name == "" {
		name = "Admin User"
	}
	return loyalty.Actor{Name: name, RequestID: auth.RequestID(r.Context())}
}

var (
	badRequest = []error{
		loyalty.ErrInvalidMiles, loyalty.ErrRejectionReasonRequired,
		tier.ErrDuplicateThreshold, tier.ErrNegativeThreshold, tier.ErrNameRequired,
		archive.ErrPassphraseTooShort, archive.ErrBadPassphrase,
	}
	notFound = []error{loyalty.ErrNotFound, loyalty.ErrFlightNotFound, archive.ErrNotFound}
	conflict = []error{loyalty.ErrClaimClosed, loyalty.ErrTierInUse, loyalty.ErrEmailTaken, archive.ErrInProgress}
)

// errorStatus maps service errors onto HTTP statuses. Anything unrecognized
// is a 500 and its message is not shown to the client.
func errorStatus(err error) (int, string) {
	var verr *loyalty.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}
	for _, group := range []struct {
		status    int
		sentinels []error
	}{
		{http.StatusBadRequest, badRequest},
		{http.StatusNotFound, notFound},
		{http.StatusConflict, conflict},
		{http.StatusServiceUnavailable, []error{archive.ErrDisabled}},
	} {
		for _, sentinel := range group.sentinels {
			if errors.Is(err, sentinel) {
				return group.status, clientMessage(err, sentinel)
			}
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// clientMessage drops the "verb noun:" context added on the way up and keeps
// the sentinel text plus any detail appended to it.
func clientMessage(err, sentinel error) string {
	prefix := sentinel.Error()
	for e := err; e != nil; e = errors.Unwrap(e) {
		if strings.HasPrefix(e.Error(), prefix) {
			return e.Error()
		}
	}
	return prefix
}

// base carries what every handler needs: the logger for 500s and the hub
// for change events.
type base struct {
	hub    *websocket.Hub
	logger *slog.Logger
}

func (b base) broadcast(r *http.Request, ev websocket.Event) {
	if b.hub == nil {
		return
	}
	ev.RequestID = auth.RequestID(r.Context())
	b.hub.Broadcast(ev)
}

// fail writes the mapped error response, logging unexpected failures.
func (b base) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	if status >= 500 {
		b.logger.Error(op, "error", err, "request_id", auth.RequestID(r.Context()))
	}
	writeError(w, status, msg)
}
