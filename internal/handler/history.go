package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/mileswise/internal/archive"
	"github.com/dukerupert/mileswise/internal/auth"
	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
	"github.com/dukerupert/mileswise/internal/websocket"
)

const passphraseHeader = "X-Archive-Passphrase"

type HistoryHandler struct {
	base
	svc      *loyalty.Service
	archives *archive.Manager
}

func NewHistoryHandler(svc *loyalty.Service, am *archive.Manager, hub *websocket.Hub, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{base: base{hub: hub, logger: logger}, svc: svc, archives: am}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.ListHistory(store.HistoryFilter{
		Query:  r.URL.Query().Get("q"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		h.fail(w, r, "list history", err)
		return
	}
	if logs == nil {
		logs = []model.HistoryLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

type archiveList struct {
	Status   archive.Status         `json:"status"`
	Archives []model.HistoryArchive `json:"archives"`
}

func (h *HistoryHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	list, err := h.archives.List(queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, "list archives", err)
		return
	}
	if list == nil {
		list = []model.HistoryArchive{}
	}
	writeJSON(w, http.StatusOK, archiveList{Status: h.archives.Status(), Archives: list})
}

type archiveRequest struct {
	Passphrase string `json:"passphrase"`
}

// CreateArchive exports the full history encrypted with the given passphrase.
func (h *HistoryHandler) CreateArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.archives.Export(r.Context(), auth.AdminName(r.Context()), req.Passphrase)
	if err != nil {
		h.fail(w, r, "export history", err)
		return
	}
	h.broadcast(r, websocket.NewEvent(websocket.EntityArchive, "created", rec.ID, rec))
	writeJSON(w, http.StatusCreated, rec)
}

// GetArchive downloads and decrypts an archive. The passphrase travels in a
// header so it stays out of access logs.
func (h *HistoryHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	passphrase := r.Header.Get(passphraseHeader)
	if passphrase == "" {
		writeError(w, http.StatusBadRequest, passphraseHeader+" header is required")
		return
	}
	doc, err := h.archives.Fetch(r.Context(), id, passphrase)
	if err != nil {
		h.fail(w, r, "fetch archive", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
