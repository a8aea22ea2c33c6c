package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/mileswise/internal/auth"
	"github.com/dukerupert/mileswise/internal/model"
	"github.com/dukerupert/mileswise/internal/store"
)

type AuthHandler struct {
	adminStore   *store.AdminStore
	sessionStore *store.SessionStore
	logger       *slog.Logger
}

func NewAuthHandler(as *store.AdminStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{adminStore: as, sessionStore: ss, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string       `json:"token"`
	Message string       `json:"message"`
	Admin   *model.Admin `json:"admin"`
}

// Login exchanges admin credentials for a bearer session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	admin, err := h.adminStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Same response for unknown email and wrong password to prevent enumeration.
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		h.logger.Warn("login failed", "email", req.Email, "request_id", auth.RequestID(r.Context()))
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := h.sessionStore.Create(admin.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("admin logged in", "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, Message: "Login successful", Admin: admin})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.sessionStore.Delete(ac.SessionID); err != nil {
		h.logger.Error("delete session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the authenticated admin.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin, err := h.adminStore.GetByID(auth.AdminID(r.Context()))
	if err != nil || admin == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

// HashPassword bcrypt-hashes an admin password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
