// Package server wires stores, the loyalty service, handlers and background
// managers together and builds the HTTP router.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dukerupert/mileswise/internal/archive"
	"github.com/dukerupert/mileswise/internal/backend"
	"github.com/dukerupert/mileswise/internal/config"
	"github.com/dukerupert/mileswise/internal/handler"
	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/middleware"
	"github.com/dukerupert/mileswise/internal/store"
	ws "github.com/dukerupert/mileswise/internal/websocket"
)

type Server struct {
	db  *sql.DB
	cfg *config.Config
	hub *ws.Hub
	svc *loyalty.Service

	authH      *handler.AuthHandler
	memberH    *handler.MemberHandler
	tierH      *handler.TierHandler
	rewardH    *handler.RewardHandler
	claimH     *handler.ClaimHandler
	manualH    *handler.ManualEntryHandler
	historyH   *handler.HistoryHandler
	dashboardH *handler.DashboardHandler

	adminStore     *store.AdminStore
	sessionStore   *store.SessionStore
	rateLimiter    *middleware.RateLimiter
	archiveManager *archive.Manager
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	adminStore := store.NewAdminStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)

	// A nil *backend.Client must not end up inside the interface.
	var remote loyalty.FlightSource
	if c := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.URL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
	}); c != nil {
		remote = c
	}
	flights := loyalty.NewFlightResolver(store.NewFlightStore(db), remote, logger.With("component", "flights"))
	svc := loyalty.NewService(db, flights, logger.With("component", "loyalty"))

	archiveMgr := archive.NewManager(archive.Config{
		Endpoint:      cfg.Archive.Endpoint,
		Bucket:        cfg.Archive.Bucket,
		Region:        cfg.Archive.Region,
		AccessKey:     cfg.Archive.AccessKey,
		SecretKey:     cfg.Archive.SecretKey,
		RetentionDays: cfg.Archive.RetentionDays,
	}, store.NewHistoryStore(db), store.NewArchiveStore(db), logger.With("component", "archive"))

	return &Server{
		db:             db,
		cfg:            cfg,
		hub:            hub,
		svc:            svc,
		authH:          handler.NewAuthHandler(adminStore, sessionStore, logger.With("component", "auth")),
		memberH:        handler.NewMemberHandler(svc, hub, logger.With("component", "member")),
		tierH:          handler.NewTierHandler(svc, hub, logger.With("component", "tier")),
		rewardH:        handler.NewRewardHandler(svc, hub, logger.With("component", "reward")),
		claimH:         handler.NewClaimHandler(svc, hub, logger.With("component", "claim")),
		manualH:        handler.NewManualEntryHandler(svc, hub, logger.With("component", "manual_entry")),
		historyH:       handler.NewHistoryHandler(svc, archiveMgr, hub, logger.With("component", "history")),
		dashboardH:     handler.NewDashboardHandler(svc, db, logger.With("component", "dashboard")),
		adminStore:     adminStore,
		sessionStore:   sessionStore,
		rateLimiter:    middleware.NewRateLimiter(cfg.Login.RateLimit, cfg.Login.RateWindow),
		archiveManager: archiveMgr,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// ArchiveManager returns the history archive manager.
func (s *Server) ArchiveManager() *archive.Manager {
	return s.archiveManager
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.dashboardH.Health)
	outerMux.Handle("POST /api/auth/admin/login", middleware.RateLimit(s.rateLimiter, middleware.RealIP)(http.HandlerFunc(s.authH.Login)))

	requireAuth := middleware.RequireAuth(s.sessionStore, s.adminStore)
	outerMux.Handle("GET /ws", middleware.TokenFromQuery(requireAuth(ws.HandleWebSocket(s.hub, s.cfg.WSOrigins))))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/api/", requireAuth(protectedMux))

	logged := middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
	return middleware.RequestID(logged)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	mux.HandleFunc("GET /api/dashboard/stats", s.dashboardH.Stats)

	// Claim requests
	mux.HandleFunc("GET /api/claims", s.claimH.List)
	mux.HandleFunc("POST /api/claims", s.claimH.Create)
	mux.HandleFunc("GET /api/claims/{id}", s.claimH.Get)
	mux.HandleFunc("POST /api/claims/{id}/review", s.claimH.Review)
	mux.HandleFunc("POST /api/claims/{id}/approve", s.claimH.Approve)
	mux.HandleFunc("POST /api/claims/{id}/reject", s.claimH.Reject)

	// Members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)
	mux.HandleFunc("PATCH /api/members/{id}/status", s.memberH.SetStatus)
	mux.HandleFunc("POST /api/members/{id}/miles", s.memberH.SetMiles)
	mux.HandleFunc("POST /api/members/{id}/evaluate", s.memberH.Evaluate)
	mux.HandleFunc("GET /api/members/{id}/rewards", s.memberH.Rewards)

	// Manual mileage entry
	mux.HandleFunc("GET /api/flights/{number}", s.manualH.Flight)
	mux.HandleFunc("POST /api/manual-entries", s.manualH.Create)

	// Tiers
	mux.HandleFunc("GET /api/tiers", s.tierH.List)
	mux.HandleFunc("POST /api/tiers", s.tierH.Create)
	mux.HandleFunc("PUT /api/tiers/{id}", s.tierH.Update)
	mux.HandleFunc("DELETE /api/tiers/{id}", s.tierH.Delete)
	mux.HandleFunc("POST /api/tiers/{id}/toggle", s.tierH.Toggle)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("GET /api/rewards/{id}", s.rewardH.Get)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/publish", s.rewardH.Publish)
	mux.HandleFunc("POST /api/rewards/{id}/toggle", s.rewardH.Toggle)

	// Audit history and encrypted archives
	mux.HandleFunc("GET /api/history", s.historyH.List)
	mux.HandleFunc("GET /api/history/archives", s.historyH.ListArchives)
	mux.HandleFunc("POST /api/history/archives", s.historyH.CreateArchive)
	mux.HandleFunc("GET /api/history/archives/{id}", s.historyH.GetArchive)
}
