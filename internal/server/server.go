package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/invibe/internal/auth"
	"github.com/dukerupert/invibe/internal/background"
	"github.com/dukerupert/invibe/internal/draft"
	"github.com/dukerupert/invibe/internal/flow"
	"github.com/dukerupert/invibe/internal/handler"
	"github.com/dukerupert/invibe/internal/middleware"
	"github.com/dukerupert/invibe/internal/preview"
	"github.com/dukerupert/invibe/internal/store"
	ws "github.com/dukerupert/invibe/internal/websocket"
)

// Options carries what the server needs beyond the database.
type Options struct {
	Catalog   *background.Catalog
	Generator background.Generator
	// Images may be nil; uploads are then kept inline.
	Images        background.ImageStore
	Authenticator handler.Authenticator
	Signer        *auth.Signer
	// PublicURL prefixes invitation links; empty uses the request host.
	PublicURL string
	// Forecaster may be nil; previews then show placeholder weather.
	Forecaster        preview.Forecaster
	MaxUploadBytes    int64
	GenerationTimeout time.Duration
	SessionTTL        time.Duration
	SecureCookies     bool
	LoginRateLimit    int
	GenerateRateLimit int
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	flows          *flow.Manager
	sessionStorage *store.SessionStorage
	sessionConfig  middleware.SessionConfig
	rateLimiter    *middleware.RateLimiter
	signer         *auth.Signer
	opts           Options

	authH       *handler.AuthHandler
	draftH      *handler.DraftHandler
	backgroundH *handler.BackgroundHandler
	eventH      *handler.EventHandler

	logger *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	if opts.LoginRateLimit == 0 {
		opts.LoginRateLimit = 10
	}
	if opts.GenerateRateLimit == 0 {
		opts.GenerateRateLimit = 20
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = background.DefaultMaxUploadBytes
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	sessionStorage := store.NewSessionStorage(db)
	eventStore := store.NewEventStore(db)

	drafts := draft.NewStore(sessionStorage, logger.With("component", "draft_store"))
	resolver := background.NewResolver(opts.Catalog, opts.Images, opts.Generator, background.Config{
		MaxUploadBytes:    opts.MaxUploadBytes,
		GenerationTimeout: opts.GenerationTimeout,
	})
	reconciler := preview.NewReconciler(opts.Catalog, opts.Catalog.Default)
	if opts.Forecaster != nil {
		reconciler.WithForecaster(opts.Forecaster, logger.With("component", "weather"))
	}

	flows := flow.NewManager(flow.Deps{
		Drafts:     drafts,
		Resolver:   resolver,
		Reconciler: reconciler,
		Creator:    eventStore,
		Notifier:   hub,
		Logger:     logger,
	})

	sessionConfig := middleware.SessionConfig{
		TTL:    opts.SessionTTL,
		Secure: opts.SecureCookies,
	}
	rotator := &sessionRotator{
		storage: sessionStorage,
		flows:   flows,
		hub:     hub,
		cookie:  sessionConfig,
		logger:  logger.With("component", "session"),
	}

	return &Server{
		db:             db,
		hub:            hub,
		flows:          flows,
		sessionStorage: sessionStorage,
		sessionConfig:  sessionConfig,
		rateLimiter:    middleware.NewRateLimiter(),
		signer:         opts.Signer,
		opts:           opts,
		authH:          handler.NewAuthHandler(opts.Authenticator, sessionStorage, rotator, opts.Signer, logger),
		draftH:         handler.NewDraftHandler(flows, opts.Catalog, opts.MaxUploadBytes, logger),
		backgroundH:    handler.NewBackgroundHandler(opts.Catalog),
		eventH:         handler.NewEventHandler(eventStore, reconciler, opts.PublicURL, logger),
		logger:         logger,
	}
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Flows returns the per-session flow controllers.
func (s *Server) Flows() *flow.Manager {
	return s.flows
}

// SessionStorage returns the session key/value store for cleanup tasks.
func (s *Server) SessionStorage() *store.SessionStorage {
	return s.sessionStorage
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Close stops in-flight background generations.
func (s *Server) Close() {
	s.flows.Close()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Everything below runs inside a session.
	sessionMux := http.NewServeMux()
	s.registerSessionRoutes(sessionMux)

	session := middleware.Session(s.sessionStorage, s.signer, s.sessionConfig, s.logger.With("component", "session"))
	mux.Handle("/", session(sessionMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimited(key func(*http.Request) string, limit int, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, key, limit, time.Minute)(h)
}

func signedIn(h http.HandlerFunc) http.Handler {
	return middleware.RequireUser(h)
}

func (s *Server) registerSessionRoutes(mux *http.ServeMux) {
	// Auth
	mux.Handle("POST /api/auth/login", s.rateLimited(middleware.ByIP("login"), s.opts.LoginRateLimit, s.authH.Login))
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Background catalog
	mux.HandleFunc("GET /api/backgrounds", s.backgroundH.Catalog)

	// Draft authoring
	mux.HandleFunc("GET /api/draft", s.draftH.Get)
	mux.HandleFunc("PATCH /api/draft", s.draftH.SetField)
	mux.HandleFunc("POST /api/draft/background/template", s.draftH.SelectTemplate)
	mux.HandleFunc("POST /api/draft/background/upload", s.draftH.Upload)
	mux.Handle("POST /api/draft/background/generate", s.rateLimited(middleware.BySession("generate"), s.opts.GenerateRateLimit, s.draftH.Generate))
	mux.HandleFunc("GET /api/draft/background/generation", s.draftH.Generation)
	mux.HandleFunc("GET /api/draft/preview", s.draftH.Render)
	mux.HandleFunc("POST /api/draft/preview", s.draftH.Preview)
	mux.HandleFunc("POST /api/draft/edit", s.draftH.BackToEdit)
	mux.Handle("POST /api/draft/save", signedIn(s.draftH.Save))
	mux.HandleFunc("POST /api/draft/cancel", s.draftH.Cancel)

	// Events
	mux.Handle("GET /api/events", signedIn(s.eventH.List))
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("GET /api/events/{id}/preview", s.eventH.Preview)
	mux.HandleFunc("GET /api/events/{id}/guests", s.eventH.Guests)
	mux.HandleFunc("GET /api/events/{id}/invite", s.eventH.Invite)

	// Session notifications
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
