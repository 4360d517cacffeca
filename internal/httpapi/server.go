// Package httpapi exposes the mock OAuth provider over HTTP: the two flow
// variants, the admin/config API, the SSE event stream for the dashboard,
// and Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"devauth-go/internal/config"
	"devauth-go/internal/flow"
	"devauth-go/internal/registry"
	"devauth-go/internal/simulation"
)

// Server provides HTTP endpoints with a chi router.
type Server struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	router    *chi.Mux
	providers *registry.Registry
	modes     *simulation.Registry
	bearer    *flow.Orchestrator
	session   *flow.Orchestrator
	bus       *flow.Bus
	metrics   *Metrics
}

// NewServer wires the HTTP layer over the two flow orchestrators.
func NewServer(
	cfg *config.Config,
	logger *zap.SugaredLogger,
	providers *registry.Registry,
	modes *simulation.Registry,
	bearer, session *flow.Orchestrator,
	bus *flow.Bus,
) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    chi.NewRouter(),
		providers: providers,
		modes:     modes,
		bearer:    bearer,
		session:   session,
		bus:       bus,
		metrics:   NewMetrics(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler for an http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLoggerMiddleware(s.logger))
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.metrics.Middleware)

	s.router.Get("/", s.handleInfo)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	s.router.Get("/events", s.handleEvents)

	s.router.Route("/auth", func(r chi.Router) {
		s.mountFlow(r, s.bearer, "/auth")
	})
	s.router.Route("/auth-cookie", func(r chi.Router) {
		s.mountFlow(r, s.session, "/auth-cookie")
	})
	s.router.Route("/config", s.mountAdmin)
}

// mountFlow registers the four flow endpoints for one issuance variant.
func (s *Server) mountFlow(r chi.Router, o *flow.Orchestrator, prefix string) {
	r.Get("/{provider}/authorize", s.handleAuthorize(o, prefix))
	r.Post("/{provider}/consent", s.handleConsent(o))
	r.Post("/{provider}/token", s.handleToken(o))
	r.Get("/{provider}/userinfo", s.handleUserinfo(o))
}

// handleInfo answers the health/info query at the root.
func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "DevAuth Mock OAuth Server",
		"status":  "running",
		"endpoints": map[string]string{
			"authorize": "/auth/{provider}/authorize",
			"token":     "/auth/{provider}/token",
			"userinfo":  "/auth/{provider}/userinfo",
			"config":    "/config/providers",
			"events":    "/events",
		},
	})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// oauthError is the JSON error body used by the token and userinfo
// endpoints.
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, oauthError{Error: code, ErrorDescription: description})
}
