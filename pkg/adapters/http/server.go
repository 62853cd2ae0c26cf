package http

import (
	"context"
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCookie carries the browser session whose context is cached between requests.
const SessionCookie = "tabi_session"

//go:embed api/openapi.yaml
var openAPISpec []byte

//go:embed templates/*.html
var templateFS embed.FS

// Service is the workflow the handlers drive.
type Service interface {
	Plan(ctx context.Context, sessionID string, req domain.TripRequest) (*domain.State, error)
	Destinations(ctx context.Context) ([]domain.Destination, error)
	Reset(ctx context.Context, sessionID string) error
}

// healthTimeout bounds each dependency check of /health.
const healthTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server holds the handler dependencies.
type Server struct {
	svc     Service
	api     *apiValidator
	pages   *pages
	metrics http.Handler
	version string
	logger  *slog.Logger
	newID   func() string
	secure  bool
	checks  map[string]HealthCheck
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler overrides the /metrics handler (default: the global Prometheus registry).
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the build version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithSecureCookies marks the session cookie Secure, for deployments behind TLS.
func WithSecureCookies(v bool) Option {
	return func(s *Server) {
		s.secure = v
	}
}

// WithHealthCheck adds a dependency check to /health under name.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		if check == nil {
			return
		}
		if s.checks == nil {
			s.checks = make(map[string]HealthCheck)
		}
		s.checks[name] = check
	}
}

// NewHandler creates the HTTP handler serving the web form, the JSON API and the operational endpoints.
func NewHandler(svc Service, opts ...Option) (http.Handler, error) {
	api, err := newAPIValidator(openAPISpec)
	if err != nil {
		return nil, err
	}
	p, err := newPages(templateFS)
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:     svc,
		api:     api,
		pages:   p,
		metrics: promhttp.Handler(),
		version: "dev",
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	// Web form
	r.Get("/", s.GetForm)
	r.Post("/plan", s.PostPlan)
	r.Post("/new", s.PostNew)
	r.Get("/workflow", s.GetWorkflow)

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/plan", s.CreatePlan)
		r.Get("/destinations", s.ListDestinations)
		r.Delete("/sessions/{session_id}", s.ResetSession)
	})

	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", s.metrics)

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// session returns the caller's session ID, issuing a cookie for new visitors.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := s.newID()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})
	return id
}

// GetOpenAPI serves the embedded API description.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(openAPISpec)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetHealth handles the GET /health request.
// It answers 503 when any registered dependency check fails.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	for name, check := range s.checks {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(s.checks))
		}
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			s.logger.Warn("health check failed", "check", name, "err", err)
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, s.logger, status, resp)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"app":         "tabi-http",
		"version":     s.version,
		"api_version": s.api.Version(),
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, map[string]string{"error": msg})
}
