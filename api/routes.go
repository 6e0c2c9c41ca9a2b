package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"widget-dashboard/auth"
	"widget-dashboard/live"
	"widget-dashboard/userstore"
	"widget-dashboard/widget"
)

// Option configures the router.
type Option func(*handler)

// WithLogger sets the handler logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *handler) { h.logger = l }
}

// WithLoginRate limits login attempts across all clients.
func WithLoginRate(perSecond float64, burst int) Option {
	return func(h *handler) {
		if perSecond > 0 && burst > 0 {
			h.loginLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func RegisterRoutes(store userstore.Store, tokens *auth.TokenService, hub *live.Hub, registry *widget.Registry, opts ...Option) http.Handler {
	h := &handler{
		store:        store,
		tokens:       tokens,
		hub:          hub,
		registry:     registry,
		logger:       zap.NewNop(),
		loginLimiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Accounts
	r.Post("/api/register", h.register)
	r.Post("/api/login", h.login)

	// Catalogue and metrics are public.
	r.Get("/api/widgets", h.listWidgets)
	r.Handle("/metrics", promhttp.Handler())

	// Everything scoped to a user needs a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(tokens.Middleware)
		r.Get("/api/preferences", h.getPreferences)
		r.Post("/api/preferences", h.postPreferences)
		r.Get("/api/preferences/ws", h.handleWS)
		r.Get("/api/dashboard", h.getDashboard)
		r.Post("/api/password", h.changePassword)
		r.Get("/api/filter", h.getFilter)
		r.Post("/api/filter", h.saveFilter)
	})

	return r
}

type handler struct {
	store        userstore.Store
	tokens       *auth.TokenService
	hub          *live.Hub
	registry     *widget.Registry
	logger       *zap.Logger
	loginLimiter *rate.Limiter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
