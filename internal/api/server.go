// Package api is the REST surface consumed by the web dashboard. Every
// response uses the {success, data, error} envelope; errors map to 400 for
// validation, 401/403 for auth, 404 for missing records and 500 otherwise.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/digamber-in/digamber-bot/internal/billing"
	"github.com/digamber-in/digamber-bot/internal/delivery"
	"github.com/digamber-in/digamber-bot/internal/metrics"
	"github.com/digamber-in/digamber-bot/internal/store"
)

// BillingGateway is the slice of the Stripe client the API needs.
type BillingGateway interface {
	CreateCheckoutSession(ctx context.Context, p billing.CheckoutParams) (*billing.CheckoutSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// AdminChecker answers whether a Discord user administers a guild. Implemented
// by the bot's role service.
type AdminChecker interface {
	IsAdmin(ctx context.Context, guildID, userID string) (bool, error)
}

// Config wires a Server.
type Config struct {
	Premium    *store.PremiumStore
	Templates  *store.TemplateStore
	Configs    *store.GuildConfigStore
	Audit      *store.AuditStore
	Engine     *delivery.Engine
	Billing    BillingGateway
	Webhook    http.Handler
	Admin      AdminChecker
	Metrics    *metrics.Metrics
	JWTSecret  string
	GuildCount func() int
	Logger     zerolog.Logger
}

// Server is the dashboard REST API.
type Server struct {
	router     chi.Router
	premium    *store.PremiumStore
	templates  *store.TemplateStore
	configs    *store.GuildConfigStore
	audit      *store.AuditStore
	engine     *delivery.Engine
	billing    BillingGateway
	admin      AdminChecker
	metrics    *metrics.Metrics
	jwtSecret  []byte
	guildCount func() int
	log        zerolog.Logger
	validator  *validator.Validate
	startedAt  time.Time
}

// NewServer builds the router.
func NewServer(cfg Config) *Server {
	s := &Server{
		premium:    cfg.Premium,
		templates:  cfg.Templates,
		configs:    cfg.Configs,
		audit:      cfg.Audit,
		engine:     cfg.Engine,
		billing:    cfg.Billing,
		admin:      cfg.Admin,
		metrics:    cfg.Metrics,
		jwtSecret:  []byte(cfg.JWTSecret),
		guildCount: cfg.GuildCount,
		log:        cfg.Logger.With().Str("component", "api").Logger(),
		validator:  validator.New(),
		startedAt:  time.Now().UTC(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	authLimiter := newIPLimiter(rate.Every(time.Minute/30), 10)

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter.middleware).Post("/generate-token", s.handleGenerateToken)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/verify-token", s.handleVerifyToken)
			r.Get("/bot-info", s.handleBotInfo)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/user/premium", s.handleUserPremium)
		r.Post("/checkout-session", s.handleCheckoutSession)
		r.Post("/subscription/{subscriptionId}/cancel", s.handleCancelSubscription)
		r.Post("/admin/override", s.handleOverride)

		r.Route("/guild/{guildId}", func(r chi.Router) {
			r.Get("/premium", s.handleGuildPremium)
			r.Get("/config", s.handleGetConfig)
			r.Put("/config", s.handleUpdateConfig)
			r.Get("/audit", s.handleAuditLog)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", s.handleListTemplates)
				r.Post("/", s.handleCreateTemplate)
				r.Route("/{templateId}", func(r chi.Router) {
					r.Get("/", s.handleGetTemplate)
					r.Put("/", s.handleUpdateTemplate)
					r.Delete("/", s.handleDeleteTemplate)
					r.Post("/send", s.handleSendTemplate)
					r.Post("/schedule", s.handleScheduleTemplate)
				})
			})
		})
	})

	if cfg.Webhook != nil {
		r.Method(http.MethodPost, "/webhooks/stripe", cfg.Webhook)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router = r
	return s
}

// ServeHTTP makes the server a plain http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// countRequests records per-route request counters once routing has resolved
// the pattern.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		statusClass := strconv.Itoa(ww.Status()/100) + "xx"
		s.metrics.APIRequests.WithLabelValues(route, statusClass).Inc()
	})
}
