// @title Shopfloor API
// @version 1.0.0
// @description Multi-tenant shop management
// @BasePath /api/v1

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name shopfloor_session

package http

import (
	"context"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/identity"
	"github.com/shopfloor/shopfloor/internal/organization"
	"github.com/shopfloor/shopfloor/internal/quote"
	"github.com/shopfloor/shopfloor/internal/session"
	"github.com/shopfloor/shopfloor/internal/team"
	"github.com/shopfloor/shopfloor/internal/vehicle"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	gate                *access.Gate
	identityService     *identity.Service
	sessionService      *session.Service
	organizationService *organization.Service
	teamService         *team.Service
	vehicleService      *vehicle.Service
	quoteService        *quote.Service
	auditLogger         audit.Logger
	health              HealthChecker
	sessionConfig       SessionConfig
	activeOrgConfig     ActiveOrgConfig
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
	Lifetime       time.Duration
}

// ActiveOrgConfig holds the active-organization cookie configuration. The
// cookie shares path, domain and security flags with the session cookie.
type ActiveOrgConfig struct {
	CookieName string
	Lifetime   time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(
	gate *access.Gate,
	identityService *identity.Service,
	sessionService *session.Service,
	organizationService *organization.Service,
	teamService *team.Service,
	vehicleService *vehicle.Service,
	quoteService *quote.Service,
	auditLogger audit.Logger,
	health HealthChecker,
	sessionConfig SessionConfig,
	activeOrgConfig ActiveOrgConfig,
) *Handler {
	return &Handler{
		gate:                gate,
		identityService:     identityService,
		sessionService:      sessionService,
		organizationService: organizationService,
		teamService:         teamService,
		vehicleService:      vehicleService,
		quoteService:        quoteService,
		auditLogger:         auditLogger,
		health:              health,
		sessionConfig:       sessionConfig,
		activeOrgConfig:     activeOrgConfig,
	}
}

// NewRouter creates a new HTTP router. ui, when set, is served as a single
// page application for every path outside the API.
func NewRouter(h *Handler, rateLimiter *RateLimiter, ui fs.FS) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		// Share links are public and never build a scope.
		r.Get("/public/quotes/{token}", h.GetSharedQuote)

		r.Group(func(r chi.Router) {
			r.Use(h.CSRFMiddleware)
			r.Use(h.ScopeMiddleware)
			r.Use(h.SessionActivityMiddleware)

			r.Post("/auth/login", h.Login)
			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.GetCurrentUser)
			r.Post("/auth/change-password", h.ChangePassword)

			r.Get("/organizations", h.ListMyOrganizations)
			r.Post("/organizations/switch", h.SwitchOrganization)

			r.Route("/platform/organizations", func(r chi.Router) {
				r.Get("/", h.ListAllOrganizations)
				r.Post("/", h.CreateOrganization)
			})

			r.Route("/members", func(r chi.Router) {
				r.Get("/", h.ListMembers)
				r.Post("/", h.AddMember)
				r.Put("/{userID}", h.ChangeMemberRole)
				r.Delete("/{userID}", h.RemoveMember)
			})

			r.Route("/roles", func(r chi.Router) {
				r.Get("/", h.ListRoles)
				r.Post("/", h.CreateRole)
				r.Put("/{roleID}", h.UpdateRole)
				r.Delete("/{roleID}", h.DeleteRole)
			})

			r.Route("/vehicles", func(r chi.Router) {
				r.Get("/", h.ListVehicles)
				r.Post("/", h.CreateVehicle)
				r.Get("/{vehicleID}", h.GetVehicle)
				r.Put("/{vehicleID}", h.UpdateVehicle)
				r.Delete("/{vehicleID}", h.DeleteVehicle)
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", h.ListQuotes)
				r.Post("/", h.CreateQuote)
				r.Post("/{quoteID}/share", h.ShareQuote)
			})
		})
	})

	if ui != nil {
		r.Handle("/*", SPAHandler{StaticFS: ui})
	}

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "shopfloor",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "shopfloor",
	})
}

// Cookie helpers

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   h.sessionConfig.CookiePath,
		Domain: h.sessionConfig.CookieDomain,
		MaxAge: -1,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func getIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
