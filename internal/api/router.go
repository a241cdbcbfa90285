// Package api provides the HTTP API for Wayfarer.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/admission"
	"github.com/wayfarer/wayfarer/internal/api/handler"
	"github.com/wayfarer/wayfarer/internal/api/middleware"
	"github.com/wayfarer/wayfarer/internal/auth"
	"github.com/wayfarer/wayfarer/internal/featureflags"
	"github.com/wayfarer/wayfarer/internal/itinerary"
	"github.com/wayfarer/wayfarer/internal/openinghours"
	"github.com/wayfarer/wayfarer/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	// Verifier checks admin bearer tokens.
	Verifier middleware.TokenVerifier

	ItineraryService    *itinerary.Service
	OpeningHoursService *openinghours.Service
	AdmissionService    *admission.Service
	FeatureFlagService  *featureflags.Service

	// Sources and Checks feed the ops endpoints.
	Sources *resilience.Registry
	Checks  []handler.DependencyCheck

	CORSOrigins []string
	RequireTLS  bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Checks:    cfg.Checks,
		Sources:   cfg.Sources,
		Flags:     cfg.FeatureFlagService,
	})
	itineraryHandler := handler.NewItineraryHandler(cfg.ItineraryService, cfg.Logger)
	openingHoursHandler := handler.NewOpeningHoursHandler(cfg.OpeningHoursService, cfg.Logger)
	admissionHandler := handler.NewAdmissionHandler(cfg.AdmissionService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Verifier)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints; status exposes source errors so it needs an editor
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware, middleware.RequireRole(auth.RoleEditor)).Get("/status", opsHandler.SystemStatus)
		})

		// Admin endpoints (authenticated) - per-editor rate limiting
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireRole(auth.RoleEditor))
			r.Use(middleware.RateLimitByEditor(middleware.AdminRateLimit))
			r.Use(middleware.RequireJSON)

			r.Put("/sights/{sightId}/opening-hours", openingHoursHandler.ReplaceOpeningHours)
			r.Put("/sights/{sightId}/admission", admissionHandler.ReplaceAdmission)
			r.Get("/{collection}/{itineraryId}/edit", itineraryHandler.GetEditable)
			r.Put("/{collection}/{itineraryId}/items", itineraryHandler.SaveItems)

			r.Route("/feature-flags", func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpdateFeatureFlags)
			})
		})

		// Public content endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.CORS(cfg.CORSOrigins))
			r.Use(middleware.RateLimitByIP(middleware.PublicRateLimit))

			r.Get("/sights/{sightId}/opening-hours", openingHoursHandler.GetOpeningHours)
			r.Get("/sights/{sightId}/admission", admissionHandler.GetAdmission)
			r.Get("/{collection}/{itineraryId}/flow", itineraryHandler.GetFlow)
		})
	})

	return r
}
