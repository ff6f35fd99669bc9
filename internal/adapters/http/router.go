package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

// Handler is the HTTP adapter entrypoint for moderation use-cases.
// Keeping only application-level dependencies here preserves clean adapter boundaries.
type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
	metrics  http.Handler
}

// NewHandler constructs an HTTP handler bound to the application service.
// metrics is the prometheus exposition handler; nil disables the endpoint.
func NewHandler(service *application.Service, verifier ports.TokenVerifier, metrics http.Handler) *Handler {
	return &Handler{service: service, verifier: verifier, metrics: metrics}
}

// NewRouter registers moderation HTTP routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	if handler.metrics != nil {
		r.Method(http.MethodGet, "/metrics", handler.metrics)
	}
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})
	r.Get("/swagger/", handler.swaggerUI)
	r.Get("/swagger/openapi.yaml", handler.swaggerSpec)

	r.Route("/moderation/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)
		r.Post("/evaluate", handler.evaluate)
		r.Get("/reputation/{user_id}", handler.getReputation)
		r.Post("/reports", handler.reportUser)
		r.Get("/queue", handler.moderationQueue)
		r.Get("/restrictions/{user_id}", handler.getRestriction)
	})

	return r
}
