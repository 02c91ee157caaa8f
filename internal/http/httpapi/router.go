package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"enhancer/internal/http/handlers"
	"enhancer/internal/middleware"
)

// NewRouter assembles the caller-facing surface of the engine. The request
// deadline is the outer bound every pipeline stage races against; the
// pipeline's retry budget must fit inside it.
func NewRouter(app *handlers.App, logger zerolog.Logger, rateLimitPerMin int, requestDeadline time.Duration) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	if requestDeadline > 0 {
		r.Use(chimw.Timeout(requestDeadline))
	}
	if rateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(rateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/enhancements", func(r chi.Router) {
		r.Post("/", app.EnhancementsCreate)
		r.Get("/{asset_id}", app.EnhancementStatus)
		r.Post("/{asset_id}/retry", app.EnhancementResubmit)
	})

	r.Get("/v1/credits", app.Credits)

	return r
}
