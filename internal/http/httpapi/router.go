package httpapi

import (
	"net/http"
	"time"

	"bannerserver/internal/http/handlers"
	"bannerserver/internal/infra"
	"bannerserver/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, lookup),
	)

	// Pages
	r.Get("/", app.Index)
	r.Get("/advanced-editor", app.AdvancedEditor)

	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		}
		r.Post("/generate_banner", app.GenerateBanner)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", app.Templates)
			r.Get("/{id}", app.Template)
		})
	})

	return r
}
