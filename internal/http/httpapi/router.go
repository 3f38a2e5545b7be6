package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"promptlens/internal/http/handlers"
	"promptlens/internal/infra"
	"promptlens/internal/middleware"
)

type Options struct {
	Logger             infra.Logger
	CORSAllowedOrigins []string
	RateLimitPerMin    int
	AdminToken         string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/prompts", func(r chi.Router) {
		r.Get("/", app.ListPrompts)
		r.Get("/categories", app.PromptCategories)
		r.Get("/export", app.ExportPrompts)
		r.Post("/parse", app.ParsePrompt)
		r.Post("/compose", app.ComposePrompt)
		r.Get("/{slug}", app.GetPrompt)
	})

	r.Route("/v1/assistant", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/analyze", app.AnalyzeImage)
		r.Get("/analyses", app.ListAnalyses)
	})

	if opts.AdminToken != "" {
		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(handlers.RequireBearer(opts.AdminToken))
			r.Post("/refresh", app.RefreshGallery)
		})
	}

	return r
}
