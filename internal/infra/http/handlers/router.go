package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/infra/http/middleware"
)

// Routes groups the API handlers. When Missing is non-empty every /api
// route answers 503 SETUP_REQUIRED and the handlers may be nil.
type Routes struct {
	Upload    *UploadHandler
	Leads     *LeadHandler
	Export    *ExportHandler
	Dashboard *DashboardHandler
	Health    *HealthHandler

	Logger         *zap.Logger
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	Missing        []string
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(rt.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	origins := rt.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Export-Count", "X-Tagged-Count", "X-New-Count", "X-Duplicate-Count", "X-Invalid-Count"},
	}))

	if rt.Health != nil {
		r.Get("/health", rt.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	if len(rt.Missing) > 0 {
		r.Handle("/api/*", SetupRequired(rt.Missing))
		return r
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/uploads", func(r chi.Router) {
			if rt.Limiter != nil {
				r.Use(rt.Limiter.Handler)
			}
			r.Post("/", rt.Upload.Upload)
			r.Post("/preview", rt.Upload.Preview)
			r.Post("/clean", rt.Upload.Clean)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", rt.Leads.List)
			r.Get("/browse", rt.Leads.Browse)
			r.Get("/export", rt.Export.Handle)
			r.Post("/delete", rt.Leads.BulkDelete)
			r.Post("/tag", rt.Leads.Tag)
			r.Get("/{email}", rt.Leads.Get)
			r.Delete("/{email}", rt.Leads.Delete)
			r.Put("/{email}/notes", rt.Leads.UpdateNotes)
		})

		r.Get("/campaigns", rt.Dashboard.Campaigns)
		r.Get("/stats", rt.Dashboard.StatsSummary)
		r.Get("/ingestions", rt.Dashboard.Ingestions)
		r.Get("/settings/count", rt.Dashboard.Count)
		r.Post("/settings/clear", rt.Dashboard.Clear)
	})

	return r
}
