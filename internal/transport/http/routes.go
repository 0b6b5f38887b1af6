package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// after RequestID
	r.Use(RequestLogger)

	r.Get("/health", h.Health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Post("/query", h.Query)

	r.Group(func(r chi.Router) {
		r.Use(RequireSender)
		r.Post("/instantiate", h.Instantiate)
		r.Post("/execute", h.Execute)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.ListJobs)
		r.Get("/{id}", h.GetJob)
		r.Get("/{id}/proposals", h.GetProposals)

		r.Group(func(r chi.Router) {
			r.Use(RequireSender)
			r.Post("/", h.CreateJob)
			r.Post("/{id}/proposals", h.SubmitProposal)
			r.Post("/{id}/accept", h.AcceptProposal)
			r.Post("/{id}/complete", h.CompleteJob)
		})
	})

	r.Route("/commands", func(r chi.Router) {
		r.With(RequireSender).Post("/", h.SubmitCommand)
		r.Get("/{id}", h.GetCommand)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
