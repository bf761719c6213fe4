package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/av-estimator/engine/internal/api/handlers"
	mw "github.com/av-estimator/engine/internal/api/middleware"
)

type Dependencies struct {
	HMACSecret []byte
	Limiter    *mw.Limiter
	Health     *handlers.HealthHandler

	AuthHandler      *handlers.AuthHandler
	CatalogHandler   *handlers.CatalogHandler
	ProjectsHandler  *handlers.ProjectsHandler
	EstimatesHandler *handlers.EstimatesHandler
	PackagesHandler  *handlers.PackagesHandler
	SyncHandler      *handlers.SyncHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS())
	if dep.Limiter != nil {
		r.Use(mw.RateLimit(dep.Limiter))
	}
	r.Use(chimid.Compress(5))

	hh := dep.Health
	if hh == nil {
		hh = handlers.NewHealthHandler()
	}
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.AuthHandler.Register)
			ar.Post("/login", dep.AuthHandler.Login)
			ar.Post("/logout", dep.AuthHandler.Logout)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))

			protected.Route("/catalog", func(cr chi.Router) {
				cr.Get("/", dep.CatalogHandler.Search)
				cr.Post("/", dep.CatalogHandler.Create)
				cr.Get("/{itemID}", dep.CatalogHandler.Get)
				cr.Put("/{itemID}", dep.CatalogHandler.Update)
				cr.Delete("/{itemID}", dep.CatalogHandler.Delete)
			})

			protected.Route("/projects", func(pr chi.Router) {
				pr.Get("/", dep.ProjectsHandler.List)
				pr.Post("/", dep.ProjectsHandler.Create)

				pr.Route("/{projectID}", func(p chi.Router) {
					p.Get("/", dep.ProjectsHandler.Get)
					p.Patch("/", dep.ProjectsHandler.Update)
					p.Delete("/", dep.ProjectsHandler.Delete)
					p.Post("/archive", dep.ProjectsHandler.Archive)

					p.Get("/locations", dep.ProjectsHandler.GetLocations)
					p.Put("/locations", dep.ProjectsHandler.PutLocations)
					p.Get("/locations/{locationID}/groups", dep.EstimatesHandler.Groups)
					p.Post("/items", dep.ProjectsHandler.AddItem)
					p.Post("/instances", dep.ProjectsHandler.AddInstance)
					p.Post("/selections", dep.ProjectsHandler.SaveSelection)

					p.Get("/estimate", dep.EstimatesHandler.Estimate)
					p.Get("/packages", dep.PackagesHandler.ListForProject)
				})
			})

			protected.Route("/packages", func(kr chi.Router) {
				kr.Get("/", dep.PackagesHandler.ListCatalog)
				kr.Post("/", dep.PackagesHandler.Create)

				kr.Route("/{packageID}", func(k chi.Router) {
					k.Get("/", dep.PackagesHandler.Get)
					k.Delete("/", dep.PackagesHandler.Delete)

					k.Post("/lines", dep.PackagesHandler.AddLine)
					k.Put("/lines", dep.PackagesHandler.ReplaceLines)
					k.Post("/lines/catalog", dep.PackagesHandler.AddCatalogLine)
					k.Put("/lines/{index}", dep.PackagesHandler.UpdateLine)
					k.Delete("/lines/{index}", dep.PackagesHandler.RemoveLine)

					k.Get("/usage", dep.PackagesHandler.Usage)
					k.Post("/sync", dep.SyncHandler.Sync)
					k.Get("/sync-jobs", dep.SyncHandler.Jobs)
				})
			})
		})
	})

	return r
}
