package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazukitoyoda1215-max/Supporton/internal/console"
)

// NewRouter creates a chi router with all API routes mounted.
// POST /login is public; everything else passes svc.Authorize.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *console.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(svc.Authorize))

		r.Post("/logout", h.Logout)

		// Settings and sync.
		r.Get("/config", h.GetConfig)
		r.Put("/config", h.PutConfig)
		r.Post("/sync", h.Sync)

		// Flow tree.
		r.Get("/flow", h.Flow)
		r.Get("/flow/node", h.FlowNode)
		r.Get("/flow/search", h.SearchFlow)
		r.Get("/flow/export", h.ExportFlow)
		r.Post("/flow/children", h.AddChild)
		r.Put("/flow/content", h.SaveContent)
		r.Delete("/flow/nodes/{parentID}/children/{childID}", h.DeleteChild)

		// Phone directory.
		r.Get("/phones", h.Phones)
		r.Post("/phones", h.AddPhone)
		r.Get("/phones/export", h.ExportPhones)
		r.Delete("/phones/{id}", h.DeletePhone)

		// Materials.
		r.Get("/materials", h.Materials)
		r.Post("/materials/text", h.MaterialText)

		r.Get("/snapshots", h.Snapshots)

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
