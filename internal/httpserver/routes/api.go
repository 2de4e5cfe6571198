package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/webmark/webmark/internal/httpserver/deps"
	"github.com/webmark/webmark/internal/httpserver/handlers"
	"github.com/webmark/webmark/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:             60,
			RefillPerIPPerMin: 120,
			MaxEntries:        4096,
			TrustProxy:        d.TrustProxy,
		}))

		api.Post("/message", handlers.Message(d))
		api.Get("/highlights", handlers.Highlights(d))
		api.Get("/export", handlers.Export(d))
		api.Post("/import", handlers.Import(d))
		api.Get("/settings", handlers.Settings(d))
		api.Put("/settings", handlers.Settings(d))
		api.Get("/stats", handlers.Stats(d))

		// Destructive surfaces sit behind the CIDR allowlist.
		admin := api.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		admin.Post("/clear", handlers.Clear(d))
		admin.Post("/backup", handlers.Backup(d))
	})
}
