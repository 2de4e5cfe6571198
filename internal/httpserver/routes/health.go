package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/webmark/webmark/internal/httpserver/deps"
	"github.com/webmark/webmark/internal/httpserver/handlers"
	"github.com/webmark/webmark/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/healthz", handlers.Healthz(d))
	restricted.Get("/readyz", handlers.Readyz(d))
	restricted.Get("/status", handlers.Status(d))
}
