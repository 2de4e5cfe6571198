package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/webmark/webmark/internal/httpserver/deps"
	"github.com/webmark/webmark/internal/httpserver/handlers"
	"github.com/webmark/webmark/internal/httpserver/mw"
)

func init() { Register(registerSync) }

func registerSync(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/ws", handlers.Sync(d))
}
