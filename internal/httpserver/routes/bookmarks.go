package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	forms := r.With(
		timeout(d),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(rateLimit(d)),
		mw.RequireSession(d.Sessions, true),
	)
	forms.Post("/bookmarks", handlers.AddBookmark(d))
	forms.Post("/bookmarks/{id}/delete", handlers.DeleteBookmark(d))

	// No timeout: the stream lives as long as the page.
	r.With(mw.RequireSession(d.Sessions, false)).Get("/bookmarks/stream", handlers.Stream(d))
}
