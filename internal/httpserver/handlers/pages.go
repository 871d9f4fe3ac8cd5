package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/smartmarks/internal/auth"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/ui"
)

// Home renders the signed-in page. It expects mw.RequireSession in front.
func Home(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		alert := popFlash(w, r, d.CookieSecure)
		form := ui.FormViewOf(d.Forms.For(u.ID))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := d.Renderer.Home(w, *u, form, alert); err != nil {
			d.Logger.Error("failed to render home", logger.Error(err))
		}
	}
}

// Login renders the sign-in page, or sends signed-in users home.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := d.Sessions.CurrentUser(r); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := d.Renderer.Login(w, ui.LoginPage{Providers: providerLinks(d.Providers)}); err != nil {
			d.Logger.Error("failed to render login", logger.Error(err))
		}
	}
}

func providerLinks(ps auth.Providers) []ui.ProviderLink {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)

	links := make([]ui.ProviderLink, 0, len(names))
	for _, name := range names {
		links = append(links, ui.ProviderLink{
			Label: strings.ToUpper(name[:1]) + name[1:],
			URL:   "/auth/" + name,
		})
	}
	return links
}
