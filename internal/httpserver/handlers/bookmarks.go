package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmarks/internal/auth"
	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/ui"
)

// AddBookmark submits the add form of the signed-in user.
//
// The list is not touched here: the new row reaches every open page
// through the change feed. Failures become a flash alert on the next
// render, and the form keeps its inputs.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		ctx := ui.WithAlerter(r.Context(), flashAlerter{w: w, secure: d.CookieSecure})
		err := d.Forms.For(u.ID).SubmitValues(ctx, r.PostForm.Get("title"), r.PostForm.Get("url"))
		if errors.Is(err, ui.ErrSubmitting) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// DeleteBookmark deletes one of the signed-in user's bookmarks. The page
// asks for confirmation and sends the answer as confirmed=true.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		confirmed := r.PostForm.Get("confirmed") == "true"

		item := ui.NewItemView(domain.Bookmark{ID: chi.URLParam(r, "id"), Owner: u.ID}, nil)
		confirm := ui.ConfirmFunc(func(context.Context, string) bool { return confirmed })

		if _, err := item.RequestDelete(r.Context(), u.ID, confirm, d.Bookmarks, flashAlerter{w: w, secure: d.CookieSecure}); err != nil {
			d.Logger.Error("failed to delete bookmark",
				logger.String("user_id", u.ID),
				logger.String("id", item.ID),
				logger.Error(err))
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
