package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/smartmarks/internal/ui"
)

// FlashCookie carries one alert to the next page render.
const FlashCookie = "smartmarks_flash"

// Only known messages travel through the cookie, by code.
var flashCodes = map[string]string{
	"add":    ui.MsgAddFailed,
	"delete": ui.MsgDeleteFailed,
}

func flashCode(msg string) string {
	for code, m := range flashCodes {
		if m == msg {
			return code
		}
	}
	return ""
}

// flashAlerter turns an alert into a flash cookie on w.
type flashAlerter struct {
	w      http.ResponseWriter
	secure bool
}

func (a flashAlerter) Alert(_ context.Context, msg string) {
	code := flashCode(msg)
	if code == "" {
		return
	}
	http.SetCookie(a.w, &http.Cookie{
		Name:     FlashCookie,
		Value:    code,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending alert, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request, secure bool) string {
	c, err := r.Cookie(FlashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return flashCodes[c.Value]
}

var _ ui.Alerter = flashAlerter{}
