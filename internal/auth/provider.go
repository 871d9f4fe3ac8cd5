package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

// Provider is an external identity provider using the OAuth2 code flow.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the signed-in user.
	Exchange(ctx context.Context, code string) (*domain.User, error)
}

var ErrUnknownProvider = errors.New("unknown identity provider")

// Providers indexes providers by name.
type Providers map[string]Provider

func NewProviders(ps ...Provider) Providers {
	out := make(Providers, len(ps))
	for _, p := range ps {
		out[p.Name()] = p
	}
	return out
}

func (ps Providers) Get(name string) (Provider, error) {
	p, ok := ps[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("smartmarks:users"))

// UserID maps a provider account to a stable user ID.
// The same account always yields the same ID, so no user table is needed.
func UserID(provider, subject string) string {
	return uuid.NewSHA1(userNamespace, []byte(provider+":"+subject)).String()
}

// ─────────────────────────────────────────────────────────────────
// OAuth2 state
// ─────────────────────────────────────────────────────────────────

const (
	StateCookie = "smartmarks_oauth_state"
	stateTTL    = 10 * time.Minute
)

// NewState returns a random state value for an authorization request.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SetState remembers state in a short-lived cookie scoped to /auth.
func SetState(w http.ResponseWriter, state string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CheckState compares the callback's state with the cookie and clears it.
func CheckState(w http.ResponseWriter, r *http.Request, secure bool) bool {
	c, err := r.Cookie(StateCookie)

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil || c.Value == "" {
		return false
	}
	return c.Value == r.URL.Query().Get("state")
}
