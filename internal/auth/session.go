package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

const (
	// SessionCookie holds the signed session token.
	SessionCookie = "smartmarks_session"
	issuer        = "smartmarks"
)

var ErrRevoked = errors.New("session revoked")

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies the HS256 session cookie.
type Sessions struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoked *cache.Cache // jti -> struct{}, kept until the token would expire anyway
	now     func() time.Time
}

func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{
		secret:  []byte(secret),
		ttl:     ttl,
		secure:  secure,
		revoked: cache.New(ttl, 10*time.Minute),
		now:     time.Now,
	}
}

// Issue signs a token for user and sets it as the session cookie.
func (s *Sessions) Issue(w http.ResponseWriter, user domain.User) error {
	now := s.now()
	expires := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// CurrentUser returns the session user, or false when the request carries
// no valid session. It never writes to the response.
func (s *Sessions) CurrentUser(r *http.Request) (*domain.User, bool) {
	c, err := s.parseRequest(r)
	if err != nil {
		return nil, false
	}
	return &domain.User{ID: c.Subject, Email: c.Email, Name: c.Name}, true
}

// SignOut revokes the current token and clears the cookie.
// Calling it without a session only clears the cookie.
func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := s.parseRequest(r); err == nil && c.ID != "" {
		ttl := c.ExpiresAt.Time.Sub(s.now())
		if ttl > 0 {
			s.revoked.Set(c.ID, struct{}{}, ttl)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Sessions) parseRequest(r *http.Request) (*claims, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, err
	}
	return s.parse(cookie.Value)
}

func (s *Sessions) parse(raw string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, errors.New("session without subject")
	}
	if _, revoked := s.revoked.Get(c.ID); revoked {
		return nil, ErrRevoked
	}
	return &c, nil
}
