package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/utils"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overrides, used by tests. Zero values mean Google's production endpoints.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// GoogleProvider signs users in with their Google account.
type GoogleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(opts GoogleOptions) *GoogleProvider {
	endpoint := opts.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	userInfo := opts.UserInfoURL
	if userInfo == "" {
		userInfo = GoogleUserInfoURL
	}

	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoint,
		},
		userInfoURL: userInfo,
	}
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*domain.User, error) {
	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned %s", resp.Status)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if gu.ID == "" {
		return nil, fmt.Errorf("user info without id")
	}

	return &domain.User{
		ID:    UserID(g.Name(), gu.ID),
		Email: gu.Email,
		Name:  gu.Name,
	}, nil
}
