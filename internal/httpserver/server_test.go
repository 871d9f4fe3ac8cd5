package httpserver

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/smartmarks/internal/auth"
	"github.com/MrSnakeDoc/smartmarks/internal/bookmarks"
	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/realtime"
	"github.com/MrSnakeDoc/smartmarks/internal/store/memory"
	"github.com/MrSnakeDoc/smartmarks/internal/ui"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var alice = domain.User{ID: "alice-id", Email: "alice@example.com"}

type fakeProvider struct{}

func (fakeProvider) Name() string { return "google" }

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.example/authorize?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(_ context.Context, code string) (*domain.User, error) {
	if code != "good" {
		return nil, errors.New("bad code")
	}
	u := alice
	return &u, nil
}

type brokenStore struct{}

func (brokenStore) List(context.Context, string) ([]domain.Bookmark, error) {
	return nil, errors.New("down")
}
func (brokenStore) Insert(context.Context, domain.Bookmark) (domain.Bookmark, error) {
	return domain.Bookmark{}, errors.New("down")
}
func (brokenStore) Delete(context.Context, string, string) (bool, error) {
	return false, errors.New("down")
}
func (brokenStore) Ping(context.Context) error { return errors.New("down") }

type env struct {
	router http.Handler
	d      deps.Deps
	store  *memory.Store
	client *bookmarks.Client
}

func newEnv(t *testing.T, store bookmarks.Store) *env {
	t.Helper()

	log := logger.NewNop()
	client := bookmarks.NewClient(store, realtime.NewLocalFeed(0, log), log)
	renderer, err := ui.NewRenderer(time.UTC)
	require.NoError(t, err)

	d := deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		TimeNow:        time.Now,
		RequestTimeout: 5 * time.Second,
		RateBurst:      100,
		RatePerMin:     100,
		Sessions:       auth.NewSessions(testSecret, time.Hour, false),
		Providers:      auth.NewProviders(fakeProvider{}),
		Bookmarks:      client,
		Forms:          ui.NewForms(client, log, time.Minute),
		Renderer:       renderer,
		DedupeLive:     true,
		Heartbeat:      time.Second,
		StoreBackend:   "memory",
		FeedBackend:    "local",
	}

	e := &env{router: NewRouter(d), d: d, client: client}
	if m, ok := store.(*memory.Store); ok {
		e.store = m
	}
	return e
}

func (e *env) sessionCookie(t *testing.T, u domain.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, e.d.Sessions.Issue(rec, u))
	return findCookie(rec.Result(), auth.SessionCookie)
}

func (e *env) do(req *http.Request, cookies ...*http.Cookie) *http.Response {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec.Result()
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	var b strings.Builder
	_, err := bufio.NewReader(resp.Body).WriteTo(&b)
	require.NoError(t, err)
	return b.String()
}

// ─────────────────────────────
// Pages and sign-in
// ─────────────────────────────

func TestHomeRequiresSession(t *testing.T) {
	e := newEnv(t, memory.New())

	resp := e.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = e.do(httptest.NewRequest(http.MethodGet, "/", nil), e.sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Welcome, alice@example.com")
	assert.Contains(t, page, "+ Add Bookmark")
}

func TestLoginPage(t *testing.T) {
	e := newEnv(t, memory.New())

	resp := e.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Sign in with Google")

	resp = e.do(httptest.NewRequest(http.MethodGet, "/login", nil), e.sessionCookie(t, alice))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestSignInFlow(t *testing.T) {
	e := newEnv(t, memory.New())

	resp := e.do(httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	state := findCookie(resp, auth.StateCookie)
	require.NotNil(t, state)
	assert.Contains(t, resp.Header.Get("Location"), url.QueryEscape(state.Value))

	t.Run("good callback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good&state="+url.QueryEscape(state.Value), nil)
		resp := e.do(req, state)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		session := findCookie(resp, auth.SessionCookie)
		require.NotNil(t, session)
		home := e.do(httptest.NewRequest(http.MethodGet, "/", nil), session)
		assert.Equal(t, http.StatusOK, home.StatusCode)
	})

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good&state=forged", nil)
		resp := e.do(req, state)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Nil(t, findCookie(resp, auth.SessionCookie))
	})

	t.Run("failed exchange", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=bad&state="+url.QueryEscape(state.Value), nil)
		resp := e.do(req, state)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("unknown provider", func(t *testing.T) {
		resp := e.do(httptest.NewRequest(http.MethodGet, "/auth/myspace", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestLogoutRevokesSession(t *testing.T) {
	e := newEnv(t, memory.New())
	session := e.sessionCookie(t, alice)

	resp := e.do(httptest.NewRequest(http.MethodPost, "/logout", nil), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	cleared := findCookie(resp, auth.SessionCookie)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)

	// The old token is refused even if the browser kept it.
	resp = e.do(httptest.NewRequest(http.MethodGet, "/", nil), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

// ─────────────────────────────
// Bookmark forms
// ─────────────────────────────

func TestAddBookmark(t *testing.T) {
	e := newEnv(t, memory.New())
	session := e.sessionCookie(t, alice)

	resp := e.do(postForm("/bookmarks", url.Values{"title": {"Go"}, "url": {"https://go.dev"}}), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Nil(t, findCookie(resp, handlers.FlashCookie))

	rows, err := e.store.List(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Go", rows[0].Title)

	// Empty fields are silently ignored.
	resp = e.do(postForm("/bookmarks", url.Values{"title": {"  "}, "url": {"https://x.example"}}), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Nil(t, findCookie(resp, handlers.FlashCookie))
	assert.Equal(t, 1, e.store.Count())

	// No session, no insert.
	resp = e.do(postForm("/bookmarks", url.Values{"title": {"Go"}, "url": {"https://go.dev"}}))
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, 1, e.store.Count())
}

func TestAddBookmarkFailureFlashesAlert(t *testing.T) {
	e := newEnv(t, brokenStore{})
	session := e.sessionCookie(t, alice)

	resp := e.do(postForm("/bookmarks", url.Values{"title": {"Go"}, "url": {"https://go.dev"}}), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	flash := findCookie(resp, handlers.FlashCookie)
	require.NotNil(t, flash)

	resp = e.do(httptest.NewRequest(http.MethodGet, "/", nil), session, flash)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, ui.MsgAddFailed)
	// Inputs are kept after a failure.
	assert.Contains(t, page, `value="https://go.dev"`)

	cleared := findCookie(resp, handlers.FlashCookie)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
}

func TestDeleteBookmark(t *testing.T) {
	e := newEnv(t, memory.New())
	ctx := context.Background()
	session := e.sessionCookie(t, alice)

	mine, err := e.client.Insert(ctx, alice.ID, "Go", "https://go.dev")
	require.NoError(t, err)
	theirs, err := e.client.Insert(ctx, "bob-id", "Rust", "https://rust-lang.org")
	require.NoError(t, err)

	// Not confirmed: nothing happens.
	resp := e.do(postForm("/bookmarks/"+mine.ID+"/delete", url.Values{}), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 2, e.store.Count())

	// Someone else's bookmark: silent no-op.
	resp = e.do(postForm("/bookmarks/"+theirs.ID+"/delete", url.Values{"confirmed": {"true"}}), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 2, e.store.Count())

	resp = e.do(postForm("/bookmarks/"+mine.ID+"/delete", url.Values{"confirmed": {"true"}}), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Nil(t, findCookie(resp, handlers.FlashCookie))
	assert.Equal(t, 1, e.store.Count())
}

func TestDeleteBookmarkFailureFlashesAlert(t *testing.T) {
	e := newEnv(t, brokenStore{})
	session := e.sessionCookie(t, alice)

	resp := e.do(postForm("/bookmarks/x/delete", url.Values{"confirmed": {"true"}}), session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	flash := findCookie(resp, handlers.FlashCookie)
	require.NotNil(t, flash)
	assert.Equal(t, "delete", flash.Value)
}

// ─────────────────────────────
// Event stream
// ─────────────────────────────

type sseEvent struct {
	name string
	data string
}

func readEvent(r *bufio.Reader) (sseEvent, error) {
	var ev sseEvent
	var data []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return ev, err
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name == "" && data == nil {
				continue // heartbeat comment block
			}
			ev.data = strings.Join(data, "\n")
			return ev, nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
}

func waitForEvent(t *testing.T, r *bufio.Reader, match func(sseEvent) bool) sseEvent {
	t.Helper()
	for {
		ev, err := readEvent(r)
		require.NoError(t, err)
		if match(ev) {
			return ev
		}
	}
}

func TestStream(t *testing.T) {
	e := newEnv(t, memory.New())
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/bookmarks/stream", nil)
	require.NoError(t, err)
	req.AddCookie(e.sessionCookie(t, alice))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	first := waitForEvent(t, r, func(ev sseEvent) bool { return ev.name == "list" })
	assert.NotEmpty(t, first.data)

	waitForEvent(t, r, func(ev sseEvent) bool { return strings.Contains(ev.data, "No bookmarks yet") })

	_, err = e.client.Insert(context.Background(), alice.ID, "Live one", "https://www.live.example/x")
	require.NoError(t, err)
	_, err = e.client.Insert(context.Background(), "bob-id", "Not mine", "https://bob.example")
	require.NoError(t, err)

	ev := waitForEvent(t, r, func(ev sseEvent) bool { return strings.Contains(ev.data, "Live one") })
	assert.Equal(t, "list", ev.name)
	assert.Contains(t, ev.data, "live.example")
	assert.NotContains(t, ev.data, "Not mine")
}

func TestStreamEndsAfterLogout(t *testing.T) {
	e := newEnv(t, memory.New())
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session := e.sessionCookie(t, alice)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/bookmarks/stream", nil)
	require.NoError(t, err)
	req.AddCookie(session)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := bufio.NewReader(resp.Body)
	waitForEvent(t, r, func(ev sseEvent) bool { return ev.name == "list" })

	// Logging out from another tab revokes the token the stream was opened with.
	out := e.do(httptest.NewRequest(http.MethodPost, "/logout", nil), session)
	require.Equal(t, http.StatusSeeOther, out.StatusCode)

	waitForEvent(t, r, func(ev sseEvent) bool { return ev.name == "unauthorized" })

	_, err = readEvent(r)
	assert.Error(t, err, "stream should end after the unauthorized event")
}

func TestStreamRequiresSession(t *testing.T) {
	e := newEnv(t, memory.New())

	resp := e.do(httptest.NewRequest(http.MethodGet, "/bookmarks/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ─────────────────────────────
// Ops endpoints
// ─────────────────────────────

func TestOpsEndpoints(t *testing.T) {
	healthy := newEnv(t, memory.New())

	resp := healthy.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `"status":"ok"`)

	resp = healthy.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = healthy.do(httptest.NewRequest(http.MethodGet, "/infra", nil))
	assert.Contains(t, body(t, resp), `"mode":"optimal"`)

	broken := newEnv(t, brokenStore{})

	resp = broken.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = broken.do(httptest.NewRequest(http.MethodGet, "/infra", nil))
	assert.Contains(t, body(t, resp), `"mode":"critical"`)
}

func TestOpsEndpointsRestrictedByCIDR(t *testing.T) {
	e := newEnv(t, memory.New())
	e.d.AllowedCIDRS = []string{"10.0.0.0/8"}
	e.d.TrustProxy = false
	router := NewRouter(e.d)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.1.2.3:1234"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
