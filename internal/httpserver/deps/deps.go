package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/smartmarks/internal/auth"
	"github.com/MrSnakeDoc/smartmarks/internal/bookmarks"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/ui"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedHosts   []string         // Host headers allowed on state-changing routes
	AllowedCIDRS   []string         // IPs allowed to access healthz/readyz/infra endpoints
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RequestTimeout time.Duration    // per-request timeout, streaming routes excluded
	RateBurst      int              // rate limit burst per client IP
	RatePerMin     int              // rate limit refill per client IP

	Sessions     *auth.Sessions
	Providers    auth.Providers
	CookieSecure bool
	Bookmarks    *bookmarks.Client
	Forms        *ui.Forms
	Renderer     *ui.Renderer
	DedupeLive   bool          // drop live inserts already listed
	Heartbeat    time.Duration // SSE keep-alive interval
	Closing      <-chan struct{} // closed when the server starts shutting down

	StoreBackend string        // reported by /infra
	FeedBackend  string        // reported by /infra
	RedisClient  *redis.Client // nil unless a component uses Redis
}
