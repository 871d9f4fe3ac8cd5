package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/smartmarks/internal/auth"
	"github.com/MrSnakeDoc/smartmarks/internal/bookmarks"
	"github.com/MrSnakeDoc/smartmarks/internal/config"
	"github.com/MrSnakeDoc/smartmarks/internal/database"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/realtime"
	"github.com/MrSnakeDoc/smartmarks/internal/redis"
	"github.com/MrSnakeDoc/smartmarks/internal/seed"
	"github.com/MrSnakeDoc/smartmarks/internal/store/memory"
	"github.com/MrSnakeDoc/smartmarks/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/smartmarks/internal/store/redis"
	"github.com/MrSnakeDoc/smartmarks/internal/store/sqlite"
	"github.com/MrSnakeDoc/smartmarks/internal/ui"
	"github.com/MrSnakeDoc/smartmarks/internal/utils"
	"github.com/MrSnakeDoc/smartmarks/internal/version"
)

// store is what every backend provides.
type store interface {
	bookmarks.Store
	seed.Seeder
}

type closer struct {
	name string
	io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	closers     []closer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.PrettyLog,
		File:   cfg.LogFile,
	})

	a := &App{cfg: cfg, logger: loggerClient}
	if err := a.init(context.Background()); err != nil {
		loggerClient.Errorf("failed to start: %v", err)
		a.close()
		os.Exit(1)
	}
	return a
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	loc, err := time.LoadLocation(cfg.DisplayTZ)
	if err != nil {
		return fmt.Errorf("invalid display timezone: %w", err)
	}

	// Redis early - fail fast if a component needs it and it is unavailable
	if cfg.NeedsRedis() {
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		a.redisClient, err = redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, closer{"redis", a.redisClient})
		log.Info("Redis initialized successfully")
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	log.Info("bookmark store ready", logger.String("backend", cfg.StoreBackend))

	if cfg.SeedFile != "" {
		if _, err := seed.Apply(ctx, cfg.SeedFile, st, log); err != nil {
			return fmt.Errorf("failed to apply seed file: %w", err)
		}
	}

	var feed realtime.Feed
	switch cfg.FeedBackend {
	case config.FeedRedis:
		feed = realtime.NewRedisFeed(a.redisClient, log)
	default:
		feed = realtime.NewLocalFeed(realtime.DefaultBuffer, log)
	}
	log.Info("change feed ready", logger.String("backend", cfg.FeedBackend))

	client := bookmarks.NewClient(st, feed, log)

	renderer, err := ui.NewRenderer(loc)
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	google := auth.NewGoogleProvider(auth.GoogleOptions{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		RequestTimeout: cfg.RequestTimeout,
		RateBurst:      cfg.RateLimitBurst,
		RatePerMin:     cfg.RateLimitPerMin,
		Sessions:       auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure),
		Providers:      auth.NewProviders(google),
		CookieSecure:   cfg.CookieSecure,
		Bookmarks:      client,
		Forms:          ui.NewForms(client, log, 0),
		Renderer:       renderer,
		DedupeLive:     cfg.DedupeLive,
		StoreBackend:   cfg.StoreBackend,
		FeedBackend:    cfg.FeedBackend,
		RedisClient:    a.redisClient,
	}

	a.server = httpserver.New(cfg, log, d)
	return nil
}

func (a *App) openStore(ctx context.Context) (store, error) {
	cfg, log := a.cfg, a.logger

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.Open(ctx, database.Options{
			DSN:           cfg.DatabaseURL,
			MaxOpenConns:  cfg.DBMaxOpenConns,
			MaxIdleConns:  cfg.DBMaxIdleConns,
			ConnLifetime:  cfg.DBConnLifetime,
			SlowThreshold: cfg.DBSlowThreshold,
			Debug:         cfg.LogLevel == "debug",
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, closer{"postgres", closerFunc(func() error { return database.Close(db) })})

		st := postgres.New(db)
		if cfg.DBAutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return st, nil

	case config.BackendSQLite:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		a.closers = append(a.closers, closer{"sqlite", st})
		return st, nil

	case config.BackendRedis:
		return redisstore.NewStore(a.redisClient), nil

	default:
		log.Warn("memory store in use, bookmarks are lost on restart")
		return memory.New(), nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting smartmarks v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.close()
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.close()
	a.logger.Info("✅ smartmarks stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

// close releases backends in reverse order of opening.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		utils.CloseLogged(a.closers[i], a.closers[i].name, a.logger)
	}
	a.closers = nil
}
