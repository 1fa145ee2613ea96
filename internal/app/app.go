package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/termchat-server/internal/auth"
	"github.com/vovakirdan/termchat-server/internal/config"
	"github.com/vovakirdan/termchat-server/internal/core"
	"github.com/vovakirdan/termchat-server/internal/store/redis"
	"github.com/vovakirdan/termchat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/termchat-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	closers         []func() error
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	a.closers = append(a.closers, st.Close)
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	var history core.HistoryStore = st
	if cfg.HistoryBackend == config.HistoryBackendRedis {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			a.cleanup()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		history = redis.New(client, cfg.RedisPrefix, cfg.RedisRetention)
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("redis history backend enabled")
	}

	if cfg.AdminSecret == "" {
		logger.Warn().Msg("admin_secret is empty, factory reset is disabled")
	}

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	a.hub = core.NewHub(history, st,
		core.WithLogger(logger),
		core.WithHistoryLimit(cfg.HistoryLimit),
		core.WithStoreTimeout(cfg.StoreTimeout),
		core.WithAdminSecret(cfg.AdminSecret),
	)
	a.server = transporthttp.NewServer(a.hub, authService, cfg, logger)

	return a, nil
}

// Run starts the hub and the HTTP server and blocks until ctx is cancelled or
// either of them fails.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// cleanup closes stores in reverse order of creation.
func (a *App) cleanup() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		}
	}
	a.closers = nil
	a.log.Info().Msg("stores closed")
}
