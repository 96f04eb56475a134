package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hwstore/hwstore-server/internal/auth"
	"github.com/hwstore/hwstore-server/internal/cache"
	"github.com/hwstore/hwstore-server/internal/config"
	"github.com/hwstore/hwstore-server/internal/core"
	"github.com/hwstore/hwstore-server/internal/store"
	"github.com/hwstore/hwstore-server/internal/store/sqlite"
	transporthttp "github.com/hwstore/hwstore-server/internal/transport/http"
	"github.com/hwstore/hwstore-server/internal/weather"
)

const redisConnectTimeout = 5 * time.Second

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	redis           *cache.RedisCache
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}

	if cfg.JWTSecret == config.Default().JWTSecret {
		logger.Warn().Msg("jwt_secret is the built-in default; set JWT_SECRET in production")
	}
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	})

	var google *auth.GoogleProvider
	if cfg.Google.ClientID != "" {
		google = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + "/api/auth/google/callback",
		})
		logger.Info().Msg("google login enabled")
	}

	var weatherCache weather.Cache
	if cfg.RedisURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		rc, err := cache.NewRedis(connectCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = rc
		weatherCache = rc
		logger.Info().Msg("weather cache enabled")
	}
	if cfg.Weather.APIKey == "" {
		logger.Warn().Msg("weather api key missing; /api/weather will fail")
	}
	weatherClient := weather.NewClient(weather.Config{
		APIKey:   cfg.Weather.APIKey,
		BaseURL:  cfg.Weather.BaseURL,
		Units:    cfg.Weather.Units,
		Lang:     cfg.Weather.Lang,
		Timeout:  cfg.Weather.Timeout,
		CacheTTL: cfg.Weather.CacheTTL,
	}, weatherCache, logger)

	a.hub = core.NewHub(core.Config{
		DefaultRoom: cfg.Chat.DefaultRoom,
		DefaultName: cfg.Chat.DefaultName,
	}, logger)

	svc := transporthttp.Services{
		Hub:     a.hub,
		Auth:    authService,
		Google:  google,
		Weather: weatherClient,
	}
	if a.redis != nil {
		svc.RateCounter = a.redis
	}
	a.server = transporthttp.NewServer(svc, cfg, logger)

	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		<-a.hub.Done()
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by Shutdown; the hub
		// closes them when its context ends.
		<-a.hub.Done()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
