package http

import (
	stdhttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hwstore/hwstore-server/internal/auth"
	"github.com/hwstore/hwstore-server/internal/config"
	"github.com/hwstore/hwstore-server/internal/core"
	"github.com/hwstore/hwstore-server/internal/weather"
)

// Services are the collaborators the HTTP layer routes to.
// Google may be nil, in which case Google login answers 404.
type Services struct {
	Hub     *core.Hub
	Auth    *auth.Service
	Google  *auth.GoogleProvider
	Weather *weather.Client

	// RateCounter backs the /api rate limit when set; nil keeps counts in memory.
	RateCounter RateCounter
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the HTTP server with API, WebSocket and static routes.
// The WebSocket endpoint sits on the outer mux so the upgrade can hijack
// the raw connection; everything else goes through the gin engine.
func NewServer(svc Services, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(svc.Hub, cfg, logger))
	mux.Handle("/", NewRouter(svc, cfg, logger))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine for everything except /ws.
func NewRouter(svc Services, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Warn().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(MetricsMiddleware())
	router.Use(LoggerMiddleware(logger))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiLimiter := newLimiter(svc.RateCounter, cfg.RateLimit, logger)
	api := router.Group("/api")
	api.Use(RateLimitMiddleware(apiLimiter, logger))
	{
		api.GET("/health", healthHandler)

		weatherHandlers := NewWeatherHandlers(svc.Weather, logger)
		api.GET("/weather/:city", weatherHandlers.Current)

		authHandlers := NewAuthHandlers(svc.Auth, svc.Google, logger)
		api.POST("/auth/register", authHandlers.Register)
		api.POST("/auth/login", authHandlers.Login)
		api.GET("/auth/google", authHandlers.GoogleLogin)
		api.GET("/auth/google/callback", authHandlers.GoogleCallback)

		protected := api.Group("")
		protected.Use(AuthMiddleware(svc.Auth, logger))
		protected.GET("/me", authHandlers.Me)
	}

	router.NoRoute(staticHandler(cfg.StaticDir))

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}

// staticHandler serves the storefront assets for unmatched GET requests.
// Unknown /api paths and other methods get a JSON 404.
func staticHandler(dir string) gin.HandlerFunc {
	files := stdhttp.FileServer(stdhttp.Dir(dir))
	return func(c *gin.Context) {
		method := c.Request.Method
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || (method != stdhttp.MethodGet && method != stdhttp.MethodHead) {
			c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
