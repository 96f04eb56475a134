package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hwstore/hwstore-server/internal/metrics"
)

// ErrMissingAPIKey is returned when no provider key is configured.
var ErrMissingAPIKey = errors.New("weather API key missing")

// maxBodySize bounds how much of an upstream response is read.
const maxBodySize = 1 << 20

// UpstreamError carries a non-2xx provider response so it can be passed through.
type UpstreamError struct {
	Status int
	Body   json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather provider returned status %d", e.Status)
}

// Cache stores raw provider responses keyed by normalized city.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config configures the client.
type Config struct {
	APIKey   string
	BaseURL  string
	Units    string
	Lang     string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client fetches current conditions from an OpenWeather-compatible API.
type Client struct {
	cfg   Config
	http  *http.Client
	cache Cache
	log   *zerolog.Logger
}

// NewClient builds a weather client. cache may be nil.
func NewClient(cfg Config, cache Cache, logger *zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
		log:   logger,
	}
}

// Current returns the provider's JSON document for city.
func (c *Client) Current(ctx context.Context, city string) (json.RawMessage, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	key := cacheKey(city)
	if body, ok := c.fromCache(ctx, key); ok {
		return body, nil
	}

	body, err := c.fetch(ctx, city)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if err := c.cache.Set(ctx, key, body, c.cfg.CacheTTL); err != nil {
			c.log.Warn().Err(err).Str("city", city).Msg("weather cache write failed")
		}
	}
	return body, nil
}

func (c *Client) fromCache(ctx context.Context, key string) (json.RawMessage, bool) {
	if c.cache == nil || c.cfg.CacheTTL <= 0 {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.WeatherCacheHits.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("weather cache read failed")
		return nil, false
	case !ok:
		metrics.WeatherCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.WeatherCacheHits.WithLabelValues("hit").Inc()
		return body, true
	}
}

func (c *Client) fetch(ctx context.Context, city string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("q", city)
	if c.cfg.Units != "" {
		q.Set("units", c.cfg.Units)
	}
	if c.cfg.Lang != "" {
		q.Set("lang", c.cfg.Lang)
	}
	q.Set("appid", c.cfg.APIKey)
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/weather?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.WeatherUpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("request weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if !json.Valid(body) {
			body, _ = json.Marshal(map[string]string{"error": strings.TrimSpace(string(body))})
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("weather provider returned invalid JSON")
	}
	return body, nil
}

func cacheKey(city string) string {
	return "weather:" + strings.ToLower(strings.TrimSpace(city))
}
