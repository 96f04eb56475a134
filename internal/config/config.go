package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	StaticDir         string        `mapstructure:"static_dir" yaml:"static_dir"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	RedisURL          string        `mapstructure:"redis_url" yaml:"redis_url"`

	// AllowedOrigins restricts WebSocket upgrades; empty accepts any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed.
	// Empty means the client IP is always the socket peer.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`

	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	Chat      ChatConfig      `mapstructure:"chat" yaml:"chat"`
	Weather   WeatherConfig   `mapstructure:"weather" yaml:"weather"`
	Google    GoogleConfig    `mapstructure:"google" yaml:"google"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// ChatConfig configures the chat relay.
type ChatConfig struct {
	DefaultRoom    string `mapstructure:"default_room" yaml:"default_room"`
	DefaultName    string `mapstructure:"default_name" yaml:"default_name"`
	EventBuffer    int    `mapstructure:"event_buffer" yaml:"event_buffer"`
	MaxMessageSize int64  `mapstructure:"max_message_size" yaml:"max_message_size"`
}

// WeatherConfig configures the weather proxy.
type WeatherConfig struct {
	APIKey   string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	Units    string        `mapstructure:"units" yaml:"units"`
	Lang     string        `mapstructure:"lang" yaml:"lang"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// GoogleConfig holds OAuth client credentials. Login is disabled when ClientID is empty.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
}

// RateLimitConfig applies to /api routes. Requests <= 0 disables limiting.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" yaml:"requests"`
	Window   time.Duration `mapstructure:"window" yaml:"window"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3000",
		BaseURL:           "http://localhost:3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		StaticDir:         "public",
		DatabasePath:      "hwstore.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "hwstore",
		JWTTTL:            7 * 24 * time.Hour,
		Chat: ChatConfig{
			DefaultRoom:    "global",
			DefaultName:    "Anon",
			EventBuffer:    64,
			MaxMessageSize: 32 << 10,
		},
		Weather: WeatherConfig{
			BaseURL:  "https://api.openweathermap.org/data/2.5",
			Units:    "metric",
			Lang:     "pt_br",
			Timeout:  10 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Requests: 50,
			Window:   10 * time.Second,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the top-level fields exposed as CLI flags are considered.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.StaticDir != "" {
		c.StaticDir = other.StaticDir
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
}
