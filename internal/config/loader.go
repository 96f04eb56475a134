package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "HWSTORE"
	envConfigDefaultPath = "HWSTORE_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// envAliases maps config keys to the plain environment names used by
// existing deployments. The prefixed name always wins.
var envAliases = map[string]string{
	"base_url":             "BASE_URL",
	"jwt_secret":           "JWT_SECRET",
	"redis_url":            "REDIS_URL",
	"weather.api_key":      "OPENWEATHER_API_KEY",
	"google.client_id":     "GOOGLE_CLIENT_ID",
	"google.client_secret": "GOOGLE_CLIENT_SECRET",
}

// Load builds configuration from defaults, optional config file, .env and env vars,
// and returns the resolved path.
// Precedence: defaults < config file < env vars (.env included) < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, "", fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return cfg, "", fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	// PORT is honoured the way hosting platforms set it, unless addr is explicit.
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_ADDR") == "" {
		cfg.Addr = ":" + port
	}

	return cfg, configPath, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("static_dir", cfg.StaticDir)
	v.SetDefault("database_path", cfg.DatabasePath)
	v.SetDefault("redis_url", cfg.RedisURL)
	v.SetDefault("allowed_origins", cfg.AllowedOrigins)
	v.SetDefault("trusted_proxies", cfg.TrustedProxies)
	v.SetDefault("jwt_secret", cfg.JWTSecret)
	v.SetDefault("jwt_issuer", cfg.JWTIssuer)
	v.SetDefault("jwt_ttl", cfg.JWTTTL)

	v.SetDefault("chat.default_room", cfg.Chat.DefaultRoom)
	v.SetDefault("chat.default_name", cfg.Chat.DefaultName)
	v.SetDefault("chat.event_buffer", cfg.Chat.EventBuffer)
	v.SetDefault("chat.max_message_size", cfg.Chat.MaxMessageSize)

	v.SetDefault("weather.api_key", cfg.Weather.APIKey)
	v.SetDefault("weather.base_url", cfg.Weather.BaseURL)
	v.SetDefault("weather.units", cfg.Weather.Units)
	v.SetDefault("weather.lang", cfg.Weather.Lang)
	v.SetDefault("weather.timeout", cfg.Weather.Timeout)
	v.SetDefault("weather.cache_ttl", cfg.Weather.CacheTTL)

	v.SetDefault("google.client_id", cfg.Google.ClientID)
	v.SetDefault("google.client_secret", cfg.Google.ClientSecret)

	v.SetDefault("rate_limit.requests", cfg.RateLimit.Requests)
	v.SetDefault("rate_limit.window", cfg.RateLimit.Window)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
