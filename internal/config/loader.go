package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "OVERLAY"
	envConfigDefaultPath = "OVERLAY_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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

	return cfg, configPath, nil
}

// setDefaults registers every key so AutomaticEnv can see nested values.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)

	v.SetDefault("upstream.url", cfg.Upstream.URL)
	v.SetDefault("upstream.connect_timeout", cfg.Upstream.ConnectTimeout)
	v.SetDefault("upstream.retry_delay", cfg.Upstream.RetryDelay)
	v.SetDefault("upstream.max_retry_delay", cfg.Upstream.MaxRetryDelay)
	v.SetDefault("upstream.retry_multiplier", cfg.Upstream.RetryMultiplier)
	v.SetDefault("upstream.max_attempts", cfg.Upstream.MaxAttempts)
	v.SetDefault("upstream.max_frame_bytes", cfg.Upstream.MaxFrameBytes)

	v.SetDefault("overlay.message_ttl", cfg.Overlay.MessageTTL)
	v.SetDefault("overlay.max_visible", cfg.Overlay.MaxVisible)
	v.SetDefault("overlay.time_zone", cfg.Overlay.TimeZone)
	v.SetDefault("overlay.greeting", cfg.Overlay.Greeting)

	v.SetDefault("emotes.cdn", cfg.Emotes.CDN)
	v.SetDefault("emotes.fetch_timeout", cfg.Emotes.FetchTimeout)
	v.SetDefault("emotes.cache_size", cfg.Emotes.CacheSize)

	v.SetDefault("shuffler.url", cfg.Shuffler.URL)
	v.SetDefault("shuffler.timeout", cfg.Shuffler.Timeout)
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
