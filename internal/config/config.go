package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrInvalid is returned by Validate for unusable configuration values.
var ErrInvalid = errors.New("invalid config")

// Config holds overlay configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	Upstream UpstreamConfig `mapstructure:"upstream" yaml:"upstream"`
	Overlay  OverlayConfig  `mapstructure:"overlay" yaml:"overlay"`
	Emotes   EmoteConfig    `mapstructure:"emotes" yaml:"emotes"`
	Shuffler ShufflerConfig `mapstructure:"shuffler" yaml:"shuffler"`
}

// UpstreamConfig describes the chat socket the overlay reads from.
type UpstreamConfig struct {
	URL             string        `mapstructure:"url" yaml:"url"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	MaxRetryDelay   time.Duration `mapstructure:"max_retry_delay" yaml:"max_retry_delay"`
	RetryMultiplier float64       `mapstructure:"retry_multiplier" yaml:"retry_multiplier"`
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	MaxFrameBytes   int64         `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
}

// OverlayConfig controls how long and how many messages stay on screen.
type OverlayConfig struct {
	MessageTTL time.Duration `mapstructure:"message_ttl" yaml:"message_ttl"`
	MaxVisible int           `mapstructure:"max_visible" yaml:"max_visible"`
	TimeZone   string        `mapstructure:"time_zone" yaml:"time_zone"`
	Greeting   string        `mapstructure:"greeting" yaml:"greeting"`
}

// EmoteConfig points at the emote image CDN.
type EmoteConfig struct {
	CDN          string        `mapstructure:"cdn" yaml:"cdn"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	CacheSize    int           `mapstructure:"cache_size" yaml:"cache_size"`
}

// ShufflerConfig is the base URL of the shuffler REST API.
type ShufflerConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8090",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		Upstream: UpstreamConfig{
			URL:             "ws://localhost:42069/ws",
			ConnectTimeout:  5 * time.Second,
			RetryDelay:      5 * time.Second,
			MaxRetryDelay:   5 * time.Second,
			RetryMultiplier: 1,
			MaxAttempts:     10,
			MaxFrameBytes:   1 << 16,
		},
		Overlay: OverlayConfig{
			MessageTTL: 120 * time.Second,
			TimeZone:   "Local",
			Greeting:   "Hello World! This is the chat overlay.",
		},
		Emotes: EmoteConfig{
			CDN:          "https://static-cdn.jtvnw.net/emoticons/v2/{id}/default/dark/1.0",
			FetchTimeout: 3 * time.Second,
			CacheSize:    256,
		},
		Shuffler: ShufflerConfig{
			URL:     "http://localhost:42069",
			Timeout: 10 * time.Second,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
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
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Upstream.URL != "" {
		c.Upstream.URL = other.Upstream.URL
	}
	if other.Upstream.ConnectTimeout != 0 {
		c.Upstream.ConnectTimeout = other.Upstream.ConnectTimeout
	}
	if other.Upstream.RetryDelay != 0 {
		c.Upstream.RetryDelay = other.Upstream.RetryDelay
	}
	if other.Upstream.MaxRetryDelay != 0 {
		c.Upstream.MaxRetryDelay = other.Upstream.MaxRetryDelay
	}
	if other.Upstream.RetryMultiplier != 0 {
		c.Upstream.RetryMultiplier = other.Upstream.RetryMultiplier
	}
	if other.Upstream.MaxAttempts != 0 {
		c.Upstream.MaxAttempts = other.Upstream.MaxAttempts
	}
	if other.Upstream.MaxFrameBytes != 0 {
		c.Upstream.MaxFrameBytes = other.Upstream.MaxFrameBytes
	}
	if other.Overlay.MessageTTL != 0 {
		c.Overlay.MessageTTL = other.Overlay.MessageTTL
	}
	if other.Overlay.MaxVisible != 0 {
		c.Overlay.MaxVisible = other.Overlay.MaxVisible
	}
	if other.Overlay.TimeZone != "" {
		c.Overlay.TimeZone = other.Overlay.TimeZone
	}
	if other.Overlay.Greeting != "" {
		c.Overlay.Greeting = other.Overlay.Greeting
	}
	if other.Emotes.CDN != "" {
		c.Emotes.CDN = other.Emotes.CDN
	}
	if other.Emotes.FetchTimeout != 0 {
		c.Emotes.FetchTimeout = other.Emotes.FetchTimeout
	}
	if other.Emotes.CacheSize != 0 {
		c.Emotes.CacheSize = other.Emotes.CacheSize
	}
	if other.Shuffler.URL != "" {
		c.Shuffler.URL = other.Shuffler.URL
	}
	if other.Shuffler.Timeout != 0 {
		c.Shuffler.Timeout = other.Shuffler.Timeout
	}
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.URL)
	if err != nil {
		return fmt.Errorf("%w: upstream.url: %v", ErrInvalid, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: upstream.url must use ws or wss, got %q", ErrInvalid, u.Scheme)
	}
	if c.Upstream.MaxAttempts < 0 {
		return fmt.Errorf("%w: upstream.max_attempts must not be negative", ErrInvalid)
	}
	if c.Upstream.RetryMultiplier < 1 {
		return fmt.Errorf("%w: upstream.retry_multiplier must be >= 1", ErrInvalid)
	}
	if c.Overlay.MessageTTL <= 0 {
		return fmt.Errorf("%w: overlay.message_ttl must be positive", ErrInvalid)
	}
	if c.Overlay.MaxVisible < 0 {
		return fmt.Errorf("%w: overlay.max_visible must not be negative", ErrInvalid)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: overlay.time_zone: %v", ErrInvalid, err)
	}
	return nil
}

// Location resolves the zone used for message time labels.
func (c *Config) Location() (*time.Location, error) {
	if c.Overlay.TimeZone == "" || c.Overlay.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Overlay.TimeZone)
}
