package app

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-overlay/internal/config"
	"github.com/vovakirdan/wirechat-overlay/internal/core"
	"github.com/vovakirdan/wirechat-overlay/internal/metrics"
	"github.com/vovakirdan/wirechat-overlay/internal/stream"
)

// upstreamSource feeds the processor from the chat socket and exposes the
// connection state to the HTTP layer.
type upstreamSource struct {
	url  string
	opts stream.Options
	log  *zerolog.Logger

	mu   sync.Mutex
	conn *stream.Conn
}

func newUpstreamSource(cfg config.UpstreamConfig, logger *zerolog.Logger) *upstreamSource {
	return &upstreamSource{
		url: cfg.URL,
		opts: stream.Options{
			ConnectTimeout: cfg.ConnectTimeout,
			MaxAttempts:    cfg.MaxAttempts,
			RetryDelay:     cfg.RetryDelay,
			MaxRetryDelay:  cfg.MaxRetryDelay,
			Multiplier:     cfg.RetryMultiplier,
			ReadLimit:      cfg.MaxFrameBytes,
		},
		log: logger,
	}
}

// Open implements core.Source.
func (u *upstreamSource) Open(ctx context.Context, deliver func(raw []byte)) (core.Closer, error) {
	opts := u.opts
	opts.OnMessage = deliver
	opts.OnOpen = func() {
		metrics.UpstreamConnects.Inc()
		metrics.UpstreamConnected.Set(1)
		u.log.Info().Str("url", u.url).Msg("upstream connected")
	}
	opts.OnClose = func(status websocket.StatusCode, reason string) {
		metrics.UpstreamConnected.Set(0)
		u.log.Info().Str("status", status.String()).Str("reason", reason).Msg("upstream closed")
	}
	opts.OnReconnect = func(attempt int, delay time.Duration) {
		metrics.UpstreamReconnects.Inc()
		u.log.Warn().Int("attempt", attempt).Dur("delay", delay).Msg("upstream reconnect scheduled")
	}
	opts.OnMaximum = func(attempts int) {
		metrics.UpstreamExhausted.Inc()
		metrics.UpstreamConnected.Set(0)
		u.log.Error().Int("attempts", attempts).Msg("upstream retries exhausted, waiting for manual reconnect")
	}
	opts.OnError = func(err error) {
		metrics.UpstreamErrors.Inc()
		u.log.Warn().Err(err).Msg("upstream error")
	}

	conn := stream.Open(ctx, u.url, opts)

	u.mu.Lock()
	u.conn = conn
	u.mu.Unlock()

	u.log.Info().Str("url", u.url).Int("max_attempts", opts.MaxAttempts).Msg("connecting to upstream")
	return conn, nil
}

// Status reports the connection state, or "stopped" before Open.
func (u *upstreamSource) Status() string {
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()
	if conn == nil {
		return "stopped"
	}
	return conn.State().String()
}

// Reopen restarts a connection that gave up.
func (u *upstreamSource) Reopen() error {
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()
	if conn == nil {
		return stream.ErrClosed
	}
	return conn.Reopen()
}
