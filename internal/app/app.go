package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-overlay/internal/config"
	"github.com/vovakirdan/wirechat-overlay/internal/core"
	"github.com/vovakirdan/wirechat-overlay/internal/emotes"
	"github.com/vovakirdan/wirechat-overlay/internal/render"
	transporthttp "github.com/vovakirdan/wirechat-overlay/internal/transport/http"
	"github.com/vovakirdan/wirechat-overlay/internal/view"
)

// App wires together the upstream feed, the processor and the HTTP layer.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	processor       *core.Processor
	upstream        *upstreamSource
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load time zone: %w", err)
	}

	v, err := view.New(view.Options{Greeting: cfg.Overlay.Greeting})
	if err != nil {
		return nil, fmt.Errorf("init view: %w", err)
	}

	upstream := newUpstreamSource(cfg.Upstream, logger)
	processor := core.NewProcessor(upstream, core.Options{
		TTL:        cfg.Overlay.MessageTTL,
		MaxVisible: cfg.Overlay.MaxVisible,
		Renderer:   render.NewRenderer(loc),
		Logger:     logger,
	})

	proxy := emotes.NewProxy(cfg.Emotes.CDN, cfg.Emotes.FetchTimeout, cfg.Emotes.CacheSize, logger)

	server := transporthttp.NewServer(transporthttp.Deps{
		Feed:     processor,
		View:     v,
		Emotes:   proxy,
		Upstream: upstream,
	}, *cfg, logger)

	logger.Info().
		Str("upstream", cfg.Upstream.URL).
		Dur("message_ttl", cfg.Overlay.MessageTTL).
		Int("max_visible", cfg.Overlay.MaxVisible).
		Str("time_zone", loc.String()).
		Msg("overlay configured")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		processor:       processor,
		upstream:        upstream,
		log:             logger,
	}, nil
}

// Run starts the processor and the HTTP server and blocks until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.processor.Run(gctx); err != nil {
			return fmt.Errorf("processor: %w", err)
		}
		a.log.Info().Msg("processor stopped")
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
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
