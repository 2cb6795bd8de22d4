package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-overlay/internal/config"
	"github.com/vovakirdan/wirechat-overlay/internal/core"
	"github.com/vovakirdan/wirechat-overlay/internal/emotes"
	"github.com/vovakirdan/wirechat-overlay/internal/view"
)

// Feed is the read side of the message processor.
type Feed interface {
	Latest() core.Snapshot
	Subscribe() (<-chan core.Snapshot, func())
}

// EmoteSource resolves emote ids to images.
type EmoteSource interface {
	Get(ctx context.Context, id string) (emotes.Image, emotes.Outcome)
}

// Upstream reports and restarts the chat socket.
type Upstream interface {
	Status() string
	Reopen() error
}

// Deps are the components the HTTP layer serves. Upstream and Emotes may be
// nil; their routes then answer 503 and placeholders respectively.
type Deps struct {
	Feed     Feed
	View     *view.View
	Emotes   EmoteSource
	Upstream Upstream
}

// NewServer builds the overlay HTTP server.
func NewServer(deps Deps, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers every overlay route.
func NewRouter(deps Deps, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(logger))

	api := NewAPIHandlers(deps, logger)
	ws := NewWSHandler(deps.Feed, deps.View, logger)

	router.GET("/health", api.Health)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(stdhttp.StatusFound, "/overlay")
	})
	router.GET("/overlay", api.Page)
	router.GET("/overlay/ws", gin.WrapH(ws))
	router.GET("/emotes/:id", api.Emote)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/messages", api.Messages)
		apiGroup.GET("/upstream", api.UpstreamStatus)
		apiGroup.POST("/upstream/reconnect", api.Reconnect)
	}

	return router
}
