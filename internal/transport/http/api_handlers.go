package http

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-overlay/internal/emotes"
	"github.com/vovakirdan/wirechat-overlay/internal/stream"
)

// APIHandlers provides the overlay's plain HTTP endpoints.
type APIHandlers struct {
	deps Deps
	log  *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(deps Deps, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{deps: deps, log: logger}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UpstreamResponse is the body of GET /api/upstream.
type UpstreamResponse struct {
	State string `json:"state"`
}

// Health answers liveness probes.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Page serves the overlay document with the current messages inlined.
// GET /overlay
func (h *APIHandlers) Page(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.deps.View.Page(&buf, h.deps.Feed.Latest()); err != nil {
		h.log.Error().Err(err).Msg("render overlay page")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to render overlay"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Messages returns the visible messages as JSON.
// GET /api/messages
func (h *APIHandlers) Messages(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotToResponse(h.deps.Feed.Latest()))
}

// Emote serves an emote image, or the placeholder when it cannot be fetched.
// GET /emotes/:id
func (h *APIHandlers) Emote(c *gin.Context) {
	img := emotes.Placeholder()
	if h.deps.Emotes != nil {
		img, _ = h.deps.Emotes.Get(c.Request.Context(), c.Param("id"))
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// UpstreamStatus reports the chat socket state.
// GET /api/upstream
func (h *APIHandlers) UpstreamStatus(c *gin.Context) {
	if h.deps.Upstream == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "upstream not configured"})
		return
	}
	c.JSON(http.StatusOK, UpstreamResponse{State: h.deps.Upstream.Status()})
}

// Reconnect restarts the chat socket after it gave up.
// POST /api/upstream/reconnect
func (h *APIHandlers) Reconnect(c *gin.Context) {
	if h.deps.Upstream == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "upstream not configured"})
		return
	}
	if err := h.deps.Upstream.Reopen(); err != nil {
		if errors.Is(err, stream.ErrClosed) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "upstream is shut down"})
			return
		}
		h.log.Error().Err(err).Msg("reopen upstream")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to reconnect"})
		return
	}
	h.log.Info().Msg("manual upstream reconnect requested")
	c.JSON(http.StatusAccepted, UpstreamResponse{State: h.deps.Upstream.Status()})
}
