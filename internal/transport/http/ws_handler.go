package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-overlay/internal/core"
	"github.com/vovakirdan/wirechat-overlay/internal/metrics"
	"github.com/vovakirdan/wirechat-overlay/internal/utils"
	"github.com/vovakirdan/wirechat-overlay/internal/view"
)

// WSHandler upgrades overlay viewers and pushes a rendered fragment for every
// snapshot the processor publishes.
type WSHandler struct {
	feed Feed
	view *view.View
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(feed Feed, v *view.View, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{feed: feed, view: v, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	viewerID := utils.NewID()
	snapshots, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	metrics.Viewers.Inc()
	defer metrics.Viewers.Dec()
	h.log.Debug().Str("viewer_id", viewerID).Msg("viewer connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, viewerID, snapshots)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("viewer_id", viewerID).Msg("ws connection closed with error")
		}
	}

	h.log.Debug().Str("viewer_id", viewerID).Msg("viewer disconnected")
	conn.Close(status, reason)
}

// readLoop only watches for the viewer going away; viewers send nothing.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, viewerID string, snapshots <-chan core.Snapshot) error {
	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			frame, err := snapshotToFrame(h.view, snap)
			if err != nil {
				h.log.Error().Err(err).Str("viewer_id", viewerID).Msg("render snapshot")
				return err
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Str("viewer_id", viewerID).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
