package http

import (
	"time"

	"github.com/vovakirdan/wirechat-overlay/internal/core"
	"github.com/vovakirdan/wirechat-overlay/internal/proto"
	"github.com/vovakirdan/wirechat-overlay/internal/render"
	"github.com/vovakirdan/wirechat-overlay/internal/view"
)

func snapshotToFrame(v *view.View, snap core.Snapshot) (proto.ViewerFrame, error) {
	html, err := v.Render(snap)
	if err != nil {
		return proto.ViewerFrame{}, err
	}
	return proto.ViewerFrame{
		Type:    proto.ViewerRender,
		Version: snap.Version,
		Count:   len(snap.Messages),
		HTML:    string(html),
	}, nil
}

// MessageResponse is one entry of GET /api/messages.
type MessageResponse struct {
	ID          string `json:"id"`
	Seq         uint64 `json:"seq"`
	DisplayName string `json:"displayName,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Text        string `json:"text"`
	TimeLabel   string `json:"timeLabel,omitempty"`
	Action      bool   `json:"action,omitempty"`
	ExpiresAt   string `json:"expiresAt"`
}

// MessagesResponse is the body of GET /api/messages.
type MessagesResponse struct {
	Version  uint64            `json:"version"`
	Messages []MessageResponse `json:"messages"`
}

func snapshotToResponse(snap core.Snapshot) MessagesResponse {
	out := MessagesResponse{
		Version:  snap.Version,
		Messages: make([]MessageResponse, 0, len(snap.Messages)),
	}
	for _, msg := range snap.Messages {
		out.Messages = append(out.Messages, MessageResponse{
			ID:          msg.ID,
			Seq:         msg.Seq,
			DisplayName: msg.Content.DisplayName,
			Channel:     msg.Content.Channel,
			Text:        render.Plain(msg.Content.Segments),
			TimeLabel:   msg.Content.TimeLabel,
			Action:      msg.Content.Action,
			ExpiresAt:   msg.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
