package core

import (
	"time"

	"github.com/vovakirdan/wirechat-overlay/internal/render"
)

// VisibleMessage is one entry of the on-screen buffer.
type VisibleMessage struct {
	ID         string         `json:"id"`
	Seq        uint64         `json:"seq"`
	RenderedAt time.Time      `json:"renderedAt"`
	ExpiresAt  time.Time      `json:"expiresAt"`
	Content    render.Content `json:"content"`
}

// Snapshot is an ordered copy of the buffer, oldest first.
type Snapshot struct {
	Version  uint64           `json:"version"`
	Messages []VisibleMessage `json:"messages"`
}
