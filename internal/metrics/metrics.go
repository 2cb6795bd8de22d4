package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream connection metrics
	UpstreamConnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_upstream_connects_total",
			Help: "Successful upstream socket opens",
		},
	)

	UpstreamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_upstream_reconnect_attempts_total",
			Help: "Scheduled upstream reconnect attempts",
		},
	)

	UpstreamExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_upstream_retries_exhausted_total",
			Help: "Times the reconnect budget ran out",
		},
	)

	UpstreamErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_upstream_errors_total",
			Help: "Transport errors reported by the upstream connection",
		},
	)

	UpstreamConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overlay_upstream_connected",
			Help: "1 while the upstream socket is open",
		},
	)

	// Stream processing metrics
	FramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_frames_received_total",
			Help: "Decoded frames by event kind",
		},
		[]string{"kind"}, // "message", "delete", "unknown"
	)

	DecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_frame_decode_errors_total",
			Help: "Frames dropped because they were not structured data",
		},
	)

	Evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_evictions_total",
			Help: "Messages removed from the visible buffer",
		},
		[]string{"reason"}, // "expired", "deleted", "replaced", "overflow"
	)

	VisibleMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overlay_visible_messages",
			Help: "Messages currently on screen",
		},
	)

	// Viewer metrics
	Viewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overlay_viewers",
			Help: "Connected overlay viewer sockets",
		},
	)

	EmoteFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_emote_fetches_total",
			Help: "Emote proxy lookups by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "fallback"
	)
)
