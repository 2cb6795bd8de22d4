package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-overlay/internal/metrics"
	"github.com/vovakirdan/wirechat-overlay/internal/proto"
	"github.com/vovakirdan/wirechat-overlay/internal/render"
)

// ErrAlreadyRunning is returned when Run is called twice on one Processor.
var ErrAlreadyRunning = errors.New("processor already running")

// Closer releases an opened Source.
type Closer interface {
	Close() error
}

// Source opens the upstream feed. deliver is the only way frames reach the
// processor and may be called from any goroutine.
type Source interface {
	Open(ctx context.Context, deliver func(raw []byte)) (Closer, error)
}

// Options configures a Processor.
type Options struct {
	TTL        time.Duration
	MaxVisible int
	Renderer   *render.Renderer
	// Now is the clock used for entry timestamps. Defaults to time.Now.
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Processor owns the message buffer and applies every mutation on the single
// goroutine running Run. Readers only ever see copied snapshots.
type Processor struct {
	source   Source
	ttl      time.Duration
	renderer *render.Renderer
	now      func() time.Time
	log      *zerolog.Logger

	buffer *Buffer
	frames chan []byte
	done   chan struct{}
	timer  *time.Timer

	running  atomic.Bool
	doneOnce sync.Once

	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	latest  Snapshot
	stopped bool
}

type subscriber struct {
	ch chan Snapshot
}

// NewProcessor builds a processor reading from source. source may be nil when
// frames are delivered through Deliver directly.
func NewProcessor(source Source, opts Options) *Processor {
	if opts.Renderer == nil {
		opts.Renderer = render.NewRenderer(time.Local)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	return &Processor{
		source:   source,
		ttl:      opts.TTL,
		renderer: opts.Renderer,
		now:      opts.Now,
		log:      opts.Logger,
		buffer:   NewBuffer(opts.MaxVisible),
		frames:   make(chan []byte, 64),
		done:     make(chan struct{}),
		timer:    timer,
		subs:     make(map[*subscriber]struct{}),
		latest:   Snapshot{Messages: []VisibleMessage{}},
	}
}

// Run opens the source and processes frames and expiries until ctx is done.
// The source is closed and every pending expiry dropped on return.
func (p *Processor) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.teardown()

	if p.source != nil {
		conn, err := p.source.Open(ctx, p.Deliver)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer func() {
			// Unblock a source goroutine stuck in Deliver before waiting on it.
			p.stopDelivery()
			if err := conn.Close(); err != nil {
				p.log.Warn().Err(err).Msg("close upstream source")
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw := <-p.frames:
			now := p.now()
			if p.handleFrame(raw, now) {
				p.afterChange(now)
			}
		case <-p.timer.C:
			now := p.now()
			if p.expire(now) {
				p.afterChange(now)
			} else {
				p.rearm(now)
			}
		}
	}
}

// Deliver hands a raw frame to the processor. Frames delivered after Run
// returned are discarded.
func (p *Processor) Deliver(raw []byte) {
	select {
	case p.frames <- raw:
	case <-p.done:
	}
}

// Latest returns the most recently published snapshot.
func (p *Processor) Latest() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Subscribe returns a channel that always holds the newest snapshot. Slow
// readers skip intermediate versions. The channel is closed when the
// processor stops or cancel is called.
func (p *Processor) Subscribe() (<-chan Snapshot, func()) {
	s := &subscriber{ch: make(chan Snapshot, 1)}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	s.ch <- p.latest
	p.subs[s] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[s]; ok {
				delete(p.subs, s)
				close(s.ch)
			}
		})
	}
	return s.ch, cancel
}

func (p *Processor) handleFrame(raw []byte, now time.Time) bool {
	ev, err := proto.Decode(raw)
	if err != nil {
		metrics.DecodeErrors.Inc()
		p.log.Warn().Err(err).Int("bytes", len(raw)).Msg("dropping undecodable frame")
		return false
	}
	metrics.FramesReceived.WithLabelValues(ev.Kind.String()).Inc()

	switch ev.Kind {
	case proto.KindMessage:
		content := p.renderer.Render(render.InputFromEvent(ev))
		if _, exists := p.buffer.Get(ev.ID); exists {
			metrics.Evictions.WithLabelValues(string(EvictReplaced)).Inc()
		}
		msg, overflow := p.buffer.Append(ev.ID, content, p.ttl, now)
		for _, old := range overflow {
			metrics.Evictions.WithLabelValues(string(EvictOverflow)).Inc()
			p.log.Debug().Str("id", old.ID).Msg("message pushed out by visible cap")
		}
		p.log.Debug().
			Str("id", msg.ID).
			Uint64("seq", msg.Seq).
			Str("user", ev.DisplayName).
			Time("expires_at", msg.ExpiresAt).
			Msg("message appended")
		return true
	case proto.KindDelete:
		if _, ok := p.buffer.Remove(ev.ID); !ok {
			p.log.Debug().Str("id", ev.ID).Msg("delete for unknown message ignored")
			return false
		}
		metrics.Evictions.WithLabelValues(string(EvictDeleted)).Inc()
		p.log.Debug().Str("id", ev.ID).Msg("message deleted")
		return true
	default:
		p.log.Debug().Str("reason", ev.Reason).Msg("ignoring unknown event")
		return false
	}
}

func (p *Processor) expire(now time.Time) bool {
	expired := p.buffer.Expire(now)
	for _, msg := range expired {
		metrics.Evictions.WithLabelValues(string(EvictExpired)).Inc()
		p.log.Debug().Str("id", msg.ID).Uint64("seq", msg.Seq).Msg("message expired")
	}
	return len(expired) > 0
}

func (p *Processor) afterChange(now time.Time) {
	p.rearm(now)
	p.publish()
}

// rearm points the single timer at the earliest live deadline.
func (p *Processor) rearm(now time.Time) {
	next, ok := p.buffer.NextDeadline()
	if !ok {
		p.timer.Stop()
		return
	}
	wait := next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	p.timer.Reset(wait)
}

func (p *Processor) publish() {
	messages := p.buffer.Snapshot()
	metrics.VisibleMessages.Set(float64(len(messages)))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = Snapshot{Version: p.latest.Version + 1, Messages: messages}
	for s := range p.subs {
		offer(s.ch, p.latest)
	}
}

func (p *Processor) stopDelivery() {
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *Processor) teardown() {
	p.stopDelivery()
	p.timer.Stop()
	p.buffer.Reset()
	metrics.VisibleMessages.Set(0)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	p.latest = Snapshot{Version: p.latest.Version + 1, Messages: []VisibleMessage{}}
	for s := range p.subs {
		offer(s.ch, p.latest)
		close(s.ch)
		delete(p.subs, s)
	}
}

// offer replaces whatever the reader has not consumed yet.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
