// Package stream keeps a receive-only websocket to the upstream chat server
// open, reconnecting with a bounded retry budget.
package stream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// ErrClosed is returned by Reopen after Close.
var ErrClosed = errors.New("stream closed")

// errServerClosed marks a normal close initiated by the server.
var errServerClosed = errors.New("server closed the connection")

// State is the coarse lifecycle of a Conn.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateWaiting
	StateIdle
	StateExhausted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateWaiting:
		return "waiting"
	case StateIdle:
		return "idle"
	case StateExhausted:
		return "exhausted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options tunes dialing and reconnects. Only OnMessage carries data; the
// other callbacks are informational. Callbacks run on the connection
// goroutine and must not call Close.
type Options struct {
	ConnectTimeout time.Duration
	// MaxAttempts caps consecutive reconnects. Zero means no cap.
	MaxAttempts   int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Multiplier    float64
	ReadLimit     int64
	Header        http.Header

	OnOpen      func()
	OnMessage   func(raw []byte)
	OnReconnect func(attempt int, delay time.Duration)
	OnMaximum   func(attempts int)
	OnClose     func(status websocket.StatusCode, reason string)
	OnError     func(err error)
}

// DefaultOptions matches the overlay's reconnect policy: 5s per attempt, 10 attempts.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: 5 * time.Second,
		MaxAttempts:    10,
		RetryDelay:     5 * time.Second,
		MaxRetryDelay:  5 * time.Second,
		Multiplier:     1,
	}
}

// Conn is a handle to one managed upstream connection.
type Conn struct {
	url  string
	opts Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    State
	attempts int
	looping  bool
	closed   bool
}

// Open starts connecting in the background and returns immediately. Errors,
// including a malformed url, are reported through OnError and retried.
func Open(ctx context.Context, url string, opts Options) *Conn {
	ctx, cancel := context.WithCancel(ctx)
	c := &Conn{
		url:    url,
		opts:   withDefaults(opts),
		ctx:    ctx,
		cancel: cancel,
	}
	c.start()
	return c
}

// Close stops the connection and waits for its goroutine. Safe to call more
// than once and before the first dial finished.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.setState(StateClosed)
	return nil
}

// Reopen restarts a connection that gave up or was closed by the server.
// The retry budget starts over. It is a no-op while a loop is running.
func (c *Conn) Reopen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.looping {
		return nil
	}
	c.attempts = 0
	c.startLocked()
	return nil
}

// State reports the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// URL returns the upstream address.
func (c *Conn) URL() string { return c.url }

func (c *Conn) start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked()
}

func (c *Conn) startLocked() {
	c.looping = true
	c.state = StateConnecting
	c.wg.Add(1)
	go c.loop()
}

func (c *Conn) loop() {
	defer c.wg.Done()

	for {
		err := c.session()
		if c.ctx.Err() != nil {
			c.finish(c.State())
			return
		}
		if errors.Is(err, errServerClosed) {
			c.finish(StateIdle)
			return
		}

		c.mu.Lock()
		if c.opts.MaxAttempts > 0 && c.attempts >= c.opts.MaxAttempts {
			attempts := c.attempts
			c.state = StateExhausted
			c.looping = false
			c.mu.Unlock()
			c.emitMaximum(attempts)
			return
		}
		c.attempts++
		attempt := c.attempts
		c.state = StateWaiting
		c.mu.Unlock()

		delay := c.delay(attempt)
		c.emitReconnect(attempt, delay)

		timer := time.NewTimer(delay)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			c.finish(c.State())
			return
		case <-timer.C:
		}
		c.setState(StateConnecting)
	}
}

// finish records the terminal state and marks the loop stopped in one step,
// so a Reopen that observes the state can always start a new loop.
func (c *Conn) finish(s State) {
	c.mu.Lock()
	c.state = s
	c.looping = false
	c.mu.Unlock()
}

// session dials once and reads until the connection ends.
func (c *Conn) session() error {
	dialCtx, cancel := context.WithTimeout(c.ctx, c.opts.ConnectTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{HTTPHeader: c.opts.Header})
	cancel()
	if err != nil {
		if c.ctx.Err() == nil {
			c.emitError(fmt.Errorf("dial %s: %w", c.url, err))
		}
		return err
	}
	defer conn.CloseNow()

	if c.opts.ReadLimit > 0 {
		conn.SetReadLimit(c.opts.ReadLimit)
	}

	c.mu.Lock()
	c.attempts = 0
	c.state = StateOpen
	c.mu.Unlock()
	c.emitOpen()

	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "overlay closing")
				c.emitClose(websocket.StatusNormalClosure, "overlay closing")
				return c.ctx.Err()
			}

			status := websocket.CloseStatus(err)
			c.emitClose(status, err.Error())
			switch status {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway, websocket.StatusNoStatusRcvd:
				return errServerClosed
			}
			c.emitError(fmt.Errorf("read %s: %w", c.url, err))
			return err
		}
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(data)
		}
	}
}

func (c *Conn) delay(attempt int) time.Duration {
	d := float64(c.opts.RetryDelay) * math.Pow(c.opts.Multiplier, float64(attempt-1))
	if c.opts.MaxRetryDelay > 0 && d > float64(c.opts.MaxRetryDelay) {
		return c.opts.MaxRetryDelay
	}
	return time.Duration(d)
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Conn) emitOpen() {
	if c.opts.OnOpen != nil {
		c.opts.OnOpen()
	}
}

func (c *Conn) emitReconnect(attempt int, delay time.Duration) {
	if c.opts.OnReconnect != nil {
		c.opts.OnReconnect(attempt, delay)
	}
}

func (c *Conn) emitMaximum(attempts int) {
	if c.opts.OnMaximum != nil {
		c.opts.OnMaximum(attempts)
	}
}

func (c *Conn) emitClose(status websocket.StatusCode, reason string) {
	if c.opts.OnClose != nil {
		c.opts.OnClose(status, reason)
	}
}

func (c *Conn) emitError(err error) {
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}
	if opts.MaxAttempts < 0 {
		opts.MaxAttempts = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = 1
	}
	return opts
}
