package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-overlay/internal/proto"
)

// waitSnapshot reads snapshots until match accepts one.
func waitSnapshot(t *testing.T, ch <-chan Snapshot, match func(Snapshot) bool) Snapshot {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatalf("snapshot channel closed before expected state")
			}
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("expected snapshot not received")
			return Snapshot{}
		}
	}
}

func frame(t *testing.T, f proto.Frame) []byte {
	t.Helper()
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return raw
}

func msgFrame(t *testing.T, id, body string) []byte {
	return frame(t, proto.Frame{MsgType: proto.MsgTypeMessage, ID: id, Msg: body, DisplayName: "tester"})
}

func deleteFrame(t *testing.T, id string) []byte {
	return frame(t, proto.Frame{MsgType: proto.MsgTypeDelete, ID: id})
}

// fakeSource records the deliver callback and whether it was closed.
type fakeSource struct {
	mu      sync.Mutex
	deliver func([]byte)
	opened  chan struct{}
	closed  chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{opened: make(chan struct{}), closed: make(chan struct{})}
}

func (f *fakeSource) Open(_ context.Context, deliver func([]byte)) (Closer, error) {
	f.mu.Lock()
	f.deliver = deliver
	f.mu.Unlock()
	close(f.opened)
	return f, nil
}

func (f *fakeSource) Close() error {
	close(f.closed)
	return nil
}

func (f *fakeSource) send(raw []byte) {
	f.mu.Lock()
	deliver := f.deliver
	f.mu.Unlock()
	deliver(raw)
}

// manualClock is advanced explicitly by tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
