package core

import (
	"container/heap"
	"container/list"
	"time"

	"github.com/vovakirdan/wirechat-overlay/internal/render"
)

// EvictReason tells why an entry left the buffer.
type EvictReason string

const (
	EvictExpired  EvictReason = "expired"
	EvictDeleted  EvictReason = "deleted"
	EvictReplaced EvictReason = "replaced"
	EvictOverflow EvictReason = "overflow"
)

type entry struct {
	msg  VisibleMessage
	elem *list.Element
}

// deadline is one armed expiry. It stays in the heap after its entry is
// replaced or deleted and is skipped when popped.
type deadline struct {
	at  time.Time
	id  string
	seq uint64
}

type deadlineHeap []deadline

func (h deadlineHeap) Len() int { return len(h) }
func (h deadlineHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h deadlineHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x any)   { *h = append(*h, x.(deadline)) }
func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	*h = old[:n-1]
	return d
}

// Buffer is the ordered, keyed set of visible messages. It is not safe for
// concurrent use; the Processor owns it and calls it from one goroutine.
type Buffer struct {
	entries    map[string]*entry
	order      *list.List
	deadlines  deadlineHeap
	nextSeq    uint64
	maxVisible int
}

// NewBuffer creates an empty buffer. maxVisible <= 0 means no cap.
func NewBuffer(maxVisible int) *Buffer {
	return &Buffer{
		entries:    make(map[string]*entry),
		order:      list.New(),
		maxVisible: maxVisible,
	}
}

// Append inserts content under id for ttl. An existing entry with the same id
// is replaced: it gets a new sequence, a fresh ttl, and moves to the tail.
// The returned slice lists entries pushed out by the visible cap.
func (b *Buffer) Append(id string, content render.Content, ttl time.Duration, now time.Time) (VisibleMessage, []VisibleMessage) {
	if old, ok := b.entries[id]; ok {
		b.order.Remove(old.elem)
		delete(b.entries, id)
	}

	b.nextSeq++
	msg := VisibleMessage{
		ID:         id,
		Seq:        b.nextSeq,
		RenderedAt: now,
		ExpiresAt:  now.Add(ttl),
		Content:    content,
	}
	e := &entry{msg: msg}
	e.elem = b.order.PushBack(e)
	b.entries[id] = e
	heap.Push(&b.deadlines, deadline{at: msg.ExpiresAt, id: id, seq: msg.Seq})

	var overflow []VisibleMessage
	for b.maxVisible > 0 && b.order.Len() > b.maxVisible {
		oldest := b.order.Front().Value.(*entry)
		b.drop(oldest)
		overflow = append(overflow, oldest.msg)
	}

	return msg, overflow
}

// Remove deletes id if present. Unknown ids are a no-op.
func (b *Buffer) Remove(id string) (VisibleMessage, bool) {
	e, ok := b.entries[id]
	if !ok {
		return VisibleMessage{}, false
	}
	b.drop(e)
	return e.msg, true
}

// Expire evicts every entry whose deadline is at or before now. Deadlines
// left behind by replaced or removed insertions are discarded.
func (b *Buffer) Expire(now time.Time) []VisibleMessage {
	var expired []VisibleMessage
	for b.deadlines.Len() > 0 {
		next := b.deadlines[0]
		if next.at.After(now) {
			break
		}
		heap.Pop(&b.deadlines)

		e, ok := b.entries[next.id]
		if !ok || e.msg.Seq != next.seq {
			continue
		}
		b.drop(e)
		expired = append(expired, e.msg)
	}
	return expired
}

// NextDeadline reports the earliest deadline still tied to a live entry.
func (b *Buffer) NextDeadline() (time.Time, bool) {
	for b.deadlines.Len() > 0 {
		next := b.deadlines[0]
		if e, ok := b.entries[next.id]; ok && e.msg.Seq == next.seq {
			return next.at, true
		}
		heap.Pop(&b.deadlines)
	}
	return time.Time{}, false
}

// Snapshot copies the visible entries in insertion order, oldest first.
func (b *Buffer) Snapshot() []VisibleMessage {
	out := make([]VisibleMessage, 0, b.order.Len())
	for el := b.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry).msg)
	}
	return out
}

// Get returns the live entry for id.
func (b *Buffer) Get(id string) (VisibleMessage, bool) {
	e, ok := b.entries[id]
	if !ok {
		return VisibleMessage{}, false
	}
	return e.msg, true
}

// Len is the number of visible entries.
func (b *Buffer) Len() int { return b.order.Len() }

// Reset drops every entry and every pending deadline.
func (b *Buffer) Reset() {
	b.entries = make(map[string]*entry)
	b.order.Init()
	b.deadlines = nil
}

func (b *Buffer) drop(e *entry) {
	b.order.Remove(e.elem)
	delete(b.entries, e.msg.ID)
}
