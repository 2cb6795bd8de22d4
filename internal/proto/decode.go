package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrDecode matches every *DecodeError.
var ErrDecode = errors.New("decode frame")

// DecodeError reports a frame that is not a structured JSON object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDecode) match.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Kind is what the processor does with an event.
type Kind int

const (
	// KindUnknown events are dropped without touching the buffer.
	KindUnknown Kind = iota
	// KindMessage adds (or replaces) a visible message.
	KindMessage
	// KindDelete removes a visible message by id.
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is a validated frame.
type Event struct {
	Kind        Kind
	ID          string
	DisplayName string
	DisplayCol  string
	Channel     string
	Body        string
	// Time is zero when the frame carried no usable timestamp.
	Time   time.Time
	Emotes []Emote
	// Action marks /me messages.
	Action bool
	// Reason explains why a frame became KindUnknown.
	Reason string
}

// Decode parses one raw frame. A hard error is returned only when the payload
// is not a JSON object; frames that parse but miss fields for their declared
// type come back as KindUnknown with Reason set.
func Decode(raw []byte) (Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Event{}, &DecodeError{Err: errors.New("payload is not a json object")}
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &generic); err != nil {
		return Event{}, &DecodeError{Err: err}
	}

	var frame Frame
	if err := json.Unmarshal(trimmed, &frame); err != nil {
		// Structured but with mistyped fields: keep consuming the stream.
		return Event{Kind: KindUnknown, Reason: "malformed fields: " + err.Error()}, nil
	}

	return FromFrame(frame), nil
}

// FromFrame maps a wire frame onto an Event, checking required fields.
func FromFrame(frame Frame) Event {
	ev := Event{
		ID:          frame.ID,
		DisplayName: frame.DisplayName,
		DisplayCol:  frame.DisplayCol,
		Channel:     frame.Channel,
		Body:        frame.Msg,
		Emotes:      frame.Emotes,
	}
	// Negative timestamps were once overloaded as a delete marker; they are
	// only treated as missing here.
	if frame.Time > 0 {
		ev.Time = time.Unix(frame.Time, 0)
	}

	switch frame.MsgType {
	case MsgTypeMessage, MsgTypeAction:
		if frame.ID == "" {
			return unknown(ev, frame.MsgType.String()+" without id")
		}
		if frame.Msg == "" {
			return unknown(ev, frame.MsgType.String()+" without msg")
		}
		ev.Kind = KindMessage
		ev.Action = frame.MsgType == MsgTypeAction
	case MsgTypeDelete:
		if frame.ID == "" {
			return unknown(ev, "delete without id")
		}
		ev.Kind = KindDelete
		ev.Body = ""
		ev.Emotes = nil
	default:
		return unknown(ev, fmt.Sprintf("unsupported msgType %d", int(frame.MsgType)))
	}

	return ev
}

func unknown(ev Event, reason string) Event {
	ev.Kind = KindUnknown
	ev.Reason = reason
	return ev
}
