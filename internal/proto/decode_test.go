package proto

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeMessage(t *testing.T) {
	raw := []byte(`{"msgType":1,"id":"m1","displayName":"Alice","displayCol":"#ff0000","channel":"kewliomzx","msg":"Kappa hi","time":1700000000,"emotes":[{"name":"Kappa","id":"25"}]}`)

	ev, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != KindMessage || ev.Action {
		t.Fatalf("unexpected kind: %v action=%v", ev.Kind, ev.Action)
	}
	if ev.ID != "m1" || ev.Body != "Kappa hi" || ev.DisplayName != "Alice" || ev.Channel != "kewliomzx" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !ev.Time.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unexpected time: %v", ev.Time)
	}
	if len(ev.Emotes) != 1 || ev.Emotes[0] != (Emote{Name: "Kappa", ID: "25"}) {
		t.Fatalf("unexpected emotes: %+v", ev.Emotes)
	}
}

func TestDecodeActionIsMessage(t *testing.T) {
	ev, err := Decode([]byte(`{"msgType":2,"id":"a1","msg":"dances"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != KindMessage || !ev.Action {
		t.Fatalf("expected action message, got %+v", ev)
	}
}

func TestDecodeDelete(t *testing.T) {
	ev, err := Decode([]byte(`{"msgType":3,"id":"m1","msg":"ignored","emotes":[{"name":"x","id":"1"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != KindDelete || ev.ID != "m1" {
		t.Fatalf("expected delete m1, got %+v", ev)
	}
	if ev.Body != "" || ev.Emotes != nil {
		t.Fatalf("delete should drop body and emotes: %+v", ev)
	}
}

func TestDecodeBestEffortUnknown(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"message without id", `{"msgType":1,"msg":"hello"}`},
		{"message without body", `{"msgType":1,"id":"x"}`},
		{"delete without id", `{"msgType":3}`},
		{"explicit unknown", `{"msgType":0,"id":"x","msg":"y"}`},
		{"future type", `{"msgType":9,"id":"x","msg":"y"}`},
		{"missing type", `{"id":"x","msg":"y"}`},
		{"mistyped field", `{"msgType":1,"id":42,"msg":"y"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("expected best-effort event, got error %v", err)
			}
			if ev.Kind != KindUnknown {
				t.Fatalf("expected KindUnknown, got %v", ev.Kind)
			}
			if ev.Reason == "" {
				t.Fatalf("expected a reason for %s", tt.raw)
			}
		})
	}
}

func TestDecodeRejectsUnstructured(t *testing.T) {
	for _, raw := range []string{"", "not json", `"a string"`, `[1,2]`, `{"msgType":1,`} {
		_, err := Decode([]byte(raw))
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("Decode(%q): expected ErrDecode, got %v", raw, err)
		}
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("Decode(%q): expected *DecodeError, got %T", raw, err)
		}
	}
}

func TestNegativeTimestampIsNotDelete(t *testing.T) {
	ev, err := Decode([]byte(`{"msgType":1,"id":"m1","msg":"hi","time":-1}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != KindMessage {
		t.Fatalf("negative time must not change the kind, got %v", ev.Kind)
	}
	if !ev.Time.IsZero() {
		t.Fatalf("negative time should be dropped, got %v", ev.Time)
	}
}
