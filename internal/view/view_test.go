package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vovakirdan/wirechat-overlay/internal/core"
	"github.com/vovakirdan/wirechat-overlay/internal/render"
)

func newTestView(t *testing.T, opts Options) *View {
	t.Helper()
	v, err := New(opts)
	if err != nil {
		t.Fatalf("new view: %v", err)
	}
	return v
}

func message(id string, content render.Content) core.VisibleMessage {
	return core.VisibleMessage{ID: id, Content: content}
}

func TestRenderEmptySnapshot(t *testing.T) {
	v := newTestView(t, Options{})

	out, err := v.Render(core.Snapshot{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `<ul class="messages"></ul>`) {
		t.Fatalf("expected empty list, got %q", html)
	}
	if strings.Contains(html, "greeting") {
		t.Fatalf("greeting rendered without being configured: %q", html)
	}
}

func TestRenderGreeting(t *testing.T) {
	v := newTestView(t, Options{Greeting: "Hello World! This is the chat overlay."})

	out, err := v.Render(core.Snapshot{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "Hello World! This is the chat overlay.") {
		t.Fatalf("missing greeting: %q", out)
	}
}

func TestRenderMessage(t *testing.T) {
	v := newTestView(t, Options{})
	snap := core.Snapshot{Messages: []core.VisibleMessage{
		message("m1", render.Content{
			Segments: []render.Segment{
				{Text: "Kappa", EmoteID: "25"},
				{Text: " is great"},
			},
			DisplayName: "alice",
			NameColor:   "#ff0000",
			Channel:     "twitch",
			BadgeColor:  "#123456",
			BadgeText:   "#ffffff",
			TimeLabel:   "22:13",
		}),
	}}

	out, err := v.Render(snap)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		`data-id="m1"`,
		`<span class="time">22:13</span>`,
		`>twitch</span>`,
		`>alice</span>`,
		`src="/emotes/25"`,
		`alt="Kappa"`,
		` is great</span>`,
		"#ff0000",
		"#123456",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q\n%s", want, html)
		}
	}
	if strings.Contains(html, "action") {
		t.Errorf("plain message rendered as action: %s", html)
	}
}

func TestRenderOrderFollowsSnapshot(t *testing.T) {
	v := newTestView(t, Options{})
	snap := core.Snapshot{Messages: []core.VisibleMessage{
		message("first", render.Content{Segments: []render.Segment{{Text: "one"}}}),
		message("second", render.Content{Segments: []render.Segment{{Text: "two"}}}),
	}}

	out, err := v.Render(snap)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if strings.Index(html, "one") > strings.Index(html, "two") {
		t.Fatalf("messages out of order: %s", html)
	}
}

func TestRenderAction(t *testing.T) {
	v := newTestView(t, Options{})
	snap := core.Snapshot{Messages: []core.VisibleMessage{
		message("a", render.Content{Segments: []render.Segment{{Text: "waves"}}, Action: true}),
	}}

	out, err := v.Render(snap)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), `class="message action"`) {
		t.Fatalf("action class missing: %s", out)
	}
}

func TestRenderEscapesBody(t *testing.T) {
	v := newTestView(t, Options{})
	snap := core.Snapshot{Messages: []core.VisibleMessage{
		message("x", render.Content{
			Segments:    []render.Segment{{Text: `<script>alert(1)</script>`}},
			DisplayName: `<img src=x onerror=alert(1)>`,
			NameColor:   "red; background: url(javascript:alert(1))",
		}),
	}}

	out, err := v.Render(snap)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "<script") || strings.Contains(html, "<img src=x") {
		t.Fatalf("unescaped markup in output: %s", html)
	}
	if strings.Contains(html, "javascript") {
		t.Fatalf("style injection survived: %s", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Fatalf("body text not preserved as text: %s", html)
	}
}

func TestEmotePathOption(t *testing.T) {
	v := newTestView(t, Options{EmotePath: "https://cdn.example/e/"})
	snap := core.Snapshot{Messages: []core.VisibleMessage{
		message("e", render.Content{Segments: []render.Segment{{Text: "Kappa", EmoteID: "emotesv2_a b"}}}),
	}}

	out, err := v.Render(snap)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), `src="https://cdn.example/e/emotesv2_a%20b"`) {
		t.Fatalf("unexpected emote src: %s", out)
	}
}

func TestPage(t *testing.T) {
	v := newTestView(t, Options{Title: "My overlay", Greeting: "hi"})
	snap := core.Snapshot{Messages: []core.VisibleMessage{
		message("p", render.Content{Segments: []render.Segment{{Text: "initial"}}}),
	}}

	var buf bytes.Buffer
	if err := v.Page(&buf, snap); err != nil {
		t.Fatalf("page: %v", err)
	}
	page := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>My overlay</title>",
		`<div id="overlay"><div class="overlay">`,
		"initial",
		`overlay\/ws`,
		"new WebSocket(",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}
