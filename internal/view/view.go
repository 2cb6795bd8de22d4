// Package view projects buffer snapshots into the overlay's HTML.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vovakirdan/wirechat-overlay/internal/core"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	DefaultTitle      = "Chat overlay"
	DefaultSocketPath = "/overlay/ws"
	DefaultEmotePath  = "/emotes/"
)

// Options configures a View. Zero fields take the defaults above.
type Options struct {
	Title      string
	Greeting   string
	SocketPath string
	// EmotePath is the prefix emote ids are appended to.
	EmotePath string
}

// View renders snapshots. It is safe for concurrent use.
type View struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
	opts   Options
}

type fragmentData struct {
	Greeting string
	Messages []core.VisibleMessage
}

type pageData struct {
	Title      string
	SocketPath string
	Fragment   template.HTML
}

// New parses the embedded templates.
func New(opts Options) (*View, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.SocketPath == "" {
		opts.SocketPath = DefaultSocketPath
	}
	if opts.EmotePath == "" {
		opts.EmotePath = DefaultEmotePath
	}

	v := &View{opts: opts, policy: overlayPolicy()}
	tmpl, err := template.New("overlay").
		Funcs(template.FuncMap{"emoteURL": v.emoteURL}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	v.tmpl = tmpl
	return v, nil
}

// Render returns the message list fragment for snap. An empty snapshot
// yields the empty list.
func (v *View) Render(snap core.Snapshot) (template.HTML, error) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, "fragment", fragmentData{
		Greeting: v.opts.Greeting,
		Messages: snap.Messages,
	}); err != nil {
		return "", fmt.Errorf("render fragment: %w", err)
	}
	// The policy drops anything the templates did not produce themselves.
	return template.HTML(v.policy.SanitizeBytes(buf.Bytes())), nil
}

// Page writes the full overlay document with snap as its initial content.
func (v *View) Page(w io.Writer, snap core.Snapshot) error {
	fragment, err := v.Render(snap)
	if err != nil {
		return err
	}
	if err := v.tmpl.ExecuteTemplate(w, "page", pageData{
		Title:      v.opts.Title,
		SocketPath: v.opts.SocketPath,
		Fragment:   fragment,
	}); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func (v *View) emoteURL(id string) string {
	return v.opts.EmotePath + url.PathEscape(id)
}

func overlayPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "p", "ul", "li", "span", "img")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).
		OnElements("div", "p", "ul", "li", "span", "img")
	p.AllowDataAttributes()
	p.AllowStyles("color", "background-color").OnElements("span")
	p.AllowAttrs("style").OnElements("span")
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	return p
}
