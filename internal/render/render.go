package render

import (
	"net/url"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-overlay/internal/proto"
)

// TimeLayout is the 24 hour hours:minutes label shown next to each message.
const TimeLayout = "15:04"

// Input is everything the renderer needs from one message event.
type Input struct {
	Body         string
	Emotes       []proto.Emote
	DisplayName  string
	DisplayColor string
	Channel      string
	Time         time.Time
	Action       bool
}

// Content is a rendered message plus its presentation attributes.
type Content struct {
	Segments    []Segment `json:"segments"`
	DisplayName string    `json:"displayName,omitempty"`
	NameColor   string    `json:"nameColor"`
	Channel     string    `json:"channel,omitempty"`
	BadgeColor  string    `json:"badgeColor"`
	BadgeText   string    `json:"badgeText"`
	TimeLabel   string    `json:"timeLabel,omitempty"`
	Action      bool      `json:"action,omitempty"`
}

// Renderer turns message events into Content. The zero value renders time
// labels in the local zone.
type Renderer struct {
	Location *time.Location
}

// NewRenderer returns a renderer that formats times in loc.
func NewRenderer(loc *time.Location) *Renderer {
	return &Renderer{Location: loc}
}

// Render is pure: the same input always yields the same Content.
func (r *Renderer) Render(in Input) Content {
	out := Content{
		Segments:    Segments(in.Body, in.Emotes),
		DisplayName: in.DisplayName,
		Channel:     in.Channel,
		Action:      in.Action,
	}

	if in.DisplayColor != "" {
		out.NameColor = in.DisplayColor
	} else {
		out.NameColor = DeriveColor(firstNonEmpty(in.DisplayName, in.Body))
	}

	out.BadgeColor = DeriveColor(firstNonEmpty(in.Channel, in.DisplayName, in.Body))
	out.BadgeText = ContrastText(out.BadgeColor)

	if !in.Time.IsZero() {
		loc := r.Location
		if loc == nil {
			loc = time.Local
		}
		out.TimeLabel = in.Time.In(loc).Format(TimeLayout)
	}

	return out
}

// InputFromEvent adapts a decoded event.
func InputFromEvent(ev proto.Event) Input {
	return Input{
		Body:         ev.Body,
		Emotes:       ev.Emotes,
		DisplayName:  ev.DisplayName,
		DisplayColor: ev.DisplayCol,
		Channel:      ev.Channel,
		Time:         ev.Time,
		Action:       ev.Action,
	}
}

// EmoteURL fills the {id} placeholder of a CDN template.
func EmoteURL(template, id string) string {
	return strings.ReplaceAll(template, "{id}", url.PathEscape(id))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
