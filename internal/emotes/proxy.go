// Package emotes fetches emote images from the CDN on behalf of overlay
// viewers and falls back to a bundled placeholder.
package emotes

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vovakirdan/wirechat-overlay/internal/metrics"
	"github.com/vovakirdan/wirechat-overlay/internal/render"
)

//go:embed placeholder.svg
var placeholderSVG []byte

// maxImageBytes bounds a single CDN response.
const maxImageBytes = 1 << 20

var (
	// ErrInvalidID is returned for empty emote ids.
	ErrInvalidID = errors.New("invalid emote id")
	// ErrNotFound is returned when the CDN has no image for the id.
	ErrNotFound = errors.New("emote not found")
)

// Image is an emote ready to be served.
type Image struct {
	ContentType string
	Data        []byte
}

// Outcome says where an image came from.
type Outcome string

const (
	OutcomeHit      Outcome = "hit"
	OutcomeMiss     Outcome = "miss"
	OutcomeFallback Outcome = "fallback"
)

// Placeholder is the image served when the CDN cannot deliver.
func Placeholder() Image {
	return Image{ContentType: "image/svg+xml", Data: placeholderSVG}
}

// Proxy resolves emote ids against a CDN URL template containing {id}.
type Proxy struct {
	cdn    string
	client *http.Client
	log    *zerolog.Logger

	group singleflight.Group
	// cache is nil when caching is disabled.
	cache *lru.Cache[string, Image]
}

// NewProxy builds a proxy. A cacheSize of zero disables caching.
func NewProxy(cdn string, timeout time.Duration, cacheSize int, logger *zerolog.Logger) *Proxy {
	p := &Proxy{
		cdn:    cdn,
		client: &http.Client{Timeout: timeout},
		log:    logger,
	}
	if cacheSize > 0 {
		// New only fails for a non-positive size.
		p.cache, _ = lru.New[string, Image](cacheSize)
	}
	return p
}

// Get never fails: errors are logged and the placeholder is returned.
func (p *Proxy) Get(ctx context.Context, id string) (Image, Outcome) {
	img, outcome, err := p.Lookup(ctx, id)
	if err != nil {
		p.log.Debug().Err(err).Str("emote_id", id).Msg("serving emote placeholder")
		outcome = OutcomeFallback
		img = Placeholder()
	}
	metrics.EmoteFetches.WithLabelValues(string(outcome)).Inc()
	return img, outcome
}

// Lookup returns the cached image or fetches it once, sharing the fetch
// between concurrent callers. The fetch is bounded by the client timeout,
// not by ctx.
func (p *Proxy) Lookup(ctx context.Context, id string) (Image, Outcome, error) {
	if id == "" {
		return Image{}, OutcomeFallback, ErrInvalidID
	}

	if p.cache != nil {
		if img, ok := p.cache.Get(id); ok {
			return img, OutcomeHit, nil
		}
	}

	// The fetch is shared with other callers, so it must outlive this one.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := p.group.Do(id, func() (any, error) {
		img, err := p.fetch(fetchCtx, id)
		if err != nil {
			return Image{}, err
		}
		if p.cache != nil {
			p.cache.Add(id, img)
		}
		return img, nil
	})
	if err != nil {
		return Image{}, OutcomeFallback, err
	}
	return v.(Image), OutcomeMiss, nil
}

func (p *Proxy) fetch(ctx context.Context, id string) (Image, error) {
	target := render.EmoteURL(p.cdn, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build emote request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch emote %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Image{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return Image{}, fmt.Errorf("fetch emote %s: unexpected status %d", id, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read emote %s: %w", id, err)
	}
	if len(data) > maxImageBytes {
		return Image{}, fmt.Errorf("emote %s exceeds %d bytes", id, maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Image{ContentType: contentType, Data: data}, nil
}
