package shuffler

import (
	"errors"
	"fmt"
	"strings"
)

// Weight bounds accepted for a game.
const (
	MinWeight = 1
	MaxWeight = 25000
)

// Status is a bit set of game flags.
type Status int

const (
	StatusPlayed      Status = 1 << 0
	StatusMultiplayer Status = 1 << 1
)

// Has reports whether every bit of flag is set.
func (s Status) Has(flag Status) bool { return s&flag == flag }

func (s Status) String() string {
	var parts []string
	if s.Has(StatusPlayed) {
		parts = append(parts, "played")
	}
	if s.Has(StatusMultiplayer) {
		parts = append(parts, "multiplayer")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

var (
	// ErrInvalidInput is returned before any request is sent.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound matches APIErrors with a 404 status.
	ErrNotFound = errors.New("not found")
)

// APIError is an {"err": "..."} body returned by the shuffler.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shuffler api: %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// List groups games that can be shuffled together.
type List struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Game is one entry of a list.
type Game struct {
	ID          int64  `json:"id,omitempty"`
	ListID      int64  `json:"listId"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
	Weight      int    `json:"weight"`
	Status      Status `json:"status"`
}

// Title is the display name, falling back to the name.
func (g Game) Title() string {
	if g.DisplayName != "" {
		return g.DisplayName
	}
	return g.Name
}

// Validate checks a game before it is created or updated.
func (g Game) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: game name is required", ErrInvalidInput)
	}
	if g.ListID <= 0 {
		return fmt.Errorf("%w: game needs a list id", ErrInvalidInput)
	}
	if g.Weight < MinWeight || g.Weight > MaxWeight {
		return fmt.Errorf("%w: weight must be %d-%d, got %d", ErrInvalidInput, MinWeight, MaxWeight, g.Weight)
	}
	if g.Status&^(StatusPlayed|StatusMultiplayer) != 0 {
		return fmt.Errorf("%w: unknown status bits %d", ErrInvalidInput, int(g.Status))
	}
	return nil
}

// ShuffleResult is the picked game plus the names cycled through while the
// display animates.
type ShuffleResult struct {
	Game        Game     `json:"game"`
	AnimContent []string `json:"animContent"`
}
