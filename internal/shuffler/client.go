// Package shuffler is a client for the game shuffler REST API served next to
// the chat socket.
package shuffler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to one shuffler server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client with its own timeout-bound http.Client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Lists returns every list.
func (c *Client) Lists(ctx context.Context) ([]List, error) {
	var lists []List
	if err := c.do(ctx, http.MethodGet, "/lists", nil, &lists); err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	return lists, nil
}

// CreateList adds a list with the given name.
func (c *Client) CreateList(ctx context.Context, name string) (List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, fmt.Errorf("%w: list name is required", ErrInvalidInput)
	}
	var created List
	if err := c.do(ctx, http.MethodPost, "/lists", List{Name: name}, &created); err != nil {
		return List{}, fmt.Errorf("create list: %w", err)
	}
	return created, nil
}

// DeleteList removes a list.
func (c *Client) DeleteList(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, "/lists/"+itoa(id), nil, nil); err != nil {
		return fmt.Errorf("delete list %d: %w", id, err)
	}
	return nil
}

// Games returns the games of one list.
func (c *Client) Games(ctx context.Context, listID int64) ([]Game, error) {
	var games []Game
	if err := c.do(ctx, http.MethodGet, "/games/byList/"+itoa(listID), nil, &games); err != nil {
		return nil, fmt.Errorf("list games of %d: %w", listID, err)
	}
	return games, nil
}

// Game fetches one game by id.
func (c *Client) Game(ctx context.Context, id int64) (Game, error) {
	var g Game
	if err := c.do(ctx, http.MethodGet, "/games/"+itoa(id), nil, &g); err != nil {
		return Game{}, fmt.Errorf("get game %d: %w", id, err)
	}
	return g, nil
}

// CreateGame validates and adds a game.
func (c *Client) CreateGame(ctx context.Context, g Game) (Game, error) {
	if err := g.Validate(); err != nil {
		return Game{}, err
	}
	var created Game
	if err := c.do(ctx, http.MethodPost, "/games", g, &created); err != nil {
		return Game{}, fmt.Errorf("create game: %w", err)
	}
	return created, nil
}

// UpdateGame replaces a game.
func (c *Client) UpdateGame(ctx context.Context, g Game) (Game, error) {
	if g.ID <= 0 {
		return Game{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	if err := g.Validate(); err != nil {
		return Game{}, err
	}
	var updated Game
	if err := c.do(ctx, http.MethodPut, "/games/"+itoa(g.ID), g, &updated); err != nil {
		return Game{}, fmt.Errorf("update game %d: %w", g.ID, err)
	}
	return updated, nil
}

// MarkPlayed sets the played bit on g and stores it.
func (c *Client) MarkPlayed(ctx context.Context, g Game) (Game, error) {
	g.Status |= StatusPlayed
	return c.UpdateGame(ctx, g)
}

// DeleteGame removes a game.
func (c *Client) DeleteGame(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, "/games/"+itoa(id), nil, nil); err != nil {
		return fmt.Errorf("delete game %d: %w", id, err)
	}
	return nil
}

// Shuffle asks the server to pick a game from a list.
func (c *Client) Shuffle(ctx context.Context, listID int64) (ShuffleResult, error) {
	var res ShuffleResult
	if err := c.do(ctx, http.MethodGet, "/shuffle/"+itoa(listID), nil, &res); err != nil {
		return ShuffleResult{}, fmt.Errorf("shuffle list %d: %w", listID, err)
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	target, err := url.JoinPath(c.BaseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// Errors come back as {"err": "..."}, sometimes with a 200 status.
	var apiErr struct {
		Err string `json:"err"`
	}
	if len(raw) > 0 && raw[0] == '{' && json.Unmarshal(raw, &apiErr) == nil && apiErr.Err != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Err}
	}
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
