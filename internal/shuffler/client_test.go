package shuffler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

type requestLog struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (l *requestLog) all() []recordedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedRequest(nil), l.reqs...)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *requestLog) {
	t.Helper()
	log := &requestLog{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		log.mu.Lock()
		log.reqs = append(log.reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		log.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", time.Second), log
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListsAndCreateList(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, []List{{ID: 1, Name: "backlog"}})
		case http.MethodPost:
			var in List
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusOK, List{ID: 2, Name: in.Name})
		}
	})
	ctx := context.Background()

	lists, err := c.Lists(ctx)
	if err != nil {
		t.Fatalf("lists: %v", err)
	}
	if len(lists) != 1 || lists[0].Name != "backlog" {
		t.Fatalf("unexpected lists: %+v", lists)
	}

	created, err := c.CreateList(ctx, "  retro  ")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if created.ID != 2 || created.Name != "retro" {
		t.Fatalf("unexpected created list: %+v", created)
	}
	if got := reqs.all()[1]; got.Method != http.MethodPost || got.Path != "/lists" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestInputValidationSendsNothing(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"empty list name", func() error { _, err := c.CreateList(ctx, " "); return err }},
		{"empty game name", func() error {
			_, err := c.CreateGame(ctx, Game{ListID: 1, Weight: 1})
			return err
		}},
		{"weight too low", func() error {
			_, err := c.CreateGame(ctx, Game{ListID: 1, Name: "a", Weight: 0})
			return err
		}},
		{"weight too high", func() error {
			_, err := c.CreateGame(ctx, Game{ListID: 1, Name: "a", Weight: MaxWeight + 1})
			return err
		}},
		{"no list", func() error {
			_, err := c.CreateGame(ctx, Game{Name: "a", Weight: 1})
			return err
		}},
		{"bad status", func() error {
			_, err := c.CreateGame(ctx, Game{ListID: 1, Name: "a", Weight: 1, Status: 4})
			return err
		}},
		{"update without id", func() error {
			_, err := c.UpdateGame(ctx, Game{ListID: 1, Name: "a", Weight: 1})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
	if got := reqs.all(); len(got) != 0 {
		t.Fatalf("invalid input reached the server: %+v", got)
	}
}

func TestAPIErrorBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/lists/9" {
			writeJSON(w, http.StatusNotFound, map[string]string{"err": "No list found with ID 9"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"err": "Error during query"})
	})
	ctx := context.Background()

	err := c.DeleteList(ctx, 9)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "No list found with ID 9" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("404 should match ErrNotFound")
	}

	_, err = c.Lists(ctx)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusOK {
		t.Fatalf("err body on 200 not surfaced: %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("non-404 error matched ErrNotFound")
	}
}

func TestGamesShuffleAndMarkPlayed(t *testing.T) {
	game := Game{ID: 5, ListID: 3, Name: "tetris", Weight: 10, Status: StatusMultiplayer}
	c, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/games/byList/3":
			writeJSON(w, http.StatusOK, []Game{game})
		case r.URL.Path == "/shuffle/3":
			writeJSON(w, http.StatusOK, ShuffleResult{Game: game, AnimContent: []string{"doom", "tetris"}})
		case r.Method == http.MethodPut && r.URL.Path == "/games/5":
			var in Game
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusOK, in)
		case r.Method == http.MethodGet && r.URL.Path == "/games/5":
			writeJSON(w, http.StatusOK, game)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	games, err := c.Games(ctx, 3)
	if err != nil || len(games) != 1 || games[0].Name != "tetris" {
		t.Fatalf("games = %+v, %v", games, err)
	}

	single, err := c.Game(ctx, 5)
	if err != nil || single.Title() != "tetris" {
		t.Fatalf("game = %+v, %v", single, err)
	}

	res, err := c.Shuffle(ctx, 3)
	if err != nil {
		t.Fatalf("shuffle: %v", err)
	}
	if res.Game.ID != 5 || len(res.AnimContent) != 2 {
		t.Fatalf("unexpected shuffle result: %+v", res)
	}

	updated, err := c.MarkPlayed(ctx, res.Game)
	if err != nil {
		t.Fatalf("mark played: %v", err)
	}
	if !updated.Status.Has(StatusPlayed) || !updated.Status.Has(StatusMultiplayer) {
		t.Fatalf("status = %v, want played and multiplayer", updated.Status)
	}

	if err := c.DeleteGame(ctx, 5); err != nil {
		t.Fatalf("delete game: %v", err)
	}
	all := reqs.all()
	last := all[len(all)-1]
	if last.Method != http.MethodDelete || last.Path != "/games/5" {
		t.Fatalf("unexpected delete request: %+v", last)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{0, "-"},
		{StatusPlayed, "played"},
		{StatusMultiplayer, "multiplayer"},
		{StatusPlayed | StatusMultiplayer, "played,multiplayer"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.status), got, tt.want)
		}
	}
}
