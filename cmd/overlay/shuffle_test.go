package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vovakirdan/wirechat-overlay/internal/shuffler"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	base := []string{"--config", filepath.Join(t.TempDir(), "config.yaml"), "--env-file", ""}
	rootCmd.SetArgs(append(base, args...))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		shufflerURL = ""
		rollMark = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestShuffleRollAndMark(t *testing.T) {
	game := shuffler.Game{ID: 4, ListID: 2, Name: "celeste", DisplayName: "Celeste", Weight: 3}
	markedCh := make(chan shuffler.Game, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/shuffle/2":
			_ = json.NewEncoder(w).Encode(shuffler.ShuffleResult{Game: game, AnimContent: []string{"celeste"}})
		case r.Method == http.MethodPut && r.URL.Path == "/games/4":
			var marked shuffler.Game
			_ = json.NewDecoder(r.Body).Decode(&marked)
			markedCh <- marked
			_ = json.NewEncoder(w).Encode(marked)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	out, err := runCLI(t, "shuffle", "--url", ts.URL, "roll", "2", "--mark")
	if err != nil {
		t.Fatalf("roll: %v\n%s", err, out)
	}
	if !strings.Contains(out, "rolled: Celeste") || !strings.Contains(out, "marked played") {
		t.Fatalf("unexpected output: %s", out)
	}
	marked := <-markedCh
	if !marked.Status.Has(shuffler.StatusPlayed) {
		t.Fatalf("played flag not sent: %+v", marked)
	}
}

func TestShuffleRejectsBadID(t *testing.T) {
	_, err := runCLI(t, "shuffle", "--url", "http://127.0.0.1:1", "games", "abc")
	if !errors.Is(err, shuffler.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
