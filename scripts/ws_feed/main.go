// ws_feed serves a fake upstream chat socket for local overlay runs.
//
// Lines typed on stdin are broadcast as chat messages:
//
//	hello Kappa      message (Kappa becomes an emote)
//	/me waves        action
//	/del ID          delete a previous message
//
// With -auto the feed also emits sample chatter on its own.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-overlay/internal/proto"
)

var sampleUsers = []struct{ name, color string }{
	{"alice", "#1E90FF"},
	{"bob", ""},
	{"kewliomzx", "#9ACD32"},
	{"nightbot", "#FF4500"},
}

var sampleLines = []string{
	"gg well played",
	"Kappa is great Kappa",
	"LUL that jump",
	"what game is this?",
	"PogChamp PogChamp",
	"hello chat",
}

var knownEmotes = map[string]string{
	"Kappa":      "25",
	"LUL":        "425618",
	"PogChamp":   "305954156",
	"BibleThump": "86",
}

type feed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	next    int
	channel string
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_feed: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", ":42069", "listen address")
	channel := flag.String("channel", "kewliomzx", "channel name put on every frame")
	auto := flag.Duration("auto", 0, "emit a sample message at this interval (0 disables)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := &feed{clients: make(map[*websocket.Conn]struct{}), channel: *channel}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.serveWS)
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if *auto > 0 {
		go f.autoChat(ctx, *auto)
	}
	go f.readStdin(ctx)

	log.Printf("fake upstream on ws://localhost%s/ws", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (f *feed) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("accept: %v", err)
		return
	}
	defer conn.CloseNow()

	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()
	log.Printf("overlay connected from %s", r.RemoteAddr)

	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()

	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	log.Printf("overlay disconnected from %s", r.RemoteAddr)
}

func (f *feed) broadcast(ctx context.Context, frame proto.Frame) {
	f.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.Unlock()

	for _, c := range clients {
		writeCtx, cancel := context.WithTimeout(ctx, time.Second)
		if err := wsjson.Write(writeCtx, c, frame); err != nil {
			log.Printf("write: %v", err)
		}
		cancel()
	}
	log.Printf("sent %s id=%s to %d overlay(s)", frame.MsgType, frame.ID, len(clients))
}

func (f *feed) message(kind proto.MsgType, user, color, text string) proto.Frame {
	f.mu.Lock()
	f.next++
	id := strconv.Itoa(f.next)
	f.mu.Unlock()

	return proto.Frame{
		MsgType:     kind,
		ID:          id,
		DisplayName: user,
		DisplayCol:  color,
		Channel:     f.channel,
		Msg:         text,
		Time:        time.Now().Unix(),
		Emotes:      emotesIn(text),
	}
}

func (f *feed) readStdin(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/del "):
			f.broadcast(ctx, proto.Frame{MsgType: proto.MsgTypeDelete, ID: strings.TrimSpace(line[5:])})
		case strings.HasPrefix(line, "/me "):
			f.broadcast(ctx, f.message(proto.MsgTypeAction, "you", "", line[4:]))
		default:
			f.broadcast(ctx, f.message(proto.MsgTypeMessage, "you", "", line))
		}
	}
}

func (f *feed) autoChat(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u := sampleUsers[rand.Intn(len(sampleUsers))]
			f.broadcast(ctx, f.message(proto.MsgTypeMessage, u.name, u.color, sampleLines[rand.Intn(len(sampleLines))]))
		}
	}
}

func emotesIn(text string) []proto.Emote {
	var out []proto.Emote
	seen := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		if id, ok := knownEmotes[word]; ok && !seen[word] {
			seen[word] = true
			out = append(out, proto.Emote{Name: word, ID: id})
		}
	}
	return out
}
