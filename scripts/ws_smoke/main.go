package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-overlay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run connects as an overlay viewer and prints every pushed frame until
// -frames have arrived or the timeout hits.
func run() error {
	addr := flag.String("addr", "ws://localhost:8090/overlay/ws", "overlay viewer socket")
	frames := flag.Int("frames", 3, "stop after this many frames")
	verbose := flag.Bool("html", false, "print the rendered fragment")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	for i := 0; i < *frames; i++ {
		var frame proto.ViewerFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received frame: type=%s version=%d messages=%d\n", frame.Type, frame.Version, frame.Count)
		if *verbose {
			fmt.Println(frame.HTML)
		}
	}
	return nil
}
