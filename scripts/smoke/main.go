package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/vovakirdan/framechat/internal/client"
	"github.com/vovakirdan/framechat/internal/frame"
	"github.com/vovakirdan/framechat/internal/proto"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:1111", "server address (ws:// URL or host:port with -ws)")
	ws := flag.Bool("ws", false, "go through the WebSocket gateway")
	first := flag.String("first", "smoke-a", "name of the first user")
	second := flag.String("second", "smoke-b", "name of the second user")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a := mustDial(ctx, *addr, *ws)
	defer a.Close()

	send(a, proto.Request{Kind: proto.KindChat, Sender: *first, Text: "hello from smoke test"})
	expect(a, *first, 2) // echo, then promotion when the room had no manager

	b := mustDial(ctx, *addr, *ws)
	defer b.Close()
	expect(a, *first, 1) // join notice

	send(b, proto.Request{Kind: proto.KindPrivate, Sender: *second, Target: *first, Text: "psst"})
	expect(a, *first, 1)
	expect(b, *second, 1)

	send(b, proto.Request{Kind: proto.KindViewManagers})
	expect(b, *second, 1)

	send(a, proto.Request{Kind: proto.KindQuit})
	expect(b, *second, 2) // departure, then promotion

	fmt.Println("smoke test finished")
}

func mustDial(ctx context.Context, addr string, ws bool) io.ReadWriteCloser {
	conn, err := client.Dial(ctx, addr, ws)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	return conn
}

func send(w io.Writer, req proto.Request) {
	payload, err := req.Encode()
	if err != nil {
		log.Fatalf("encode %s: %v", req.Kind, err)
	}
	if err := frame.Default.Write(w, payload); err != nil {
		log.Fatalf("send %s: %v", req.Kind, err)
	}
}

func expect(r io.Reader, who string, n int) {
	for i := 0; i < n; i++ {
		payload, err := frame.Default.Decode(r)
		if err != nil {
			log.Fatalf("read for %s: %v", who, err)
		}
		fmt.Printf("[%s] %s\n", who, payload)
	}
}
