package app

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/framechat/internal/config"
	"github.com/vovakirdan/framechat/internal/frame"
	"github.com/vovakirdan/framechat/internal/proto"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxFrameBytes = 0
	logger := zerolog.Nop()

	if _, err := New(&cfg, &logger); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestRunServesChatAndStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.HTTPAddr = ""
	logger := zerolog.Nop()

	a, err := New(&cfg, &logger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	conn, err := net.Dial("tcp", a.ChatAddr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload, err := proto.Request{Kind: proto.KindChat, Sender: "ann", Text: "hello"}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := frame.Default.Write(conn, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	got, err := frame.Default.Decode(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasSuffix(string(got), " You: hello") {
		t.Fatalf("unexpected notice %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}
