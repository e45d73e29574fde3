// Package tcp accepts chat clients on a plain TCP listener.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/framechat/internal/core"
	"github.com/vovakirdan/framechat/internal/frame"
	"github.com/vovakirdan/framechat/internal/transport/stream"
)

// Server is the TCP front end of the hub.
type Server struct {
	addr  string
	hub   core.Hub
	codec frame.Codec
	log   *zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// NewServer builds a server that will listen on addr.
func NewServer(addr string, hub core.Hub, codec frame.Codec, logger *zerolog.Logger) *Server {
	return &Server{addr: addr, hub: hub, codec: codec, log: logger, ready: make(chan struct{})}
}

// Addr returns the bound listener address once ListenAndServe has started.
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe accepts connections until ctx is cancelled. Each
// connection gets its own reader goroutine; all of them feed the hub.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("chat listener started")

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			stream.Serve(ctx, s.hub, s.codec, conn, s.log)
		}()
	}
}
