package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/framechat/internal/config"
	"github.com/vovakirdan/framechat/internal/core"
	"github.com/vovakirdan/framechat/internal/frame"
	transporthttp "github.com/vovakirdan/framechat/internal/transport/http"
	"github.com/vovakirdan/framechat/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	hub             core.Hub
	chat            *tcp.Server
	admin           *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger, opts ...core.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	codec := frame.NewCodec(cfg.MaxFrameBytes)
	hub := core.NewHub(codec, logger, opts...)

	a := &App{
		hub:             hub,
		chat:            tcp.NewServer(cfg.Addr, hub, codec, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
	if cfg.HTTPAddr != "" {
		a.admin = transporthttp.NewServer(hub, cfg, logger)
	}
	return a, nil
}

// ChatAddr blocks until the chat listener is bound and returns its address.
func (a *App) ChatAddr() string {
	if addr := a.chat.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Run starts the hub and listeners and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		a.hub.Run(ctx)
	}()

	chatErr := make(chan error, 1)
	go func() {
		chatErr <- a.chat.ListenAndServe(ctx)
	}()

	adminErr := make(chan error, 1)
	if a.admin != nil {
		go func() {
			a.log.Info().Str("addr", a.admin.Addr).Msg("admin http server started")
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				adminErr <- err
				return
			}
			adminErr <- nil
		}()
	}

	var runErr error
	select {
	case err := <-chatErr:
		runErr = err
		chatErr <- nil
	case err := <-adminErr:
		runErr = err
		adminErr <- nil
	case <-ctx.Done():
	}
	cancel()

	if a.admin != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer stop()

		a.log.Info().Msg("shutting down http server")
		if err := a.admin.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = err
		}
		if err := <-adminErr; err != nil && runErr == nil {
			runErr = err
		}
	}

	if err := <-chatErr; err != nil && runErr == nil {
		runErr = err
	}
	<-hubDone
	return runErr
}
