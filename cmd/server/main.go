package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/framechat/internal/app"
	"github.com/vovakirdan/framechat/internal/config"
	applog "github.com/vovakirdan/framechat/internal/log"
)

var (
	configPath string
	overrides  config.Config
	httpAddr   string
)

var rootCmd = &cobra.Command{
	Use:          "framechat-server",
	Short:        "Run the framechat server",
	Long:         "Accept chat clients over TCP, and optionally over WebSocket with an admin HTTP API.",
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config.yaml (created with defaults if missing)")
	flags.StringVar(&overrides.Addr, "addr", "", "chat TCP listen address")
	flags.StringVar(&httpAddr, "http-addr", "", "admin HTTP and WebSocket listen address (empty disables)")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&overrides.LogFormat, "log-format", "", "log format: console or json")
	flags.IntVar(&overrides.MaxFrameBytes, "max-frame-bytes", 0, "largest accepted frame payload")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
}

func runServer(cmd *cobra.Command, _ []string) error {
	bootLog := applog.New("info", "console")

	cfg, path, err := config.Load(bootLog, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(overrides)
	if cmd.Flags().Changed("http-addr") {
		cfg.HTTPAddr = httpAddr
	}

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().
		Str("config", path).
		Str("addr", cfg.Addr).
		Str("http_addr", cfg.HTTPAddr).
		Int("max_frame_bytes", cfg.MaxFrameBytes).
		Msg("starting framechat server")

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Dur("uptime", time.Since(start)).Msg("server stopped")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
