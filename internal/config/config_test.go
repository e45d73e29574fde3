package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/framechat/internal/core"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg != Default() {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "addr: 0.0.0.0:2222\nhttp_addr: \"\"\nmax_frame_bytes: 20000\nshutdown_timeout: 2s\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FRAMECHAT_ADDR", "127.0.0.1:3333")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:3333" {
		t.Fatalf("env did not override addr: %q", cfg.Addr)
	}
	if cfg.HTTPAddr != "" {
		t.Fatalf("http_addr should be disabled, got %q", cfg.HTTPAddr)
	}
	if cfg.MaxFrameBytes != 20000 {
		t.Fatalf("max_frame_bytes = %d", cfg.MaxFrameBytes)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("shutdown_timeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log_level default lost: %q", cfg.LogLevel)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":9999", LogLevel: "debug"})

	if cfg.Addr != ":9999" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != Default().HTTPAddr || cfg.MaxFrameBytes != Default().MaxFrameBytes {
		t.Fatalf("zero values overwrote defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "http disabled", mutate: func(c *Config) { c.HTTPAddr = "" }},
		{name: "empty addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{name: "zero frame limit", mutate: func(c *Config) { c.MaxFrameBytes = 0 }, wantErr: true},
		{name: "smallest frame limit", mutate: func(c *Config) { c.MaxFrameBytes = core.MinFrameBytes }},
		{name: "frame limit below largest request", mutate: func(c *Config) { c.MaxFrameBytes = core.MinFrameBytes - 1 }, wantErr: true},
		{name: "frame limit too small for replies", mutate: func(c *Config) { c.MaxFrameBytes = 200 }, wantErr: true},
		{name: "frame limit too large", mutate: func(c *Config) { c.MaxFrameBytes = 100001 }, wantErr: true},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.ShutdownTimeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
