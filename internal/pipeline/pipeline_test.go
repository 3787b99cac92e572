package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/aleka07/conferencess-summary-maker/internal/ports/adapters/locallock"
	"github.com/aleka07/conferencess-summary-maker/internal/ports/adapters/redislock"
)

func validConfig() Config {
	return Config{
		ChunkLength: 10 * time.Minute,
		Overlap:     10 * time.Second,
		LockTTL:     time.Minute,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "zero length", mutate: func(c *Config) { c.ChunkLength = 0 }, wantErr: "chunk length"},
		{name: "sub-second length", mutate: func(c *Config) { c.ChunkLength = 300 * time.Millisecond }, wantErr: "whole number of seconds"},
		{name: "fractional length", mutate: func(c *Config) { c.ChunkLength = 90*time.Second + 500*time.Millisecond }, wantErr: "whole number of seconds"},
		{name: "half minute", mutate: func(c *Config) { c.ChunkLength = 30 * time.Second; c.Overlap = 0 }},
		{name: "negative overlap", mutate: func(c *Config) { c.Overlap = -time.Second }, wantErr: "overlap"},
		{name: "overlap equals length", mutate: func(c *Config) { c.Overlap = c.ChunkLength }, wantErr: "overlap"},
		{name: "negative jobs", mutate: func(c *Config) { c.TranscribeJobs = -1 }, wantErr: "jobs"},
		{name: "negative ttl", mutate: func(c *Config) { c.LockTTL = -time.Second }, wantErr: "lock ttl"},
		{name: "two lock backends", mutate: func(c *Config) {
			c.RedisURL = "redis://localhost:6379"
			c.DatabaseURL = "postgres://localhost/db"
		}, wantErr: "only one"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfigValidateASR(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ValidateASR(); err == nil {
		t.Fatalf("expected error for empty model")
	}
	cfg.WhisperModel = filepath.Join(t.TempDir(), "missing.bin")
	if err := cfg.ValidateASR(); err == nil {
		t.Fatalf("expected error for missing model")
	}
	cfg.WhisperModel = filepath.Join(t.TempDir(), "model.bin")
	if err := os.WriteFile(cfg.WhisperModel, []byte("x"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	if err := cfg.ValidateASR(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenLock_DefaultsToLocal(t *testing.T) {
	lock, backend, closer, err := openLock(context.Background(), validConfig())
	if err != nil {
		t.Fatalf("open lock: %v", err)
	}
	if backend != "local" {
		t.Fatalf("unexpected backend %q", backend)
	}
	if closer != nil {
		t.Fatalf("expected no closer for local lock")
	}
	if _, ok := lock.(*locallock.Lock); !ok {
		t.Fatalf("expected local lock, got %T", lock)
	}
}

func TestOpenLock_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := validConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	lock, backend, closer, err := openLock(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open lock: %v", err)
	}
	defer closer.Close()
	if backend != "redis" {
		t.Fatalf("unexpected backend %q", backend)
	}
	if _, ok := lock.(*redislock.Lock); !ok {
		t.Fatalf("expected redis lock, got %T", lock)
	}
	ok, err := lock.Acquire(context.Background(), "meeting:m", time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if !mr.Exists("confsum:lock:meeting:m") {
		t.Fatalf("expected lock key in redis")
	}
}

func TestOpenLock_RedisUnreachable(t *testing.T) {
	cfg := validConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, _, _, err := openLock(ctx, cfg); err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestOpen_UsesDataDir(t *testing.T) {
	cfg := validConfig()
	cfg.DataDir = t.TempDir()
	app, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer app.Close()
	if app.Workspace.Root != cfg.DataDir {
		t.Fatalf("unexpected workspace root %q", app.Workspace.Root)
	}

	cfg.DataDir = ""
	app2, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	defer app2.Close()
	if app2.Workspace.Root != "data" {
		t.Fatalf("expected default data dir, got %q", app2.Workspace.Root)
	}
}

func TestRun_RejectsMissingInput(t *testing.T) {
	err := Run(context.Background(), validConfig(), RunInput{Input: filepath.Join(t.TempDir(), "nope.mp4")})
	if err == nil || !strings.Contains(err.Error(), "stat input") {
		t.Fatalf("expected stat error, got %v", err)
	}
}
