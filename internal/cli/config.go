package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleka07/conferencess-summary-maker/internal/pipeline"
)

// loadConfig merges flags and environment. A flag set on the command line
// wins over its environment key.
func loadConfig(cmd *cobra.Command) (pipeline.Config, error) {
	dataDir, err := stringSetting(cmd, "data-dir", "CONFSUM_DATA_DIR")
	if err != nil {
		return pipeline.Config{}, err
	}
	minutes, err := floatSetting(cmd, "chunk-minutes", "CONFSUM_CHUNK_MINUTES")
	if err != nil {
		return pipeline.Config{}, err
	}
	overlap, err := floatSetting(cmd, "overlap-seconds", "CONFSUM_OVERLAP_SECONDS")
	if err != nil {
		return pipeline.Config{}, err
	}
	level, err := stringSetting(cmd, "log-level", "CONFSUM_LOG_LEVEL")
	if err != nil {
		return pipeline.Config{}, err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level)
	if err != nil {
		return pipeline.Config{}, err
	}
	ttl, err := getenvInt("CONFSUM_LOCK_TTL_SECONDS", 600)
	if err != nil {
		return pipeline.Config{}, err
	}
	jobs, err := getenvInt("CONFSUM_TRANSCRIBE_JOBS", 1)
	if err != nil {
		return pipeline.Config{}, err
	}

	return pipeline.Config{
		DataDir:     dataDir,
		ChunkLength: time.Duration(minutes * float64(time.Minute)),
		Overlap:     time.Duration(overlap * float64(time.Second)),

		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),

		WhisperBin:      getenvDefault("WHISPER_BIN", ".cache/bin/whisper.cpp"),
		WhisperModel:    getenvDefault("WHISPER_MODEL", ".cache/models/ggml-base.bin"),
		WhisperLanguage: getenvDefault("WHISPER_LANGUAGE", "ru"),
		TranscribeJobs:  jobs,

		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LockTTL:     time.Duration(ttl) * time.Second,

		Logger: logger,
	}, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func stringSetting(cmd *cobra.Command, flag, env string) (string, error) {
	v, err := cmd.Flags().GetString(flag)
	if err != nil {
		return "", err
	}
	if !cmd.Flags().Changed(flag) {
		v = getenvDefault(env, v)
	}
	return v, nil
}

func floatSetting(cmd *cobra.Command, flag, env string) (float64, error) {
	v, err := cmd.Flags().GetFloat64(flag)
	if err != nil {
		return 0, err
	}
	if cmd.Flags().Changed(flag) {
		return v, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", env, s, err)
	}
	return f, nil
}

func getenvInt(k string, def int) (int, error) {
	s := os.Getenv(k)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, s, err)
	}
	return n, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
