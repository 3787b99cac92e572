package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aleka07/conferencess-summary-maker/internal/domain/chunks"
	"github.com/aleka07/conferencess-summary-maker/internal/ports"
	"github.com/aleka07/conferencess-summary-maker/internal/ports/adapters/ffmpeg"
	"github.com/aleka07/conferencess-summary-maker/internal/ports/adapters/locallock"
	"github.com/aleka07/conferencess-summary-maker/internal/ports/adapters/pglock"
	"github.com/aleka07/conferencess-summary-maker/internal/ports/adapters/redislock"
	"github.com/aleka07/conferencess-summary-maker/internal/ports/adapters/whispercpp"
	"github.com/aleka07/conferencess-summary-maker/internal/types"
	"github.com/aleka07/conferencess-summary-maker/internal/usecase"
	"github.com/aleka07/conferencess-summary-maker/internal/workspace"
)

type Config struct {
	// DataDir holds audio/, chunks/, raw_text/ and diarization/.
	// If empty, defaults to "data".
	DataDir string

	ChunkLength time.Duration
	Overlap     time.Duration

	FFmpegPath  string
	FFprobePath string

	WhisperBin      string
	WhisperModel    string
	WhisperLanguage string

	// TranscribeJobs is how many chunks are transcribed at once.
	TranscribeJobs int

	// At most one lock backend is used: Redis, then Postgres, then an
	// in-process lock.
	RedisURL    string
	DatabaseURL string
	LockTTL     time.Duration

	Logger *slog.Logger
}

func (c Config) Validate() error {
	if c.ChunkLength <= 0 {
		return errors.New("chunk length must be > 0")
	}
	// Boundary markers carry whole seconds only.
	if c.ChunkLength%time.Second != 0 {
		return fmt.Errorf("chunk length must be a whole number of seconds, got %s", c.ChunkLength)
	}
	if c.Overlap < 0 {
		return errors.New("overlap must be >= 0")
	}
	if err := chunks.Validate(c.ChunkLength.Seconds(), c.Overlap.Seconds()); err != nil {
		return err
	}
	if c.TranscribeJobs < 0 {
		return errors.New("transcribe jobs must be >= 0")
	}
	if c.LockTTL < 0 {
		return errors.New("lock ttl must be >= 0")
	}
	if c.RedisURL != "" && c.DatabaseURL != "" {
		return errors.New("set only one of redis url and database url")
	}
	return nil
}

// ValidateASR checks the settings only transcription needs.
func (c Config) ValidateASR() error {
	if c.WhisperModel == "" {
		return errors.New("whisper model path is required")
	}
	if _, err := os.Stat(c.WhisperModel); err != nil {
		return fmt.Errorf("stat whisper model: %w", err)
	}
	return nil
}

func (c Config) dataDir() string {
	if c.DataDir == "" {
		return "data"
	}
	return c.DataDir
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// App is a wired usecase plus whatever connections its lock backend holds.
type App struct {
	Usecase   usecase.Usecase
	Workspace workspace.Workspace

	// LockBackend is "redis", "postgres" or "local".
	LockBackend string

	closers []io.Closer
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Open validates cfg and wires adapters into a usecase.
func Open(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	lock, backend, closer, err := openLock(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Workspace: workspace.New(cfg.dataDir()), LockBackend: backend}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	app.Usecase = usecase.New(usecase.Deps{
		Audio:     ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		ASR:       whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, cfg.WhisperLanguage),
		Lock:      lock,
		Workspace: app.Workspace,
		Logger:    log,
	}, usecase.Settings{
		ChunkLength: cfg.ChunkLength.Seconds(),
		Overlap:     cfg.Overlap.Seconds(),
		LockTTL:     cfg.LockTTL,
		Jobs:        cfg.TranscribeJobs,
	})
	log.Debug("workspace ready", "data_dir", app.Workspace.Root)
	return app, nil
}

func openLock(ctx context.Context, cfg Config) (ports.MeetingLock, string, io.Closer, error) {
	log := cfg.logger()
	switch {
	case cfg.RedisURL != "":
		c, err := redislock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, "", nil, err
		}
		l := redislock.New(c)
		log.Debug("using redis meeting lock", "owner", l.OwnerID())
		return l, "redis", c, nil
	case cfg.DatabaseURL != "":
		db, err := pglock.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", nil, err
		}
		log.Debug("using postgres meeting lock")
		return pglock.New(db), "postgres", db, nil
	default:
		return locallock.New(), "local", nil, nil
	}
}

// Plan probes input and returns the chunk windows Split would produce.
func Plan(ctx context.Context, cfg Config, input string) ([]types.ChunkWindow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dur, err := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath).ProbeDuration(ctx, input)
	if err != nil {
		return nil, err
	}
	return chunks.Plan(dur.Seconds(), cfg.ChunkLength.Seconds(), cfg.Overlap.Seconds())
}

type RunInput struct {
	Input       string
	Meeting     string
	Force       bool
	PartHeaders bool
}

// Run takes one recording from extraction to the merged transcript, and on to
// the diarized transcript when an RTTM file for the meeting is present.
func Run(ctx context.Context, cfg Config, in RunInput) error {
	if in.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(in.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if err := cfg.ValidateASR(); err != nil {
		return err
	}
	app, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	log := cfg.logger()
	uc := app.Usecase
	meeting := in.Meeting
	if meeting == "" {
		meeting = workspace.MeetingName(in.Input)
	}
	log.Info("processing meeting", "meeting", meeting, "input", in.Input)

	audio, err := uc.Extract(ctx, usecase.ExtractInput{Input: in.Input, Meeting: meeting, Force: in.Force})
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if _, err := uc.Split(ctx, usecase.SplitInput{Meeting: meeting, Audio: audio, Force: in.Force}); err != nil {
		return fmt.Errorf("split: %w", err)
	}
	tr, err := uc.Transcribe(ctx, usecase.TranscribeInput{Meeting: meeting, Force: in.Force})
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	log.Info("transcription finished", "meeting", meeting, "done", tr.Done, "skipped", tr.Skipped, "failed", tr.Failed)
	if _, err := uc.Merge(ctx, usecase.MergeInput{Meeting: meeting, Force: true}); err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	_, err = uc.Align(ctx, usecase.AlignInput{Meeting: meeting, PartHeaders: in.PartHeaders})
	if errors.Is(err, usecase.ErrMissingDiarization) {
		log.Warn("no diarization for meeting, skipping speaker alignment", "meeting", meeting,
			"rttm", app.Workspace.RTTMPath(meeting))
		return nil
	}
	if err != nil {
		return fmt.Errorf("align: %w", err)
	}
	return nil
}

// ensure adapters implement ports
var _ ports.AudioTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.MeetingLock = (*redislock.Lock)(nil)
var _ ports.MeetingLock = (*pglock.Lock)(nil)
var _ ports.MeetingLock = (*locallock.Lock)(nil)
