package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aleka07/conferencess-summary-maker/internal/ports"
	"github.com/aleka07/conferencess-summary-maker/internal/types"
	"github.com/aleka07/conferencess-summary-maker/internal/workspace"
)

var (
	ErrNoAudio            = errors.New("no chunk audio found")
	ErrNoChunks           = errors.New("no chunk transcripts found")
	ErrNoSegments         = errors.New("no diarization segments parsed")
	ErrMissingTranscript  = errors.New("merged transcript not found")
	ErrMissingDiarization = errors.New("diarization file not found")
	ErrMeetingBusy        = errors.New("meeting is locked by another run")
)

type Deps struct {
	Audio     ports.AudioTool
	ASR       ports.ASR
	Lock      ports.MeetingLock
	Workspace workspace.Workspace
	Logger    *slog.Logger
}

type Settings struct {
	// ChunkLength is both the slicing length and the nominal part length
	// used to label merged transcripts, in seconds.
	ChunkLength float64
	Overlap     float64
	LockTTL     time.Duration

	// Jobs bounds concurrent chunk transcriptions.
	Jobs int
}

type Usecase struct {
	d   Deps
	s   Settings
	log *slog.Logger
}

func New(d Deps, s Settings) Usecase {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	if s.LockTTL <= 0 {
		s.LockTTL = 10 * time.Minute
	}
	if s.Jobs <= 0 {
		s.Jobs = 1
	}
	return Usecase{d: d, s: s, log: log}
}

// extender is implemented by locks whose hold expires unless refreshed.
type extender interface {
	Extend(ctx context.Context, name string, ttl time.Duration) error
}

// withLock runs fn while holding the meeting's lock. Expiring locks are
// refreshed every half TTL until fn returns.
func (u Usecase) withLock(ctx context.Context, meeting string, fn func() error) error {
	if u.d.Lock == nil {
		return fn()
	}
	name := "meeting:" + meeting
	ok, err := u.d.Lock.Acquire(ctx, name, u.s.LockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrMeetingBusy, meeting)
	}
	defer func() {
		if err := u.d.Lock.Release(context.WithoutCancel(ctx), name); err != nil {
			u.log.Warn("release lock failed", "meeting", meeting, "err", err)
		}
	}()

	if ext, ok := u.d.Lock.(extender); ok {
		done := make(chan struct{})
		defer close(done)
		go func() {
			t := time.NewTicker(u.s.LockTTL / 2)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-ctx.Done():
					return
				case <-t.C:
					if err := ext.Extend(ctx, name, u.s.LockTTL); err != nil {
						u.log.Warn("extend lock failed", "meeting", meeting, "err", err)
					}
				}
			}
		}()
	}
	return fn()
}

// PingLock checks that the lock backend is reachable.
func (u Usecase) PingLock(ctx context.Context) error {
	if u.d.Lock == nil {
		return nil
	}
	return u.d.Lock.Ping(ctx)
}

// Meetings reports the processing state of every meeting in the workspace.
func (u Usecase) Meetings() ([]types.MeetingStatus, error) {
	names, err := u.d.Workspace.Meetings()
	if err != nil {
		return nil, err
	}
	out := make([]types.MeetingStatus, 0, len(names))
	for _, n := range names {
		st, err := u.d.Workspace.Status(n)
		if err != nil {
			return nil, fmt.Errorf("status %s: %w", n, err)
		}
		out = append(out, st)
	}
	return out, nil
}
