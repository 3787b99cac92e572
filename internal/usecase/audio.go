package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aleka07/conferencess-summary-maker/internal/domain/chunks"
	"github.com/aleka07/conferencess-summary-maker/internal/types"
	"github.com/aleka07/conferencess-summary-maker/internal/workspace"
)

type ExtractInput struct {
	Input   string
	Meeting string
	Force   bool
}

// Extract converts a recording into the meeting's MP3 and returns its path.
func (u Usecase) Extract(ctx context.Context, in ExtractInput) (string, error) {
	out := u.d.Workspace.AudioPath(in.Meeting)
	if _, err := os.Stat(out); err == nil && !in.Force {
		u.log.Info("audio already extracted", "meeting", in.Meeting, "path", out)
		return out, nil
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	// ffmpeg picks the container from the extension, so the temp name keeps it.
	tmp := strings.TrimSuffix(out, ".mp3") + ".partial.mp3"
	defer os.Remove(tmp)
	if err := u.d.Audio.ExtractAudio(ctx, in.Input, tmp); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", err
	}
	u.log.Info("audio extracted", "meeting", in.Meeting, "path", out)
	return out, nil
}

type SplitInput struct {
	Meeting string
	Audio   string
	Force   bool
}

type SplitResult struct {
	Windows []types.ChunkWindow
	Written int
	Skipped bool
}

// Split plans chunk windows over the meeting audio and slices them. The first
// failed slice aborts the rest; chunks already written are kept. Re-slicing
// drops the meeting's per-chunk transcripts, which belong to the old chunks.
func (u Usecase) Split(ctx context.Context, in SplitInput) (SplitResult, error) {
	if err := chunks.Validate(u.s.ChunkLength, u.s.Overlap); err != nil {
		return SplitResult{}, err
	}
	if in.Audio == "" {
		in.Audio = u.d.Workspace.AudioPath(in.Meeting)
	}

	dir := u.d.Workspace.ChunksDir(in.Meeting)
	if existing, _ := u.d.Workspace.ChunkAudioFiles(in.Meeting); len(existing) > 0 && !in.Force {
		u.log.Info("chunks already exist", "meeting", in.Meeting, "chunks", len(existing), "dir", dir)
		return SplitResult{Written: len(existing), Skipped: true}, nil
	}

	var res SplitResult
	err := u.withLock(ctx, in.Meeting, func() error {
		dur, err := u.d.Audio.ProbeDuration(ctx, in.Audio)
		if err != nil {
			return err
		}
		windows, err := chunks.Plan(dur.Seconds(), u.s.ChunkLength, u.s.Overlap)
		if err != nil {
			return fmt.Errorf("plan chunks for %s: %w", in.Meeting, err)
		}
		res.Windows = windows

		if err := os.RemoveAll(dir); err != nil {
			return err
		}
		if err := u.d.Workspace.RemoveChunkTranscripts(in.Meeting); err != nil {
			return fmt.Errorf("remove old chunk transcripts: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for _, w := range windows {
			out := u.d.Workspace.ChunkAudioPath(in.Meeting, w.Index)
			u.log.Info("slicing chunk", "meeting", in.Meeting, "chunk", w.Index, "of", len(windows),
				"start", w.StartSeconds, "duration", w.DurationSeconds)
			if err := u.d.Audio.SliceChunk(ctx, in.Audio, w, out); err != nil {
				return err
			}
			res.Written++
		}
		return nil
	})
	return res, err
}

type TranscribeInput struct {
	Meeting string
	Force   bool
}

type TranscribeResult struct {
	Done    int
	Skipped int
	Failed  int
}

// Transcribe writes one text file per chunk, running up to Settings.Jobs
// chunks at once. A chunk the ASR engine fails on is logged and left without
// text; the merge step then omits it.
func (u Usecase) Transcribe(ctx context.Context, in TranscribeInput) (TranscribeResult, error) {
	files, err := u.d.Workspace.ChunkAudioFiles(in.Meeting)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return TranscribeResult{}, err
	}
	if len(files) == 0 {
		return TranscribeResult{}, fmt.Errorf("%w: %s", ErrNoAudio, u.d.Workspace.ChunksDir(in.Meeting))
	}

	var (
		mu  sync.Mutex
		res TranscribeResult
	)
	err = u.withLock(ctx, in.Meeting, func() error {
		cache := u.d.Workspace.CacheDir(in.Meeting)
		if err := os.MkdirAll(cache, 0o755); err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(u.s.Jobs)
		for i, f := range files {
			txt := u.d.Workspace.ChunkTextPath(in.Meeting, f.Index)
			if _, err := os.Stat(txt); err == nil && !in.Force {
				mu.Lock()
				res.Skipped++
				mu.Unlock()
				continue
			}
			i, f := i, f
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				u.log.Info("transcribing chunk", "meeting", in.Meeting, "chunk", f.Index, "n", i+1, "of", len(files))
				text, err := u.transcribeOne(gctx, f, cache, in.Meeting)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					u.log.Warn("chunk transcription failed, skipping", "meeting", in.Meeting, "chunk", f.Index, "file", f.Path, "err", err)
					// A forced run must not leave the previous text to be merged.
					if err := os.Remove(txt); err != nil && !errors.Is(err, fs.ErrNotExist) {
						return err
					}
					mu.Lock()
					res.Failed++
					mu.Unlock()
					return nil
				}
				if err := workspace.WriteFileAtomic(txt, []byte(text), 0o644); err != nil {
					return err
				}
				mu.Lock()
				res.Done++
				mu.Unlock()
				return nil
			})
		}
		return g.Wait()
	})
	return res, err
}

func (u Usecase) transcribeOne(ctx context.Context, f workspace.ChunkFile, cache, meeting string) (string, error) {
	base := filepath.Join(cache, chunks.BaseName(meeting, f.Index))
	wav := base + ".wav"
	defer os.Remove(wav)
	if err := u.d.Audio.ExtractAudio(ctx, f.Path, wav); err != nil {
		return "", err
	}
	return u.d.ASR.TranscribeChunk(ctx, wav, base)
}
