package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aleka07/conferencess-summary-maker/internal/domain/align"
	"github.com/aleka07/conferencess-summary-maker/internal/domain/diarization"
	"github.com/aleka07/conferencess-summary-maker/internal/domain/marker"
	"github.com/aleka07/conferencess-summary-maker/internal/domain/merge"
	"github.com/aleka07/conferencess-summary-maker/internal/workspace"
)

type MergeInput struct {
	Meeting string
	Force   bool
}

type MergeResult struct {
	Path    string
	Parts   int
	Skipped bool
	Report  merge.Report
}

// Merge concatenates the meeting's chunk transcripts into one marked document.
func (u Usecase) Merge(ctx context.Context, in MergeInput) (MergeResult, error) {
	res := MergeResult{Path: u.d.Workspace.MergedPath(in.Meeting)}
	if _, err := os.Stat(res.Path); err == nil && !in.Force {
		u.log.Info("merged transcript exists", "meeting", in.Meeting, "path", res.Path)
		res.Skipped = true
		return res, nil
	}

	err := u.withLock(ctx, in.Meeting, func() error {
		trs, skipped, err := u.d.Workspace.ReadChunkTranscripts(in.Meeting)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrNoChunks, u.d.Workspace.TextDir(in.Meeting))
			}
			return err
		}
		for _, e := range skipped {
			u.log.Warn("skipping unreadable chunk transcript", "meeting", in.Meeting, "err", e)
		}
		if len(trs) == 0 {
			return fmt.Errorf("%w: %s", ErrNoChunks, u.d.Workspace.TextDir(in.Meeting))
		}

		doc, rep := merge.Assemble(trs, u.s.ChunkLength)
		if len(rep.Missing) > 0 {
			u.log.Warn("chunk transcripts missing", "meeting", in.Meeting, "indices", rep.Missing)
		}
		if len(rep.Duplicates) > 0 {
			u.log.Warn("duplicate chunk transcripts ignored", "meeting", in.Meeting, "indices", rep.Duplicates)
		}
		if err := workspace.WriteFileAtomic(res.Path, []byte(merge.Render(doc)), 0o644); err != nil {
			return err
		}
		res.Parts = len(doc.Parts)
		res.Report = rep
		u.log.Info("merged transcript written", "meeting", in.Meeting, "parts", res.Parts,
			"marker_version", marker.Version, "path", res.Path)
		return nil
	})
	return res, err
}

// MergeAll merges every meeting that has chunk transcripts. A failing meeting
// does not stop the others; their errors are joined.
func (u Usecase) MergeAll(ctx context.Context, force bool) ([]MergeResult, error) {
	names, err := u.d.Workspace.Meetings()
	if err != nil {
		return nil, err
	}
	var (
		out  []MergeResult
		errs []error
	)
	for _, n := range names {
		if files, _ := u.d.Workspace.ChunkTextFiles(n); len(files) == 0 {
			continue
		}
		r, err := u.Merge(ctx, MergeInput{Meeting: n, Force: force})
		if err != nil {
			errs = append(errs, fmt.Errorf("merge %s: %w", n, err))
			continue
		}
		out = append(out, r)
	}
	return out, errors.Join(errs...)
}

type AlignInput struct {
	Meeting     string
	PartHeaders bool

	// Estimator overrides the uniform sentence-time estimate.
	Estimator align.TimeEstimator
}

type AlignResult struct {
	Path     string
	Parts    int
	Segments int
	Speakers []string
}

// Align attributes the merged transcript to diarized speakers and writes the
// speaker-labelled document.
func (u Usecase) Align(ctx context.Context, in AlignInput) (AlignResult, error) {
	res := AlignResult{Path: u.d.Workspace.DiarizedPath(in.Meeting)}

	mergedPath := u.d.Workspace.MergedPath(in.Meeting)
	raw, err := os.ReadFile(mergedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", ErrMissingTranscript, mergedPath)
		}
		return res, err
	}

	rttmPath := u.d.Workspace.RTTMPath(in.Meeting)
	tl, rep, err := diarization.LoadFile(rttmPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", ErrMissingDiarization, rttmPath)
		}
		return res, err
	}
	for _, le := range rep.Skipped {
		u.log.Warn("skipping malformed diarization record", "meeting", in.Meeting, "file", rttmPath, "err", le)
	}
	if tl.Len() == 0 {
		return res, fmt.Errorf("%w: %s", ErrNoSegments, rttmPath)
	}

	parts, err := marker.Split(string(raw), u.s.ChunkLength)
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", mergedPath, err)
	}

	err = u.withLock(ctx, in.Meeting, func() error {
		doc := align.New(tl, in.Estimator).Align(parts)
		out := align.Render(doc, align.Options{PartHeaders: in.PartHeaders})
		if err := workspace.WriteFileAtomic(res.Path, []byte(out), 0o644); err != nil {
			return err
		}
		res.Parts = len(doc.Parts)
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Segments = tl.Len()
	res.Speakers = tl.Speakers()
	u.log.Info("diarized transcript written", "meeting", in.Meeting,
		"parts", res.Parts, "segments", res.Segments, "speakers", len(res.Speakers), "path", res.Path)
	return res, nil
}
