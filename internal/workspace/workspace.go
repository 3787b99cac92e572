// Package workspace maps meetings onto the data directory:
//
//	audio/<meeting>.mp3                        extracted recording
//	chunks/<meeting>/<meeting>_partNNN.mp3     sliced audio
//	raw_text/<meeting>/<meeting>_partNNN.txt   per-chunk transcripts
//	raw_text/<meeting>/_full_transcript.txt    merged transcript
//	raw_text/<meeting>/_diarized_transcript.txt
//	diarization/<meeting>.rttm                 speaker timeline (external)
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/aleka07/conferencess-summary-maker/internal/domain/chunks"
	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

const (
	MergedFilename   = "_full_transcript.txt"
	DiarizedFilename = "_diarized_transcript.txt"
)

var audioExts = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".m4a": {}, ".flac": {}, ".ogg": {},
}

type Workspace struct {
	Root string
}

func New(root string) Workspace { return Workspace{Root: root} }

func (w Workspace) AudioDir() string { return filepath.Join(w.Root, "audio") }

func (w Workspace) AudioPath(meeting string) string {
	return filepath.Join(w.AudioDir(), meeting+".mp3")
}

func (w Workspace) ChunksDir(meeting string) string {
	return filepath.Join(w.Root, "chunks", meeting)
}

func (w Workspace) TextDir(meeting string) string {
	return filepath.Join(w.Root, "raw_text", meeting)
}

func (w Workspace) CacheDir(meeting string) string {
	return filepath.Join(w.Root, ".cache", meeting)
}

func (w Workspace) MergedPath(meeting string) string {
	return filepath.Join(w.TextDir(meeting), MergedFilename)
}

func (w Workspace) DiarizedPath(meeting string) string {
	return filepath.Join(w.TextDir(meeting), DiarizedFilename)
}

func (w Workspace) RTTMPath(meeting string) string {
	return filepath.Join(w.Root, "diarization", meeting+".rttm")
}

func (w Workspace) ChunkAudioPath(meeting string, index int) string {
	return filepath.Join(w.ChunksDir(meeting), chunks.BaseName(meeting, index)+".mp3")
}

func (w Workspace) ChunkTextPath(meeting string, index int) string {
	return filepath.Join(w.TextDir(meeting), chunks.BaseName(meeting, index)+".txt")
}

type ChunkFile struct {
	Index int
	Path  string
}

// ChunkAudioFiles lists the sliced audio of a meeting in index order.
func (w Workspace) ChunkAudioFiles(meeting string) ([]ChunkFile, error) {
	return listIndexed(w.ChunksDir(meeting), func(name string) bool {
		_, ok := audioExts[strings.ToLower(filepath.Ext(name))]
		return ok
	})
}

// ChunkTextFiles lists per-chunk transcripts, skipping merge/align artifacts.
func (w Workspace) ChunkTextFiles(meeting string) ([]ChunkFile, error) {
	return listIndexed(w.TextDir(meeting), isChunkText)
}

// RemoveChunkTranscripts deletes every per-chunk transcript of a meeting,
// leaving merge/align artifacts in place.
func (w Workspace) RemoveChunkTranscripts(meeting string) error {
	files, err := w.ChunkTextFiles(meeting)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func isChunkText(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt") && !strings.HasPrefix(name, "_")
}

// listIndexed returns matching regular files sorted by name. The index comes
// from a "_partNNN" suffix, or the 1-based sorted position when absent.
func listIndexed(dir string, match func(string) bool) ([]ChunkFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && match(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]ChunkFile, 0, len(names))
	for i, n := range names {
		idx, ok := chunks.IndexFromName(n)
		if !ok {
			idx = i + 1
		}
		out = append(out, ChunkFile{Index: idx, Path: filepath.Join(dir, n)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ReadChunkTranscripts loads every chunk transcript of a meeting. Files that
// fail to read are skipped and returned in skipped; err is set only when the
// directory itself cannot be listed.
func (w Workspace) ReadChunkTranscripts(meeting string) (out []types.ChunkTranscript, skipped []error, err error) {
	files, err := w.ChunkTextFiles(meeting)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range files {
		b, err := os.ReadFile(f.Path)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, types.ChunkTranscript{Index: f.Index, Text: string(b), Source: filepath.Base(f.Path)})
	}
	return out, skipped, nil
}

// Meetings returns every meeting that has chunks or transcripts, sorted.
func (w Workspace) Meetings() ([]string, error) {
	seen := make(map[string]struct{})
	for _, dir := range []string{filepath.Join(w.Root, "chunks"), filepath.Join(w.Root, "raw_text")} {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				seen[e.Name()] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (w Workspace) Status(meeting string) (types.MeetingStatus, error) {
	st := types.MeetingStatus{Name: meeting}

	audio, err := w.ChunkAudioFiles(meeting)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return st, err
	}
	st.Chunks = len(audio)

	texts, err := w.ChunkTextFiles(meeting)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return st, err
	}
	st.Transcripts = len(texts)

	if fi, err := os.Stat(w.MergedPath(meeting)); err == nil {
		st.Merged = true
		st.MergedSize = fi.Size()
	}
	st.Diarization = exists(w.RTTMPath(meeting))
	st.Aligned = exists(w.DiarizedPath(meeting))
	return st, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFileAtomic replaces path with data or leaves it untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Chmod(tmp, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// MeetingName derives a filesystem-safe meeting name from an input path.
// Names are composed to NFC first; macOS hands out decomposed file names.
func MeetingName(input string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(norm.NFC.String(name))
	if name == "" {
		name = "meeting"
	}
	return name
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
