package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudio(ctx context.Context, in, outAudio string) error {
	args := []string{"-y", "-nostdin", "-i", in, "-vn"}
	if strings.EqualFold(filepath.Ext(outAudio), ".wav") {
		args = append(args, "-ac", "1", "-ar", "16000", "-f", "wav")
	} else {
		args = append(args, "-acodec", "libmp3lame", "-q:a", "0")
	}
	args = append(args, outAudio)
	if b, err := exec.CommandContext(ctx, a.ffmpeg, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

// SliceChunk cuts one window out of in. MP3 sources are stream-copied,
// everything else is re-encoded to MP3. A failed cut leaves no file behind.
func (a *Adapter) SliceChunk(ctx context.Context, in string, w types.ChunkWindow, out string) error {
	args := []string{
		"-y", "-nostdin",
		"-i", in,
		"-ss", fmtSeconds(w.StartSeconds),
		"-t", fmtSeconds(w.DurationSeconds),
	}
	if strings.EqualFold(filepath.Ext(in), ".mp3") {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, "-c:a", "libmp3lame", "-b:a", "192k")
	}
	args = append(args, out)

	b, err := exec.CommandContext(ctx, a.ffmpeg, args...).CombinedOutput()
	if err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("ffmpeg slice chunk %d: %w\n%s", w.Index, err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	return parseDuration(string(b))
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
