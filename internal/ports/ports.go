package ports

import (
	"context"
	"time"

	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

type AudioTool interface {
	// ExtractAudio converts any media file to audio. The output format follows
	// the extension of outAudio: ".wav" gives mono 16 kHz PCM, anything else MP3.
	ExtractAudio(ctx context.Context, in, outAudio string) error
	ProbeDuration(ctx context.Context, in string) (time.Duration, error)
	SliceChunk(ctx context.Context, in string, w types.ChunkWindow, out string) error
}

type ASR interface {
	// TranscribeChunk returns the plain text of one chunk. outPrefix is where
	// the engine may leave its own files.
	TranscribeChunk(ctx context.Context, wavPath, outPrefix string) (string, error)
}

// MeetingLock guards the artifacts of one meeting against concurrent runs.
type MeetingLock interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}
