package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("930.250000\n")
	require.NoError(t, err)
	assert.Equal(t, 930*time.Second+250*time.Millisecond, d)

	_, err = parseDuration("N/A")
	assert.Error(t, err)
}

func TestFmtSeconds(t *testing.T) {
	assert.Equal(t, "590.000", fmtSeconds(590))
	assert.Equal(t, "0.125", fmtSeconds(0.125))
}

func TestNew_Defaults(t *testing.T) {
	a := New("", "")
	assert.Equal(t, "ffmpeg", a.ffmpeg)
	assert.Equal(t, "ffprobe", a.ffprobe)
}

func TestSliceChunk_FailureRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "m_part001.mp3")
	require.NoError(t, os.WriteFile(out, []byte("partial"), 0o644))

	a := New(filepath.Join(dir, "no-such-ffmpeg"), "")
	err := a.SliceChunk(context.Background(), filepath.Join(dir, "in.mp3"), types.ChunkWindow{Index: 1, DurationSeconds: 1}, out)
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "partial chunk should be removed, stat err=%v", statErr)
}
