package chunks

import (
	"errors"
	"fmt"
	"math"

	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

var (
	ErrInvalidDuration = errors.New("total duration must be > 0")
	ErrInvalidLength   = errors.New("chunk length must be > 0")
	ErrInvalidOverlap  = errors.New("overlap must be >= 0 and < chunk length")
)

// Plan returns the slicing windows covering [0, total] with consecutive
// windows starting one stride (length - overlap) apart. The last window is
// clamped to the end of the media.
func Plan(total, length, overlap float64) ([]types.ChunkWindow, error) {
	if err := Validate(length, overlap); err != nil {
		return nil, err
	}
	if !(total > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDuration, total)
	}

	stride := length - overlap
	n := int(math.Ceil(total / stride))
	if n == 0 {
		n = 1
	}

	out := make([]types.ChunkWindow, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * stride
		if i == 0 {
			start = 0
		}
		d := length
		if start+d > total {
			d = total - start
		}
		if d <= 0 {
			continue
		}
		out = append(out, types.ChunkWindow{Index: i + 1, StartSeconds: start, DurationSeconds: d})
	}
	return out, nil
}

// Validate checks chunk parameters. An overlap that would make the stride
// non-positive is rejected rather than corrected.
func Validate(length, overlap float64) error {
	if !(length > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidLength, length)
	}
	if overlap < 0 || overlap >= length {
		return fmt.Errorf("%w: overlap %v, length %v", ErrInvalidOverlap, overlap, length)
	}
	return nil
}
