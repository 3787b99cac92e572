// Package marker encodes and decodes the boundary lines that separate chunk
// texts in a merged transcript. The literal shape is shared by the merge and
// align steps and by every transcript already written to disk, so changing it
// requires bumping Version.
package marker

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

const Version = 1

var (
	ErrMalformedTime = errors.New("malformed HH:MM:SS time")
	ErrNoSchedule    = errors.New("cannot place unmarked text: no chunk length")
)

var reBoundary = regexp.MustCompile(`\n\n--- Конец Части-(\d+), Время: ([\d:]+) - ([\d:]+) ---`)

type Boundary struct {
	Index int
	Start float64
	End   float64
}

func Encode(b Boundary) string {
	return fmt.Sprintf("\n\n--- Конец Части-%d, Время: %s - %s ---", b.Index, FormatHHMMSS(b.Start), FormatHHMMSS(b.End))
}

// Nominal returns the boundary of chunk index on the fixed schedule.
func Nominal(index int, length float64) Boundary {
	return Boundary{
		Index: index,
		Start: float64(index-1) * length,
		End:   float64(index) * length,
	}
}

// Split decodes a merged transcript into parts. Text after the last marker,
// if any, becomes one more part placed right after the previous one; its
// length is nominalLength, or the previous part's length when that is unset.
func Split(doc string, nominalLength float64) ([]types.Part, error) {
	var out []types.Part
	pos := 0
	for _, m := range reBoundary.FindAllStringSubmatchIndex(doc, -1) {
		idx, err := strconv.Atoi(doc[m[2]:m[3]])
		if err != nil {
			return nil, fmt.Errorf("part index %q: %w", doc[m[2]:m[3]], err)
		}
		start, err := ParseHHMMSS(doc[m[4]:m[5]])
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", idx, err)
		}
		end, err := ParseHHMMSS(doc[m[6]:m[7]])
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", idx, err)
		}
		out = append(out, types.Part{
			Index:        idx,
			Text:         strings.TrimSpace(doc[pos:m[0]]),
			StartSeconds: start,
			EndSeconds:   end,
		})
		pos = m[1]
	}

	tail := strings.TrimSpace(doc[pos:])
	if tail == "" {
		return out, nil
	}
	p := types.Part{Index: 1, Text: tail}
	length := nominalLength
	if n := len(out); n > 0 {
		prev := out[n-1]
		p.Index = prev.Index + 1
		p.StartSeconds = prev.EndSeconds
		if length <= 0 {
			length = prev.EndSeconds - prev.StartSeconds
		}
	}
	if length <= 0 {
		return nil, ErrNoSchedule
	}
	p.EndSeconds = p.StartSeconds + length
	return append(out, p), nil
}

// FormatHHMMSS renders whole seconds as zero-padded HH:MM:SS. Fractions are
// truncated.
func FormatHHMMSS(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	s := int64(sec)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

func ParseHHMMSS(s string) (float64, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	var total int64
	for i, f := range fields {
		if f == "" {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
		}
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
		}
		if i > 0 && n > 59 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
		}
		total = total*60 + n
	}
	return float64(total), nil
}
