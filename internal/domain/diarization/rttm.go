package diarization

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

const recordType = "SPEAKER"

// ParseReport describes lines that looked like records but could not be used.
type ParseReport struct {
	Records int
	Skipped []LineError
}

type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// ParseRTTM reads "SPEAKER <file> <chan> <start> <dur> <ortho> <stype> <name> ..."
// records. Other lines are ignored; malformed SPEAKER lines are skipped and
// reported. The returned timeline is never nil.
func ParseRTTM(r io.Reader) (*Timeline, ParseReport, error) {
	var (
		segs []types.DiarizationSegment
		rep  ParseReport
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, recordType) {
			continue
		}
		f := strings.Fields(line)
		if f[0] != recordType {
			continue
		}
		seg, err := parseRecord(f)
		if err != nil {
			rep.Skipped = append(rep.Skipped, LineError{Line: n, Err: err})
			continue
		}
		segs = append(segs, seg)
	}
	rep.Records = len(segs)
	if err := sc.Err(); err != nil {
		return NewTimeline(nil), rep, fmt.Errorf("read rttm: %w", err)
	}
	return NewTimeline(segs), rep, nil
}

func parseRecord(f []string) (types.DiarizationSegment, error) {
	if len(f) < 8 {
		return types.DiarizationSegment{}, fmt.Errorf("expected at least 8 fields, got %d", len(f))
	}
	start, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return types.DiarizationSegment{}, fmt.Errorf("start %q: %w", f[3], err)
	}
	dur, err := strconv.ParseFloat(f[4], 64)
	if err != nil {
		return types.DiarizationSegment{}, fmt.Errorf("duration %q: %w", f[4], err)
	}
	if dur < 0 {
		return types.DiarizationSegment{}, fmt.Errorf("negative duration %v", dur)
	}
	return types.DiarizationSegment{Start: start, End: start + dur, Speaker: f[7]}, nil
}

// LoadFile parses an RTTM file. On any error the returned timeline is empty
// but usable, so callers that choose to continue get UnknownSpeaker
// everywhere.
func LoadFile(path string) (*Timeline, ParseReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return NewTimeline(nil), ParseReport{}, err
	}
	defer f.Close()

	tl, rep, err := ParseRTTM(f)
	if err != nil {
		return NewTimeline(nil), rep, fmt.Errorf("%s: %w", path, err)
	}
	return tl, rep, nil
}
