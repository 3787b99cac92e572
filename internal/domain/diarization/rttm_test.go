package diarization

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleRTTM = `SPEAKER standup 1 0.031 4.969 <NA> <NA> SPEAKER_00 <NA> <NA>
;; comment line
SPEAKER standup 1 7.500 2.000 <NA> <NA> SPEAKER_01 <NA> <NA>
SPEAKER standup 1 oops 2.000 <NA> <NA> SPEAKER_01 <NA> <NA>
SPEAKER standup 1 9.0 1.0 <NA>
LEXEME standup 1 1.0 1.0 hello lex <NA> <NA> <NA>
SPEAKER standup 1 5.000 2.500 <NA> <NA> SPEAKER_00 <NA> <NA>
`

func TestParseRTTM(t *testing.T) {
	tl, rep, err := ParseRTTM(strings.NewReader(sampleRTTM))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rep.Records != 3 || tl.Len() != 3 {
		t.Fatalf("expected 3 records, got report %+v len %d", rep, tl.Len())
	}
	if len(rep.Skipped) != 2 || rep.Skipped[0].Line != 4 || rep.Skipped[1].Line != 5 {
		t.Fatalf("unexpected skipped lines: %+v", rep.Skipped)
	}

	segs := tl.Segments()
	if segs[0].Start != 0.031 || segs[1].Start != 5 || segs[2].Start != 7.5 {
		t.Fatalf("segments not sorted by start: %+v", segs)
	}
	if segs[1].End != 7.5 || segs[1].Speaker != "SPEAKER_00" {
		t.Fatalf("end should be start+duration: %+v", segs[1])
	}
	if got := tl.SpeakerAt(8); got != "SPEAKER_01" {
		t.Fatalf("SpeakerAt(8) = %q", got)
	}
}

func TestLoadFile_MissingFileYieldsEmptyTimeline(t *testing.T) {
	tl, _, err := LoadFile(filepath.Join(t.TempDir(), "nope.rttm"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if tl == nil || tl.Len() != 0 || tl.SpeakerAt(1) != UnknownSpeaker {
		t.Fatalf("expected usable empty timeline")
	}
}

func TestLoadFile_ReadsRecords(t *testing.T) {
	rttm := "SPEAKER meeting 1 0.000 300.000 <NA> <NA> A <NA> <NA>\n" +
		"SPEAKER meeting 1 300.000 300.000 <NA> <NA> B <NA> <NA>\n"
	path := filepath.Join(t.TempDir(), "meeting.rttm")
	if err := os.WriteFile(path, []byte(rttm), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	tl, rep, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rep.Records != 2 || tl.SpeakerAt(450) != "B" {
		t.Fatalf("unexpected timeline: %+v", tl.Segments())
	}
}
