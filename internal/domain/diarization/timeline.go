package diarization

import (
	"sort"

	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

const UnknownSpeaker = "UNKNOWN_SPEAKER"

// Timeline answers "who speaks at t" over labeled intervals. Segments may
// touch, leave gaps or overlap.
type Timeline struct {
	segs []types.DiarizationSegment
	// maxEnd[i] is the largest End among segs[:i+1]; it is non-decreasing,
	// which makes the earliest segment with End >= t binary-searchable.
	maxEnd []float64
}

// NewTimeline sorts a copy of segs by start. Segments with equal starts keep
// their input order.
func NewTimeline(segs []types.DiarizationSegment) *Timeline {
	s := make([]types.DiarizationSegment, len(segs))
	copy(s, segs)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Start < s[j].Start })

	maxEnd := make([]float64, len(s))
	for i, seg := range s {
		maxEnd[i] = seg.End
		if i > 0 && maxEnd[i-1] > seg.End {
			maxEnd[i] = maxEnd[i-1]
		}
	}
	return &Timeline{segs: s, maxEnd: maxEnd}
}

// SpeakerAt returns the speaker of the earliest-starting segment with
// Start <= t <= End, or UnknownSpeaker. Both ends are inclusive, so a t on a
// shared boundary resolves to the earlier segment.
func (tl *Timeline) SpeakerAt(t float64) string {
	if tl == nil || len(tl.segs) == 0 {
		return UnknownSpeaker
	}
	// segs[:hi] all start at or before t.
	hi := sort.Search(len(tl.segs), func(i int) bool { return tl.segs[i].Start > t })
	// The first i with maxEnd[i] >= t is the first segment whose own End >= t.
	i := sort.Search(hi, func(i int) bool { return tl.maxEnd[i] >= t })
	if i >= hi {
		return UnknownSpeaker
	}
	return tl.segs[i].Speaker
}

func (tl *Timeline) Len() int {
	if tl == nil {
		return 0
	}
	return len(tl.segs)
}

func (tl *Timeline) Segments() []types.DiarizationSegment {
	if tl == nil {
		return nil
	}
	out := make([]types.DiarizationSegment, len(tl.segs))
	copy(out, tl.segs)
	return out
}

// Speakers returns distinct speaker labels in order of first appearance.
func (tl *Timeline) Speakers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range tl.Segments() {
		if _, ok := seen[s.Speaker]; ok {
			continue
		}
		seen[s.Speaker] = struct{}{}
		out = append(out, s.Speaker)
	}
	return out
}
