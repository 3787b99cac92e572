package align

import (
	"regexp"
	"strings"

	"github.com/aleka07/conferencess-summary-maker/internal/domain/diarization"
	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

// SpeakerLookup is satisfied by *diarization.Timeline.
type SpeakerLookup interface {
	SpeakerAt(t float64) string
}

// TimeEstimator places sentence j of m inside a part's time range.
type TimeEstimator interface {
	Estimate(p types.Part, j, m int) float64
}

// UniformEstimator assumes sentences are spread evenly over the part. It is
// a coarse approximation; a word-timestamp estimator can replace it.
type UniformEstimator struct{}

func (UniformEstimator) Estimate(p types.Part, j, m int) float64 {
	return p.StartSeconds + float64(j)/float64(m)*(p.EndSeconds-p.StartSeconds)
}

var reTerminal = regexp.MustCompile(`[.!?]+`)

// SplitSentences cuts text on runs of '.', '!' and '?' and drops units that
// are empty after trimming.
func SplitSentences(text string) []string {
	var out []string
	for _, s := range reTerminal.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type Aligner struct {
	speakers  SpeakerLookup
	estimator TimeEstimator
}

func New(speakers SpeakerLookup, est TimeEstimator) *Aligner {
	if est == nil {
		est = UniformEstimator{}
	}
	return &Aligner{speakers: speakers, estimator: est}
}

// Units returns the sentences of p with their estimated absolute times.
func (a *Aligner) Units(p types.Part) []types.SentenceUnit {
	sentences := SplitSentences(p.Text)
	out := make([]types.SentenceUnit, 0, len(sentences))
	for j, s := range sentences {
		out = append(out, types.SentenceUnit{Text: s, Seconds: a.estimator.Estimate(p, j, len(sentences))})
	}
	return out
}

// speakerState is the running speaker carried from one part to the next.
type speakerState struct {
	speaker string
	set     bool
}

// Align attributes every sentence to a speaker. Parts without sentences are
// dropped and leave the running speaker untouched.
func (a *Aligner) Align(parts []types.Part) types.AlignedDocument {
	var (
		doc types.AlignedDocument
		st  speakerState
	)
	for _, p := range parts {
		var ap types.AlignedPart
		ap, st = a.alignPart(p, st)
		if len(ap.Spans) > 0 {
			doc.Parts = append(doc.Parts, ap)
		}
	}
	return doc
}

func (a *Aligner) alignPart(p types.Part, st speakerState) (types.AlignedPart, speakerState) {
	ap := types.AlignedPart{Index: p.Index, StartSeconds: p.StartSeconds, EndSeconds: p.EndSeconds}

	var cur *types.Span
	for _, u := range a.Units(p) {
		spk := a.speakerAt(u.Seconds)
		if !st.set || spk != st.speaker {
			st = speakerState{speaker: spk, set: true}
			ap.Spans = append(ap.Spans, types.Span{Speaker: spk})
			cur = &ap.Spans[len(ap.Spans)-1]
		} else if cur == nil {
			ap.Spans = append(ap.Spans, types.Span{Speaker: spk, Continued: true})
			cur = &ap.Spans[len(ap.Spans)-1]
		}
		cur.Text += u.Text + ". "
	}
	return ap, st
}

func (a *Aligner) speakerAt(t float64) string {
	if a.speakers == nil {
		return diarization.UnknownSpeaker
	}
	return a.speakers.SpeakerAt(t)
}
