package types

// ChunkWindow is one slice of the source audio handed to the media tool.
type ChunkWindow struct {
	Index           int     `json:"index"`
	StartSeconds    float64 `json:"start_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (w ChunkWindow) EndSeconds() float64 { return w.StartSeconds + w.DurationSeconds }

type ChunkTranscript struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// Part is one chunk's text inside a merged document, labeled with the
// nominal (overlap-ignoring) schedule.
type Part struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

type MergedDocument struct {
	Parts []Part `json:"parts"`
}

type DiarizationSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

type SentenceUnit struct {
	Text    string
	Seconds float64
}

// Span is a run of sentences attributed to one speaker. Continued is set
// when the span carries on the speaker of the previous part, so no header
// is written for it.
type Span struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Continued bool   `json:"continued,omitempty"`
}

type AlignedPart struct {
	Index        int     `json:"index"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Spans        []Span  `json:"spans"`
}

type AlignedDocument struct {
	Parts []AlignedPart `json:"parts"`
}

type MeetingStatus struct {
	Name        string `json:"name"`
	Chunks      int    `json:"chunks"`
	Transcripts int    `json:"transcripts"`
	Merged      bool   `json:"merged"`
	MergedSize  int64  `json:"merged_size"`
	Diarization bool   `json:"diarization"`
	Aligned     bool   `json:"aligned"`
}
