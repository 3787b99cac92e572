package merge

import (
	"sort"
	"strings"

	"github.com/aleka07/conferencess-summary-maker/internal/domain/marker"
	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

// Report lists irregularities the caller should surface as warnings.
type Report struct {
	Missing    []int
	Duplicates []int
}

// Assemble orders chunk texts by index and labels each with its nominal
// time range: (index-1)*length .. index*length. The labels ignore any
// overlap used while slicing, so they drift from true elapsed time by up to
// overlap*(index-1) seconds. This keeps labels a pure function of the index.
func Assemble(chunks []types.ChunkTranscript, length float64) (types.MergedDocument, Report) {
	sorted := make([]types.ChunkTranscript, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	var (
		doc types.MergedDocument
		rep Report
	)
	next := 1
	for _, c := range sorted {
		if n := len(doc.Parts); n > 0 && doc.Parts[n-1].Index == c.Index {
			rep.Duplicates = append(rep.Duplicates, c.Index)
			continue
		}
		for ; next < c.Index; next++ {
			rep.Missing = append(rep.Missing, next)
		}
		next = c.Index + 1

		b := marker.Nominal(c.Index, length)
		doc.Parts = append(doc.Parts, types.Part{
			Index:        c.Index,
			Text:         strings.TrimSpace(c.Text),
			StartSeconds: b.Start,
			EndSeconds:   b.End,
		})
	}
	return doc, rep
}

// Render writes each part followed by its boundary marker, with a blank
// line between a marker and the next part.
func Render(doc types.MergedDocument) string {
	var b strings.Builder
	for i, p := range doc.Parts {
		b.WriteString(p.Text)
		b.WriteString(marker.Encode(marker.Boundary{Index: p.Index, Start: p.StartSeconds, End: p.EndSeconds}))
		if i < len(doc.Parts)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
