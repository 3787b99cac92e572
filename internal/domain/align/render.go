package align

import (
	"fmt"
	"strings"

	"github.com/aleka07/conferencess-summary-maker/internal/domain/marker"
	"github.com/aleka07/conferencess-summary-maker/internal/types"
)

type Options struct {
	// PartHeaders prefixes each part with "=== ЧАСТЬ N (start - end) ===".
	PartHeaders bool
}

func Render(doc types.AlignedDocument, opts Options) string {
	var b strings.Builder
	for _, p := range doc.Parts {
		if opts.PartHeaders {
			fmt.Fprintf(&b, "\n=== ЧАСТЬ %d (%s - %s) ===\n", p.Index, marker.FormatHHMMSS(p.StartSeconds), marker.FormatHHMMSS(p.EndSeconds))
		}
		for _, s := range p.Spans {
			if !s.Continued {
				fmt.Fprintf(&b, "\n[%s]: ", s.Speaker)
			}
			b.WriteString(s.Text)
		}
		fmt.Fprintf(&b, "\n\n--- Конец Части-%d ---\n", p.Index)
	}
	return b.String()
}
