// Package normalize post-processes extracted document text into the
// canonical form the rest of the pipeline works with.
package normalize

import "strings"

// Text normalises extracted document text: line endings become \n, trailing
// whitespace is stripped per line, and runs of blank lines (page or
// paragraph boundaries in the source) collapse to a single newline. The
// result carries no leading or trailing whitespace.
//
// Text is idempotent: Text(Text(s)) == Text(s). Ingestion relies on this so
// converting the same bytes twice yields byte-identical output.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	// Form feeds mark page breaks in pdftotext output.
	s = strings.ReplaceAll(s, "\f", "\n")

	lines := strings.Split(s, "\n")

	var b strings.Builder
	b.Grow(len(s))

	wrote := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		if wrote {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimLeft(line, " \t"))
		wrote = true
	}

	return b.String()
}
