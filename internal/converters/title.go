package converters

import (
	"path/filepath"
	"strings"
)

// maxTitleLineLength is the longest content line still usable as a title.
const maxTitleLineLength = 200

// ExtractTitle derives a human-readable title from converted text: the
// first reasonably short non-empty line, falling back to a cleaned-up
// filename.
func ExtractTitle(content, filename string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxTitleLineLength {
			continue
		}
		return line
	}

	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}
