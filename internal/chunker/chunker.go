// Package chunker splits normalised document text into overlapping,
// size-bounded chunks suitable for embedding.
package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

// DefaultMaxChars is the default chunk size in characters.
const DefaultMaxChars = 1000

// DefaultOverlap is the default overlap between neighbouring chunks.
const DefaultOverlap = 200

// Chunker produces span-tracked chunks from document text.
//
// Chunks are cut greedily: each chunk takes as much text as fits in the
// character budget, backing up to the nearest whitespace boundary so words
// are never split. The next chunk starts overlap characters before the end
// of the previous one, preserving local context across boundaries. The union
// of chunk spans always covers the whole input.
type Chunker struct {
	maxChars int
	overlap  int
}

// New creates a chunker. The overlap must be strictly smaller than the
// chunk size; anything else fails with domain.ErrInvalidConfig.
func New(maxChars, overlap int) (*Chunker, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: max chunk chars must be positive, got %d",
			domain.ErrInvalidConfig, maxChars)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d",
			domain.ErrInvalidConfig, overlap)
	}
	if overlap >= maxChars {
		return nil, fmt.Errorf("%w: overlap (%d) must be smaller than max chunk chars (%d)",
			domain.ErrInvalidConfig, overlap, maxChars)
	}
	return &Chunker{maxChars: maxChars, overlap: overlap}, nil
}

// Split chunks the text of a document. Empty input produces zero chunks,
// not an error. Spans are byte offsets into the normalised text; cuts land
// on whitespace so they are always rune-safe for real words.
func (c *Chunker) Split(documentID, text string) ([]domain.Chunk, error) {
	if text == "" {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(text)/(c.maxChars-c.overlap)+1)

	start := 0
	ordinal := 0
	for start < len(text) {
		end := c.cutAt(text, start)

		chunks = append(chunks, domain.Chunk{
			ID:            uuid.New().String(),
			DocumentID:    documentID,
			Ordinal:       ordinal,
			Text:          text[start:end],
			Start:         start,
			End:           end,
			TokenEstimate: estimateTokens(end - start),
		})
		ordinal++

		if end == len(text) {
			break
		}

		next := end - c.overlap
		if next <= start {
			// Chunk was shorter than the overlap; skip the overlap
			// rather than stall.
			next = end
		}
		start = next
	}

	return chunks, nil
}

// cutAt returns the end offset for a chunk starting at start: the whole
// remainder if it fits, otherwise the latest whitespace boundary within the
// budget. A single word longer than the budget is cut at the budget.
func (c *Chunker) cutAt(text string, start int) int {
	hardEnd := start + c.maxChars
	if hardEnd >= len(text) {
		return len(text)
	}

	for b := hardEnd; b > start+1; b-- {
		if isBoundary(text[b-1]) {
			return b
		}
	}

	// No boundary in the window. Back up to a rune start so we never cut
	// a multi-byte character in half.
	for b := hardEnd; b > start+1; b-- {
		if utf8.RuneStart(text[b]) {
			return b
		}
	}
	return hardEnd
}

func isBoundary(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}

// estimateTokens approximates the token count from the character count.
// Four characters per token is the usual rule of thumb for English text.
func estimateTokens(chars int) int {
	if chars == 0 {
		return 0
	}
	return (chars + 3) / 4
}
