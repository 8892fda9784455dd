package services

import (
	"fmt"
	"strings"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

// DefaultContextBudget is the default character budget for assembled context.
const DefaultContextBudget = 8000

// blockSeparator joins source blocks and counts against the budget.
const blockSeparator = "\n\n"

// ContextAssembler builds the generation prompt from ranked chunks. Chunks
// are included in rank order until the character budget is exhausted; a
// chunk that does not fit whole is dropped, never truncated, so the model
// always sees complete passages.
type ContextAssembler struct {
	budget int
}

// NewContextAssembler creates an assembler with the given character budget
// for the context section. Non-positive budgets fall back to the default.
func NewContextAssembler(budget int) *ContextAssembler {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &ContextAssembler{budget: budget}
}

// BuildPrompt renders the prompt for the question and returns it together
// with the chunks that actually made it into the context. With no usable
// chunks the prompt says so explicitly and still carries the question, so
// the model answers from general knowledge instead of hallucinating sources.
func (a *ContextAssembler) BuildPrompt(question string, hits domain.RetrievalResult) (string, domain.RetrievalResult) {
	var used domain.RetrievalResult
	var blocks []string

	remaining := a.budget
	for _, hit := range hits {
		block := fmt.Sprintf("[Source %d: %s]\n%s", len(used)+1, hit.SourceFilename, hit.Text)
		cost := len(block)
		if len(blocks) > 0 {
			cost += len(blockSeparator)
		}
		if cost > remaining {
			break
		}
		remaining -= cost
		blocks = append(blocks, block)
		used = append(used, hit)
	}

	var b strings.Builder
	b.WriteString("Answer the question using the context below. Cite sources by their markers. ")
	b.WriteString("If the context does not contain the answer, say so.\n\n")

	if len(blocks) == 0 {
		b.WriteString("No relevant context was found in the document collection.\n")
	} else {
		b.WriteString("Context:\n")
		b.WriteString(strings.Join(blocks, blockSeparator))
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")

	return b.String(), used
}
