// Package plaintext converts plain text documents.
package plaintext

import (
	"context"
	"unicode/utf8"

	"github.com/quarry-labs/quarry-cli/internal/converters/normalize"
	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Converter handles plain text documents.
type Converter struct{}

// New creates a new plain text converter.
func New() *Converter {
	return &Converter{}
}

// SupportedMIMETypes returns the MIME types this converter handles.
func (c *Converter) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Convert returns the file content as normalised text.
func (c *Converter) Convert(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidArgument
	}
	if !utf8.Valid(raw.Content) {
		return "", domain.ErrCorruptDocument
	}
	return normalize.Text(string(raw.Content)), nil
}
