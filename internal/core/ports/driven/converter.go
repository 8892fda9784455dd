package driven

import (
	"context"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

// Converter extracts normalised plain text from one document format.
// Each converter handles specific MIME types (e.g. PDF, DOCX).
//
// Conversion is idempotent: the same input bytes always produce
// byte-identical normalised text. Page and paragraph boundaries in the
// source are collapsed to single newlines.
type Converter interface {
	// SupportedMIMETypes returns the MIME types this converter handles.
	SupportedMIMETypes() []string

	// Convert extracts normalised UTF-8 text from the raw file.
	// It fails with domain.ErrCorruptDocument when the input cannot be
	// parsed, domain.ErrConversion when the toolchain fails or yields
	// empty output for non-empty input, and domain.ErrConversionTimeout
	// when an external tool exceeds its deadline.
	Convert(ctx context.Context, raw *domain.RawFile) (string, error)
}

// ConverterRegistry resolves a converter for a raw file.
type ConverterRegistry interface {
	// Resolve returns the converter for the file's MIME type, sniffing
	// the filename extension when the declared type is missing or
	// generic. It fails with domain.ErrUnsupportedFormat before any
	// conversion is attempted for unknown types.
	Resolve(raw *domain.RawFile) (Converter, string, error)

	// SupportedExtensions lists the accepted file extensions.
	SupportedExtensions() []string
}
