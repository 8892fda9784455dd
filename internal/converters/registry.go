package converters

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quarry-labs/quarry-cli/internal/converters/doc"
	"github.com/quarry-labs/quarry-cli/internal/converters/docx"
	"github.com/quarry-labs/quarry-cli/internal/converters/pdf"
	"github.com/quarry-labs/quarry-cli/internal/converters/plaintext"
	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ConverterRegistry = (*Registry)(nil)

// extensionMIME maps accepted file extensions to their MIME types. This is
// the complete set of supported formats; anything else is rejected before
// conversion is attempted.
var extensionMIME = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".txt":  "text/plain",
}

// Registry dispatches raw files to format converters by MIME type.
type Registry struct {
	byMIME map[string]driven.Converter
}

// NewRegistry creates a registry over the given converters.
func NewRegistry(convs ...driven.Converter) *Registry {
	r := &Registry{byMIME: make(map[string]driven.Converter)}
	for _, c := range convs {
		for _, mime := range c.SupportedMIMETypes() {
			r.byMIME[mime] = c
		}
	}
	return r
}

// NewDefaultRegistry creates a registry with all built-in converters.
func NewDefaultRegistry() *Registry {
	return NewRegistry(plaintext.New(), docx.New(), pdf.New(), doc.New())
}

// Resolve returns the converter for the file together with the resolved
// MIME type. The declared type wins when it is concrete; otherwise the
// filename extension is sniffed. Unknown types fail with
// domain.ErrUnsupportedFormat.
func (r *Registry) Resolve(raw *domain.RawFile) (driven.Converter, string, error) {
	if raw == nil {
		return nil, "", domain.ErrInvalidArgument
	}

	mime := cleanMIME(raw.MIMEType)
	if mime == "" || mime == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(raw.Filename))
		sniffed, ok := extensionMIME[ext]
		if !ok {
			return nil, "", fmt.Errorf("%w: %q (supported: %s)",
				domain.ErrUnsupportedFormat, raw.Filename, strings.Join(r.SupportedExtensions(), ", "))
		}
		mime = sniffed
	}

	conv, ok := r.byMIME[mime]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, mime)
	}
	return conv, mime, nil
}

// SupportedExtensions lists the accepted file extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionMIME))
	for ext, mime := range extensionMIME {
		if _, ok := r.byMIME[mime]; ok {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// cleanMIME strips parameters like "; charset=utf-8" from a content type.
func cleanMIME(mime string) string {
	mime = strings.TrimSpace(mime)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
