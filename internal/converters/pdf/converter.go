// Package pdf converts PDF documents using the poppler pdftotext tool.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/quarry-labs/quarry-cli/internal/converters/normalize"
	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// DefaultTimeout bounds a single pdftotext invocation.
const DefaultTimeout = 60 * time.Second

// pdfMagic is the file signature every parsable PDF starts with.
var pdfMagic = []byte("%PDF-")

// CommandRunner executes external commands. Injectable for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Converter handles PDF documents by shelling out to pdftotext.
type Converter struct {
	runner  CommandRunner
	timeout time.Duration
}

// New creates a new PDF converter using the real pdftotext binary.
func New() *Converter {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF converter with a custom command runner.
func NewWithRunner(runner CommandRunner) *Converter {
	return &Converter{runner: runner, timeout: DefaultTimeout}
}

// SetTimeout overrides the conversion deadline.
func (c *Converter) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// SupportedMIMETypes returns the MIME types this converter handles.
func (c *Converter) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return "pdftotext is part of poppler: `brew install poppler` (macOS) or `apt install poppler-utils` (Debian/Ubuntu)"
}

// Convert writes the PDF to a scratch directory, runs pdftotext and returns
// the normalised output. The scratch directory is removed on every exit
// path.
func (c *Converter) Convert(ctx context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidArgument
	}
	if !bytes.HasPrefix(raw.Content, pdfMagic) {
		return "", fmt.Errorf("%w: missing PDF signature", domain.ErrCorruptDocument)
	}

	tmpDir, err := os.MkdirTemp("", "quarry-pdf-*")
	if err != nil {
		return "", fmt.Errorf("%w: creating scratch dir: %w", domain.ErrConversion, err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(inputPath, raw.Content, 0600); err != nil {
		return "", fmt.Errorf("%w: writing scratch file: %w", domain.ErrConversion, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// "-" sends extracted text to stdout.
	out, err := c.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", inputPath, "-")
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: pdftotext exceeded %s", domain.ErrConversionTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: pdftotext: %w", domain.ErrConversion, err)
	}

	text := normalize.Text(string(out))
	if text == "" && len(raw.Content) > 0 {
		return "", fmt.Errorf("%w: no text extracted from %s", domain.ErrConversion, raw.Filename)
	}
	return text, nil
}
