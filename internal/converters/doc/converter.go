// Package doc converts legacy Word 97-2004 (.doc) documents by driving a
// headless LibreOffice conversion in an isolated scratch directory.
package doc

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

// ErrOfficeToolNotFound indicates LibreOffice is not installed.
var ErrOfficeToolNotFound = errors.New("soffice not found in PATH")

// DefaultTimeout bounds a single LibreOffice invocation. Office startup is
// slow, so this is generous compared to pdftotext.
const DefaultTimeout = 120 * time.Second

// docMagic is the OLE compound file signature legacy Word documents use.
var docMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// CommandRunner executes external commands. Injectable for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Converter handles legacy .doc documents via `soffice --headless`.
type Converter struct {
	runner  CommandRunner
	timeout time.Duration
}

// New creates a converter using the real soffice binary.
func New() *Converter {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a converter with a custom command runner.
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
	return []string{"application/msword"}
}

// CheckAvailable reports whether soffice is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("soffice"); err != nil {
		return ErrOfficeToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing LibreOffice.
func InstallInstructions() string {
	return "legacy .doc conversion needs LibreOffice: `brew install --cask libreoffice` (macOS) or `apt install libreoffice-writer` (Debian/Ubuntu)"
}

// Convert writes the document into a scratch directory, converts it to text
// with soffice and reads the result back. The scratch directory is removed
// on every exit path, including failure.
func (c *Converter) Convert(ctx context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidArgument
	}
	if !bytes.HasPrefix(raw.Content, docMagic) {
		return "", fmt.Errorf("%w: missing OLE signature", domain.ErrCorruptDocument)
	}

	tmpDir, err := os.MkdirTemp("", "quarry-doc-*")
	if err != nil {
		return "", fmt.Errorf("%w: creating scratch dir: %w", domain.ErrConversion, err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input.doc")
	if err := os.WriteFile(inputPath, raw.Content, 0600); err != nil {
		return "", fmt.Errorf("%w: writing scratch file: %w", domain.ErrConversion, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.runner.Run(ctx, "soffice",
		"--headless", "--convert-to", "txt:Text", inputPath, "--outdir", tmpDir)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: soffice exceeded %s", domain.ErrConversionTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: soffice: %w (output: %s)", domain.ErrConversion, err, out)
	}

	converted, err := os.ReadFile(filepath.Join(tmpDir, "input.txt"))
	if err != nil {
		return "", fmt.Errorf("%w: soffice produced no output file", domain.ErrConversion)
	}

	text := normalize.Text(string(converted))
	if text == "" && len(raw.Content) > 0 {
		return "", fmt.Errorf("%w: no text extracted from %s", domain.ErrConversion, raw.Filename)
	}
	return text, nil
}
