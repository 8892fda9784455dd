// Package docx converts DOCX (Office Open XML) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/quarry-labs/quarry-cli/internal/converters/normalize"
	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Converter handles DOCX documents.
type Converter struct{}

// New creates a new DOCX converter.
func New() *Converter {
	return &Converter{}
}

// SupportedMIMETypes returns the MIME types this converter handles.
func (c *Converter) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Convert extracts paragraph and table text from word/document.xml.
func (c *Converter) Convert(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidArgument
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return "", fmt.Errorf("%w: not a valid DOCX archive: %w", domain.ErrCorruptDocument, err)
	}

	content, err := extractDocumentText(reader)
	if err != nil {
		return "", err
	}

	text := normalize.Text(content)
	if text == "" && len(raw.Content) > 0 {
		return "", fmt.Errorf("%w: no text extracted from %s", domain.ErrConversion, raw.Filename)
	}
	return text, nil
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrCorruptDocument, err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrCorruptDocument, err)
		}

		return parseDocumentXML(content)
	}
	return "", fmt.Errorf("%w: missing word/document.xml", domain.ErrCorruptDocument)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []table     `xml:"tbl"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

type table struct {
	Rows []tableRow `xml:"tr"`
}

type tableRow struct {
	Cells []tableCell `xml:"tc"`
}

type tableCell struct {
	Paragraphs []paragraph `xml:"p"`
}

// parseDocumentXML extracts text content from the document XML. Paragraphs
// become lines; table rows become pipe-separated lines.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: malformed document.xml: %w", domain.ErrCorruptDocument, err)
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString(paragraphText(para))
	}

	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				var cellText strings.Builder
				for _, para := range cell.Paragraphs {
					cellText.WriteString(paragraphText(para))
				}
				if s := strings.TrimSpace(cellText.String()); s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) > 0 {
				result.WriteString("\n")
				result.WriteString(strings.Join(cells, " | "))
			}
		}
	}

	return result.String(), nil
}

func paragraphText(para paragraph) string {
	var b strings.Builder
	for _, r := range para.Runs {
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}
