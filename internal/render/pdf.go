// Package render turns assembled research reports into binary document
// formats. Rendering is a delivery concern: callers treat render errors
// as non-fatal and fall back to the Markdown form.
package render

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/timmy/researchbot/internal/domain"
)

// PDFRenderer renders reports as A4 PDF documents. When a UTF-8 font
// file is configured and readable, the full Cyrillic range renders
// correctly; otherwise it falls back to the core Helvetica font with
// cp1252 translation.
type PDFRenderer struct {
	fontPath string
}

// NewPDFRenderer creates a renderer.
// Parameters:
//   - fontPath: optional path to a UTF-8 TTF font (e.g. DejaVuSans.ttf).
// Returns:
//   - *PDFRenderer: initialized renderer.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{fontPath: fontPath}
}

// Render produces the PDF bytes for a report.
// Parameters:
//   - report: assembled report; missing fields render as empty.
// Returns:
//   - []byte: PDF document.
//   - error: rendering failure.
func (r *PDFRenderer) Render(report *domain.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	family := "Helvetica"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if r.fontPath != "" {
		if _, err := os.Stat(r.fontPath); err == nil {
			family = "custom"
			pdf.AddUTF8Font(family, "", r.fontPath)
			pdf.AddUTF8Font(family, "B", r.fontPath)
			translate = func(s string) string { return s }
		}
	}

	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.MultiCell(0, 9, translate(fmt.Sprintf("Research report: %s", report.Topic)), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(100, 100, 100)
	meta := fmt.Sprintf("Generated: %s   Sources: %d   Findings: %d",
		report.GeneratedAt.Format("02.01.2006 15:04"), len(report.Sources), len(report.Findings))
	pdf.MultiCell(0, 5, translate(meta), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	writeHeading := func(text string, size float64) {
		pdf.Ln(3)
		pdf.SetFont(family, "B", size)
		pdf.MultiCell(0, 7, translate(text), "", "L", false)
		pdf.Ln(1)
		pdf.SetFont(family, "", 11)
	}

	writeBody := func(text string) {
		pdf.SetFont(family, "", 11)
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimRight(line, " ")
			switch {
			case strings.HasPrefix(line, "### "):
				writeHeading(strings.TrimPrefix(line, "### "), 12)
			case strings.HasPrefix(line, "## "):
				writeHeading(strings.TrimPrefix(line, "## "), 14)
			case strings.HasPrefix(line, "# "):
				writeHeading(strings.TrimPrefix(line, "# "), 16)
			case line == "---":
				pdf.Ln(2)
			case line == "":
				pdf.Ln(3)
			default:
				pdf.MultiCell(0, 5.5, translate(stripInlineMarkup(line)), "", "L", false)
			}
		}
	}

	writeHeading("Analysis", 14)
	narrative := report.Narrative
	if narrative == "" {
		narrative = "No narrative was generated."
	}
	writeBody(narrative)

	writeHeading("Key findings", 14)
	for i, f := range report.Findings {
		title := f.Title
		if title == "" {
			title = "Untitled"
		}
		writeHeading(fmt.Sprintf("%d. %s", i+1, title), 12)
		if f.Snippet != "" {
			writeBody(f.Snippet)
		}
		pdf.SetFont(family, "", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, translate(fmt.Sprintf("Source: [%d] %s", f.SourceIndex, f.Link)), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	writeHeading("Sources", 14)
	pdf.SetFont(family, "", 10)
	for i, s := range report.Sources {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		pdf.MultiCell(0, 5, translate(fmt.Sprintf("%d. %s", i+1, title)), "", "L", false)
		pdf.SetTextColor(0, 0, 200)
		pdf.MultiCell(0, 5, translate("   "+s.Link), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(1)
	}

	writeHeading("Generation info", 14)
	pdf.SetFont(family, "", 10)
	tag := report.GeneratorTag
	if tag == "" {
		tag = "researchbot"
	}
	info := fmt.Sprintf("Search queries executed: %d\nUnique sources found: %d\nGenerated at: %s\nGenerator: %s",
		report.QueriesRun, len(report.Sources),
		report.GeneratedAt.Format("02.01.2006 15:04:05"), tag)
	pdf.MultiCell(0, 5, translate(info), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// stripInlineMarkup drops the markdown emphasis markers that would
// otherwise render literally in the PDF body.
func stripInlineMarkup(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return s
}
