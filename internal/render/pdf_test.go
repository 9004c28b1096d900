package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/timmy/researchbot/internal/domain"
)

func TestPDFRenderer_Render(t *testing.T) {
	r := NewPDFRenderer("")
	report := &domain.Report{
		Topic:       "wind turbine maintenance",
		GeneratedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		Narrative:   "## Executive summary\n\nTurbines need **regular** inspection.\n\nMore text follows here.",
		Findings: []domain.Finding{
			{Title: "Blade wear", Snippet: "Blades degrade over time.", Link: "https://a", SourceIndex: 1},
		},
		Sources: []domain.Source{
			{Title: "Blade wear", Link: "https://a"},
		},
		QueriesRun:   8,
		GeneratorTag: "researchbot v1",
	}

	out, err := r.Render(report)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header")
	}
	if len(out) < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", len(out))
	}
}

func TestPDFRenderer_EmptyReport(t *testing.T) {
	r := NewPDFRenderer("")
	out, err := r.Render(&domain.Report{Topic: "empty report case"})
	if err != nil {
		t.Fatalf("empty report must still render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header")
	}
}

func TestPDFRenderer_MissingFontFallsBack(t *testing.T) {
	r := NewPDFRenderer("/nonexistent/font.ttf")
	out, err := r.Render(&domain.Report{Topic: "fallback font case", Narrative: "body"})
	if err != nil {
		t.Fatalf("missing font must fall back, not fail: %v", err)
	}
	if len(out) == 0 {
		t.Error("empty output")
	}
}
