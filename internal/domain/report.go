package domain

import (
	"fmt"
	"strings"
	"time"
)

// Report is the assembled research document. It is format-agnostic; the
// Markdown method renders the portable text form, and rendering to other
// formats (PDF) is done by consumers.
type Report struct {
	Topic        string
	GeneratedAt  time.Time
	Narrative    string
	Findings     []Finding
	Sources      []Source
	QueriesRun   int
	GeneratorTag string
}

// Markdown renders the report with fixed sections: header, narrative body,
// per-finding details, source list, generation metadata footer. Missing
// fields render as empty, never fatal.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research report: %s\n\n", r.Topic)
	fmt.Fprintf(&b, "**Generated:** %s\n", r.GeneratedAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "**Sources analyzed:** %d\n", len(r.Sources))
	fmt.Fprintf(&b, "**Key findings:** %d\n\n", len(r.Findings))
	b.WriteString("---\n\n")

	b.WriteString("## Analysis\n\n")
	narrative := r.Narrative
	if narrative == "" {
		narrative = "_No narrative was generated._"
	}
	b.WriteString(narrative)
	b.WriteString("\n\n---\n\n")

	b.WriteString("## Key findings\n\n")
	for i, f := range r.Findings {
		title := f.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, title)
		if f.Snippet != "" {
			fmt.Fprintf(&b, "%s\n\n", f.Snippet)
		}
		fmt.Fprintf(&b, "Source: [%d] %s\n\n", f.SourceIndex, f.Link)
	}
	b.WriteString("---\n\n")

	b.WriteString("## Sources\n\n")
	for i, s := range r.Sources {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "%d. **%s**  \n   [%s](%s)\n\n", i+1, title, s.Link, s.Link)
	}
	b.WriteString("---\n\n")

	b.WriteString("## Generation info\n\n")
	fmt.Fprintf(&b, "- Search queries executed: %d\n", r.QueriesRun)
	fmt.Fprintf(&b, "- Unique sources found: %d\n", len(r.Sources))
	fmt.Fprintf(&b, "- Generated at: %s\n", r.GeneratedAt.Format("02.01.2006 15:04:05"))
	tag := r.GeneratorTag
	if tag == "" {
		tag = "researchbot"
	}
	fmt.Fprintf(&b, "- Generator: %s\n", tag)

	return b.String()
}
