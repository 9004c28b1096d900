package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/timmy/researchbot/internal/domain"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCmd  string
		wantArgs string
	}{
		{"bare command", "/status", "/status", ""},
		{"command with args", "/research quantum computing", "/research", "quantum computing"},
		{"bot-name suffix", "/status@my_research_bot", "/status", ""},
		{"suffix with args", "/settings@my_research_bot lang en", "/settings", "lang en"},
		{"uppercase normalized", "/HELP", "/help", ""},
		{"plain text", "quantum computing", "", "quantum computing"},
		{"newline separator", "/research quantum\ncomputing", "/research", "quantum\ncomputing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := splitCommand(tt.input)
			if cmd != tt.wantCmd {
				t.Errorf("command %q, want %q", cmd, tt.wantCmd)
			}
			if args != tt.wantArgs {
				t.Errorf("args %q, want %q", args, tt.wantArgs)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45 s"},
		{90 * time.Second, "1 min 30 s"},
		{2 * time.Hour, "2 h 0 min"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestProgressText(t *testing.T) {
	text := progressText("ai <b>tricks</b>", domain.Progress{Step: 5, Total: 10, Label: "Searching: ai & ml"})

	if !strings.Contains(text, "50%") {
		t.Errorf("percentage missing: %s", text)
	}
	if !strings.Contains(text, "(5/10)") {
		t.Errorf("step counter missing: %s", text)
	}
	// User input must be escaped before interpolation into HTML.
	if strings.Contains(text, "<b>tricks</b>") {
		t.Errorf("topic was not HTML-escaped: %s", text)
	}
	if !strings.Contains(text, "&amp;") {
		t.Errorf("label was not HTML-escaped: %s", text)
	}
}

func TestProgressText_ZeroTotal(t *testing.T) {
	text := progressText("some topic", domain.Progress{Step: 0, Total: 0, Label: "starting"})
	if !strings.Contains(text, "0%") {
		t.Errorf("zero total must render as 0%%, got: %s", text)
	}
}

func TestProgressBar(t *testing.T) {
	if bar := progressBar(0); strings.Contains(bar, "🟩") {
		t.Errorf("0%% bar must be empty, got %s", bar)
	}
	full := progressBar(100)
	if strings.Contains(full, "⬜") {
		t.Errorf("100%% bar must be full, got %s", full)
	}
	if n := strings.Count(full, "🟩"); n != 20 {
		t.Errorf("bar has %d segments, want 20", n)
	}
}

func TestSourcesDocument(t *testing.T) {
	doc := sourcesDocument("storage tech", []domain.Source{
		{Title: "First", Link: "https://a"},
		{Title: "Second", Link: "https://b"},
	})
	if !strings.Contains(doc, "1. First") || !strings.Contains(doc, "2. Second") {
		t.Errorf("sources not numbered in order:\n%s", doc)
	}
	if !strings.Contains(doc, "https://b") {
		t.Errorf("link missing:\n%s", doc)
	}
}

func TestSafeFilename(t *testing.T) {
	now := time.Unix(1700000000, 0)
	name := safeFilename("report", "ai/ml research: 2026 outlook", "md", now)

	if strings.ContainsAny(name, "/\\: ") {
		t.Errorf("filename contains unsafe characters: %q", name)
	}
	if !strings.HasPrefix(name, "report_") || !strings.HasSuffix(name, ".md") {
		t.Errorf("unexpected filename shape: %q", name)
	}
}
