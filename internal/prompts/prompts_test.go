package prompts

import (
	"strings"
	"testing"

	"github.com/timmy/researchbot/internal/domain"
)

func TestSynthesisUserPrompt(t *testing.T) {
	findings := []domain.Finding{
		{Title: "First fact", Snippet: "details one", Link: "https://a", SourceIndex: 1},
		{Title: "Second fact", Snippet: "details two", Link: "https://b", SourceIndex: 2},
		{Title: "Third fact", Snippet: "details three", Link: "https://c", SourceIndex: 3},
	}

	t.Run("embeds topic and findings", func(t *testing.T) {
		prompt := SynthesisUserPrompt("fusion energy", findings, "en", 0)
		if !strings.Contains(prompt, `"fusion energy"`) {
			t.Errorf("topic missing from prompt")
		}
		if !strings.Contains(prompt, "Source [2]: https://b") {
			t.Errorf("finding citation missing from prompt")
		}
		if !strings.Contains(prompt, "Write the report in English") {
			t.Errorf("language instruction missing")
		}
	})

	t.Run("caps findings", func(t *testing.T) {
		prompt := SynthesisUserPrompt("fusion energy", findings, "en", 2)
		if strings.Contains(prompt, "Third fact") {
			t.Errorf("finding beyond the cap leaked into the prompt")
		}
		if !strings.Contains(prompt, "Second fact") {
			t.Errorf("finding under the cap missing from the prompt")
		}
	})

	t.Run("russian instruction", func(t *testing.T) {
		prompt := SynthesisUserPrompt("fusion energy", findings, "ru", 0)
		if !strings.Contains(prompt, "Write the report in Russian") {
			t.Errorf("russian instruction missing")
		}
	})

	t.Run("unknown lang falls back to english", func(t *testing.T) {
		prompt := SynthesisUserPrompt("fusion energy", findings, "xx", 0)
		if !strings.Contains(prompt, "Write the report in English") {
			t.Errorf("expected the english fallback instruction")
		}
	})
}
