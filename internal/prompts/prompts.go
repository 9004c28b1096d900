package prompts

import (
	"fmt"
	"strings"

	"github.com/timmy/researchbot/internal/domain"
)

// ============================================================================
// Report Synthesis Prompts
// ============================================================================

// SynthesisSystemPrompt defines the analyst role and citation rules for
// report generation.
const SynthesisSystemPrompt = `You are an expert analyst with deep knowledge across many fields. ` +
	`Produce structured, information-dense reports based strictly on the supplied data. ` +
	`Use an academic tone and avoid promotional phrasing. ` +
	`Always cite sources in square brackets as [1], [2], and so on. ` +
	`Analyze trends, surface patterns, and draw conclusions grounded in the facts provided.`

// synthesisUserTemplate lays out the fixed report structure the model must
// follow. Findings are injected pre-formatted.
const synthesisUserTemplate = `Write a detailed analytical report on the topic: "%s"

Report structure:
1. **Executive summary** (2-3 sentences)
2. **Detailed analysis** (main aspects and findings)
3. **Key trends and statistics**
4. **Challenges and problems**
5. **Opportunities and outlook**
6. **Conclusions and recommendations**

Data for analysis:
%s

Requirements:
- Use only the data provided
- Cite sources in square brackets
- Highlight key points
- Base every conclusion on the facts
%s`

// langInstructions maps a report language code to the instruction appended
// to the user prompt.
var langInstructions = map[string]string{
	"ru": "- Write the report in Russian",
	"en": "- Write the report in English",
}

// SynthesisUserPrompt builds the user message for report generation.
// Findings beyond maxFindings are dropped to keep the prompt focused.
func SynthesisUserPrompt(topic string, findings []domain.Finding, lang string, maxFindings int) string {
	if maxFindings > 0 && len(findings) > maxFindings {
		findings = findings[:maxFindings]
	}

	blocks := make([]string, 0, len(findings))
	for _, f := range findings {
		blocks = append(blocks, fmt.Sprintf("**%s**\n%s\nSource [%d]: %s", f.Title, f.Snippet, f.SourceIndex, f.Link))
	}

	instruction := langInstructions[lang]
	if instruction == "" {
		instruction = langInstructions["en"]
	}

	return fmt.Sprintf(synthesisUserTemplate, topic, strings.Join(blocks, "\n\n"), instruction)
}
