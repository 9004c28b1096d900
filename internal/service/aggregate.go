package service

import (
	"strings"
	"unicode/utf8"

	"github.com/timmy/researchbot/internal/domain"
)

// AggregateConfig bounds the volume and quality of accepted findings.
type AggregateConfig struct {
	// MaxPerQuery caps how many items are taken from each query result.
	MaxPerQuery int
	// MinSnippetLength excludes near-empty descriptions (rune count).
	MinSnippetLength int
	// MaxFindings caps the final list by truncation in discovery order.
	MaxFindings int
}

// AggregateFindings flattens per-query gateway results into deduplicated,
// quality-filtered findings with 1-based source indices assigned at first
// occurrence. Dedup is by case-insensitive exact title; the first occurrence
// wins and later duplicates are dropped entirely. Sources stay 1:1 with the
// findings that introduced them, ordered by first appearance.
func AggregateFindings(results []QueryResult, cfg AggregateConfig) ([]domain.Finding, []domain.Source) {
	findings := make([]domain.Finding, 0, cfg.MaxFindings)
	sources := make([]domain.Source, 0, cfg.MaxFindings)
	seenTitles := make(map[string]struct{})

	for _, res := range results {
		items := res.Items
		if cfg.MaxPerQuery > 0 && len(items) > cfg.MaxPerQuery {
			items = items[:cfg.MaxPerQuery]
		}

		for _, item := range items {
			if utf8.RuneCountInString(item.Snippet) < cfg.MinSnippetLength {
				continue
			}

			titleKey := strings.ToLower(item.Title)
			if _, dup := seenTitles[titleKey]; dup {
				continue
			}
			seenTitles[titleKey] = struct{}{}

			index := len(sources) + 1
			findings = append(findings, domain.Finding{
				Title:       item.Title,
				Snippet:     item.Snippet,
				Link:        item.Link,
				SourceIndex: index,
			})
			sources = append(sources, domain.Source{
				Title: item.Title,
				Link:  item.Link,
			})
		}
	}

	if cfg.MaxFindings > 0 && len(findings) > cfg.MaxFindings {
		findings = findings[:cfg.MaxFindings]
		sources = sources[:cfg.MaxFindings]
	}

	return findings, sources
}
