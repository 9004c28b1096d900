package service

import (
	"testing"
)

const longSnippet = "a sufficiently descriptive snippet that clears the quality filter"

func TestAggregateFindings_DedupCaseInsensitive(t *testing.T) {
	results := []QueryResult{
		{Query: "q1", Items: []SearchItem{
			{Title: "Quantum Leap", Snippet: longSnippet, Link: "https://a"},
			{Title: "Other Result", Snippet: longSnippet, Link: "https://b"},
		}},
		{Query: "q2", Items: []SearchItem{
			{Title: "QUANTUM LEAP", Snippet: longSnippet, Link: "https://c"},
		}},
	}

	findings, sources := AggregateFindings(results, AggregateConfig{
		MaxPerQuery: 10, MinSnippetLength: 20, MaxFindings: 25,
	})

	if len(findings) != 2 {
		t.Fatalf("expected 2 findings after dedup, got %d", len(findings))
	}
	if len(sources) != 2 {
		t.Fatalf("expected sources 1:1 with findings, got %d", len(sources))
	}
	// First occurrence wins, including its link.
	if findings[0].Link != "https://a" {
		t.Errorf("dedup kept the wrong occurrence: %q", findings[0].Link)
	}
}

func TestAggregateFindings_ShortSnippetsExcluded(t *testing.T) {
	results := []QueryResult{
		{Query: "q", Items: []SearchItem{
			{Title: "Kept", Snippet: longSnippet, Link: "https://a"},
			{Title: "Dropped", Snippet: "too short", Link: "https://b"},
			{Title: "No snippet", Snippet: "", Link: "https://c"},
		}},
	}

	findings, _ := AggregateFindings(results, AggregateConfig{
		MaxPerQuery: 10, MinSnippetLength: 20, MaxFindings: 25,
	})

	if len(findings) != 1 || findings[0].Title != "Kept" {
		t.Fatalf("expected only the quality finding to survive, got %+v", findings)
	}
}

func TestAggregateFindings_SequentialSourceIndices(t *testing.T) {
	results := []QueryResult{
		{Query: "q1", Items: []SearchItem{
			{Title: "A", Snippet: longSnippet, Link: "https://a"},
			{Title: "B", Snippet: longSnippet, Link: "https://b"},
		}},
		{Query: "q2", Items: []SearchItem{
			{Title: "A", Snippet: longSnippet, Link: "https://dup"},
			{Title: "C", Snippet: longSnippet, Link: "https://c"},
		}},
	}

	findings, sources := AggregateFindings(results, AggregateConfig{
		MaxPerQuery: 10, MinSnippetLength: 20, MaxFindings: 25,
	})

	for i, f := range findings {
		if f.SourceIndex != i+1 {
			t.Errorf("finding %d has source index %d, want %d", i, f.SourceIndex, i+1)
		}
		if sources[i].Link != f.Link {
			t.Errorf("source %d link %q does not match finding link %q", i, sources[i].Link, f.Link)
		}
	}
	// Dedup must not leave gaps in the numbering.
	if len(findings) != 3 || findings[2].SourceIndex != 3 {
		t.Errorf("expected dense indices 1..3, got %+v", findings)
	}
}

func TestAggregateFindings_PerQueryAndTotalCaps(t *testing.T) {
	many := make([]SearchItem, 10)
	for i := range many {
		many[i] = SearchItem{
			Title:   "t" + string(rune('a'+i)),
			Snippet: longSnippet,
			Link:    "https://x",
		}
	}
	results := []QueryResult{
		{Query: "q1", Items: many},
		{Query: "q2", Items: []SearchItem{
			{Title: "extra one", Snippet: longSnippet, Link: "https://y"},
			{Title: "extra two", Snippet: longSnippet, Link: "https://z"},
		}},
	}

	findings, sources := AggregateFindings(results, AggregateConfig{
		MaxPerQuery: 3, MinSnippetLength: 20, MaxFindings: 4,
	})

	if len(findings) != 4 {
		t.Fatalf("expected total cap of 4, got %d", len(findings))
	}
	if len(sources) != 4 {
		t.Fatalf("sources must be truncated with findings, got %d", len(sources))
	}
	// Only 3 items may come from the first query.
	fromFirst := 0
	for _, f := range findings {
		if f.Link == "https://x" {
			fromFirst++
		}
	}
	if fromFirst != 3 {
		t.Errorf("expected 3 findings from the capped query, got %d", fromFirst)
	}
}

func TestAggregateFindings_Empty(t *testing.T) {
	findings, sources := AggregateFindings(nil, AggregateConfig{
		MaxPerQuery: 10, MinSnippetLength: 20, MaxFindings: 25,
	})
	if len(findings) != 0 || len(sources) != 0 {
		t.Errorf("expected empty aggregation, got %d findings, %d sources", len(findings), len(sources))
	}
}
