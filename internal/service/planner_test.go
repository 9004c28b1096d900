package service

import (
	"strings"
	"testing"

	"github.com/timmy/researchbot/internal/domain"
)

func TestPlanQueries_BaseOnly(t *testing.T) {
	// A topic without category keywords and deep analysis off yields
	// exactly the base plan.
	settings := &domain.UserSettings{DeepAnalysis: false}
	queries := PlanQueries("quantum computing", settings)

	if len(queries) != len(baseQueryTemplates) {
		t.Fatalf("expected %d queries, got %d: %v", len(baseQueryTemplates), len(queries), queries)
	}
	for i, q := range queries {
		if !strings.Contains(q, "quantum computing") {
			t.Errorf("query %d does not contain the topic: %q", i, q)
		}
	}
}

func TestPlanQueries_DeepExtendsBase(t *testing.T) {
	topic := "quantum computing"
	base := PlanQueries(topic, &domain.UserSettings{DeepAnalysis: false})
	deep := PlanQueries(topic, &domain.UserSettings{DeepAnalysis: true})

	if len(deep) != len(base)+len(deepQueryTemplates) {
		t.Fatalf("expected %d queries with deep analysis, got %d", len(base)+len(deepQueryTemplates), len(deep))
	}
	// Deep plan preserves the base plan as its prefix.
	for i, q := range base {
		if deep[i] != q {
			t.Errorf("deep plan diverges from base at %d: %q vs %q", i, deep[i], q)
		}
	}
}

func TestPlanQueries_CategoryVariants(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		wantTail string
	}{
		{
			name:     "technology topic",
			topic:    "artificial intelligence in education",
			wantTail: "implementation adoption",
		},
		{
			name:     "medical topic",
			topic:    "gene therapy in medicine",
			wantTail: "clinical trials research",
		},
		{
			name:     "economic topic",
			topic:    "green finance regulation",
			wantTail: "economic impact",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries := PlanQueries(tt.topic, &domain.UserSettings{DeepAnalysis: false})
			found := false
			for _, q := range queries {
				if strings.HasSuffix(q, tt.wantTail) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected a query ending in %q, got %v", tt.wantTail, queries)
			}
		})
	}
}

func TestPlanQueries_SingleCategory(t *testing.T) {
	// A topic matching both tech and economy keywords gets only the first
	// matching category's variants.
	queries := PlanQueries("blockchain investment platforms", &domain.UserSettings{DeepAnalysis: false})

	for _, q := range queries {
		if strings.HasSuffix(q, "economic impact") {
			t.Errorf("second matching category leaked into the plan: %q", q)
		}
	}
	if len(queries) != len(baseQueryTemplates)+2 {
		t.Errorf("expected %d queries, got %d", len(baseQueryTemplates)+2, len(queries))
	}
}

func TestPlanQueries_Cap(t *testing.T) {
	// Deep analysis plus a category match generates 16 candidates, which is
	// exactly the cap; the plan never exceeds it.
	queries := PlanQueries("ai in healthcare", &domain.UserSettings{DeepAnalysis: true})
	if len(queries) > MaxPlannedQueries {
		t.Fatalf("plan exceeds cap: %d > %d", len(queries), MaxPlannedQueries)
	}
}

func TestPlanQueries_Deterministic(t *testing.T) {
	settings := &domain.UserSettings{DeepAnalysis: true}
	first := PlanQueries("renewable energy", settings)
	second := PlanQueries("renewable energy", settings)

	if len(first) != len(second) {
		t.Fatalf("plan length differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("plan differs at %d: %q vs %q", i, first[i], second[i])
		}
	}
}
