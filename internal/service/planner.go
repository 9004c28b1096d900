package service

import (
	"fmt"
	"strings"

	"github.com/timmy/researchbot/internal/domain"
)

// MaxPlannedQueries caps the query plan regardless of settings so total
// fan-out work stays bounded.
const MaxPlannedQueries = 16

// baseQueryTemplates always participate in a plan, in this order.
var baseQueryTemplates = []string{
	"%s overview 2025",
	"%s research analysis",
	"%s statistics data trends",
	"%s development outlook",
	"%s problems challenges solutions",
	"%s innovations technology",
	"%s market forecasts",
	"%s expert opinion analytics",
}

// deepQueryTemplates are appended when deep analysis is enabled.
var deepQueryTemplates = []string{
	"%s case study practical examples",
	"%s best practices experience",
	"%s university research studies",
	"%s consulting firm reports",
	"%s whitepaper publications",
	"%s scientific publications",
}

// topicCategory pairs topic keywords with category-specific query variants.
// The first matching category wins; at most one is applied.
type topicCategory struct {
	keywords  []string
	templates []string
}

var topicCategories = []topicCategory{
	{
		keywords: []string{"technology", "tech", "ai", "artificial intelligence", "blockchain", "software", "robotics"},
		templates: []string{
			"%s implementation adoption",
			"%s startups leading companies",
		},
	},
	{
		keywords: []string{"medicine", "medical", "health", "healthcare", "treatment", "clinical", "disease"},
		templates: []string{
			"%s clinical trials research",
			"%s effectiveness outcomes",
		},
	},
	{
		keywords: []string{"economy", "economic", "finance", "financial", "business", "investment"},
		templates: []string{
			"%s economic impact",
			"%s investment market dynamics",
		},
	},
}

// PlanQueries expands a topic into an ordered list of distinct search
// queries: fixed base templates, then deep-analysis templates when enabled,
// then up to two category variants chosen by keyword match against the
// topic. The result is truncated to MaxPlannedQueries preserving generation
// order. Pure function of (topic, settings); no randomness.
func PlanQueries(topic string, settings *domain.UserSettings) []string {
	queries := make([]string, 0, MaxPlannedQueries)
	seen := make(map[string]struct{})

	appendFrom := func(templates []string) {
		for _, tpl := range templates {
			q := fmt.Sprintf(tpl, topic)
			if _, dup := seen[q]; dup {
				continue
			}
			seen[q] = struct{}{}
			queries = append(queries, q)
		}
	}

	appendFrom(baseQueryTemplates)

	if settings != nil && settings.DeepAnalysis {
		appendFrom(deepQueryTemplates)
	}

	topicLower := strings.ToLower(topic)
	for _, cat := range topicCategories {
		if matchesAny(topicLower, cat.keywords) {
			appendFrom(cat.templates)
			break
		}
	}

	if len(queries) > MaxPlannedQueries {
		queries = queries[:MaxPlannedQueries]
	}
	return queries
}

func matchesAny(topic string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(topic, kw) {
			return true
		}
	}
	return false
}
