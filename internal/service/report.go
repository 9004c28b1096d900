package service

import (
	"time"

	"github.com/timmy/researchbot/internal/domain"
)

// generatorTag identifies the report producer in the metadata footer.
const generatorTag = "researchbot v1"

// AssembleReport merges the synthesized narrative, findings and sources
// into the final structured document. Purely a formatting transform:
// missing fields render as empty, never fatal.
func AssembleReport(topic, narrative string, findings []domain.Finding, sources []domain.Source, queriesRun int, now time.Time) *domain.Report {
	return &domain.Report{
		Topic:        topic,
		GeneratedAt:  now,
		Narrative:    narrative,
		Findings:     findings,
		Sources:      sources,
		QueriesRun:   queriesRun,
		GeneratorTag: generatorTag,
	}
}
