package domain

import (
	"testing"
	"time"
)

func TestJobStatus_Terminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusRunning, false},
		{JobStatusDone, true},
		{JobStatusCancelled, true},
		{JobStatusError, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestResearchJob_CloneIsDeep(t *testing.T) {
	job := &ResearchJob{
		ChatID: 1,
		Topic:  "deep copy semantics",
		Findings: FindingList{
			{Title: "original", SourceIndex: 1},
		},
		Sources: SourceList{
			{Title: "original", Link: "https://a"},
		},
	}

	cp := job.Clone()
	cp.Findings[0].Title = "mutated"
	cp.Sources[0].Link = "https://b"
	cp.Topic = "changed"

	if job.Findings[0].Title != "original" {
		t.Error("clone shares the findings slice with the original")
	}
	if job.Sources[0].Link != "https://a" {
		t.Error("clone shares the sources slice with the original")
	}
	if job.Topic != "deep copy semantics" {
		t.Error("clone shares scalar state with the original")
	}
}

func TestResearchJob_Elapsed(t *testing.T) {
	start := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(90 * time.Second)

	running := &ResearchJob{Status: JobStatusRunning, StartedAt: start}
	if got := running.Elapsed(now); got != 90*time.Second {
		t.Errorf("running elapsed %v, want 90s", got)
	}

	done := &ResearchJob{Status: JobStatusDone, StartedAt: start, CompletedIn: 42 * time.Second}
	if got := done.Elapsed(now); got != 42*time.Second {
		t.Errorf("terminal elapsed %v, want the recorded duration", got)
	}
}
