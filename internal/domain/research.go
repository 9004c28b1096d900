package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JobStatus represents the status of a research job.
// Values include JobStatusPending, JobStatusRunning, JobStatusDone,
// JobStatusCancelled, and JobStatusError.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusError     JobStatus = "error"
)

// Terminal reports whether the status is a terminal state. Terminal jobs
// are never mutated again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusCancelled || s == JobStatusError
}

// Finding is one deduplicated, quality-filtered extracted fact.
// SourceIndex is 1-based, assigned at first occurrence, and shared with
// the Source the finding derives from.
type Finding struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	SourceIndex int    `json:"source_index"`
}

// Source is one distinct link surfaced to the user, ordered by first
// appearance.
type Source struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Progress is the last emitted progress tuple of a running job.
type Progress struct {
	Step  int    `json:"step"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

// FindingList stores findings as a JSON column.
type FindingList []Finding

func (l FindingList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *FindingList) Scan(value interface{}) error {
	return scanJSON(value, l, "FindingList")
}

// SourceList stores sources as a JSON column.
type SourceList []Source

func (l SourceList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *SourceList) Scan(value interface{}) error {
	return scanJSON(value, l, "SourceList")
}

func scanJSON(value, dest interface{}, typeName string) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan " + typeName)
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, dest)
}

// ResearchJob represents one research request for one chat and its
// accumulated state. At most one non-terminal job exists per chat; the
// snapshot is persisted on every status transition so the last known state
// survives a restart (for display, not for resuming in-flight work).
type ResearchJob struct {
	ChatID       int64         `gorm:"primaryKey" json:"chat_id"`
	ID           string        `gorm:"type:text;not null;index" json:"id"`
	Topic        string        `gorm:"type:text;not null" json:"topic"`
	Status       JobStatus     `gorm:"type:text;index;default:pending" json:"status"`
	MaxResults   int           `json:"max_results"`
	DeepAnalysis bool          `json:"deep_analysis"`
	Lang         string        `gorm:"type:text" json:"lang"`
	Findings     FindingList   `gorm:"type:text" json:"findings"`
	Sources      SourceList    `gorm:"type:text" json:"sources"`
	Report       string        `gorm:"type:text" json:"report,omitempty"`
	Step         int           `json:"step"`
	TotalSteps   int           `json:"total_steps"`
	StepLabel    string        `gorm:"type:text" json:"step_label,omitempty"`
	Error        string        `gorm:"type:text" json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedIn  time.Duration `json:"completed_in,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TableName returns the database table name for ResearchJob.
func (ResearchJob) TableName() string {
	return "researches"
}

// ProgressSnapshot returns the job's last emitted progress tuple.
func (j *ResearchJob) ProgressSnapshot() Progress {
	return Progress{Step: j.Step, Total: j.TotalSteps, Label: j.StepLabel}
}

// Elapsed returns the wall time the job has been (or was) running.
func (j *ResearchJob) Elapsed(now time.Time) time.Duration {
	if j.Status.Terminal() && j.CompletedIn > 0 {
		return j.CompletedIn
	}
	return now.Sub(j.StartedAt)
}

// Clone returns a deep copy of the job. Read paths hand out clones so a
// status call never aliases state owned by the running pipeline.
func (j *ResearchJob) Clone() *ResearchJob {
	cp := *j
	cp.Findings = append(FindingList(nil), j.Findings...)
	cp.Sources = append(SourceList(nil), j.Sources...)
	return &cp
}
