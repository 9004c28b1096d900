package service

import (
	"context"

	"github.com/timmy/researchbot/internal/domain"
)

// SearchItem is one organic result returned by the search gateway.
type SearchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// SearchGateway executes one web search query. Implementations retry
// transient faults internally; callers bound the overall call with ctx.
type SearchGateway interface {
	Search(ctx context.Context, query string, count int) ([]SearchItem, error)
}

// Synthesizer turns findings into narrative report text.
type Synthesizer interface {
	Generate(ctx context.Context, findings []domain.Finding, topic, lang string) (string, error)
}

// Notifier delivers user-visible research events over the chat transport.
// Every delivery is best-effort: the pipeline logs failures and continues.
type Notifier interface {
	NotifyProgress(ctx context.Context, chatID int64, topic string, p domain.Progress) error
	NotifyDone(ctx context.Context, job *domain.ResearchJob, report *domain.Report) error
	NotifyCancelled(ctx context.Context, chatID int64, topic string) error
	NotifyFailed(ctx context.Context, chatID int64, topic string, cause error) error
}

// JobStore persists job snapshots keyed by chat ID.
type JobStore interface {
	Save(ctx context.Context, job *domain.ResearchJob) error
	Get(ctx context.Context, chatID int64) (*domain.ResearchJob, error)
	MarkInterrupted(ctx context.Context, reason string) (int64, error)
}

// SettingsStore persists per-chat settings.
type SettingsStore interface {
	GetOrInit(ctx context.Context, chatID int64) (*domain.UserSettings, error)
	Save(ctx context.Context, settings *domain.UserSettings) error
}
