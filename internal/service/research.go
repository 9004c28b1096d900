package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/timmy/researchbot/internal/domain"
	"github.com/timmy/researchbot/internal/logger"
)

// trailingStages is the number of fixed pipeline stages after the per-query
// search calls: filtering, synthesis, final assembly.
const trailingStages = 3

// MinTopicLength is the minimum topic length in runes accepted by Start.
const MinTopicLength = 5

// synthesisFallback replaces the narrative when synthesis fails or times
// out; the job still completes and delivers findings and sources.
const synthesisFallback = "The analytical narrative could not be generated in time. " +
	"The findings and sources collected during the research are listed below."

// ResearchConfig holds pipeline orchestration knobs.
type ResearchConfig struct {
	Concurrency      int
	PerCallTimeout   time.Duration
	CallPause        time.Duration
	BatchPause       time.Duration
	SynthesisTimeout time.Duration
	MaxFindings      int
	MinSnippetLength int
}

// jobHandle tracks one running pipeline: the live job record, the cancel
// function for cooperative cancellation, and a done channel closed when the
// pipeline goroutine exits.
type jobHandle struct {
	job    *domain.ResearchJob
	cancel context.CancelFunc
	done   chan struct{}
}

// ResearchService owns the one-job-per-chat invariant: it admits, cancels
// and reports research jobs, runs the pipeline as cancellable background
// work, persists job snapshots on every transition, and emits progress
// through the Notifier.
type ResearchService struct {
	store    JobStore
	settings SettingsStore
	executor *Executor
	synth    Synthesizer
	notifier Notifier
	cfg      ResearchConfig

	mu      sync.Mutex
	handles map[int64]*jobHandle
}

// NewResearchService creates the research lifecycle manager.
// Parameters:
//   - store: durable job snapshot store.
//   - settings: per-chat settings store.
//   - gateway: search gateway used by the fan-out executor.
//   - synth: report synthesizer.
//   - cfg: orchestration configuration.
// Returns:
//   - *ResearchService: initialized service; call SetNotifier before Start.
func NewResearchService(store JobStore, settings SettingsStore, gateway SearchGateway, synth Synthesizer, cfg ResearchConfig) *ResearchService {
	if cfg.SynthesisTimeout <= 0 {
		cfg.SynthesisTimeout = 55 * time.Second
	}
	if cfg.MaxFindings <= 0 {
		cfg.MaxFindings = 25
	}
	if cfg.MinSnippetLength <= 0 {
		cfg.MinSnippetLength = 20
	}
	return &ResearchService{
		store:    store,
		settings: settings,
		executor: NewExecutor(gateway, ExecutorConfig{
			Concurrency:    cfg.Concurrency,
			PerCallTimeout: cfg.PerCallTimeout,
			CallPause:      cfg.CallPause,
			BatchPause:     cfg.BatchPause,
		}),
		synth:   synth,
		cfg:     cfg,
		handles: make(map[int64]*jobHandle),
	}
}

// SetNotifier wires the chat-transport notifier. Must be called before the
// first Start; split from the constructor because the transport needs the
// service and vice versa.
func (s *ResearchService) SetNotifier(n Notifier) {
	s.notifier = n
}

// RecoverInterrupted marks every non-terminal persisted job as failed.
// Called once at startup: in-flight work is not resumable after a restart.
func (s *ResearchService) RecoverInterrupted(ctx context.Context) (int64, error) {
	return s.store.MarkInterrupted(ctx, "interrupted by service restart")
}

// Start admits a new research job for a chat and schedules its pipeline as
// background work.
// Parameters:
//   - ctx: bounds the admission only; the pipeline runs on its own context.
//   - chatID: owning chat.
//   - topic: research topic.
// Returns:
//   - *domain.ResearchJob: snapshot of the admitted job.
//   - error: ErrTopicTooShort, ErrAlreadyActive, or a persistence failure.
func (s *ResearchService) Start(ctx context.Context, chatID int64, topic string) (*domain.ResearchJob, error) {
	topic = strings.TrimSpace(topic)
	if utf8.RuneCountInString(topic) < MinTopicLength {
		return nil, ErrTopicTooShort
	}

	settings, err := s.settings.GetOrInit(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.mu.Lock()
	if _, active := s.handles[chatID]; active {
		s.mu.Unlock()
		return nil, ErrAlreadyActive
	}

	job := &domain.ResearchJob{
		ChatID:       chatID,
		ID:           uuid.New().String(),
		Topic:        topic,
		Status:       domain.JobStatusRunning,
		MaxResults:   settings.MaxResults,
		DeepAnalysis: settings.DeepAnalysis,
		Lang:         settings.Lang,
		StartedAt:    time.Now(),
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	jobCtx = logger.WithFields(jobCtx, logger.Fields{
		logger.FieldChatID: chatID,
		logger.FieldJobID:  job.ID,
		logger.FieldTopic:  topic,
	})

	h := &jobHandle{job: job, cancel: cancel, done: make(chan struct{})}
	s.handles[chatID] = h
	s.mu.Unlock()

	// Durable running snapshot before the background unit is scheduled.
	if err := s.store.Save(ctx, job.Clone()); err != nil {
		s.release(chatID)
		cancel()
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	go s.runPipeline(jobCtx, h)

	return s.snapshot(h), nil
}

// Cancel signals cooperative cancellation to the chat's running pipeline.
// The pipeline observes the signal at its next suspension point and
// transitions the job to cancelled; in-flight external calls are allowed to
// finish or time out first.
func (s *ResearchService) Cancel(chatID int64) error {
	s.mu.Lock()
	h, ok := s.handles[chatID]
	s.mu.Unlock()
	if !ok {
		return ErrNoActiveJob
	}
	h.cancel()
	return nil
}

// Status returns a read-only snapshot of the chat's job: the live one when
// a pipeline is running, otherwise the last persisted snapshot.
func (s *ResearchService) Status(ctx context.Context, chatID int64) (*domain.ResearchJob, error) {
	s.mu.Lock()
	if h, ok := s.handles[chatID]; ok {
		job := h.job.Clone()
		s.mu.Unlock()
		return job, nil
	}
	s.mu.Unlock()

	job, err := s.store.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrNoActiveJob
	}
	return job.Clone(), nil
}

// Sources returns the source list of the chat's current or last job.
func (s *ResearchService) Sources(ctx context.Context, chatID int64) (string, []domain.Source, error) {
	job, err := s.Status(ctx, chatID)
	if err != nil {
		return "", nil, err
	}
	return job.Topic, job.Sources, nil
}

// ActiveCount reports how many pipelines are currently running.
func (s *ResearchService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// runPipeline executes one research job to a terminal state and releases
// the chat's handle.
func (s *ResearchService) runPipeline(ctx context.Context, h *jobHandle) {
	defer close(h.done)
	defer s.release(h.job.ChatID)
	defer func() {
		if r := recover(); r != nil {
			s.failJob(ctx, h, fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	err := s.execute(ctx, h)
	switch {
	case err == nil:
		// execute finalized the job as done.
	case errors.Is(err, context.Canceled):
		s.cancelJob(ctx, h)
	default:
		s.failJob(ctx, h, err)
	}
}

// execute runs the pipeline stages: plan, fan-out search, aggregate,
// synthesize, assemble. Returns context.Canceled when cancellation was
// observed at a suspension point, any other error for a pipeline fault,
// and nil after the job is finalized as done.
func (s *ResearchService) execute(ctx context.Context, h *jobHandle) error {
	topic := h.job.Topic
	settings := &domain.UserSettings{
		MaxResults:   h.job.MaxResults,
		DeepAnalysis: h.job.DeepAnalysis,
		Lang:         h.job.Lang,
	}

	queries := PlanQueries(topic, settings)
	total := len(queries) + trailingStages

	s.withJob(h, func(j *domain.ResearchJob) {
		j.TotalSteps = total
	})
	s.persist(ctx, h)

	step := 0
	results, err := s.executor.Run(ctx, queries, settings.MaxResults, func(query string) {
		step++
		s.progress(ctx, h, step, total, "Searching: "+truncateLabel(query, 50))
	})
	if err != nil {
		return err
	}

	step = len(queries) + 1
	s.progress(ctx, h, step, total, "Processing and filtering results")

	findings, sources := AggregateFindings(results, AggregateConfig{
		MaxPerQuery:      settings.MaxResults,
		MinSnippetLength: s.cfg.MinSnippetLength,
		MaxFindings:      s.cfg.MaxFindings,
	})
	s.withJob(h, func(j *domain.ResearchJob) {
		j.Findings = findings
		j.Sources = sources
	})
	s.persist(ctx, h)

	if err := ctx.Err(); err != nil {
		return err
	}

	step++
	s.progress(ctx, h, step, total, "Generating analytical report")

	narrative, err := s.synthesize(ctx, findings, topic, settings.Lang)
	if err != nil {
		return err
	}

	step++
	s.progress(ctx, h, step, total, "Preparing final report")

	report := AssembleReport(topic, narrative, findings, sources, len(queries), time.Now())

	s.withJob(h, func(j *domain.ResearchJob) {
		j.Report = report.Markdown()
		j.Status = domain.JobStatusDone
		j.CompletedIn = time.Since(j.StartedAt)
	})

	// Snapshot must be durable before the user sees completion.
	finalCtx := context.WithoutCancel(ctx)
	s.persist(finalCtx, h)

	if s.notifier != nil {
		if err := s.notifier.NotifyDone(finalCtx, s.snapshot(h), report); err != nil {
			logger.CtxWarn(ctx, "Failed to deliver completed report: %v", err)
		}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldCount:      len(sources),
		logger.FieldDurationMs: s.snapshot(h).CompletedIn.Milliseconds(),
	}).Info("Research completed")

	return nil
}

// synthesize calls the report synthesizer with its own timeout. Synthesis
// faults are downgraded to a placeholder narrative; only cancellation
// propagates.
func (s *ResearchService) synthesize(ctx context.Context, findings []domain.Finding, topic, lang string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.SynthesisTimeout)
	defer cancel()

	narrative, err := s.synth.Generate(callCtx, findings, topic, lang)
	if err == nil {
		return narrative, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	logger.CtxWarn(ctx, "Report synthesis failed, using fallback narrative: %v", err)
	return synthesisFallback, nil
}

// progress records a progress tuple on the job, persists the snapshot, and
// then attempts best-effort delivery. The persisted snapshot is always
// written before the notification so a crash never shows the user a status
// more advanced than what is durably recorded.
func (s *ResearchService) progress(ctx context.Context, h *jobHandle, step, total int, label string) {
	s.withJob(h, func(j *domain.ResearchJob) {
		j.Step = step
		j.TotalSteps = total
		j.StepLabel = label
	})
	s.persist(ctx, h)

	if s.notifier == nil {
		return
	}
	p := domain.Progress{Step: step, Total: total, Label: label}
	if err := s.notifier.NotifyProgress(ctx, h.job.ChatID, h.job.Topic, p); err != nil {
		logger.CtxDebug(ctx, "Progress notification failed: %v", err)
	}
}

// cancelJob finalizes a job whose pipeline observed cancellation.
func (s *ResearchService) cancelJob(ctx context.Context, h *jobHandle) {
	s.withJob(h, func(j *domain.ResearchJob) {
		j.Status = domain.JobStatusCancelled
		j.CompletedIn = time.Since(j.StartedAt)
	})

	finalCtx := context.WithoutCancel(ctx)
	s.persist(finalCtx, h)

	logger.CtxInfo(ctx, "Research cancelled")
	if s.notifier != nil {
		if err := s.notifier.NotifyCancelled(finalCtx, h.job.ChatID, h.job.Topic); err != nil {
			logger.CtxDebug(ctx, "Cancellation notification failed: %v", err)
		}
	}
}

// failJob finalizes a job after an unclassified pipeline fault. The fault
// is logged with context and the process keeps serving other chats.
func (s *ResearchService) failJob(ctx context.Context, h *jobHandle, cause error) {
	s.withJob(h, func(j *domain.ResearchJob) {
		if j.Status.Terminal() {
			return
		}
		j.Status = domain.JobStatusError
		j.Error = cause.Error()
		j.CompletedIn = time.Since(j.StartedAt)
	})

	finalCtx := context.WithoutCancel(ctx)
	s.persist(finalCtx, h)

	logger.FromContext(ctx).WithError(cause).Error("Research pipeline failed")
	if s.notifier != nil {
		if err := s.notifier.NotifyFailed(finalCtx, h.job.ChatID, h.job.Topic, cause); err != nil {
			logger.CtxDebug(ctx, "Failure notification failed: %v", err)
		}
	}
}

// withJob mutates the live job under the registry lock. Status transitions
// are monotone: a terminal job is never mutated again.
func (s *ResearchService) withJob(h *jobHandle, fn func(*domain.ResearchJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.job.Status.Terminal() {
		return
	}
	fn(h.job)
}

// snapshot returns a deep copy of the live job.
func (s *ResearchService) snapshot(h *jobHandle) *domain.ResearchJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return h.job.Clone()
}

// persist writes the current snapshot synchronously; persistence faults are
// logged, never fatal to the pipeline.
func (s *ResearchService) persist(ctx context.Context, h *jobHandle) {
	if err := s.store.Save(ctx, s.snapshot(h)); err != nil {
		logger.CtxWarn(ctx, "Failed to persist job snapshot: %v", err)
	}
}

// release removes the chat's handle from the registry.
func (s *ResearchService) release(chatID int64) {
	s.mu.Lock()
	delete(s.handles, chatID)
	s.mu.Unlock()
}

func truncateLabel(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
