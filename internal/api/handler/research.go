package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/timmy/researchbot/internal/domain"
	"github.com/timmy/researchbot/internal/repository"
	"github.com/timmy/researchbot/internal/service"
)

// ResearchHandler exposes read-only views of research jobs for
// operational dashboards and debugging.
type ResearchHandler struct {
	research *service.ResearchService
	repo     *repository.ResearchRepository
}

// NewResearchHandler creates a research handler.
// Parameters:
//   - research: research lifecycle service.
//   - repo: job repository for aggregate stats.
// Returns:
//   - *ResearchHandler: initialized handler.
func NewResearchHandler(research *service.ResearchService, repo *repository.ResearchRepository) *ResearchHandler {
	return &ResearchHandler{research: research, repo: repo}
}

type jobResponse struct {
	ChatID      int64   `json:"chat_id"`
	JobID       string  `json:"job_id"`
	Topic       string  `json:"topic"`
	Status      string  `json:"status"`
	Step        int     `json:"step"`
	TotalSteps  int     `json:"total_steps"`
	StepLabel   string  `json:"step_label,omitempty"`
	Findings    int     `json:"findings"`
	Sources     int     `json:"sources"`
	StartedAt   string  `json:"started_at"`
	ElapsedSec  float64 `json:"elapsed_sec"`
	CompletedIn string  `json:"completed_in,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// GetJob returns the current (or last persisted) job for a chat.
func (h *ResearchHandler) GetJob(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id must be an integer"})
		return
	}

	job, err := h.research.Status(c.Request.Context(), chatID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveJob) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no research for this chat"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	resp := jobResponse{
		ChatID:     job.ChatID,
		JobID:      job.ID,
		Topic:      job.Topic,
		Status:     string(job.Status),
		Step:       job.Step,
		TotalSteps: job.TotalSteps,
		StepLabel:  job.StepLabel,
		Findings:   len(job.Findings),
		Sources:    len(job.Sources),
		StartedAt:  job.StartedAt.Format(time.RFC3339),
		ElapsedSec: job.Elapsed(time.Now()).Seconds(),
		Error:      job.Error,
	}
	if job.CompletedIn > 0 {
		resp.CompletedIn = job.CompletedIn.String()
	}
	c.JSON(http.StatusOK, resp)
}

// GetStats returns job counts by status plus the live in-process count.
func (h *ResearchHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	byStatus := make(map[string]int64, 5)
	for _, status := range []domain.JobStatus{
		domain.JobStatusPending,
		domain.JobStatusRunning,
		domain.JobStatusDone,
		domain.JobStatusCancelled,
		domain.JobStatusError,
	} {
		n, err := h.repo.CountByStatus(ctx, status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count jobs"})
			return
		}
		byStatus[string(status)] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs_by_status":    byStatus,
		"active_in_process": h.research.ActiveCount(),
	})
}
