package repository

import (
	"context"
	"errors"

	"github.com/timmy/researchbot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResearchRepository persists research job snapshots, keyed by chat ID.
type ResearchRepository struct {
	db *gorm.DB
}

// NewResearchRepository creates a new ResearchRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ResearchRepository: repository instance bound to db.
func NewResearchRepository(db *gorm.DB) *ResearchRepository {
	return &ResearchRepository{db: db}
}

// Save writes the latest snapshot of a job, replacing any previous snapshot
// for the same chat.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job snapshot to persist.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *ResearchRepository) Save(ctx context.Context, job *domain.ResearchJob) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		UpdateAll: true,
	}).Create(job).Error
}

// Get retrieves the last persisted job snapshot for a chat.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - chatID: owning chat identifier.
// Returns:
//   - *domain.ResearchJob: job snapshot, or nil if the chat has none.
//   - error: non-nil only on a real query failure.
func (r *ResearchRepository) Get(ctx context.Context, chatID int64) (*domain.ResearchJob, error) {
	var job domain.ResearchJob
	if err := r.db.WithContext(ctx).First(&job, "chat_id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Delete removes the job snapshot for a chat.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - chatID: owning chat identifier.
// Returns:
//   - error: non-nil if the delete fails.
func (r *ResearchRepository) Delete(ctx context.Context, chatID int64) error {
	return r.db.WithContext(ctx).Delete(&domain.ResearchJob{}, "chat_id = ?", chatID).Error
}

// ListByStatus retrieves job snapshots in the given status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: job status to filter by.
// Returns:
//   - []domain.ResearchJob: matching snapshots.
//   - error: non-nil if the query fails.
func (r *ResearchRepository) ListByStatus(ctx context.Context, status domain.JobStatus) ([]domain.ResearchJob, error) {
	var jobs []domain.ResearchJob
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// CountByStatus counts job snapshots by status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: job status to count.
// Returns:
//   - int64: number of matching snapshots.
//   - error: non-nil if the query fails.
func (r *ResearchRepository) CountByStatus(ctx context.Context, status domain.JobStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ResearchJob{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkInterrupted transitions every non-terminal snapshot to the error state.
// Called once at startup: in-flight work does not survive a restart, only the
// last persisted state does, so anything still marked running was interrupted.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - reason: error text recorded on the affected snapshots.
// Returns:
//   - int64: number of snapshots updated.
//   - error: non-nil if the update fails.
func (r *ResearchRepository) MarkInterrupted(ctx context.Context, reason string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.ResearchJob{}).
		Where("status IN ?", []domain.JobStatus{domain.JobStatusPending, domain.JobStatusRunning}).
		Updates(map[string]interface{}{
			"status": domain.JobStatusError,
			"error":  reason,
		})
	return res.RowsAffected, res.Error
}
