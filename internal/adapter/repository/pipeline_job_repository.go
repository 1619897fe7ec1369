package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// PipelineJobRepository handles generation job data operations
type PipelineJobRepository struct {
	db *gorm.DB
}

// NewPipelineJobRepository creates a new pipeline job repository
func NewPipelineJobRepository(db *gorm.DB) *PipelineJobRepository {
	return &PipelineJobRepository{db: db}
}

// Create creates a new job
func (r *PipelineJobRepository) Create(ctx context.Context, job *entities.PipelineJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// ClaimNext locks the oldest runnable job and marks it running.
// Concurrent workers skip rows another worker already holds.
func (r *PipelineJobRepository) ClaimNext(ctx context.Context) (*entities.PipelineJob, error) {
	var claimed *entities.PipelineJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job entities.PipelineJob
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status IN ?", []entities.PipelineJobStatus{
				entities.PipelineJobStatusPending,
				entities.PipelineJobStatusRetrying,
			}).
			Order("created_at ASC").
			First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&entities.PipelineJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":     entities.PipelineJobStatusRunning,
				"started_at": now,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		job.Status = entities.PipelineJobStatusRunning
		job.StartedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Update saves a job
func (r *PipelineJobRepository) Update(ctx context.Context, job *entities.PipelineJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Save(job).Error
}

// GetLatestByMeetingID retrieves the newest job of a meeting
func (r *PipelineJobRepository) GetLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.PipelineJob, error) {
	var job entities.PipelineJob
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ResetStale hands abandoned running jobs back to the queue
func (r *PipelineJobRepository) ResetStale(ctx context.Context, startedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.PipelineJob{}).
		Where("status = ? AND started_at < ?", entities.PipelineJobStatusRunning, startedBefore).
		Updates(map[string]interface{}{
			"status":      entities.PipelineJobStatusRetrying,
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  time.Now(),
		})
	return res.RowsAffected, res.Error
}
