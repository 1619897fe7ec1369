package entities

import (
	"time"

	"github.com/google/uuid"
)

// PipelineJobStatus represents the status of a generation job
type PipelineJobStatus string

const (
	PipelineJobStatusPending   PipelineJobStatus = "pending"   // Waiting for a worker
	PipelineJobStatusRunning   PipelineJobStatus = "running"   // Claimed by a worker
	PipelineJobStatusCompleted PipelineJobStatus = "completed" // Every stage ran
	PipelineJobStatusFailed    PipelineJobStatus = "failed"    // Gave up after retries
	PipelineJobStatusRetrying  PipelineJobStatus = "retrying"  // Waiting for another attempt
)

// PipelineJob queues the post-transcript generation work for a meeting
type PipelineJob struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID         `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Status      PipelineJobStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'pending'"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	RetryCount  int               `json:"retry_count" gorm:"type:integer;default:0"`
	MaxRetries  int               `json:"max_retries" gorm:"type:integer;default:3"`
	LastError   *string           `json:"last_error,omitempty" gorm:"type:text"`
	StageErrors map[string]string `json:"stage_errors,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (PipelineJob) TableName() string {
	return "pipeline_jobs"
}

// NewPipelineJob creates a pending job
func NewPipelineJob(meetingID uuid.UUID) *PipelineJob {
	now := time.Now()
	return &PipelineJob{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		Status:     PipelineJobStatusPending,
		MaxRetries: 3,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsRetryable checks if job can be retried
func (j *PipelineJob) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries
}

// MarkAsCompleted marks job as completed, keeping per-stage failures for operators
func (j *PipelineJob) MarkAsCompleted(stageErrors map[string]string) {
	now := time.Now()
	j.Status = PipelineJobStatusCompleted
	j.StageErrors = stageErrors
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed marks job as failed with error message
func (j *PipelineJob) MarkAsFailed(errMsg string) {
	j.Status = PipelineJobStatusFailed
	j.LastError = &errMsg
	j.UpdatedAt = time.Now()
}

// IncrementRetry increments retry count and marks for retry
func (j *PipelineJob) IncrementRetry(errMsg string) {
	j.RetryCount++
	j.Status = PipelineJobStatusRetrying
	j.LastError = &errMsg
	j.UpdatedAt = time.Now()
}
