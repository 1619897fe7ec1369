package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// PipelineJobRepository is the durable queue behind the generation workers
type PipelineJobRepository interface {
	Create(ctx context.Context, job *entities.PipelineJob) error
	// ClaimNext atomically moves the oldest pending or retrying job to running
	ClaimNext(ctx context.Context) (*entities.PipelineJob, error)
	Update(ctx context.Context, job *entities.PipelineJob) error
	GetLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.PipelineJob, error)
	// ResetStale returns running jobs older than the cutoff to retrying
	ResetStale(ctx context.Context, startedBefore time.Time) (int64, error)
}
