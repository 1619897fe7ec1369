package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// MeetingRepository persists meeting recordings.
// Lookups return (nil, nil) when nothing matches.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *entities.MeetingRecording) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.MeetingRecording, error)
	GetByBotSessionID(ctx context.Context, sessionID string) (*entities.MeetingRecording, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.MeetingRecording, error)
	Update(ctx context.Context, meeting *entities.MeetingRecording) error
}
