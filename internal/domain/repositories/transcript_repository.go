package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// TranscriptRepository persists the single transcript of a meeting
type TranscriptRepository interface {
	// Create fails with entities.ErrTranscriptExists when the meeting already has one
	Create(ctx context.Context, transcript *entities.MeetingTranscript) error
	GetByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingTranscript, error)
	UpdateEditedText(ctx context.Context, meetingID uuid.UUID, editedText *string) error
}
