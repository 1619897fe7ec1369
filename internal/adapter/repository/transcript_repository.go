package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// TranscriptRepository handles transcript data operations
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Create inserts the transcript; the unique meeting_id index guards against a second one
func (r *TranscriptRepository) Create(ctx context.Context, transcript *entities.MeetingTranscript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	err := r.db.WithContext(ctx).Create(transcript).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return entities.ErrTranscriptExists
	}
	return err
}

// GetByMeetingID retrieves a transcript by meeting ID
func (r *TranscriptRepository) GetByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingTranscript, error) {
	var transcript entities.MeetingTranscript
	if err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).First(&transcript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// UpdateEditedText sets or clears the user override text
func (r *TranscriptRepository) UpdateEditedText(ctx context.Context, meetingID uuid.UUID, editedText *string) error {
	res := r.db.WithContext(ctx).
		Model(&entities.MeetingTranscript{}).
		Where("meeting_id = ?", meetingID).
		Updates(map[string]interface{}{
			"edited_text": editedText,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entities.ErrTranscriptNotFound
	}
	return nil
}
