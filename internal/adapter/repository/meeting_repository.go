package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// MeetingRepository handles meeting recording data operations
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create inserts a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.MeetingRecording) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return r.db.WithContext(ctx).Create(meeting).Error
}

// GetByID retrieves a meeting by ID
func (r *MeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.MeetingRecording, error) {
	var meeting entities.MeetingRecording
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// GetByBotSessionID retrieves the meeting a bot session was scheduled for
func (r *MeetingRepository) GetByBotSessionID(ctx context.Context, sessionID string) (*entities.MeetingRecording, error) {
	var meeting entities.MeetingRecording
	if err := r.db.WithContext(ctx).Where("bot_session_id = ?", sessionID).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// ListByUser lists a user's meetings, newest first
func (r *MeetingRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.MeetingRecording, error) {
	if limit <= 0 {
		limit = 20
	}
	var meetings []*entities.MeetingRecording
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_start DESC").
		Limit(limit).
		Offset(offset).
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// Update saves every column of the meeting
func (r *MeetingRepository) Update(ctx context.Context, meeting *entities.MeetingRecording) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return r.db.WithContext(ctx).Save(meeting).Error
}
