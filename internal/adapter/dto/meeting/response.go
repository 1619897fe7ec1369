package meeting

import (
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// MeetingResponse is the API view of a meeting
type MeetingResponse struct {
	ID             uuid.UUID              `json:"id"`
	Title          string                 `json:"title"`
	MeetingURL     string                 `json:"meeting_url,omitempty"`
	Status         entities.MeetingStatus `json:"status"`
	BotSessionID   string                 `json:"bot_session_id,omitempty"`
	ScheduledStart time.Time              `json:"scheduled_start"`
	ScheduledEnd   *time.Time             `json:"scheduled_end,omitempty"`
	ActualStart    *time.Time             `json:"actual_start,omitempty"`
	ActualEnd      *time.Time             `json:"actual_end,omitempty"`
	RecordingURL   *string                `json:"recording_url,omitempty"`
	Attendees      []entities.Attendee    `json:"attendees"`
	RetryCount     int                    `json:"retry_count"`
	ErrorMessage   *string                `json:"error_message,omitempty"`
	LastBotStatus  string                 `json:"last_bot_status,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	// AutoJoinError is set when registration succeeded but the bot could not be scheduled
	AutoJoinError string `json:"auto_join_error,omitempty"`
}

// NewMeetingResponse maps a meeting to its API view
func NewMeetingResponse(m *entities.MeetingRecording) *MeetingResponse {
	attendees := m.Attendees
	if attendees == nil {
		attendees = []entities.Attendee{}
	}
	resp := &MeetingResponse{
		ID:             m.ID,
		Title:          m.Title,
		MeetingURL:     m.MeetingURL,
		Status:         m.Status,
		BotSessionID:   m.SessionID(),
		ScheduledStart: m.ScheduledStart,
		ScheduledEnd:   m.ScheduledEnd,
		ActualStart:    m.ActualStart,
		ActualEnd:      m.ActualEnd,
		RecordingURL:   m.RecordingURL,
		Attendees:      attendees,
		RetryCount:     m.RetryCount,
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if code, ok := m.BotMetadata["last_status_code"].(string); ok {
		resp.LastBotStatus = code
	}
	return resp
}

// BotStatusResponse is the bot service's current view of a session
type BotStatusResponse struct {
	SessionID     string `json:"session_id"`
	StatusCode    string `json:"status_code"`
	RecordingURL  string `json:"recording_url,omitempty"`
	HasTranscript bool   `json:"has_transcript"`
}

// ExtractionResponse wraps extracted items with how they were obtained
type ExtractionResponse[T any] struct {
	Items  []T    `json:"items"`
	Source string `json:"source"`
}
