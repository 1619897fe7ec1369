package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingStatus is the lifecycle state of a captured meeting
type MeetingStatus string

const (
	MeetingStatusScheduled    MeetingStatus = "scheduled"
	MeetingStatusJoining      MeetingStatus = "joining"
	MeetingStatusRecording    MeetingStatus = "recording"
	MeetingStatusProcessing   MeetingStatus = "processing"
	MeetingStatusTranscribing MeetingStatus = "transcribing"
	MeetingStatusSummarizing  MeetingStatus = "summarizing"
	MeetingStatusComplete     MeetingStatus = "complete"
	MeetingStatusFailed       MeetingStatus = "failed"
)

var meetingStatusRank = map[MeetingStatus]int{
	MeetingStatusScheduled:    0,
	MeetingStatusJoining:      1,
	MeetingStatusRecording:    2,
	MeetingStatusProcessing:   3,
	MeetingStatusTranscribing: 4,
	MeetingStatusSummarizing:  5,
	MeetingStatusComplete:     6,
}

// Rank orders the forward states. Failed and unknown statuses rank -1.
func (s MeetingStatus) Rank() int {
	if r, ok := meetingStatusRank[s]; ok {
		return r
	}
	return -1
}

// IsTerminal reports whether no automatic transition may leave this status
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusComplete || s == MeetingStatusFailed
}

// IsValid reports whether s is a known status
func (s MeetingStatus) IsValid() bool {
	return s == MeetingStatusFailed || s.Rank() >= 0
}

// CanAdvanceTo reports whether moving from s to target is a forward transition.
// Failed is reachable from every non-terminal status.
func (s MeetingStatus) CanAdvanceTo(target MeetingStatus) bool {
	if s.IsTerminal() || !target.IsValid() {
		return false
	}
	if target == MeetingStatusFailed {
		return true
	}
	return target.Rank() > s.Rank()
}

// Attendee is an invited participant of a meeting
type Attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	RSVPStatus  string `json:"rsvp_status,omitempty"`
}

// MeetingRecording tracks one captured meeting through the bot lifecycle
type MeetingRecording struct {
	ID              uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID          uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	UserEmail       string            `json:"user_email,omitempty" gorm:"type:varchar(255)"`
	CalendarEventID *string           `json:"calendar_event_id,omitempty" gorm:"type:varchar(255);index"`
	Title           string            `json:"title" gorm:"type:varchar(500)"`
	MeetingURL      string            `json:"meeting_url" gorm:"type:text"`
	ScheduledStart  time.Time         `json:"scheduled_start" gorm:"not null"`
	ScheduledEnd    *time.Time        `json:"scheduled_end,omitempty"`
	ActualStart     *time.Time        `json:"actual_start,omitempty"`
	ActualEnd       *time.Time        `json:"actual_end,omitempty"`
	Attendees       []Attendee        `json:"attendees" gorm:"type:jsonb;serializer:json"`
	Status          MeetingStatus     `json:"status" gorm:"type:varchar(20);not null;default:'scheduled';index"`
	BotSessionID    *string           `json:"bot_session_id,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	BotMetadata     datatypes.JSONMap `json:"bot_metadata,omitempty" gorm:"type:jsonb"`
	RecordingURL    *string           `json:"recording_url,omitempty" gorm:"type:text"`
	ErrorMessage    *string           `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount      int               `json:"retry_count" gorm:"type:integer;default:0"`
	CreatedAt       time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (MeetingRecording) TableName() string {
	return "meeting_recordings"
}

// NewMeetingRecording creates a meeting in the scheduled state with no bot attached
func NewMeetingRecording(userID uuid.UUID, userEmail, title, meetingURL string, scheduledStart time.Time, attendees []Attendee) *MeetingRecording {
	now := time.Now()
	return &MeetingRecording{
		ID:             uuid.New(),
		UserID:         userID,
		UserEmail:      userEmail,
		Title:          title,
		MeetingURL:     meetingURL,
		ScheduledStart: scheduledStart,
		Attendees:      attendees,
		Status:         MeetingStatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SessionID returns the bot session id or an empty string
func (m *MeetingRecording) SessionID() string {
	if m.BotSessionID == nil {
		return ""
	}
	return *m.BotSessionID
}

// RecordBotStatus keeps the last status the bot service reported, whether or not it moved the meeting.
// Reporting the status already on record changes nothing and returns false.
func (m *MeetingRecording) RecordBotStatus(code, subCode string, at time.Time) bool {
	if m.BotMetadata == nil {
		m.BotMetadata = datatypes.JSONMap{}
	}
	prevCode, _ := m.BotMetadata["last_status_code"].(string)
	prevSub, _ := m.BotMetadata["last_sub_code"].(string)
	if _, stamped := m.BotMetadata["last_status_at"]; stamped && prevCode == code && prevSub == subCode {
		return false
	}

	m.BotMetadata["last_status_code"] = code
	if subCode != "" {
		m.BotMetadata["last_sub_code"] = subCode
	} else {
		delete(m.BotMetadata, "last_sub_code")
	}
	m.BotMetadata["last_status_at"] = at.UTC().Format(time.RFC3339)
	return true
}

// MarkFailed moves the meeting to failed and records the reason
func (m *MeetingRecording) MarkFailed(reason string) {
	m.Status = MeetingStatusFailed
	m.ErrorMessage = &reason
	m.UpdatedAt = time.Now()
}

// ResetForRetry prepares a failed meeting to be scheduled again
func (m *MeetingRecording) ResetForRetry() {
	m.RetryCount++
	m.ErrorMessage = nil
	m.BotSessionID = nil
	m.Status = MeetingStatusScheduled
	m.UpdatedAt = time.Now()
}
