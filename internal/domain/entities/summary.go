package entities

import (
	"time"

	"github.com/google/uuid"
)

// SummaryStyle selects the summary prompt
type SummaryStyle string

const (
	SummaryStyleExecutive     SummaryStyle = "executive"
	SummaryStyleChronological SummaryStyle = "chronological"
	SummaryStyleSales         SummaryStyle = "sales"
)

// IsValid reports whether s is a supported style
func (s SummaryStyle) IsValid() bool {
	switch s {
	case SummaryStyleExecutive, SummaryStyleChronological, SummaryStyleSales:
		return true
	}
	return false
}

// MeetingSummary is unique per (meeting, style)
type MeetingSummary struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID    `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex:idx_summary_meeting_style"`
	Style     SummaryStyle `json:"style" gorm:"type:varchar(20);not null;uniqueIndex:idx_summary_meeting_style"`
	Text      string       `json:"text" gorm:"type:text"`
	KeyPoints []string     `json:"key_points" gorm:"type:jsonb;serializer:json"`
	Topics    []string     `json:"topics" gorm:"type:jsonb;serializer:json"`
	Model     string       `json:"model" gorm:"type:varchar(100)"`
	Source    string       `json:"source" gorm:"type:varchar(30)"`
	IsPrimary bool         `json:"is_primary" gorm:"default:false"`
	CreatedAt time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (MeetingSummary) TableName() string {
	return "meeting_summaries"
}

// NewMeetingSummary creates a summary; executive summaries are primary
func NewMeetingSummary(meetingID uuid.UUID, style SummaryStyle) *MeetingSummary {
	now := time.Now()
	return &MeetingSummary{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Style:     style,
		IsPrimary: style == SummaryStyleExecutive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
