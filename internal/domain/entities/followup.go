package entities

import (
	"time"

	"github.com/google/uuid"
)

// FollowupStatus tracks what happened to a draft
type FollowupStatus string

const (
	FollowupStatusDraft     FollowupStatus = "draft"
	FollowupStatusSent      FollowupStatus = "sent"
	FollowupStatusDiscarded FollowupStatus = "discarded"
)

// StyleProfile describes how a sender usually writes email
type StyleProfile struct {
	GreetingPatterns []string `json:"greeting_patterns,omitempty"`
	SignOffPatterns  []string `json:"sign_off_patterns,omitempty"`
	Formality        float64  `json:"formality"`
	Warmth           float64  `json:"warmth"`
}

// FollowupDraft is a generated follow-up email awaiting a sender
type FollowupDraft struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID      `json:"meeting_id" gorm:"type:uuid;not null;index"`
	SenderEmail string         `json:"sender_email" gorm:"type:varchar(255)"`
	Subject     string         `json:"subject" gorm:"type:varchar(500)"`
	Body        string         `json:"body" gorm:"type:text"`
	HTMLBody    string         `json:"html_body" gorm:"type:text"`
	ToEmails    []string       `json:"to_emails" gorm:"type:jsonb;serializer:json"`
	Status      FollowupStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	Source      string         `json:"source" gorm:"type:varchar(30)"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (FollowupDraft) TableName() string {
	return "followup_drafts"
}

// NewFollowupDraft creates a draft
func NewFollowupDraft(meetingID uuid.UUID, senderEmail string) *FollowupDraft {
	now := time.Now()
	return &FollowupDraft{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		SenderEmail: senderEmail,
		Status:      FollowupStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
