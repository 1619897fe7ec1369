package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionItemPriority is the urgency of an action item
type ActionItemPriority string

const (
	ActionItemPriorityHigh   ActionItemPriority = "high"
	ActionItemPriorityMedium ActionItemPriority = "medium"
	ActionItemPriorityLow    ActionItemPriority = "low"
)

// ParsePriority maps free text to a priority, defaulting to medium
func ParsePriority(s string) ActionItemPriority {
	switch ActionItemPriority(strings.ToLower(strings.TrimSpace(s))) {
	case ActionItemPriorityHigh:
		return ActionItemPriorityHigh
	case ActionItemPriorityLow:
		return ActionItemPriorityLow
	default:
		return ActionItemPriorityMedium
	}
}

// ActionItemStatus is mutated outside the pipeline once an item exists
type ActionItemStatus string

const (
	ActionItemStatusOpen       ActionItemStatus = "open"
	ActionItemStatusInProgress ActionItemStatus = "in_progress"
	ActionItemStatusCompleted  ActionItemStatus = "completed"
	ActionItemStatusCancelled  ActionItemStatus = "cancelled"
)

// ActionItem is a task extracted from a meeting transcript
type ActionItem struct {
	ID              uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID       uuid.UUID          `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Description     string             `json:"description" gorm:"type:text;not null"`
	OwnerName       *string            `json:"owner_name,omitempty" gorm:"type:varchar(255)"`
	OwnerEmail      *string            `json:"owner_email,omitempty" gorm:"type:varchar(255)"`
	OwnerSpeaker    *string            `json:"owner_speaker,omitempty" gorm:"type:varchar(100)"`
	Priority        ActionItemPriority `json:"priority" gorm:"type:varchar(10);not null;default:'medium'"`
	DueDate         *time.Time         `json:"due_date,omitempty"`
	Status          ActionItemStatus   `json:"status" gorm:"type:varchar(20);not null;default:'open'"`
	Confidence      float64            `json:"confidence"`
	SourceTimestamp *float64           `json:"source_timestamp,omitempty"`
	CreatedAt       time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ActionItem) TableName() string {
	return "action_items"
}

// NewActionItem creates an open action item
func NewActionItem(meetingID uuid.UUID, description string, priority ActionItemPriority, confidence float64) *ActionItem {
	now := time.Now()
	return &ActionItem{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		Description: description,
		Priority:    priority,
		Status:      ActionItemStatusOpen,
		Confidence:  confidence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
