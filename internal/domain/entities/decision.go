package entities

import (
	"time"

	"github.com/google/uuid"
)

// Decision is an agreement recorded in a meeting
type Decision struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID       uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Text            string    `json:"text" gorm:"type:text;not null"`
	Context         *string   `json:"context,omitempty" gorm:"type:text"`
	ImpactArea      *string   `json:"impact_area,omitempty" gorm:"type:varchar(100)"`
	Confidence      float64   `json:"confidence"`
	SourceTimestamp *float64  `json:"source_timestamp,omitempty"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Decision) TableName() string {
	return "decisions"
}

// NewDecision creates a decision
func NewDecision(meetingID uuid.UUID, text string, confidence float64) *Decision {
	return &Decision{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		Text:       text,
		Confidence: confidence,
		CreatedAt:  time.Now(),
	}
}
