package entities

import (
	"time"

	"github.com/google/uuid"
)

// ChatRole is the author of a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// Citation points an answer back to the transcript
type Citation struct {
	Timestamp float64 `json:"timestamp"`
	Speaker   string  `json:"speaker"`
	Quote     string  `json:"quote"`
}

// ChatMessage is one entry of the append-only Q&A log of a meeting and user
type ChatMessage struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID  uuid.UUID  `json:"meeting_id" gorm:"type:uuid;not null;index:idx_chat_meeting_user"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index:idx_chat_meeting_user"`
	Role       ChatRole   `json:"role" gorm:"type:varchar(20);not null"`
	Content    string     `json:"content" gorm:"type:text"`
	Citations  []Citation `json:"citations,omitempty" gorm:"type:jsonb;serializer:json"`
	Confidence *float64   `json:"confidence,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// NewChatMessage creates a chat log entry
func NewChatMessage(meetingID, userID uuid.UUID, role ChatRole, content string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New(),
		MeetingID: meetingID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
