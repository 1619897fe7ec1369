package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptSegment is a contiguous run of speech by one speaker. Times are in seconds.
type TranscriptSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
}

// Duration returns the speaking time covered by the segment
func (s TranscriptSegment) Duration() float64 {
	return s.End - s.Start
}

// SpeakerProfile aggregates per-speaker statistics derived from segments
type SpeakerProfile struct {
	Index        int     `json:"index"`
	Label        string  `json:"label"`
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	WordCount    int     `json:"word_count"`
	SpeakingTime float64 `json:"speaking_time"`
}

// MeetingTranscript is the normalized transcript of a meeting. One per meeting.
type MeetingTranscript struct {
	ID               uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID        uuid.UUID           `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`
	RawText          string              `json:"raw_text" gorm:"type:text"`
	EditedText       *string             `json:"edited_text,omitempty" gorm:"type:text"`
	Segments         []TranscriptSegment `json:"segments" gorm:"type:jsonb;serializer:json"`
	SpeakerProfiles  []SpeakerProfile    `json:"speaker_profiles" gorm:"type:jsonb;serializer:json"`
	Language         string              `json:"language,omitempty" gorm:"type:varchar(20)"`
	Confidence       float64             `json:"confidence"`
	CustomWords      []string            `json:"custom_words,omitempty" gorm:"type:jsonb;serializer:json"`
	ProviderJobID    *string             `json:"provider_job_id,omitempty" gorm:"type:varchar(255)"`
	RawArchiveObject *string             `json:"raw_archive_object,omitempty" gorm:"type:text"`
	CreatedAt        time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (MeetingTranscript) TableName() string {
	return "meeting_transcripts"
}

// NewMeetingTranscript creates a new transcript for a meeting
func NewMeetingTranscript(meetingID uuid.UUID) *MeetingTranscript {
	now := time.Now()
	return &MeetingTranscript{
		ID:        uuid.New(),
		MeetingID: meetingID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Text returns the user-edited text when present, otherwise the raw text
func (t *MeetingTranscript) Text() string {
	if t.EditedText != nil && *t.EditedText != "" {
		return *t.EditedText
	}
	return t.RawText
}
