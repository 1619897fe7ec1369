package entities

import "github.com/google/uuid"

// UserSettings holds the preferences the pipeline reads. Writes happen elsewhere.
type UserSettings struct {
	UserID                  uuid.UUID    `json:"user_id" gorm:"type:uuid;primary_key"`
	AutoJoinEnabled         bool         `json:"auto_join_enabled" gorm:"default:false"`
	DefaultSummaryStyle     SummaryStyle `json:"default_summary_style" gorm:"type:varchar(20);default:'executive'"`
	AutoFollowupEnabled     bool         `json:"auto_followup_enabled" gorm:"default:false"`
	RecordingRetentionDays  int          `json:"recording_retention_days" gorm:"default:90"`
	TranscriptRetentionDays int          `json:"transcript_retention_days" gorm:"default:365"`
	TranscriptLanguage      string       `json:"transcript_language" gorm:"type:varchar(20);default:'en'"`
	CustomVocabulary        []string     `json:"custom_vocabulary,omitempty" gorm:"type:jsonb;serializer:json"`
}

// TableName specifies the table name for GORM
func (UserSettings) TableName() string {
	return "user_settings"
}

// DefaultUserSettings is used when a user has never saved preferences
func DefaultUserSettings(userID uuid.UUID) *UserSettings {
	return &UserSettings{
		UserID:                  userID,
		DefaultSummaryStyle:     SummaryStyleExecutive,
		RecordingRetentionDays:  90,
		TranscriptRetentionDays: 365,
		TranscriptLanguage:      "en",
	}
}

// SummaryStyleOrDefault never returns an unsupported style
func (s *UserSettings) SummaryStyleOrDefault() SummaryStyle {
	if s == nil || !s.DefaultSummaryStyle.IsValid() {
		return SummaryStyleExecutive
	}
	return s.DefaultSummaryStyle
}
