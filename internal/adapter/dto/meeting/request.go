package meeting

import "time"

// AttendeeRequest is one invited participant
type AttendeeRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name,omitempty"`
	RSVPStatus  string `json:"rsvp_status,omitempty"`
}

// RegisterMeetingRequest registers a meeting to capture
type RegisterMeetingRequest struct {
	Title           string            `json:"title" validate:"max=500"`
	MeetingURL      string            `json:"meeting_url" validate:"omitempty,url"`
	CalendarEventID *string           `json:"calendar_event_id,omitempty"`
	ScheduledStart  time.Time         `json:"scheduled_start" validate:"required"`
	ScheduledEnd    *time.Time        `json:"scheduled_end,omitempty"`
	Attendees       []AttendeeRequest `json:"attendees,omitempty" validate:"dive"`
}

// ScheduleBotRequest overrides the stored meeting when asking the bot to join
type ScheduleBotRequest struct {
	MeetingURL     string     `json:"meeting_url,omitempty" validate:"omitempty,url"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	BotName        string     `json:"bot_name,omitempty" validate:"max=100"`
	// MaxDurationMinutes caps the recording length
	MaxDurationMinutes int `json:"max_duration_minutes,omitempty" validate:"gte=0,lte=1440"`
}

// ListMeetingsRequest pages through the caller's meetings
type ListMeetingsRequest struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// EditTranscriptRequest sets or clears the edited transcript text
type EditTranscriptRequest struct {
	EditedText *string `json:"edited_text"`
}

// GenerateSummaryRequest selects the summary style to (re)generate
type GenerateSummaryRequest struct {
	Style string `json:"style" validate:"omitempty,oneof=executive chronological sales"`
}

// StyleProfileRequest describes how the sender usually writes
type StyleProfileRequest struct {
	GreetingPatterns []string `json:"greeting_patterns,omitempty"`
	SignOffPatterns  []string `json:"sign_off_patterns,omitempty"`
	Formality        float64  `json:"formality" validate:"gte=0,lte=1"`
	Warmth           float64  `json:"warmth" validate:"gte=0,lte=1"`
}

// FollowupRequest drafts a follow-up email
type FollowupRequest struct {
	SenderEmail  string               `json:"sender_email,omitempty" validate:"omitempty,email"`
	StyleProfile *StyleProfileRequest `json:"style_profile,omitempty"`
}

// ChatRequest asks a question about the meeting
type ChatRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}
