package transcript

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// RawWord is one recognised word. Times are in seconds.
type RawWord struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker"`
}

// RawUtterance is a provider-grouped run of words by one speaker
type RawUtterance struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker"`
}

// RawTranscript is a decoded speech-to-text response, either utterance or word level
type RawTranscript struct {
	ProviderID string         `json:"id,omitempty"`
	Text       string         `json:"text,omitempty"`
	Language   string         `json:"language,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Utterances []RawUtterance `json:"utterances,omitempty"`
	Words      []RawWord      `json:"words,omitempty"`
}

// IsEmpty reports whether the response carries nothing to normalize
func (r *RawTranscript) IsEmpty() bool {
	return r == nil || (len(r.Utterances) == 0 && len(r.Words) == 0 && r.Text == "")
}

// Result is the normalized transcript ready to persist
type Result struct {
	Text        string
	Segments    []entities.TranscriptSegment
	Speakers    []entities.SpeakerProfile
	Language    string
	Confidence  float64
	CustomWords []string
	ProviderID  string
}

// ToEntity builds the MeetingTranscript row for a meeting
func (r *Result) ToEntity(meetingID uuid.UUID) *entities.MeetingTranscript {
	t := entities.NewMeetingTranscript(meetingID)
	t.RawText = r.Text
	t.Segments = r.Segments
	t.SpeakerProfiles = r.Speakers
	t.Language = r.Language
	t.Confidence = r.Confidence
	t.CustomWords = r.CustomWords
	if r.ProviderID != "" {
		id := r.ProviderID
		t.ProviderJobID = &id
	}
	return t
}
