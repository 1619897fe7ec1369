package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

type summaryResponse struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Topics    []string `json:"topics"`
}

// SummaryResult is a parsed summary before it is stored
type SummaryResult struct {
	Text      string
	KeyPoints []string
	Topics    []string
	Source    Source
}

// parseSummary reads the model's summary JSON. When that fails the raw response text becomes the summary,
// and when the model said nothing the opening sentences of the transcript are used.
func parseSummary(raw, transcriptText string) SummaryResult {
	var resp summaryResponse
	if err := decodeJSON(raw, &resp); err == nil && strings.TrimSpace(resp.Summary) != "" {
		return SummaryResult{
			Text:      strings.TrimSpace(resp.Summary),
			KeyPoints: cleanList(resp.KeyPoints),
			Topics:    cleanList(resp.Topics),
			Source:    SourceParsed,
		}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		text = leadSentences(transcriptText, 3)
	}
	return SummaryResult{
		Text:      text,
		KeyPoints: []string{},
		Topics:    []string{},
		Source:    SourceFallback,
	}
}

// GenerateSummary builds and upserts the summary of one style. The previous summary of that style is replaced.
func (s *Service) GenerateSummary(ctx context.Context, meetingID uuid.UUID, style entities.SummaryStyle) (*entities.MeetingSummary, error) {
	if !style.IsValid() {
		return nil, fmt.Errorf("%w: unknown summary style %q", entities.ErrInvalidInput, style)
	}
	meeting, t, err := s.loadContext(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	user := fmt.Sprintf("Meeting: %s\nSpeakers: %s\n\nTranscript:\n%s",
		meeting.Title, speakerList(t.SpeakerProfiles), boundedTranscript(StageSummary, t))

	raw, err := s.complete(ctx, StageSummary, meetingID, summaryInstructions[style], user, 2048)
	if err != nil {
		return nil, err
	}

	result := parseSummary(raw, t.Text())
	summary := entities.NewMeetingSummary(meetingID, style)
	summary.Text = result.Text
	summary.KeyPoints = result.KeyPoints
	summary.Topics = result.Topics
	summary.Model = s.model()
	summary.Source = string(result.Source)

	if err := s.artifacts.UpsertSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	s.record(StageSummary, meetingID, result.Source, started, len(result.KeyPoints))
	return summary, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
