package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

type decisionResponse struct {
	Decision   string       `json:"decision"`
	Text       string       `json:"text"`
	Context    string       `json:"context"`
	ImpactArea string       `json:"impact_area"`
	Timestamp  optTimestamp `json:"timestamp"`
	Confidence optFloat     `json:"confidence"`
}

// parseDecisions turns a model response into decisions at or above the 0.7 confidence bar.
// ok is false when the response holds no usable JSON.
func parseDecisions(meetingID uuid.UUID, raw string) (decisions []*entities.Decision, ok bool) {
	parsed, err := decodeList[decisionResponse](raw, "decisions", "items")
	if err != nil {
		return nil, false
	}

	decisions = make([]*entities.Decision, 0, len(parsed))
	for _, p := range parsed {
		text := strings.TrimSpace(p.Decision)
		if text == "" {
			text = strings.TrimSpace(p.Text)
		}
		if text == "" {
			continue
		}
		confidence, keep := keepConfidence(p.Confidence, decisionThreshold)
		if !keep {
			continue
		}
		d := entities.NewDecision(meetingID, text, confidence)
		d.Context = optString(p.Context)
		d.ImpactArea = optString(p.ImpactArea)
		d.SourceTimestamp = p.Timestamp.ptr()
		decisions = append(decisions, d)
	}
	return decisions, true
}

// ExtractDecisions runs the decision stage and replaces the meeting's stored decisions
func (s *Service) ExtractDecisions(ctx context.Context, meetingID uuid.UUID) (*Extraction[*entities.Decision], error) {
	meeting, t, err := s.loadContext(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	user := fmt.Sprintf("Meeting: %s\nSpeakers: %s\n\nTranscript:\n%s",
		meeting.Title, speakerList(t.SpeakerProfiles), boundedTranscript(StageDecisions, t))

	raw, err := s.complete(ctx, StageDecisions, meetingID, decisionsInstruction, user, 1536)
	if err != nil {
		return nil, err
	}

	result := &Extraction[*entities.Decision]{Source: SourceParsed}
	decisions, ok := parseDecisions(meetingID, raw)
	if !ok {
		decisions = fallbackDecisions(meetingID, t)
		result.Source = SourceFallback
	}
	result.Items = decisions

	if err := s.artifacts.ReplaceDecisions(ctx, meetingID, decisions); err != nil {
		return nil, fmt.Errorf("save decisions: %w", err)
	}
	s.record(StageDecisions, meetingID, result.Source, started, len(decisions))
	return result, nil
}
