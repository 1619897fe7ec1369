package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

type actionItemResponse struct {
	Description string       `json:"description"`
	Task        string       `json:"task"`
	Owner       string       `json:"owner"`
	OwnerEmail  string       `json:"owner_email"`
	Priority    string       `json:"priority"`
	DueDate     string       `json:"due_date"`
	Timestamp   optTimestamp `json:"timestamp"`
	Confidence  optFloat     `json:"confidence"`
}

// parseActionItems turns a model response into action items. ok is false when the response holds
// no usable JSON, in which case the caller switches to the transcript fallback.
func parseActionItems(meetingID uuid.UUID, raw string, owners *ownerResolver) (items []*entities.ActionItem, ok bool) {
	parsed, err := decodeList[actionItemResponse](raw, "action_items", "items")
	if err != nil {
		return nil, false
	}

	items = make([]*entities.ActionItem, 0, len(parsed))
	for _, p := range parsed {
		description := strings.TrimSpace(p.Description)
		if description == "" {
			description = strings.TrimSpace(p.Task)
		}
		if description == "" {
			continue
		}
		confidence, keep := keepConfidence(p.Confidence, actionItemThreshold)
		if !keep {
			continue
		}
		item := entities.NewActionItem(meetingID, description, entities.ParsePriority(p.Priority), confidence)
		item.DueDate = parseDueDate(p.DueDate)
		item.SourceTimestamp = p.Timestamp.ptr()
		if owners != nil {
			item.OwnerName, item.OwnerEmail, item.OwnerSpeaker = owners.Resolve(p.Owner, p.OwnerEmail)
		}
		items = append(items, item)
	}
	return items, true
}

// ExtractActionItems runs the action-item stage and replaces the meeting's stored items
func (s *Service) ExtractActionItems(ctx context.Context, meetingID uuid.UUID) (*Extraction[*entities.ActionItem], error) {
	meeting, t, err := s.loadContext(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	user := fmt.Sprintf("Meeting: %s\nSpeakers: %s\nAttendees: %s\n\nTranscript:\n%s",
		meeting.Title, speakerList(t.SpeakerProfiles), attendeeList(meeting.Attendees),
		boundedTranscript(StageActionItems, t))

	raw, err := s.complete(ctx, StageActionItems, meetingID, actionItemsInstruction, user, 2048)
	if err != nil {
		return nil, err
	}

	owners := newOwnerResolver(t.SpeakerProfiles, meeting.Attendees)
	result := &Extraction[*entities.ActionItem]{Source: SourceParsed}
	items, ok := parseActionItems(meetingID, raw, owners)
	if !ok {
		items = fallbackActionItems(meetingID, t, owners)
		result.Source = SourceFallback
	}
	result.Items = items

	if err := s.artifacts.ReplaceActionItems(ctx, meetingID, items); err != nil {
		return nil, fmt.Errorf("save action items: %w", err)
	}
	s.record(StageActionItems, meetingID, result.Source, started, len(items))
	return result, nil
}

func attendeeList(attendees []entities.Attendee) string {
	if len(attendees) == 0 {
		return "unknown"
	}
	parts := make([]string, 0, len(attendees))
	for _, a := range attendees {
		if a.DisplayName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.DisplayName, a.Email))
			continue
		}
		parts = append(parts, a.Email)
	}
	return strings.Join(parts, ", ")
}
