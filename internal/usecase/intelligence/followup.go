package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// FollowupRequest asks for a follow-up email draft
type FollowupRequest struct {
	MeetingID uuid.UUID
	// SenderEmail defaults to the meeting owner's email
	SenderEmail string
	Style       *entities.StyleProfile
}

type followupResponse struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"html_body"`
}

// Recipients returns every attendee email except the sender, case-insensitively de-duplicated in input order
func Recipients(attendees []entities.Attendee, senderEmail string) []string {
	sender := normalizeKey(senderEmail)
	seen := make(map[string]struct{}, len(attendees))
	out := make([]string, 0, len(attendees))
	for _, a := range attendees {
		email := strings.TrimSpace(a.Email)
		key := normalizeKey(email)
		if key == "" || key == sender {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, email)
	}
	return out
}

// GenerateFollowup drafts a follow-up email and stores it as a draft
func (s *Service) GenerateFollowup(ctx context.Context, req FollowupRequest) (*entities.FollowupDraft, error) {
	meeting, t, err := s.loadContext(ctx, req.MeetingID)
	if err != nil {
		return nil, err
	}
	sender := strings.TrimSpace(req.SenderEmail)
	if sender == "" {
		sender = meeting.UserEmail
	}
	if sender == "" {
		return nil, fmt.Errorf("%w: sender email is required", entities.ErrInvalidInput)
	}

	started := time.Now()
	recipients := Recipients(meeting.Attendees, sender)

	// earlier stages are optional context
	var (
		summaryText string
		actionLines []string
	)
	summaries, err := s.artifacts.ListSummaries(ctx, req.MeetingID)
	if err != nil {
		s.optionalContextMissing(req.MeetingID, "summaries", err)
	} else if len(summaries) > 0 {
		summaryText = summaries[0].Text
	}
	items, err := s.artifacts.ListActionItems(ctx, req.MeetingID)
	if err != nil {
		s.optionalContextMissing(req.MeetingID, "action_items", err)
	}
	for _, item := range items {
		actionLines = append(actionLines, "- "+describeActionItem(item))
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Meeting: %s\nSender: %s\nRecipients: %s\n", meeting.Title, sender, strings.Join(recipients, ", "))
	if summaryText != "" {
		fmt.Fprintf(&user, "\nSummary:\n%s\n", summaryText)
	}
	if len(actionLines) > 0 {
		fmt.Fprintf(&user, "\nAction items:\n%s\n", strings.Join(actionLines, "\n"))
	}
	fmt.Fprintf(&user, "\nTranscript:\n%s", boundedTranscript(StageFollowup, t))

	raw, err := s.complete(ctx, StageFollowup, req.MeetingID, followupInstruction+styleGuidance(req.Style), user.String(), 1536)
	if err != nil {
		return nil, err
	}

	draft := entities.NewFollowupDraft(req.MeetingID, sender)
	draft.ToEmails = recipients
	draft.Source = string(SourceParsed)

	var resp followupResponse
	if err := decodeJSON(raw, &resp); err != nil || strings.TrimSpace(resp.Body) == "" {
		draft.Source = string(SourceFallback)
		resp = followupResponse{Body: strings.TrimSpace(raw)}
		if resp.Body == "" {
			resp.Body = defaultFollowupBody(meeting.Title, actionLines)
		}
	}

	draft.Subject = strings.TrimSpace(resp.Subject)
	if draft.Subject == "" {
		draft.Subject = "Follow-up: " + meeting.Title
	}
	draft.Body = strings.TrimSpace(resp.Body)
	draft.HTMLBody = strings.TrimSpace(resp.HTMLBody)
	if draft.HTMLBody == "" {
		draft.HTMLBody = MarkdownToHTML(draft.Body)
	}

	if err := s.artifacts.CreateFollowupDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("save follow-up draft: %w", err)
	}
	s.record(StageFollowup, req.MeetingID, Source(draft.Source), started, len(recipients))
	return draft, nil
}

func describeActionItem(item *entities.ActionItem) string {
	owner := ""
	switch {
	case item.OwnerName != nil:
		owner = *item.OwnerName
	case item.OwnerSpeaker != nil:
		owner = *item.OwnerSpeaker
	}
	if owner == "" {
		return item.Description
	}
	return fmt.Sprintf("%s (%s)", item.Description, owner)
}

func defaultFollowupBody(title string, actionLines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks everyone for joining **%s**.", title)
	if len(actionLines) > 0 {
		b.WriteString("\n\nAction items:\n")
		b.WriteString(strings.Join(actionLines, "\n"))
	}
	return b.String()
}

func (s *Service) optionalContextMissing(meetingID uuid.UUID, what string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn("follow-up context lookup failed, drafting without it",
		zap.String("meeting_id", meetingID.String()),
		zap.String("context", what),
		zap.Error(err),
	)
}
