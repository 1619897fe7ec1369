package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// NotInTranscriptAnswer is returned when the model gives no answer
const NotInTranscriptAnswer = "That information is not in the meeting transcript."

// historyTurns bounds how much earlier conversation goes into the prompt
const historyTurns = 6

type qaCitation struct {
	Timestamp optTimestamp `json:"timestamp"`
	Speaker   string       `json:"speaker"`
	Quote     string       `json:"quote"`
}

type qaResponse struct {
	Answer     string       `json:"answer"`
	Citations  []qaCitation `json:"citations"`
	Confidence optFloat     `json:"confidence"`
}

// parseAnswer reads the Q&A JSON. Unparseable responses become the answer text with zero confidence.
func parseAnswer(raw string) (answer string, citations []entities.Citation, confidence float64, source Source) {
	var resp qaResponse
	if err := decodeJSON(raw, &resp); err != nil {
		answer = strings.TrimSpace(raw)
		if answer == "" {
			answer = NotInTranscriptAnswer
		}
		return answer, nil, 0, SourceFallback
	}

	answer = strings.TrimSpace(resp.Answer)
	if answer == "" {
		answer = NotInTranscriptAnswer
	}
	for _, c := range resp.Citations {
		quote := strings.TrimSpace(c.Quote)
		if quote == "" {
			continue
		}
		citations = append(citations, entities.Citation{
			Timestamp: c.Timestamp.Seconds,
			Speaker:   strings.TrimSpace(c.Speaker),
			Quote:     quote,
		})
	}
	confidence, _ = keepConfidence(resp.Confidence, 0)
	return answer, citations, confidence, SourceParsed
}

// Ask answers a question from the transcript and appends the question and answer to the chat log
func (s *Service) Ask(ctx context.Context, meetingID, userID uuid.UUID, question string) (*entities.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", entities.ErrInvalidInput)
	}
	meeting, t, err := s.loadContext(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	history, err := s.chat.List(ctx, meetingID, userID)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	started := time.Now()
	var user strings.Builder
	fmt.Fprintf(&user, "Meeting: %s\n\nTranscript:\n%s\n", meeting.Title, boundedTranscript(StageQA, t))
	if len(history) > 0 {
		user.WriteString("\nEarlier in this conversation:\n")
		for _, m := range history {
			fmt.Fprintf(&user, "%s: %s\n", m.Role, m.Content)
		}
	}
	fmt.Fprintf(&user, "\nQuestion: %s", question)

	raw, err := s.complete(ctx, StageQA, meetingID, qaInstruction, user.String(), 1024)
	if err != nil {
		return nil, err
	}

	answer, citations, confidence, source := parseAnswer(raw)

	asked := entities.NewChatMessage(meetingID, userID, entities.ChatRoleUser, question)
	asked.CreatedAt = started
	reply := entities.NewChatMessage(meetingID, userID, entities.ChatRoleAssistant, answer)
	reply.Citations = citations
	reply.Confidence = &confidence

	if err := s.chat.Append(ctx, asked, reply); err != nil {
		return nil, fmt.Errorf("append chat log: %w", err)
	}
	s.record(StageQA, meetingID, source, started, len(citations))
	return reply, nil
}
