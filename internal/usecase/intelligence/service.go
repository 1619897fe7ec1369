package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/repositories"
	"github.com/johnquangdev/meeting-intelligence/pkg/ai"
	"github.com/johnquangdev/meeting-intelligence/pkg/metrics"
)

// Deps wires the generators to their collaborators
type Deps struct {
	LLM         LLM
	Meetings    repositories.MeetingRepository
	Transcripts repositories.TranscriptRepository
	Artifacts   repositories.ArtifactRepository
	Chat        repositories.ChatRepository
	Settings    repositories.SettingsRepository
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	// MaxParallel bounds concurrent stages in RunStages
	MaxParallel int
}

// Service generates summaries, action items, decisions, follow-up drafts and Q&A answers
type Service struct {
	llm         LLM
	meetings    repositories.MeetingRepository
	transcripts repositories.TranscriptRepository
	artifacts   repositories.ArtifactRepository
	chat        repositories.ChatRepository
	settings    repositories.SettingsRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
	maxParallel int
}

// NewService creates the generation service
func NewService(d Deps) *Service {
	maxParallel := d.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Service{
		llm:         d.LLM,
		meetings:    d.Meetings,
		transcripts: d.Transcripts,
		artifacts:   d.Artifacts,
		chat:        d.Chat,
		settings:    d.Settings,
		metrics:     d.Metrics,
		logger:      d.Logger,
		maxParallel: maxParallel,
	}
}

// GetMeeting returns a meeting owned by userID
func (s *Service) GetMeeting(ctx context.Context, meetingID, userID uuid.UUID) (*entities.MeetingRecording, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}
	if meeting.UserID != userID {
		return nil, entities.ErrForbidden
	}
	return meeting, nil
}

// ListMeetings pages through the meetings of a user, newest first
func (s *Service) ListMeetings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.MeetingRecording, error) {
	meetings, err := s.meetings.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

// GetTranscript returns the stored transcript of a meeting
func (s *Service) GetTranscript(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingTranscript, error) {
	t, err := s.transcripts.GetByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	if t == nil {
		return nil, entities.ErrTranscriptNotFound
	}
	return t, nil
}

// EditTranscript sets or clears the user override text. Generators use it from then on.
func (s *Service) EditTranscript(ctx context.Context, meetingID uuid.UUID, text *string) (*entities.MeetingTranscript, error) {
	if text != nil && strings.TrimSpace(*text) == "" {
		text = nil
	}
	if err := s.transcripts.UpdateEditedText(ctx, meetingID, text); err != nil {
		return nil, err
	}
	return s.GetTranscript(ctx, meetingID)
}

// ListSummaries returns every stored summary style of a meeting
func (s *Service) ListSummaries(ctx context.Context, meetingID uuid.UUID) ([]*entities.MeetingSummary, error) {
	return s.artifacts.ListSummaries(ctx, meetingID)
}

// ListActionItems returns the stored action items of a meeting
func (s *Service) ListActionItems(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	return s.artifacts.ListActionItems(ctx, meetingID)
}

// ListDecisions returns the stored decisions of a meeting
func (s *Service) ListDecisions(ctx context.Context, meetingID uuid.UUID) ([]*entities.Decision, error) {
	return s.artifacts.ListDecisions(ctx, meetingID)
}

// ChatHistory returns the Q&A log of a meeting for one user
func (s *Service) ChatHistory(ctx context.Context, meetingID, userID uuid.UUID) ([]*entities.ChatMessage, error) {
	return s.chat.List(ctx, meetingID, userID)
}

// loadContext fetches the meeting and its transcript. No artifact may exist without a transcript.
func (s *Service) loadContext(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingRecording, *entities.MeetingTranscript, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, nil, fmt.Errorf("get meeting: %w", err)
	}
	if meeting == nil {
		return nil, nil, entities.ErrMeetingNotFound
	}
	t, err := s.GetTranscript(ctx, meetingID)
	if err != nil {
		return nil, nil, err
	}
	return meeting, t, nil
}

// DefaultSummaryStyle is the style the owner picked for automatic summaries
func (s *Service) DefaultSummaryStyle(ctx context.Context, userID uuid.UUID) entities.SummaryStyle {
	return s.userSettings(ctx, userID).SummaryStyleOrDefault()
}

func (s *Service) userSettings(ctx context.Context, userID uuid.UUID) *entities.UserSettings {
	settings, err := s.settings.GetByUserID(ctx, userID)
	if err != nil && s.logger != nil {
		s.logger.Warn("settings lookup failed, using defaults",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
	if settings == nil {
		return entities.DefaultUserSettings(userID)
	}
	return settings
}

// complete sends one prompt and returns the raw model text.
// Transport and configuration errors are returned; the caller owns parse failures.
func (s *Service) complete(ctx context.Context, stage Stage, meetingID uuid.UUID, system, user string, maxTokens int) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%s: language model: %w", stage, apperrors.ErrNotConfigured)
	}
	resp, err := s.llm.Complete(ctx, &ai.CompletionRequest{
		System:      system,
		User:        user,
		Temperature: 0.2,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotConfigured) {
			s.metrics.ExternalFailure("llm")
		}
		if s.logger != nil {
			s.logger.Error("generation call failed",
				zap.String("stage", string(stage)),
				zap.String("meeting_id", meetingID.String()),
				zap.Error(err),
			)
		}
		return "", fmt.Errorf("%s: %w", stage, err)
	}
	return resp.Content, nil
}

// record reports the outcome of a stage
func (s *Service) record(stage Stage, meetingID uuid.UUID, source Source, started time.Time, count int) {
	s.metrics.Generation(string(stage), string(source), time.Since(started).Seconds())
	if s.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("stage", string(stage)),
		zap.String("meeting_id", meetingID.String()),
		zap.String("source", string(source)),
		zap.Int("items", count),
		zap.Duration("elapsed", time.Since(started)),
	}
	if source == SourceFallback {
		s.logger.Warn("model response unparseable, used fallback extractor", fields...)
		return
	}
	s.logger.Info("generation finished", fields...)
}

func (s *Service) model() string {
	if s.llm == nil {
		return ""
	}
	return s.llm.Model()
}
