package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/repositories"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/external/meetingbot"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/messaging"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/transcript"
	"github.com/johnquangdev/meeting-intelligence/pkg/ai"
	"github.com/johnquangdev/meeting-intelligence/pkg/metrics"
)

// BotService is the external meeting-bot boundary
type BotService interface {
	Schedule(ctx context.Context, req meetingbot.ScheduleRequest) (*meetingbot.Session, error)
	Cancel(ctx context.Context, sessionID string) error
	Get(ctx context.Context, sessionID string) (*meetingbot.Session, error)
}

// Locker serializes work on one key
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Archive stores raw payloads
type Archive interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
}

// StatusPublisher announces applied transitions
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event messaging.StatusEvent) error
}

// Transcriber runs speech-to-text on a recording and normalizes the result
type Transcriber interface {
	Transcribe(ctx context.Context, req transcript.Request, customWords []string) (*transcript.Result, error)
}

// Deps are the collaborators of the orchestrator. Archive, Transcriber, Publisher, Metrics
// and Logger are optional.
type Deps struct {
	Bot         BotService
	Meetings    repositories.MeetingRepository
	Transcripts repositories.TranscriptRepository
	Settings    repositories.SettingsRepository
	Jobs        repositories.PipelineJobRepository
	Transcriber Transcriber
	Locker      Locker
	Archive     Archive
	Publisher   StatusPublisher
	Verifier    *ai.SignatureVerifier
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	// DefaultBotName and MaxDuration apply when a schedule request leaves them empty
	DefaultBotName string
	MaxDuration    time.Duration
	Now            func() time.Time
}

// Orchestrator drives meetings through the bot lifecycle
type Orchestrator struct {
	bot         BotService
	meetings    repositories.MeetingRepository
	transcripts repositories.TranscriptRepository
	settings    repositories.SettingsRepository
	jobs        repositories.PipelineJobRepository
	transcriber Transcriber
	locker      Locker
	archive     Archive
	publisher   StatusPublisher
	verifier    *ai.SignatureVerifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	botName     string
	maxDuration time.Duration
	now         func() time.Time
	inflight    singleflight.Group
}

// NewOrchestrator creates the orchestrator
func NewOrchestrator(d Deps) *Orchestrator {
	o := &Orchestrator{
		bot:         d.Bot,
		meetings:    d.Meetings,
		transcripts: d.Transcripts,
		settings:    d.Settings,
		jobs:        d.Jobs,
		transcriber: d.Transcriber,
		locker:      d.Locker,
		archive:     d.Archive,
		publisher:   d.Publisher,
		verifier:    d.Verifier,
		metrics:     d.Metrics,
		logger:      d.Logger,
		botName:     d.DefaultBotName,
		maxDuration: d.MaxDuration,
		now:         d.Now,
	}
	if o.locker == nil {
		o.locker = cache.NewMemoryLocker(0, 0)
	}
	if o.publisher == nil {
		o.publisher = messaging.NopPublisher{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// RegisterInput describes a meeting to capture
type RegisterInput struct {
	UserID          uuid.UUID
	UserEmail       string
	Title           string
	MeetingURL      string
	CalendarEventID *string
	ScheduledStart  time.Time
	ScheduledEnd    *time.Time
	Attendees       []entities.Attendee
}

// RegisterMeeting creates a meeting in the scheduled state and, when the owner enabled
// auto-join, schedules the bot right away. A failed auto-join keeps the meeting.
func (o *Orchestrator) RegisterMeeting(ctx context.Context, in RegisterInput) (*entities.MeetingRecording, error) {
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", entities.ErrInvalidInput)
	}
	if in.ScheduledStart.IsZero() {
		return nil, fmt.Errorf("%w: scheduled start is required", entities.ErrInvalidInput)
	}

	meeting := entities.NewMeetingRecording(in.UserID, in.UserEmail, in.Title, strings.TrimSpace(in.MeetingURL), in.ScheduledStart, in.Attendees)
	meeting.CalendarEventID = in.CalendarEventID
	meeting.ScheduledEnd = in.ScheduledEnd
	if err := o.meetings.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}

	if o.logger != nil {
		o.logger.Info("meeting registered",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("user_id", meeting.UserID.String()),
		)
	}

	joined, err := o.AutoJoin(ctx, meeting)
	if err != nil {
		return meeting, err
	}
	if joined != nil {
		return joined, nil
	}
	return meeting, nil
}

// AutoJoin schedules the bot when the owner's settings ask for it.
// It returns nil without error when auto-join does not apply.
func (o *Orchestrator) AutoJoin(ctx context.Context, meeting *entities.MeetingRecording) (*entities.MeetingRecording, error) {
	if meeting.MeetingURL == "" || meeting.SessionID() != "" {
		return nil, nil
	}
	settings, err := o.userSettings(ctx, meeting.UserID)
	if err != nil {
		return nil, err
	}
	if !settings.AutoJoinEnabled {
		return nil, nil
	}

	scheduled, err := o.ScheduleJoin(ctx, ScheduleInput{MeetingID: meeting.ID})
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("auto-join failed",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return scheduled, nil
}

// ScheduleInput is a join request. Empty fields fall back to the stored meeting and defaults.
type ScheduleInput struct {
	MeetingID      uuid.UUID
	MeetingURL     string
	ScheduledStart time.Time
	BotName        string
	MaxDuration    time.Duration
}

// ScheduleJoin asks the bot service to join the meeting. The meeting is only changed when the
// bot service accepted the request. Scheduling a failed meeting counts as a retry.
func (o *Orchestrator) ScheduleJoin(ctx context.Context, in ScheduleInput) (*entities.MeetingRecording, error) {
	unlock, err := o.locker.Lock(ctx, lockKey(in.MeetingID))
	if err != nil {
		return nil, fmt.Errorf("lock meeting: %w", err)
	}
	defer unlock()

	meeting, err := o.meetings.GetByID(ctx, in.MeetingID)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}

	meetingURL := strings.TrimSpace(in.MeetingURL)
	if meetingURL == "" {
		meetingURL = meeting.MeetingURL
	}
	if meetingURL == "" {
		return nil, fmt.Errorf("%w: meeting url is required", entities.ErrInvalidInput)
	}
	joinAt := in.ScheduledStart
	if joinAt.IsZero() {
		joinAt = meeting.ScheduledStart
	}
	botName := in.BotName
	if botName == "" {
		botName = o.botName
	}
	maxDuration := in.MaxDuration
	if maxDuration <= 0 {
		maxDuration = o.maxDuration
	}

	session, err := o.bot.Schedule(ctx, meetingbot.ScheduleRequest{
		MeetingURL:  meetingURL,
		BotName:     botName,
		JoinAt:      joinAt,
		MaxDuration: maxDuration,
		Metadata: map[string]string{
			"meeting_id": meeting.ID.String(),
			"user_email": meeting.UserEmail,
		},
	})
	if err != nil {
		o.metrics.ExternalFailure("meetingbot")
		if o.logger != nil {
			o.logger.Error("bot schedule failed",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("schedule bot: %w", err)
	}

	if meeting.Status == entities.MeetingStatusFailed {
		meeting.ResetForRetry()
	}
	sessionID := session.ID
	meeting.BotSessionID = &sessionID
	meeting.MeetingURL = meetingURL
	meeting.Status = entities.MeetingStatusScheduled
	meeting.RecordBotStatus(session.StatusCode, "", o.now())
	if err := o.meetings.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("save scheduled meeting: %w", err)
	}

	o.announce(ctx, meeting)
	if o.logger != nil {
		o.logger.Info("bot scheduled",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("session_id", sessionID),
			zap.Int("retry_count", meeting.RetryCount),
		)
	}
	return meeting, nil
}

// CancelSession removes the bot. A session the bot service no longer knows counts as cancelled.
func (o *Orchestrator) CancelSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", entities.ErrInvalidInput)
	}
	if err := o.bot.Cancel(ctx, sessionID); err != nil {
		o.metrics.ExternalFailure("meetingbot")
		return fmt.Errorf("cancel bot: %w", err)
	}
	if o.logger != nil {
		o.logger.Info("bot cancelled", zap.String("session_id", sessionID))
	}
	return nil
}

// PollStatus reads the bot service's current view of a session. Nothing is persisted.
func (o *Orchestrator) PollStatus(ctx context.Context, sessionID string) (*meetingbot.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", entities.ErrInvalidInput)
	}
	session, err := o.bot.Get(ctx, sessionID)
	if err != nil {
		o.metrics.ExternalFailure("meetingbot")
		return nil, fmt.Errorf("poll bot: %w", err)
	}
	return session, nil
}

func (o *Orchestrator) userSettings(ctx context.Context, userID uuid.UUID) (*entities.UserSettings, error) {
	if o.settings == nil {
		return entities.DefaultUserSettings(userID), nil
	}
	settings, err := o.settings.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if settings == nil {
		return entities.DefaultUserSettings(userID), nil
	}
	return settings, nil
}

// announce publishes the meeting's current status. Publishing is best-effort.
func (o *Orchestrator) announce(ctx context.Context, meeting *entities.MeetingRecording) {
	o.metrics.Transition(string(meeting.Status))

	event := messaging.StatusEvent{
		MeetingID:  meeting.ID,
		UserID:     meeting.UserID,
		Status:     string(meeting.Status),
		OccurredAt: o.now().UTC(),
	}
	if meeting.ErrorMessage != nil {
		event.Error = *meeting.ErrorMessage
	}
	if err := o.publisher.PublishStatus(ctx, event); err != nil && o.logger != nil {
		o.logger.Warn("status event not published",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("status", event.Status),
			zap.Error(err),
		)
	}
}

func lockKey(meetingID uuid.UUID) string {
	return "meeting-lock:" + meetingID.String()
}
