package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/transcript"
)

// WebhookEvent is the bot service's status callback
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData carries the session, its new status and optional artifacts
type WebhookData struct {
	BotID        string            `json:"bot_id"`
	Status       WebhookStatus     `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	RecordingURL string            `json:"recording_url,omitempty"`
	Transcript   json.RawMessage   `json:"transcript,omitempty"`
}

// WebhookStatus is one status change reported by the bot service
type WebhookStatus struct {
	Code      string     `json:"code"`
	SubCode   string     `json:"sub_code,omitempty"`
	Message   string     `json:"message,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Webhook outcomes, also used as metric labels
const (
	OutcomeApplied   = "applied"
	OutcomeNoop      = "noop"
	OutcomeIgnored   = "ignored"
	OutcomeStale     = "stale_session"
	OutcomeRejected  = "rejected"
	OutcomeNotFound  = "not_found"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// WebhookResult reports what a webhook did to its meeting
type WebhookResult struct {
	MeetingID uuid.UUID              `json:"meeting_id"`
	Status    entities.MeetingStatus `json:"status"`
	Outcome   string                 `json:"outcome"`

	// pending is set when the transcript still has to come from speech-to-text
	pending *transcriptionRequest
}

// transcriptionRequest is speech-to-text work that runs without the meeting lock
type transcriptionRequest struct {
	request    transcript.Request
	vocabulary []string
}

// transcription is the outcome of a transcriptionRequest
type transcription struct {
	result  *transcript.Result
	payload []byte
	err     error
}

var errNeedsSpeechToText = errors.New("recording needs speech-to-text")

// HandleWebhook verifies and applies one bot status callback. Transitions only move forward,
// so duplicated or reordered deliveries leave the meeting where the furthest event put it.
// The payload must be the raw request body the signature was computed over.
func (o *Orchestrator) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if o.verifier.Enabled() && !o.verifier.Verify(payload, signature) {
		o.metrics.WebhookEvent("", OutcomeRejected)
		return nil, entities.ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		o.metrics.WebhookEvent("", OutcomeMalformed)
		return nil, fmt.Errorf("%w: malformed webhook payload: %v", entities.ErrInvalidInput, err)
	}
	code := event.Data.Status.Code
	if code == "" {
		o.metrics.WebhookEvent("", OutcomeMalformed)
		return nil, fmt.Errorf("%w: webhook carries no status code", entities.ErrInvalidInput)
	}

	meetingID, err := o.resolveMeeting(ctx, event.Data)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, entities.ErrMeetingNotFound) {
			outcome = OutcomeNotFound
			if o.logger != nil {
				o.logger.Warn("webhook for unknown meeting",
					zap.String("session_id", event.Data.BotID),
					zap.String("code", code),
				)
			}
		}
		o.metrics.WebhookEvent(code, outcome)
		return nil, err
	}

	result, err := o.applyLocked(ctx, meetingID, event, nil)
	if err == nil && result.pending != nil {
		// the lock is released while the recording is transcribed; the result is applied
		// under a fresh lock against whatever state the meeting reached meanwhile
		done := o.transcribe(ctx, meetingID, result.pending)
		result, err = o.applyLocked(ctx, meetingID, event, done)
	}
	if err != nil {
		o.metrics.WebhookEvent(code, OutcomeError)
		return result, err
	}
	o.metrics.WebhookEvent(code, result.Outcome)

	if o.logger != nil {
		o.logger.Info("webhook handled",
			zap.String("meeting_id", meetingID.String()),
			zap.String("code", code),
			zap.String("status", string(result.Status)),
			zap.String("outcome", result.Outcome),
		)
	}
	return result, nil
}

// resolveMeeting prefers the meeting id the bot was scheduled with and falls back to the session id
func (o *Orchestrator) resolveMeeting(ctx context.Context, data WebhookData) (uuid.UUID, error) {
	if raw := data.Metadata["meeting_id"]; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			meeting, err := o.meetings.GetByID(ctx, id)
			if err != nil {
				return uuid.Nil, fmt.Errorf("get meeting: %w", err)
			}
			if meeting != nil {
				return meeting.ID, nil
			}
		}
	}
	if data.BotID == "" {
		return uuid.Nil, entities.ErrMeetingNotFound
	}
	meeting, err := o.meetings.GetByBotSessionID(ctx, data.BotID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get meeting by session: %w", err)
	}
	if meeting == nil {
		return uuid.Nil, entities.ErrMeetingNotFound
	}
	return meeting.ID, nil
}

func (o *Orchestrator) applyLocked(ctx context.Context, meetingID uuid.UUID, event WebhookEvent, transcribed *transcription) (*WebhookResult, error) {
	unlock, err := o.locker.Lock(ctx, lockKey(meetingID))
	if err != nil {
		return nil, fmt.Errorf("lock meeting: %w", err)
	}
	defer unlock()
	return o.apply(ctx, meetingID, event, transcribed)
}

// apply runs with the meeting lock held
func (o *Orchestrator) apply(ctx context.Context, meetingID uuid.UUID, event WebhookEvent, transcribed *transcription) (*WebhookResult, error) {
	meeting, err := o.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}

	result := &WebhookResult{MeetingID: meeting.ID, Status: meeting.Status}
	status := event.Data.Status

	// events from a session replaced by a retry must not touch the new attempt
	if event.Data.BotID != "" && meeting.SessionID() != "" && event.Data.BotID != meeting.SessionID() {
		result.Outcome = OutcomeStale
		return result, nil
	}
	if meeting.Status == entities.MeetingStatusFailed {
		result.Outcome = OutcomeNoop
		return result, nil
	}

	at := o.now()
	if status.CreatedAt != nil {
		at = *status.CreatedAt
	}
	action, target := classify(status.Code)

	// a late or repeated event must leave the record as it is
	changed := false
	if !behind(meeting, action, target) {
		changed = meeting.RecordBotStatus(status.Code, status.SubCode, at)
	}
	if event.Data.RecordingURL != "" && meeting.RecordingURL == nil {
		url := event.Data.RecordingURL
		meeting.RecordingURL = &url
		changed = true
	}

	var applied []entities.MeetingStatus
	switch action {
	case actionIgnore:
		result.Outcome = OutcomeIgnored

	case actionAdvance:
		if stampLifecycleTime(meeting, target, at) {
			changed = true
		}
		if advance(meeting, target) {
			applied = append(applied, target)
		}

	case actionFail:
		if meeting.Status.CanAdvanceTo(entities.MeetingStatusFailed) {
			meeting.MarkFailed(failureReason(status))
			applied = append(applied, entities.MeetingStatusFailed)
		}

	case actionIngest:
		steps, pending, err := o.ingest(ctx, meeting, event.Data, transcribed)
		applied = append(applied, steps...)
		result.pending = pending
		if err != nil {
			// the meeting is failed by now; persist that before surfacing the error
			if saveErr := o.save(ctx, meeting, applied); saveErr != nil && o.logger != nil {
				o.logger.Error("failed meeting not saved", zap.String("meeting_id", meeting.ID.String()), zap.Error(saveErr))
			}
			result.Status = meeting.Status
			result.Outcome = OutcomeError
			return result, err
		}
	}

	if !changed && len(applied) == 0 {
		if result.Outcome == "" {
			result.Outcome = OutcomeNoop
		}
		return result, nil
	}
	if err := o.save(ctx, meeting, applied); err != nil {
		return nil, err
	}
	result.Status = meeting.Status
	if result.Outcome == "" {
		result.Outcome = OutcomeNoop
		if len(applied) > 0 {
			result.Outcome = OutcomeApplied
		}
	}
	return result, nil
}

// ingest handles terminal success: fetch the transcript, store it once, queue generation.
// When only speech-to-text can produce the transcript it stops at processing and returns the
// work to do; the caller runs it unlocked and calls again with the outcome.
func (o *Orchestrator) ingest(ctx context.Context, meeting *entities.MeetingRecording, data WebhookData, transcribed *transcription) ([]entities.MeetingStatus, *transcriptionRequest, error) {
	var applied []entities.MeetingStatus
	// a transcript was already ingested by an earlier delivery
	if meeting.Status.Rank() >= entities.MeetingStatusTranscribing.Rank() {
		return nil, nil, nil
	}
	if advance(meeting, entities.MeetingStatusProcessing) {
		applied = append(applied, entities.MeetingStatusProcessing)
	}

	settings, err := o.userSettings(ctx, meeting.UserID)
	if err != nil {
		return applied, nil, o.fail(meeting, &applied, err)
	}

	var (
		result     *transcript.Result
		rawPayload []byte
	)
	if transcribed != nil {
		result, rawPayload, err = transcribed.result, transcribed.payload, transcribed.err
	} else {
		result, rawPayload, err = o.fetchTranscript(ctx, meeting, data, settings)
		if errors.Is(err, errNeedsSpeechToText) {
			return applied, &transcriptionRequest{
				request: transcript.Request{
					AudioURL: *meeting.RecordingURL,
					Language: settings.TranscriptLanguage,
					Diarize:  true,
				},
				vocabulary: settings.CustomVocabulary,
			}, nil
		}
	}
	if err != nil {
		return applied, nil, o.fail(meeting, &applied, err)
	}
	if advance(meeting, entities.MeetingStatusTranscribing) {
		applied = append(applied, entities.MeetingStatusTranscribing)
	}

	record := result.ToEntity(meeting.ID)
	if object := o.archiveRaw(ctx, meeting.ID, rawPayload); object != "" {
		record.RawArchiveObject = &object
	}
	if err := o.transcripts.Create(ctx, record); err != nil && !errors.Is(err, entities.ErrTranscriptExists) {
		return applied, nil, o.fail(meeting, &applied, fmt.Errorf("store transcript: %w", err))
	}
	o.metrics.TranscriptSegments(len(record.Segments))

	if o.jobs != nil {
		if err := o.jobs.Create(ctx, entities.NewPipelineJob(meeting.ID)); err != nil {
			return applied, nil, o.fail(meeting, &applied, fmt.Errorf("queue generation: %w", err))
		}
	}
	if advance(meeting, entities.MeetingStatusSummarizing) {
		applied = append(applied, entities.MeetingStatusSummarizing)
	}
	return applied, nil, nil
}

// fetchTranscript looks for a transcript in the webhook, then in the bot service. It returns
// errNeedsSpeechToText when only the recording is left to transcribe.
func (o *Orchestrator) fetchTranscript(ctx context.Context, meeting *entities.MeetingRecording, data WebhookData, settings *entities.UserSettings) (*transcript.Result, []byte, error) {
	raw, err := transcript.DecodeRaw(data.Transcript)
	if err != nil {
		return nil, nil, err
	}
	payload := []byte(data.Transcript)

	if raw.IsEmpty() && meeting.SessionID() != "" {
		session, err := o.PollStatus(ctx, meeting.SessionID())
		if err != nil {
			return nil, nil, err
		}
		if session.RecordingURL != "" && meeting.RecordingURL == nil {
			url := session.RecordingURL
			meeting.RecordingURL = &url
		}
		if raw, err = transcript.DecodeRaw(session.Transcript); err != nil {
			return nil, nil, err
		}
		payload = []byte(session.Transcript)
	}

	if !raw.IsEmpty() {
		return transcript.Normalize(raw, settings.CustomVocabulary), payload, nil
	}

	if meeting.RecordingURL == nil || o.transcriber == nil {
		return nil, nil, fmt.Errorf("%w: no transcript or recording available", entities.ErrTranscriptionFailed)
	}
	return nil, nil, errNeedsSpeechToText
}

// transcribe runs speech-to-text for a meeting. Deliveries in this process that need the same
// meeting transcribed share one call.
func (o *Orchestrator) transcribe(ctx context.Context, meetingID uuid.UUID, pending *transcriptionRequest) *transcription {
	v, _, _ := o.inflight.Do(meetingID.String(), func() (interface{}, error) {
		if o.logger != nil {
			o.logger.Info("transcribing recording", zap.String("meeting_id", meetingID.String()))
		}
		result, err := o.transcriber.Transcribe(ctx, pending.request, pending.vocabulary)
		if err != nil {
			o.metrics.ExternalFailure("speech_to_text")
			return &transcription{err: err}, nil
		}
		payload, _ := json.Marshal(result)
		return &transcription{result: result, payload: payload}, nil
	})
	return v.(*transcription)
}

// archiveRaw is best-effort and returns the object name when the upload succeeded
func (o *Orchestrator) archiveRaw(ctx context.Context, meetingID uuid.UUID, payload []byte) string {
	if o.archive == nil || len(payload) == 0 {
		return ""
	}
	object := fmt.Sprintf("meetings/%s/raw-transcript.json", meetingID)
	if err := o.archive.Put(ctx, object, payload, "application/json"); err != nil {
		o.metrics.ExternalFailure("object_storage")
		if o.logger != nil {
			o.logger.Warn("raw transcript not archived",
				zap.String("meeting_id", meetingID.String()),
				zap.Error(err),
			)
		}
		return ""
	}
	return object
}

func (o *Orchestrator) fail(meeting *entities.MeetingRecording, applied *[]entities.MeetingStatus, err error) error {
	meeting.MarkFailed(err.Error())
	*applied = append(*applied, entities.MeetingStatusFailed)
	if o.logger != nil {
		o.logger.Error("meeting failed",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
	}
	return err
}

// save persists the meeting and announces every applied status in order
func (o *Orchestrator) save(ctx context.Context, meeting *entities.MeetingRecording, applied []entities.MeetingStatus) error {
	if err := o.meetings.Update(ctx, meeting); err != nil {
		return fmt.Errorf("save meeting: %w", err)
	}
	for _, status := range applied {
		snapshot := *meeting
		snapshot.Status = status
		o.announce(ctx, &snapshot)
	}
	return nil
}

// advance moves the meeting forward. Behind or repeated targets are ignored.
func advance(meeting *entities.MeetingRecording, target entities.MeetingStatus) bool {
	if !meeting.Status.CanAdvanceTo(target) {
		return false
	}
	meeting.Status = target
	meeting.UpdatedAt = time.Now()
	return true
}

// stampLifecycleTime sets actual start/end the first time they are reported, even when the
// status itself is already further along, so reordered deliveries end with the same times.
// It reports whether a time was set.
func stampLifecycleTime(meeting *entities.MeetingRecording, target entities.MeetingStatus, at time.Time) bool {
	switch target {
	case entities.MeetingStatusRecording:
		if meeting.ActualStart == nil {
			t := at
			meeting.ActualStart = &t
			return true
		}
	case entities.MeetingStatusProcessing:
		if meeting.ActualEnd == nil {
			t := at
			meeting.ActualEnd = &t
			return true
		}
	}
	return false
}

// behind reports whether an event points at a state the meeting has already passed
func behind(meeting *entities.MeetingRecording, action webhookAction, target entities.MeetingStatus) bool {
	switch action {
	case actionAdvance:
		return target.Rank() < meeting.Status.Rank()
	case actionIngest:
		return meeting.Status.Rank() >= entities.MeetingStatusTranscribing.Rank()
	case actionFail:
		return !meeting.Status.CanAdvanceTo(entities.MeetingStatusFailed)
	}
	return false
}

func failureReason(status WebhookStatus) string {
	switch {
	case status.Message != "":
		return status.Message
	case status.SubCode != "":
		return fmt.Sprintf("%s: %s", status.Code, status.SubCode)
	default:
		return "bot reported " + status.Code
	}
}
