package bot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-intelligence/internal/adapter/repository/memory"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/external/meetingbot"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/messaging"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/transcript"
	"github.com/johnquangdev/meeting-intelligence/pkg/ai"
)

type fakeBot struct {
	mu          sync.Mutex
	scheduled   []meetingbot.ScheduleRequest
	cancelled   []string
	scheduleErr error
	cancelErr   error
	session     *meetingbot.Session
	getErr      error
	nextID      string
}

func (f *fakeBot) Schedule(_ context.Context, req meetingbot.ScheduleRequest) (*meetingbot.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	f.scheduled = append(f.scheduled, req)
	id := f.nextID
	if id == "" {
		id = "bot-" + uuid.NewString()[:8]
	}
	return &meetingbot.Session{ID: id, StatusCode: "ready"}, nil
}

func (f *fakeBot) Cancel(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, sessionID)
	return f.cancelErr
}

func (f *fakeBot) Get(_ context.Context, sessionID string) (*meetingbot.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.session == nil {
		return &meetingbot.Session{ID: sessionID, StatusCode: "done"}, nil
	}
	return f.session, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []messaging.StatusEvent
}

func (p *fakePublisher) PublishStatus(_ context.Context, e messaging.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Status)
	}
	return out
}

type fakeTranscriber struct {
	req         transcript.Request
	customWords []string
	calls       int
	err         error
	// during runs inside the speech-to-text call
	during func(ctx context.Context)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req transcript.Request, customWords []string) (*transcript.Result, error) {
	f.calls++
	f.req = req
	f.customWords = customWords
	if f.during != nil {
		f.during(ctx)
	}
	if f.err != nil {
		return nil, f.err
	}
	return transcript.Normalize(&transcript.RawTranscript{
		Utterances: []transcript.RawUtterance{{Text: "Recorded audio.", Start: 0, End: 2, Confidence: 0.9, Speaker: "A"}},
	}, customWords), nil
}

type fakeArchive struct {
	objects map[string][]byte
	err     error
}

func (a *fakeArchive) Put(_ context.Context, name string, data []byte, _ string) error {
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[name] = data
	return nil
}

type fixture struct {
	orch        *Orchestrator
	store       *memory.Store
	bot         *fakeBot
	publisher   *fakePublisher
	transcriber *fakeTranscriber
	archive     *fakeArchive
	meeting     *entities.MeetingRecording
}

const testSession = "bot-1"

var baseTime = time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:       store,
		bot:         &fakeBot{nextID: testSession},
		publisher:   &fakePublisher{},
		transcriber: &fakeTranscriber{},
		archive:     &fakeArchive{},
	}
	f.orch = NewOrchestrator(Deps{
		Bot:            f.bot,
		Meetings:       store.Meetings(),
		Transcripts:    store.Transcripts(),
		Settings:       store.Settings(),
		Jobs:           store.Jobs(),
		Transcriber:    f.transcriber,
		Locker:         cache.NewMemoryLocker(time.Minute, time.Second),
		Archive:        f.archive,
		Publisher:      f.publisher,
		Verifier:       ai.NewSignatureVerifier(secret),
		DefaultBotName: "Notetaker",
		Now:            func() time.Time { return baseTime },
	})

	userID := uuid.New()
	meeting := entities.NewMeetingRecording(userID, "alice@x.com", "Weekly sync", "https://meet.example.com/abc",
		baseTime.Add(-time.Minute), []entities.Attendee{{Email: "alice@x.com"}, {Email: "bob@x.com"}})
	session := testSession
	meeting.BotSessionID = &session
	require.NoError(t, store.Meetings().Create(context.Background(), meeting))
	f.meeting = meeting
	return f
}

func (f *fixture) load(t *testing.T) *entities.MeetingRecording {
	t.Helper()
	m, err := f.store.Meetings().GetByID(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

const testTranscriptJSON = `{
	"language": "en",
	"utterances": [
		{"text": "We decided to ship on Friday.", "start": 0, "end": 3, "confidence": 0.9, "speaker": "A"},
		{"text": "I will send the notes.", "start": 3, "end": 5, "confidence": 0.8, "speaker": "B"}
	]
}`

type eventOpt func(*WebhookEvent)

func withTranscript(raw string) eventOpt {
	return func(e *WebhookEvent) { e.Data.Transcript = json.RawMessage(raw) }
}

func withMeetingID(id uuid.UUID) eventOpt {
	return func(e *WebhookEvent) {
		e.Data.Metadata = map[string]string{"meeting_id": id.String()}
	}
}

func withSession(id string) eventOpt {
	return func(e *WebhookEvent) { e.Data.BotID = id }
}

func withoutTime() eventOpt {
	return func(e *WebhookEvent) { e.Data.Status.CreatedAt = nil }
}

func withMessage(msg string) eventOpt {
	return func(e *WebhookEvent) { e.Data.Status.Message = msg }
}

// webhook builds a payload whose status time is baseTime plus offset minutes
func webhook(t *testing.T, code string, offset int, opts ...eventOpt) []byte {
	t.Helper()
	at := baseTime.Add(time.Duration(offset) * time.Minute)
	e := WebhookEvent{
		Event: "bot.status_change",
		Data: WebhookData{
			BotID:  testSession,
			Status: WebhookStatus{Code: code, CreatedAt: &at},
		},
	}
	for _, opt := range opts {
		opt(&e)
	}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return b
}
