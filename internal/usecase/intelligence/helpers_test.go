package intelligence

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-intelligence/internal/adapter/repository/memory"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/pkg/ai"
)

// fakeLLM answers by matching a marker in the system prompt
type fakeLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	requests  []ai.CompletionRequest
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{responses: map[string]string{}, errs: map[string]error{}}
}

// system prompt markers per stage
const (
	markSummary   = "summar"
	markActions   = "action items from"
	markDecisions = "decisions from"
	markFollowup  = "follow-up emails"
	markQA        = "answer questions"
)

func (f *fakeLLM) on(marker, response string) *fakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[marker] = response
	return f
}

func (f *fakeLLM) fail(marker string, err error) *fakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[marker] = err
	return f
}

func (f *fakeLLM) Complete(_ context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, *req)
	for marker, err := range f.errs {
		if strings.Contains(req.System, marker) {
			return nil, err
		}
	}
	// longest marker wins so "summar" does not shadow more specific markers
	best := ""
	for marker := range f.responses {
		if strings.Contains(req.System, marker) && len(marker) > len(best) {
			best = marker
		}
	}
	return &ai.CompletionResponse{Content: f.responses[best], Model: "test-model"}, nil
}

func (f *fakeLLM) Model() string { return "test-model" }

func (f *fakeLLM) calls() []ai.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.CompletionRequest(nil), f.requests...)
}

type fixture struct {
	svc     *Service
	store   *memory.Store
	llm     *fakeLLM
	meeting *entities.MeetingRecording
	userID  uuid.UUID
}

func strPtr(s string) *string { return &s }

func testTranscript(meetingID uuid.UUID) *entities.MeetingTranscript {
	t := entities.NewMeetingTranscript(meetingID)
	t.Segments = []entities.TranscriptSegment{
		{Start: 0, End: 4, Speaker: "Speaker A", Text: "Welcome everyone. Let's review the launch plan.", Confidence: 0.9, IsFinal: true},
		{Start: 4, End: 9, Speaker: "Speaker B", Text: "We decided to ship on Friday. I will send the release notes.", Confidence: 0.8, IsFinal: true},
		{Start: 9, End: 14, Speaker: "Speaker A", Text: "Action item: Bob needs to update the dashboard.", Confidence: 0.85, IsFinal: true},
	}
	t.RawText = "Welcome everyone. Let's review the launch plan. We decided to ship on Friday. " +
		"I will send the release notes. Action item: Bob needs to update the dashboard."
	t.SpeakerProfiles = []entities.SpeakerProfile{
		{Index: 0, Label: "Speaker A", Name: strPtr("Alice"), Email: strPtr("alice@x.com"), WordCount: 15, SpeakingTime: 9},
		{Index: 1, Label: "Speaker B", Name: strPtr("Bob"), WordCount: 12, SpeakingTime: 5},
	}
	t.Language = "en"
	t.Confidence = 0.85
	return t
}

func newFixture(t *testing.T, llm *fakeLLM, withTranscript bool) *fixture {
	t.Helper()
	store := memory.NewStore()
	userID := uuid.New()
	meeting := entities.NewMeetingRecording(userID, "alice@x.com", "Launch sync", "https://meet.example.com/abc",
		time.Now().Add(-time.Hour), []entities.Attendee{
			{Email: "alice@x.com", DisplayName: "Alice"},
			{Email: "bob@x.com", DisplayName: "Bob"},
		})
	ctx := context.Background()
	require.NoError(t, store.Meetings().Create(ctx, meeting))
	if withTranscript {
		require.NoError(t, store.Transcripts().Create(ctx, testTranscript(meeting.ID)))
	}

	svc := NewService(Deps{
		LLM:         llm,
		Meetings:    store.Meetings(),
		Transcripts: store.Transcripts(),
		Artifacts:   store.Artifacts(),
		Chat:        store.Chat(),
		Settings:    store.Settings(),
	})
	return &fixture{svc: svc, store: store, llm: llm, meeting: meeting, userID: userID}
}
