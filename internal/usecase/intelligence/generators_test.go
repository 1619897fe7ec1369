package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/internal/adapter/repository/memory"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

func TestGenerateSummary_UpsertsPerStyle(t *testing.T) {
	llm := newFakeLLM().on(markSummary, `{"summary": "Launch moves to Friday.", "key_points": ["Ship Friday", " "], "topics": ["launch"]}`)
	f := newFixture(t, llm, true)
	ctx := context.Background()

	first, err := f.svc.GenerateSummary(ctx, f.meeting.ID, entities.SummaryStyleExecutive)
	require.NoError(t, err)
	assert.Equal(t, "Launch moves to Friday.", first.Text)
	assert.Equal(t, []string{"Ship Friday"}, first.KeyPoints)
	assert.Equal(t, []string{"launch"}, first.Topics)
	assert.True(t, first.IsPrimary)
	assert.Equal(t, string(SourceParsed), first.Source)
	assert.Equal(t, "test-model", first.Model)

	llm.on(markSummary, `{"summary": "Regenerated.", "key_points": [], "topics": []}`)
	_, err = f.svc.GenerateSummary(ctx, f.meeting.ID, entities.SummaryStyleExecutive)
	require.NoError(t, err)

	summaries, err := f.svc.ListSummaries(ctx, f.meeting.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Regenerated.", summaries[0].Text)
	assert.Equal(t, first.ID, summaries[0].ID)

	chrono, err := f.svc.GenerateSummary(ctx, f.meeting.ID, entities.SummaryStyleChronological)
	require.NoError(t, err)
	assert.False(t, chrono.IsPrimary)

	summaries, err = f.svc.ListSummaries(ctx, f.meeting.ID)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestGenerateSummary_FallsBackToRawText(t *testing.T) {
	llm := newFakeLLM().on(markSummary, "  The team agreed to launch on Friday.  ")
	f := newFixture(t, llm, true)

	summary, err := f.svc.GenerateSummary(context.Background(), f.meeting.ID, entities.SummaryStyleSales)
	require.NoError(t, err)
	assert.Equal(t, "The team agreed to launch on Friday.", summary.Text)
	assert.Equal(t, string(SourceFallback), summary.Source)
	assert.Empty(t, summary.KeyPoints)
}

func TestParseSummary_EmptyResponseUsesTranscriptLead(t *testing.T) {
	got := parseSummary("", "One. Two! Three? Four.")
	assert.Equal(t, "One. Two! Three?", got.Text)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestGenerateSummary_Validation(t *testing.T) {
	f := newFixture(t, newFakeLLM(), true)

	_, err := f.svc.GenerateSummary(context.Background(), f.meeting.ID, "haiku")
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	_, err = f.svc.GenerateSummary(context.Background(), uuid.New(), entities.SummaryStyleExecutive)
	assert.ErrorIs(t, err, entities.ErrMeetingNotFound)
	assert.Empty(t, f.llm.calls())
}

func TestGenerators_RequireTranscript(t *testing.T) {
	f := newFixture(t, newFakeLLM(), false)
	ctx := context.Background()

	_, err := f.svc.GenerateSummary(ctx, f.meeting.ID, entities.SummaryStyleExecutive)
	assert.ErrorIs(t, err, entities.ErrTranscriptNotFound)
	_, err = f.svc.ExtractActionItems(ctx, f.meeting.ID)
	assert.ErrorIs(t, err, entities.ErrTranscriptNotFound)
	_, err = f.svc.ExtractDecisions(ctx, f.meeting.ID)
	assert.ErrorIs(t, err, entities.ErrTranscriptNotFound)
	_, err = f.svc.Ask(ctx, f.meeting.ID, f.userID, "What happened?")
	assert.ErrorIs(t, err, entities.ErrTranscriptNotFound)

	assert.Empty(t, f.llm.calls())
	summaries, _ := f.svc.ListSummaries(ctx, f.meeting.ID)
	assert.Empty(t, summaries)
}

func TestExtractActionItems_ParsedWithThresholdAndOwners(t *testing.T) {
	response := "Here you go:\n```json\n" + `[
		{"description": "Send the release notes", "owner": "bob", "priority": "HIGH", "due_date": "2026-11-01", "timestamp": "00:04", "confidence": 0.9},
		{"description": "Maybe look at logos", "owner": "Speaker A", "confidence": 0.3},
		{"description": "", "owner": "x", "confidence": 0.95},
		{"description": "Update the dashboard", "owner": "alice@x.com"}
	]` + "\n```"
	f := newFixture(t, newFakeLLM().on(markActions, response), true)

	result, err := f.svc.ExtractActionItems(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceParsed, result.Source)
	require.Len(t, result.Items, 2)

	first := result.Items[0]
	assert.Equal(t, "Send the release notes", first.Description)
	assert.Equal(t, entities.ActionItemPriorityHigh, first.Priority)
	assert.Equal(t, entities.ActionItemStatusOpen, first.Status)
	assert.Equal(t, 0.9, first.Confidence)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, "2026-11-01", first.DueDate.Format("2006-01-02"))
	require.NotNil(t, first.SourceTimestamp)
	assert.Equal(t, 4.0, *first.SourceTimestamp)
	require.NotNil(t, first.OwnerName)
	assert.Equal(t, "Bob", *first.OwnerName)
	require.NotNil(t, first.OwnerSpeaker)
	assert.Equal(t, "Speaker B", *first.OwnerSpeaker)
	assert.Nil(t, first.OwnerEmail)

	second := result.Items[1]
	assert.Equal(t, actionItemThreshold, second.Confidence)
	require.NotNil(t, second.OwnerEmail)
	assert.Equal(t, "alice@x.com", *second.OwnerEmail)
	assert.Equal(t, "Alice", *second.OwnerName)
	assert.Equal(t, "Speaker A", *second.OwnerSpeaker)
	assert.Equal(t, entities.ActionItemPriorityMedium, second.Priority)

	stored, err := f.svc.ListActionItems(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestExtractActionItems_FallbackScansTranscript(t *testing.T) {
	f := newFixture(t, newFakeLLM().on(markActions, "Sorry, I cannot help with that."), true)

	result, err := f.svc.ExtractActionItems(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, result.Source)
	require.Len(t, result.Items, 2)

	assert.Equal(t, "I will send the release notes.", result.Items[0].Description)
	assert.Equal(t, 4.0, *result.Items[0].SourceTimestamp)
	assert.Equal(t, "Speaker B", *result.Items[0].OwnerSpeaker)
	assert.Equal(t, "Bob needs to update the dashboard.", result.Items[1].Description)
	for _, item := range result.Items {
		assert.Equal(t, 0.6, item.Confidence)
	}
}

func TestExtractActionItems_ReplacesPreviousSet(t *testing.T) {
	llm := newFakeLLM().on(markActions, `[{"description": "one"}, {"description": "two"}]`)
	f := newFixture(t, llm, true)
	ctx := context.Background()

	_, err := f.svc.ExtractActionItems(ctx, f.meeting.ID)
	require.NoError(t, err)
	llm.on(markActions, `{"action_items": [{"description": "three"}]}`)
	_, err = f.svc.ExtractActionItems(ctx, f.meeting.ID)
	require.NoError(t, err)

	stored, err := f.svc.ListActionItems(ctx, f.meeting.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "three", stored[0].Description)
}

func TestFallbackActionItems_CappedAtTen(t *testing.T) {
	meetingID := uuid.New()
	tr := entities.NewMeetingTranscript(meetingID)
	var sentences []string
	for i := 0; i < 15; i++ {
		sentences = append(sentences, fmt.Sprintf("Person %d will check item %d.", i, i))
	}
	edited := strings.Join(sentences, " ")
	tr.EditedText = &edited

	items := fallbackActionItems(meetingID, tr, newOwnerResolver(nil, nil))
	require.Len(t, items, fallbackLimit)
	for _, item := range items {
		assert.Equal(t, actionItemThreshold, item.Confidence)
		assert.Nil(t, item.SourceTimestamp)
	}
}

func TestExtractDecisions_ThresholdIsHigher(t *testing.T) {
	response := `{"decisions": [
		{"decision": "Ship on Friday", "context": "QA signed off", "impact_area": "release", "timestamp": 4, "confidence": 0.95},
		{"decision": "Rename the product", "confidence": 0.65}
	]}`
	f := newFixture(t, newFakeLLM().on(markDecisions, response), true)

	result, err := f.svc.ExtractDecisions(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceParsed, result.Source)
	require.Len(t, result.Items, 1)
	d := result.Items[0]
	assert.Equal(t, "Ship on Friday", d.Text)
	assert.Equal(t, "QA signed off", *d.Context)
	assert.Equal(t, "release", *d.ImpactArea)
	assert.Equal(t, 4.0, *d.SourceTimestamp)
}

func TestExtractDecisions_FallbackConfidence(t *testing.T) {
	f := newFixture(t, newFakeLLM().on(markDecisions, "no json here"), true)

	result, err := f.svc.ExtractDecisions(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, result.Source)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "We decided to ship on Friday.", result.Items[0].Text)
	assert.Equal(t, 0.7, result.Items[0].Confidence)
	assert.Equal(t, 4.0, *result.Items[0].SourceTimestamp)
}

func TestExtractDecisions_NoneMade(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, newFakeLLM().on(markDecisions, "[]"), true)
	result, err := f.svc.ExtractDecisions(ctx, f.meeting.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, SourceParsed, result.Source)

	// unparseable output on a transcript without decision phrases
	g := newFixture(t, newFakeLLM().on(markDecisions, "nothing to report"), false)
	tr := entities.NewMeetingTranscript(g.meeting.ID)
	tr.RawText = "We talked about the weather. Then we said goodbye."
	require.NoError(t, g.store.Transcripts().Create(ctx, tr))

	result, err = g.svc.ExtractDecisions(ctx, g.meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, result.Source)
	assert.Empty(t, result.Items)
}

func TestGenerators_TransportErrorPropagates(t *testing.T) {
	upstream := &apperrors.ExternalError{Service: "groq", StatusCode: 503}
	f := newFixture(t, newFakeLLM().fail(markDecisions, upstream), true)

	_, err := f.svc.ExtractDecisions(context.Background(), f.meeting.ID)
	require.Error(t, err)
	var ext *apperrors.ExternalError
	assert.True(t, errors.As(err, &ext))

	stored, _ := f.svc.ListDecisions(context.Background(), f.meeting.ID)
	assert.Empty(t, stored)
}

func TestGenerators_NoLLMConfigured(t *testing.T) {
	f := newFixture(t, nil, true)
	f.svc.llm = nil

	_, err := f.svc.ExtractActionItems(context.Background(), f.meeting.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
}

func TestRecipients(t *testing.T) {
	attendees := []entities.Attendee{
		{Email: "alice@x.com"},
		{Email: "bob@x.com"},
	}
	assert.Equal(t, []string{"bob@x.com"}, Recipients(attendees, "alice@x.com"))

	attendees = []entities.Attendee{
		{Email: "Alice@X.com"},
		{Email: "bob@x.com"},
		{Email: "BOB@x.com"},
		{Email: ""},
		{Email: "carol@x.com"},
	}
	assert.Equal(t, []string{"bob@x.com", "carol@x.com"}, Recipients(attendees, " alice@x.com "))
}

func TestGenerateFollowup(t *testing.T) {
	llm := newFakeLLM().on(markFollowup, `{"subject": "Launch follow-up", "body": "Thanks all.\n\n- **Bob**: release notes"}`)
	f := newFixture(t, llm, true)

	draft, err := f.svc.GenerateFollowup(context.Background(), FollowupRequest{
		MeetingID:   f.meeting.ID,
		SenderEmail: "alice@x.com",
		Style:       &entities.StyleProfile{SignOffPatterns: []string{"Cheers"}, Formality: 0.8, Warmth: 0.4},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bob@x.com"}, draft.ToEmails)
	assert.Equal(t, "Launch follow-up", draft.Subject)
	assert.Equal(t, entities.FollowupStatusDraft, draft.Status)
	assert.Equal(t, "<p>Thanks all.</p>\n<ul><li><strong>Bob</strong>: release notes</li></ul>", draft.HTMLBody)

	calls := llm.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].System, "Sign-offs they use: Cheers")
	assert.Contains(t, calls[0].System, "Formality: 0.8")

	drafts, err := f.store.Artifacts().ListFollowupDrafts(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}

func TestGenerateFollowup_FallbackAndSenderDefault(t *testing.T) {
	f := newFixture(t, newFakeLLM().on(markFollowup, "Hi team,\nthanks for the time."), true)

	draft, err := f.svc.GenerateFollowup(context.Background(), FollowupRequest{MeetingID: f.meeting.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", draft.SenderEmail)
	assert.Equal(t, "Follow-up: Launch sync", draft.Subject)
	assert.Equal(t, "<p>Hi team,<br>thanks for the time.</p>", draft.HTMLBody)
	assert.Equal(t, string(SourceFallback), draft.Source)
}

// unreadableArtifacts fails the lookups the follow-up draft uses as context
type unreadableArtifacts struct {
	*memory.ArtifactRepository
}

func (unreadableArtifacts) ListSummaries(context.Context, uuid.UUID) ([]*entities.MeetingSummary, error) {
	return nil, errors.New("connection reset")
}

func (unreadableArtifacts) ListActionItems(context.Context, uuid.UUID) ([]*entities.ActionItem, error) {
	return nil, errors.New("connection reset")
}

func TestGenerateFollowup_ContextLookupFailureIsLogged(t *testing.T) {
	f := newFixture(t, newFakeLLM().on(markFollowup, `{"subject": "Thanks", "body": "Thanks all."}`), true)
	core, logs := observer.New(zap.WarnLevel)
	f.svc.logger = zap.New(core)
	f.svc.artifacts = unreadableArtifacts{f.store.Artifacts()}

	draft, err := f.svc.GenerateFollowup(context.Background(), FollowupRequest{MeetingID: f.meeting.ID})
	require.NoError(t, err)
	assert.Equal(t, "Thanks", draft.Subject)

	drafts, err := f.store.Artifacts().ListFollowupDrafts(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	warned := logs.FilterMessage("follow-up context lookup failed, drafting without it")
	require.Equal(t, 2, warned.Len())
	var lookups []string
	for _, entry := range warned.All() {
		lookups = append(lookups, entry.ContextMap()["context"].(string))
		assert.Equal(t, f.meeting.ID.String(), entry.ContextMap()["meeting_id"])
	}
	assert.ElementsMatch(t, []string{"summaries", "action_items"}, lookups)
}

func TestAsk_AppendsQuestionAndAnswer(t *testing.T) {
	llm := newFakeLLM().on(markQA, `{"answer": "They will ship on Friday.", "citations": [{"timestamp": "00:04", "speaker": "Speaker B", "quote": "We decided to ship on Friday."}], "confidence": 0.85}`)
	f := newFixture(t, llm, true)
	ctx := context.Background()

	reply, err := f.svc.Ask(ctx, f.meeting.ID, f.userID, "  When do we ship?  ")
	require.NoError(t, err)
	assert.Equal(t, entities.ChatRoleAssistant, reply.Role)
	assert.Equal(t, "They will ship on Friday.", reply.Content)
	require.Len(t, reply.Citations, 1)
	assert.Equal(t, entities.Citation{Timestamp: 4, Speaker: "Speaker B", Quote: "We decided to ship on Friday."}, reply.Citations[0])
	require.NotNil(t, reply.Confidence)
	assert.Equal(t, 0.85, *reply.Confidence)

	history, err := f.svc.ChatHistory(ctx, f.meeting.ID, f.userID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entities.ChatRoleUser, history[0].Role)
	assert.Equal(t, "When do we ship?", history[0].Content)
	assert.Equal(t, entities.ChatRoleAssistant, history[1].Role)

	// the next question carries the earlier turns
	_, err = f.svc.Ask(ctx, f.meeting.ID, f.userID, "Who sends the notes?")
	require.NoError(t, err)
	calls := llm.calls()
	assert.Contains(t, calls[len(calls)-1].User, "user: When do we ship?")
	assert.Contains(t, calls[len(calls)-1].User, "[00:04] Speaker B:")

	other, err := f.svc.ChatHistory(ctx, f.meeting.ID, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAsk_UnparseableAndEmptyAnswers(t *testing.T) {
	answer, citations, confidence, source := parseAnswer("Probably Friday.")
	assert.Equal(t, "Probably Friday.", answer)
	assert.Nil(t, citations)
	assert.Equal(t, 0.0, confidence)
	assert.Equal(t, SourceFallback, source)

	answer, _, _, source = parseAnswer(`{"answer": "", "citations": [], "confidence": 0.1}`)
	assert.Equal(t, NotInTranscriptAnswer, answer)
	assert.Equal(t, SourceParsed, source)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	f := newFixture(t, newFakeLLM(), true)

	_, err := f.svc.Ask(context.Background(), f.meeting.ID, f.userID, "   ")
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	assert.Empty(t, f.llm.calls())
}

func TestEditTranscript_ChangesGeneratorInput(t *testing.T) {
	llm := newFakeLLM().on(markSummary, `{"summary": "ok"}`)
	f := newFixture(t, llm, true)
	ctx := context.Background()

	edited := "Corrected transcript text."
	tr, err := f.svc.EditTranscript(ctx, f.meeting.ID, &edited)
	require.NoError(t, err)
	assert.Equal(t, edited, tr.Text())

	_, err = f.svc.GenerateSummary(ctx, f.meeting.ID, entities.SummaryStyleExecutive)
	require.NoError(t, err)
	calls := llm.calls()
	assert.Contains(t, calls[0].User, edited)
	assert.NotContains(t, calls[0].User, "[00:00]")

	_, err = f.svc.EditTranscript(ctx, uuid.New(), &edited)
	assert.ErrorIs(t, err, entities.ErrTranscriptNotFound)
}

func TestGetMeeting_Ownership(t *testing.T) {
	f := newFixture(t, newFakeLLM(), false)
	ctx := context.Background()

	m, err := f.svc.GetMeeting(ctx, f.meeting.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, f.meeting.ID, m.ID)

	_, err = f.svc.GetMeeting(ctx, f.meeting.ID, uuid.New())
	assert.ErrorIs(t, err, entities.ErrForbidden)

	_, err = f.svc.GetMeeting(ctx, uuid.New(), f.userID)
	assert.ErrorIs(t, err, entities.ErrMeetingNotFound)
}
