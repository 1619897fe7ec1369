package intelligence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

func TestPipelineStages_FollowupFollowsSettings(t *testing.T) {
	f := newFixture(t, newFakeLLM(), true)
	ctx := context.Background()

	stages, err := f.svc.PipelineStages(ctx, f.meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageSummary, StageActionItems, StageDecisions}, stages)

	settings := entities.DefaultUserSettings(f.userID)
	settings.AutoFollowupEnabled = true
	f.store.PutSettings(*settings)

	stages, err = f.svc.PipelineStages(ctx, f.meeting.ID)
	require.NoError(t, err)
	assert.Contains(t, stages, StageFollowup)
}

func TestRunStages_FailureDoesNotBlockOthers(t *testing.T) {
	llm := newFakeLLM().
		on(markSummary, `{"summary": "Sales recap."}`).
		on(markActions, `[{"description": "Send pricing", "confidence": 0.8}]`).
		fail(markDecisions, &apperrors.ExternalError{Service: "groq", StatusCode: 429})
	f := newFixture(t, llm, true)
	ctx := context.Background()

	settings := entities.DefaultUserSettings(f.userID)
	settings.DefaultSummaryStyle = entities.SummaryStyleSales
	f.store.PutSettings(*settings)

	failed, err := f.svc.RunStages(ctx, f.meeting.ID, []Stage{StageSummary, StageActionItems, StageDecisions})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Contains(t, failed, StageDecisions)

	summaries, err := f.svc.ListSummaries(ctx, f.meeting.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, entities.SummaryStyleSales, summaries[0].Style)

	items, err := f.svc.ListActionItems(ctx, f.meeting.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRunStages_NoTranscript(t *testing.T) {
	f := newFixture(t, newFakeLLM(), false)

	_, err := f.svc.RunStages(context.Background(), f.meeting.ID, []Stage{StageSummary})
	assert.ErrorIs(t, err, entities.ErrTranscriptNotFound)
	assert.Empty(t, f.llm.calls())
}

func TestRunStages_CancelledContext(t *testing.T) {
	f := newFixture(t, newFakeLLM(), true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failed, err := f.svc.RunStages(ctx, f.meeting.ID, []Stage{StageSummary, StageDecisions})
	require.NoError(t, err)
	assert.Len(t, failed, 2)
	for _, err := range failed {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
