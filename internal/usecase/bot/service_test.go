package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

func TestScheduleJoin_StoresSession(t *testing.T) {
	f := newFixture(t, "")
	m := f.load(t)
	m.BotSessionID = nil
	require.NoError(t, f.store.Meetings().Update(context.Background(), m))

	got, err := f.orch.ScheduleJoin(context.Background(), ScheduleInput{MeetingID: f.meeting.ID, MaxDuration: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusScheduled, got.Status)
	assert.Equal(t, testSession, got.SessionID())

	require.Len(t, f.bot.scheduled, 1)
	req := f.bot.scheduled[0]
	assert.Equal(t, "https://meet.example.com/abc", req.MeetingURL)
	assert.Equal(t, "Notetaker", req.BotName)
	assert.Equal(t, time.Hour, req.MaxDuration)
	assert.Equal(t, f.meeting.ScheduledStart, req.JoinAt)
	assert.Equal(t, f.meeting.ID.String(), req.Metadata["meeting_id"])
	assert.Equal(t, "alice@x.com", req.Metadata["user_email"])

	assert.Equal(t, testSession, f.load(t).SessionID())
	assert.Equal(t, []string{"scheduled"}, f.publisher.statuses())
}

func TestScheduleJoin_FailureLeavesMeetingUntouched(t *testing.T) {
	f := newFixture(t, "")
	m := f.load(t)
	m.MarkFailed("bot crashed")
	require.NoError(t, f.store.Meetings().Update(context.Background(), m))
	f.bot.scheduleErr = &apperrors.ExternalError{Service: "meetingbot", StatusCode: 503}

	_, err := f.orch.ScheduleJoin(context.Background(), ScheduleInput{MeetingID: f.meeting.ID})
	require.Error(t, err)

	after := f.load(t)
	assert.Equal(t, entities.MeetingStatusFailed, after.Status)
	assert.Equal(t, 0, after.RetryCount)
	assert.Equal(t, testSession, after.SessionID())
	assert.Empty(t, f.publisher.statuses())
}

func TestScheduleJoin_RetriesFailedMeeting(t *testing.T) {
	f := newFixture(t, "")
	m := f.load(t)
	m.MarkFailed("bot crashed")
	require.NoError(t, f.store.Meetings().Update(context.Background(), m))
	f.bot.nextID = "bot-2"

	got, err := f.orch.ScheduleJoin(context.Background(), ScheduleInput{MeetingID: f.meeting.ID})
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusScheduled, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Nil(t, got.ErrorMessage)
	assert.Equal(t, "bot-2", got.SessionID())

	// callbacks from the first bot no longer apply
	res, err := f.orch.HandleWebhook(context.Background(), webhook(t, "fatal", 3, withMeetingID(f.meeting.ID)), "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, res.Outcome)
}

func TestScheduleJoin_Validation(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.orch.ScheduleJoin(context.Background(), ScheduleInput{MeetingID: uuid.New()})
	assert.ErrorIs(t, err, entities.ErrMeetingNotFound)

	m := f.load(t)
	m.MeetingURL = ""
	require.NoError(t, f.store.Meetings().Update(context.Background(), m))
	_, err = f.orch.ScheduleJoin(context.Background(), ScheduleInput{MeetingID: f.meeting.ID})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	assert.Empty(t, f.bot.scheduled)
}

func TestCancelSession(t *testing.T) {
	f := newFixture(t, "")

	require.NoError(t, f.orch.CancelSession(context.Background(), testSession))
	assert.Equal(t, []string{testSession}, f.bot.cancelled)

	f.bot.cancelErr = &apperrors.ExternalError{Service: "meetingbot", StatusCode: 500}
	assert.Error(t, f.orch.CancelSession(context.Background(), testSession))

	assert.ErrorIs(t, f.orch.CancelSession(context.Background(), ""), entities.ErrInvalidInput)
}

func TestPollStatus_DoesNotMutate(t *testing.T) {
	f := newFixture(t, "")

	session, err := f.orch.PollStatus(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, "done", session.StatusCode)
	assert.Equal(t, entities.MeetingStatusScheduled, f.load(t).Status)
}

func TestRegisterMeeting_AutoJoin(t *testing.T) {
	f := newFixture(t, "")
	userID := uuid.New()
	settings := entities.DefaultUserSettings(userID)
	settings.AutoJoinEnabled = true
	f.store.PutSettings(*settings)
	f.bot.nextID = "bot-auto"

	m, err := f.orch.RegisterMeeting(context.Background(), RegisterInput{
		UserID:         userID,
		UserEmail:      "carol@x.com",
		Title:          "Planning",
		MeetingURL:     " https://meet.example.com/xyz ",
		ScheduledStart: baseTime.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "bot-auto", m.SessionID())
	assert.Equal(t, "https://meet.example.com/xyz", m.MeetingURL)
	require.Len(t, f.bot.scheduled, 1)
}

func TestRegisterMeeting_WithoutAutoJoin(t *testing.T) {
	f := newFixture(t, "")

	m, err := f.orch.RegisterMeeting(context.Background(), RegisterInput{
		UserID:         uuid.New(),
		MeetingURL:     "https://meet.example.com/xyz",
		ScheduledStart: baseTime,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusScheduled, m.Status)
	assert.Empty(t, m.SessionID())
	assert.Empty(t, f.bot.scheduled)

	_, err = f.orch.RegisterMeeting(context.Background(), RegisterInput{UserID: uuid.New()})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestRegisterMeeting_AutoJoinFailureKeepsMeeting(t *testing.T) {
	f := newFixture(t, "")
	userID := uuid.New()
	settings := entities.DefaultUserSettings(userID)
	settings.AutoJoinEnabled = true
	f.store.PutSettings(*settings)
	f.bot.scheduleErr = &apperrors.ExternalError{Service: "meetingbot", StatusCode: 400}

	m, err := f.orch.RegisterMeeting(context.Background(), RegisterInput{
		UserID:         userID,
		MeetingURL:     "https://meet.example.com/xyz",
		ScheduledStart: baseTime,
	})
	require.Error(t, err)
	require.NotNil(t, m)

	stored, err := f.store.Meetings().GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entities.MeetingStatusScheduled, stored.Status)
}
