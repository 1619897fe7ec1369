package bot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// FinishPipeline closes the generation phase of a meeting. A nil failure moves it to complete,
// otherwise it is marked failed with the reason. Meetings already terminal are left as they are.
func (o *Orchestrator) FinishPipeline(ctx context.Context, meetingID uuid.UUID, failure error) (*entities.MeetingRecording, error) {
	unlock, err := o.locker.Lock(ctx, lockKey(meetingID))
	if err != nil {
		return nil, fmt.Errorf("lock meeting: %w", err)
	}
	defer unlock()

	meeting, err := o.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}
	if meeting.Status.IsTerminal() {
		return meeting, nil
	}

	var applied []entities.MeetingStatus
	if failure != nil {
		meeting.MarkFailed(failure.Error())
		applied = append(applied, entities.MeetingStatusFailed)
	} else if advance(meeting, entities.MeetingStatusComplete) {
		applied = append(applied, entities.MeetingStatusComplete)
	}
	if len(applied) == 0 {
		return meeting, nil
	}
	if err := o.save(ctx, meeting, applied); err != nil {
		return nil, err
	}

	if o.logger != nil {
		o.logger.Info("meeting pipeline finished",
			zap.String("meeting_id", meetingID.String()),
			zap.String("status", string(meeting.Status)),
		)
	}
	return meeting, nil
}
