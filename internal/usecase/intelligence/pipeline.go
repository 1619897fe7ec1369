package intelligence

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// PipelineStages lists the stages that run automatically once a transcript exists.
// The follow-up draft only runs when the owner enabled it.
func (s *Service) PipelineStages(ctx context.Context, meetingID uuid.UUID) ([]Stage, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}

	stages := []Stage{StageSummary, StageActionItems, StageDecisions}
	if s.userSettings(ctx, meeting.UserID).AutoFollowupEnabled && meeting.UserEmail != "" {
		stages = append(stages, StageFollowup)
	}
	return stages, nil
}

// RunStages runs the stages concurrently and independently. A failing stage never cancels the others.
// The returned map holds the error of every stage that failed; the error return is reserved for
// problems that prevent any stage from starting, such as a missing transcript.
func (s *Service) RunStages(ctx context.Context, meetingID uuid.UUID, stages []Stage) (map[Stage]error, error) {
	meeting, _, err := s.loadContext(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	settings := s.userSettings(ctx, meeting.UserID)

	var (
		mu     sync.Mutex
		failed = make(map[Stage]error)
	)
	g := new(errgroup.Group)
	g.SetLimit(s.maxParallel)

	for _, stage := range stages {
		g.Go(func() error {
			var err error
			select {
			case <-ctx.Done():
				err = ctx.Err()
			default:
				err = s.runStage(ctx, stage, meeting, settings)
			}
			if err != nil {
				mu.Lock()
				failed[stage] = err
				mu.Unlock()
			}
			// never fail the group, every stage must get its chance
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 && s.logger != nil {
		fields := []zap.Field{zap.String("meeting_id", meetingID.String())}
		for stage, err := range failed {
			fields = append(fields, zap.NamedError(string(stage), err))
		}
		s.logger.Warn("pipeline stages failed", fields...)
	}
	return failed, nil
}

func (s *Service) runStage(ctx context.Context, stage Stage, meeting *entities.MeetingRecording, settings *entities.UserSettings) error {
	var err error
	switch stage {
	case StageSummary:
		_, err = s.GenerateSummary(ctx, meeting.ID, settings.SummaryStyleOrDefault())
	case StageActionItems:
		_, err = s.ExtractActionItems(ctx, meeting.ID)
	case StageDecisions:
		_, err = s.ExtractDecisions(ctx, meeting.ID)
	case StageFollowup:
		_, err = s.GenerateFollowup(ctx, FollowupRequest{MeetingID: meeting.ID, SenderEmail: meeting.UserEmail})
	default:
		err = fmt.Errorf("%w: stage %q cannot run in the pipeline", entities.ErrInvalidInput, stage)
	}
	return err
}
