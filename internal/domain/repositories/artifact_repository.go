package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// ArtifactRepository persists everything generated from a transcript
type ArtifactRepository interface {
	// Summaries are unique per (meeting, style)
	UpsertSummary(ctx context.Context, summary *entities.MeetingSummary) error
	ListSummaries(ctx context.Context, meetingID uuid.UUID) ([]*entities.MeetingSummary, error)

	// Re-extraction replaces the previous set for the meeting
	ReplaceActionItems(ctx context.Context, meetingID uuid.UUID, items []*entities.ActionItem) error
	ListActionItems(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error)

	ReplaceDecisions(ctx context.Context, meetingID uuid.UUID, decisions []*entities.Decision) error
	ListDecisions(ctx context.Context, meetingID uuid.UUID) ([]*entities.Decision, error)

	CreateFollowupDraft(ctx context.Context, draft *entities.FollowupDraft) error
	ListFollowupDrafts(ctx context.Context, meetingID uuid.UUID) ([]*entities.FollowupDraft, error)
}

// ChatRepository is the append-only Q&A log
type ChatRepository interface {
	Append(ctx context.Context, messages ...*entities.ChatMessage) error
	List(ctx context.Context, meetingID, userID uuid.UUID) ([]*entities.ChatMessage, error)
}
