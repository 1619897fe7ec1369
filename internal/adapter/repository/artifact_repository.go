package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// ArtifactRepository stores summaries, action items, decisions and follow-up drafts
type ArtifactRepository struct {
	db *gorm.DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// UpsertSummary replaces the summary of the same (meeting, style)
func (r *ArtifactRepository) UpsertSummary(ctx context.Context, summary *entities.MeetingSummary) error {
	if summary == nil {
		return errors.New("summary cannot be nil")
	}
	summary.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "meeting_id"}, {Name: "style"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"text", "key_points", "topics", "model", "source", "is_primary", "updated_at",
			}),
		}).
		Create(summary).Error
}

// ListSummaries lists a meeting's summaries, primary first
func (r *ArtifactRepository) ListSummaries(ctx context.Context, meetingID uuid.UUID) ([]*entities.MeetingSummary, error) {
	var summaries []*entities.MeetingSummary
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("is_primary DESC, style ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// ReplaceActionItems swaps the meeting's action items in one transaction
func (r *ArtifactRepository) ReplaceActionItems(ctx context.Context, meetingID uuid.UUID, items []*entities.ActionItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&entities.ActionItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// ListActionItems lists a meeting's action items in transcript order
func (r *ArtifactRepository) ListActionItems(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	var items []*entities.ActionItem
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("source_timestamp ASC NULLS LAST, created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceDecisions swaps the meeting's decisions in one transaction
func (r *ArtifactRepository) ReplaceDecisions(ctx context.Context, meetingID uuid.UUID, decisions []*entities.Decision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&entities.Decision{}).Error; err != nil {
			return err
		}
		if len(decisions) == 0 {
			return nil
		}
		return tx.Create(&decisions).Error
	})
}

// ListDecisions lists a meeting's decisions in transcript order
func (r *ArtifactRepository) ListDecisions(ctx context.Context, meetingID uuid.UUID) ([]*entities.Decision, error) {
	var decisions []*entities.Decision
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("source_timestamp ASC NULLS LAST, created_at ASC").
		Find(&decisions).Error; err != nil {
		return nil, err
	}
	return decisions, nil
}

// CreateFollowupDraft stores a new draft
func (r *ArtifactRepository) CreateFollowupDraft(ctx context.Context, draft *entities.FollowupDraft) error {
	if draft == nil {
		return errors.New("draft cannot be nil")
	}
	return r.db.WithContext(ctx).Create(draft).Error
}

// ListFollowupDrafts lists drafts, newest first
func (r *ArtifactRepository) ListFollowupDrafts(ctx context.Context, meetingID uuid.UUID) ([]*entities.FollowupDraft, error) {
	var drafts []*entities.FollowupDraft
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		Find(&drafts).Error; err != nil {
		return nil, err
	}
	return drafts, nil
}
