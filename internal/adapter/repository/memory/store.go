// Package memory keeps every repository in process memory. It backs DB_DRIVER=memory
// for local runs and the usecase tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// Store implements the repositories interfaces with copy-on-read maps
type Store struct {
	mu          sync.RWMutex
	meetings    map[uuid.UUID]entities.MeetingRecording
	transcripts map[uuid.UUID]entities.MeetingTranscript
	summaries   map[summaryKey]entities.MeetingSummary
	actionItems map[uuid.UUID][]entities.ActionItem
	decisions   map[uuid.UUID][]entities.Decision
	followups   map[uuid.UUID][]entities.FollowupDraft
	chat        []entities.ChatMessage
	settings    map[uuid.UUID]entities.UserSettings
	jobs        map[uuid.UUID]entities.PipelineJob
}

type summaryKey struct {
	meetingID uuid.UUID
	style     entities.SummaryStyle
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		meetings:    make(map[uuid.UUID]entities.MeetingRecording),
		transcripts: make(map[uuid.UUID]entities.MeetingTranscript),
		summaries:   make(map[summaryKey]entities.MeetingSummary),
		actionItems: make(map[uuid.UUID][]entities.ActionItem),
		decisions:   make(map[uuid.UUID][]entities.Decision),
		followups:   make(map[uuid.UUID][]entities.FollowupDraft),
		settings:    make(map[uuid.UUID]entities.UserSettings),
		jobs:        make(map[uuid.UUID]entities.PipelineJob),
	}
}

// Meetings returns the store as a MeetingRepository
func (s *Store) Meetings() *MeetingRepository { return &MeetingRepository{s} }

// Transcripts returns the store as a TranscriptRepository
func (s *Store) Transcripts() *TranscriptRepository { return &TranscriptRepository{s} }

// Artifacts returns the store as an ArtifactRepository
func (s *Store) Artifacts() *ArtifactRepository { return &ArtifactRepository{s} }

// Chat returns the store as a ChatRepository
func (s *Store) Chat() *ChatRepository { return &ChatRepository{s} }

// Settings returns the store as a SettingsRepository
func (s *Store) Settings() *SettingsRepository { return &SettingsRepository{s} }

// Jobs returns the store as a PipelineJobRepository
func (s *Store) Jobs() *PipelineJobRepository { return &PipelineJobRepository{s} }

// PutSettings seeds preferences for a user
func (s *Store) PutSettings(settings entities.UserSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.UserID] = settings
}

// MeetingRepository is the in-memory meeting store
type MeetingRepository struct{ s *Store }

func (r *MeetingRepository) Create(_ context.Context, meeting *entities.MeetingRecording) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.meetings[meeting.ID]; ok {
		return errors.New("meeting already exists")
	}
	r.s.meetings[meeting.ID] = cloneMeeting(*meeting)
	return nil
}

// cloneMeeting detaches the reference fields so callers never share state with the store
func cloneMeeting(m entities.MeetingRecording) entities.MeetingRecording {
	m.Attendees = append([]entities.Attendee(nil), m.Attendees...)
	if m.BotMetadata != nil {
		md := make(datatypes.JSONMap, len(m.BotMetadata))
		for k, v := range m.BotMetadata {
			md[k] = v
		}
		m.BotMetadata = md
	}
	return m
}

func (r *MeetingRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.MeetingRecording, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.meetings[id]
	if !ok {
		return nil, nil
	}
	m = cloneMeeting(m)
	return &m, nil
}

func (r *MeetingRepository) GetByBotSessionID(_ context.Context, sessionID string) (*entities.MeetingRecording, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.meetings {
		if m.BotSessionID != nil && *m.BotSessionID == sessionID {
			found := cloneMeeting(m)
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MeetingRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entities.MeetingRecording, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entities.MeetingRecording
	for _, m := range r.s.meetings {
		if m.UserID == userID {
			found := cloneMeeting(m)
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.After(out[j].ScheduledStart) })
	return page(out, limit, offset), nil
}

func (r *MeetingRepository) Update(_ context.Context, meeting *entities.MeetingRecording) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.meetings[meeting.ID]; !ok {
		return entities.ErrMeetingNotFound
	}
	meeting.UpdatedAt = time.Now()
	r.s.meetings[meeting.ID] = cloneMeeting(*meeting)
	return nil
}

// TranscriptRepository is the in-memory transcript store
type TranscriptRepository struct{ s *Store }

func (r *TranscriptRepository) Create(_ context.Context, transcript *entities.MeetingTranscript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.transcripts[transcript.MeetingID]; ok {
		return entities.ErrTranscriptExists
	}
	r.s.transcripts[transcript.MeetingID] = *transcript
	return nil
}

func (r *TranscriptRepository) GetByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.MeetingTranscript, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.transcripts[meetingID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TranscriptRepository) UpdateEditedText(_ context.Context, meetingID uuid.UUID, editedText *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transcripts[meetingID]
	if !ok {
		return entities.ErrTranscriptNotFound
	}
	t.EditedText = editedText
	t.UpdatedAt = time.Now()
	r.s.transcripts[meetingID] = t
	return nil
}

// Count returns how many transcripts are stored
func (r *TranscriptRepository) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.transcripts)
}

// ArtifactRepository is the in-memory artifact store
type ArtifactRepository struct{ s *Store }

func (r *ArtifactRepository) UpsertSummary(_ context.Context, summary *entities.MeetingSummary) error {
	if summary == nil {
		return errors.New("summary cannot be nil")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := summaryKey{meetingID: summary.MeetingID, style: summary.Style}
	if existing, ok := r.s.summaries[key]; ok {
		summary.ID = existing.ID
		summary.CreatedAt = existing.CreatedAt
	}
	summary.UpdatedAt = time.Now()
	r.s.summaries[key] = *summary
	return nil
}

func (r *ArtifactRepository) ListSummaries(_ context.Context, meetingID uuid.UUID) ([]*entities.MeetingSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entities.MeetingSummary
	for key, summary := range r.s.summaries {
		if key.meetingID == meetingID {
			found := summary
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].Style < out[j].Style
	})
	return out, nil
}

func (r *ArtifactRepository) ReplaceActionItems(_ context.Context, meetingID uuid.UUID, items []*entities.ActionItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := make([]entities.ActionItem, 0, len(items))
	for _, item := range items {
		stored = append(stored, *item)
	}
	r.s.actionItems[meetingID] = stored
	return nil
}

func (r *ArtifactRepository) ListActionItems(_ context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.ActionItem, 0, len(r.s.actionItems[meetingID]))
	for _, item := range r.s.actionItems[meetingID] {
		found := item
		out = append(out, &found)
	}
	return out, nil
}

func (r *ArtifactRepository) ReplaceDecisions(_ context.Context, meetingID uuid.UUID, decisions []*entities.Decision) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := make([]entities.Decision, 0, len(decisions))
	for _, d := range decisions {
		stored = append(stored, *d)
	}
	r.s.decisions[meetingID] = stored
	return nil
}

func (r *ArtifactRepository) ListDecisions(_ context.Context, meetingID uuid.UUID) ([]*entities.Decision, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Decision, 0, len(r.s.decisions[meetingID]))
	for _, d := range r.s.decisions[meetingID] {
		found := d
		out = append(out, &found)
	}
	return out, nil
}

func (r *ArtifactRepository) CreateFollowupDraft(_ context.Context, draft *entities.FollowupDraft) error {
	if draft == nil {
		return errors.New("draft cannot be nil")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.followups[draft.MeetingID] = append(r.s.followups[draft.MeetingID], *draft)
	return nil
}

func (r *ArtifactRepository) ListFollowupDrafts(_ context.Context, meetingID uuid.UUID) ([]*entities.FollowupDraft, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	drafts := r.s.followups[meetingID]
	out := make([]*entities.FollowupDraft, 0, len(drafts))
	for i := len(drafts) - 1; i >= 0; i-- {
		found := drafts[i]
		out = append(out, &found)
	}
	return out, nil
}

// ChatRepository is the in-memory chat log
type ChatRepository struct{ s *Store }

func (r *ChatRepository) Append(_ context.Context, messages ...*entities.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range messages {
		r.s.chat = append(r.s.chat, *m)
	}
	return nil
}

func (r *ChatRepository) List(_ context.Context, meetingID, userID uuid.UUID) ([]*entities.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entities.ChatMessage
	for _, m := range r.s.chat {
		if m.MeetingID == meetingID && m.UserID == userID {
			found := m
			out = append(out, &found)
		}
	}
	return out, nil
}

// SettingsRepository is the in-memory settings store
type SettingsRepository struct{ s *Store }

func (r *SettingsRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*entities.UserSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	settings, ok := r.s.settings[userID]
	if !ok {
		return nil, nil
	}
	return &settings, nil
}

// PipelineJobRepository is the in-memory job queue
type PipelineJobRepository struct{ s *Store }

func (r *PipelineJobRepository) Create(_ context.Context, job *entities.PipelineJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.jobs[job.ID] = *job
	return nil
}

func (r *PipelineJobRepository) ClaimNext(_ context.Context) (*entities.PipelineJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var next *entities.PipelineJob
	for _, job := range r.s.jobs {
		if job.Status != entities.PipelineJobStatusPending && job.Status != entities.PipelineJobStatusRetrying {
			continue
		}
		if next == nil || job.CreatedAt.Before(next.CreatedAt) {
			candidate := job
			next = &candidate
		}
	}
	if next == nil {
		return nil, nil
	}
	now := time.Now()
	next.Status = entities.PipelineJobStatusRunning
	next.StartedAt = &now
	next.UpdatedAt = now
	r.s.jobs[next.ID] = *next
	return next, nil
}

func (r *PipelineJobRepository) Update(_ context.Context, job *entities.PipelineJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.jobs[job.ID] = *job
	return nil
}

func (r *PipelineJobRepository) GetLatestByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.PipelineJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *entities.PipelineJob
	for _, job := range r.s.jobs {
		if job.MeetingID != meetingID {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			candidate := job
			latest = &candidate
		}
	}
	return latest, nil
}

func (r *PipelineJobRepository) ResetStale(_ context.Context, startedBefore time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, job := range r.s.jobs {
		if job.Status == entities.PipelineJobStatusRunning && job.StartedAt != nil && job.StartedAt.Before(startedBefore) {
			job.Status = entities.PipelineJobStatusRetrying
			job.RetryCount++
			job.UpdatedAt = time.Now()
			r.s.jobs[id] = job
			n++
		}
	}
	return n, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
