package memory

import "github.com/johnquangdev/meeting-intelligence/internal/domain/repositories"

var (
	_ repositories.MeetingRepository     = (*MeetingRepository)(nil)
	_ repositories.TranscriptRepository  = (*TranscriptRepository)(nil)
	_ repositories.ArtifactRepository    = (*ArtifactRepository)(nil)
	_ repositories.ChatRepository        = (*ChatRepository)(nil)
	_ repositories.SettingsRepository    = (*SettingsRepository)(nil)
	_ repositories.PipelineJobRepository = (*PipelineJobRepository)(nil)
)
