package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
)

// SettingsRepository reads user preferences. Returns (nil, nil) for users without saved settings.
type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserSettings, error)
}
