package contract

import (
	"context"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"
)

type SettingsRepository interface {
	Upsert(ctx context.Context, settings *entity.UserSettings) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserSettings, error)
}
