package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserSettings is the persisted settings blob. The daemon reads it at start
// and re-reads it whenever a change notification fires.
type UserSettings struct {
	Id                       uuid.UUID
	UserId                   uuid.UUID
	ThoughtProcessingEnabled bool
	ProcessingMode           QueueMode
	GatewayApiKey            string
	CreatedAt                time.Time
	UpdatedAt                *time.Time
}
