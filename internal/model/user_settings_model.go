package model

import (
	"time"

	"github.com/google/uuid"
)

type UserSettings struct {
	Id                       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId                   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ThoughtProcessingEnabled bool      `gorm:"default:false"`
	ProcessingMode           string    `gorm:"type:varchar(20);not null;default:'manual'"`
	GatewayApiKey            string    `gorm:"type:text"`
	CreatedAt                time.Time `gorm:"autoCreateTime"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}
