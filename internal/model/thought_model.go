package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Thought struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Text         string         `gorm:"type:text;not null"`
	SemanticType *string        `gorm:"type:varchar(50)"`
	Tags         datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	Intensity    *int           `gorm:"type:smallint"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (Thought) TableName() string {
	return "thoughts"
}
