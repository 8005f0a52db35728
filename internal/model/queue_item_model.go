package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QueueItem struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThoughtId  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Mode       string          `gorm:"type:varchar(20);not null;default:'manual'"`
	Status     string          `gorm:"type:varchar(30);not null;index"`
	Revertible bool            `gorm:"default:false"`
	RevertData *datatypes.JSON `gorm:"type:jsonb"`
	AiResponse *datatypes.JSON `gorm:"type:jsonb"`
	Error      *string         `gorm:"type:text"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

func (QueueItem) TableName() string {
	return "queue_items"
}

type ProposedAction struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QueueItemId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type        string         `gorm:"type:varchar(40);not null"`
	Tool        string         `gorm:"type:varchar(100)"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending'"`
	Reasoning   string         `gorm:"type:text"`
	Position    int            `gorm:"not null;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
}

func (ProposedAction) TableName() string {
	return "proposed_actions"
}
