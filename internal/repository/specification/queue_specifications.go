package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByThoughtID filters queue items by the thought they reference
type ByThoughtID struct {
	ThoughtID uuid.UUID
}

func (s ByThoughtID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thought_id = ?", s.ThoughtID)
}

// ByQueueItemID filters proposed actions by their owning queue item
type ByQueueItemID struct {
	QueueItemID uuid.UUID
}

func (s ByQueueItemID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("queue_item_id = ?", s.QueueItemID)
}

// ByStatusIn filters by a set of statuses
type ByStatusIn struct {
	Statuses []string
}

func (s ByStatusIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}
