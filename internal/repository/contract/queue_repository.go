package contract

import (
	"context"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"

	"github.com/google/uuid"
)

// QueueItemRepository persists processing attempts. Actions are loaded and
// stored through ProposedActionRepository; FindOne/FindAll return items
// without their actions hydrated.
type QueueItemRepository interface {
	Create(ctx context.Context, item *entity.QueueItem) error
	Update(ctx context.Context, item *entity.QueueItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueueItem, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueueItem, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type ProposedActionRepository interface {
	Create(ctx context.Context, action *entity.ProposedAction) error
	Update(ctx context.Context, action *entity.ProposedAction) error
	DeleteByQueueItemId(ctx context.Context, queueItemId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProposedAction, error)
}
