package contract

import (
	"context"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ThoughtRepository interface {
	Create(ctx context.Context, thought *entity.Thought) error
	Update(ctx context.Context, thought *entity.Thought) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thought, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thought, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
