package implementation

import (
	"context"
	"errors"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/mapper"
	"lifeflow-be/internal/model"
	"lifeflow-be/internal/repository/contract"
	"lifeflow-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThoughtRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ThoughtMapper
}

func NewThoughtRepository(db *gorm.DB) contract.ThoughtRepository {
	return &ThoughtRepositoryImpl{
		db:     db,
		mapper: mapper.NewThoughtMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ThoughtRepositoryImpl) Create(ctx context.Context, thought *entity.Thought) error {
	m := r.mapper.ToModel(thought)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*thought = *r.mapper.ToEntity(m)
	return nil
}

func (r *ThoughtRepositoryImpl) Update(ctx context.Context, thought *entity.Thought) error {
	m := r.mapper.ToModel(thought)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*thought = *r.mapper.ToEntity(m)
	return nil
}

func (r *ThoughtRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Thought{}, id).Error
}

func (r *ThoughtRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thought, error) {
	var m model.Thought
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ThoughtRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thought, error) {
	var models []*model.Thought
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ThoughtRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Thought{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
