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

type GoalRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GoalMapper
}

func NewGoalRepository(db *gorm.DB) contract.GoalRepository {
	return &GoalRepositoryImpl{
		db:     db,
		mapper: mapper.NewGoalMapper(),
	}
}

func (r *GoalRepositoryImpl) Create(ctx context.Context, goal *entity.Goal) error {
	m := r.mapper.ToModel(goal)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*goal = *r.mapper.ToEntity(m)
	return nil
}

func (r *GoalRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Goal{}, id).Error
}

func (r *GoalRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Goal, error) {
	var m model.Goal
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *GoalRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Goal, error) {
	var models []*model.Goal
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

type MoodRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MoodMapper
}

func NewMoodRepository(db *gorm.DB) contract.MoodRepository {
	return &MoodRepositoryImpl{
		db:     db,
		mapper: mapper.NewMoodMapper(),
	}
}

func (r *MoodRepositoryImpl) Create(ctx context.Context, mood *entity.Mood) error {
	m := r.mapper.ToModel(mood)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*mood = *r.mapper.ToEntity(m)
	return nil
}

func (r *MoodRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Mood{}, id).Error
}

func (r *MoodRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Mood, error) {
	var m model.Mood
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *MoodRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Mood, error) {
	var models []*model.Mood
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
