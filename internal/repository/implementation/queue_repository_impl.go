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

type QueueItemRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QueueMapper
}

func NewQueueItemRepository(db *gorm.DB) contract.QueueItemRepository {
	return &QueueItemRepositoryImpl{
		db:     db,
		mapper: mapper.NewQueueMapper(),
	}
}

func (r *QueueItemRepositoryImpl) Create(ctx context.Context, item *entity.QueueItem) error {
	m, err := r.mapper.ToModel(item)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	hydrated, err := r.mapper.ToEntity(m, nil)
	if err != nil {
		return err
	}
	actions := item.Actions
	*item = *hydrated
	item.Actions = actions
	return nil
}

func (r *QueueItemRepositoryImpl) Update(ctx context.Context, item *entity.QueueItem) error {
	m, err := r.mapper.ToModel(item)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *QueueItemRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	// Actions are owned by the item, remove them with it.
	if err := r.db.WithContext(ctx).Where("queue_item_id = ?", id).Delete(&model.ProposedAction{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&model.QueueItem{}, id).Error
}

func (r *QueueItemRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueueItem, error) {
	var m model.QueueItem
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m, nil)
}

func (r *QueueItemRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueueItem, error) {
	var models []*model.QueueItem
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]*entity.QueueItem, 0, len(models))
	for _, m := range models {
		item, err := r.mapper.ToEntity(m, nil)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *QueueItemRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.QueueItem{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type ProposedActionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QueueMapper
}

func NewProposedActionRepository(db *gorm.DB) contract.ProposedActionRepository {
	return &ProposedActionRepositoryImpl{
		db:     db,
		mapper: mapper.NewQueueMapper(),
	}
}

func (r *ProposedActionRepositoryImpl) Create(ctx context.Context, action *entity.ProposedAction) error {
	m, err := r.mapper.ActionToModel(action)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	hydrated, err := r.mapper.ActionToEntity(m)
	if err != nil {
		return err
	}
	*action = *hydrated
	return nil
}

func (r *ProposedActionRepositoryImpl) Update(ctx context.Context, action *entity.ProposedAction) error {
	m, err := r.mapper.ActionToModel(action)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *ProposedActionRepositoryImpl) DeleteByQueueItemId(ctx context.Context, queueItemId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("queue_item_id = ?", queueItemId).Delete(&model.ProposedAction{}).Error
}

func (r *ProposedActionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProposedAction, error) {
	var models []*model.ProposedAction
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Order("position ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	actions := make([]*entity.ProposedAction, 0, len(models))
	for _, m := range models {
		action, err := r.mapper.ActionToEntity(m)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}
