package service

import (
	"context"
	"fmt"
	"time"

	"lifeflow-be/internal/dto"
	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/pkg/activitylog"
	"lifeflow-be/internal/pkg/logger"
	"lifeflow-be/internal/repository/specification"
	"lifeflow-be/internal/repository/unitofwork"
	"lifeflow-be/pkg/events"
	"lifeflow-be/pkg/pipeline/executor"
	"lifeflow-be/pkg/pipeline/revert"

	"github.com/google/uuid"
)

const queueLogModule = "QueueService"

// EventPublisher fans queue events out to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IQueueService interface {
	// Queue store operations. AddToQueue assumes the caller already verified
	// no item exists for this thought; the unique index on thought_id is the
	// only internal backstop.
	AddToQueue(ctx context.Context, thoughtId uuid.UUID, mode entity.QueueMode) (uuid.UUID, error)
	UpdateQueueItem(ctx context.Context, id uuid.UUID, update *dto.QueueItemUpdate) error
	AddAction(ctx context.Context, queueId uuid.UUID, action *dto.NewActionData) (uuid.UUID, error)
	GetQueueItem(ctx context.Context, id uuid.UUID) (*entity.QueueItem, error)
	ListQueue(ctx context.Context) ([]*entity.QueueItem, error)
	DeleteQueueItem(ctx context.Context, id uuid.UUID) error

	// Approval and execution.
	ApproveAction(ctx context.Context, queueId, actionId uuid.UUID) error
	RejectAction(ctx context.Context, queueId, actionId uuid.UUID) error
	ExecuteApproved(ctx context.Context, queueId uuid.UUID) (*dto.ExecuteApprovedResponse, error)
	Revert(ctx context.Context, queueId uuid.UUID) error
}

type queueService struct {
	uowFactory     unitofwork.RepositoryFactory
	executor       *executor.Executor
	eventPublisher EventPublisher
	activity       *activitylog.Log
	log            logger.ILogger
}

func NewQueueService(
	uowFactory unitofwork.RepositoryFactory,
	exec *executor.Executor,
	eventPublisher EventPublisher,
	activity *activitylog.Log,
	log logger.ILogger,
) IQueueService {
	return &queueService{
		uowFactory:     uowFactory,
		executor:       exec,
		eventPublisher: eventPublisher,
		activity:       activity,
		log:            log,
	}
}

func (s *queueService) AddToQueue(ctx context.Context, thoughtId uuid.UUID, mode entity.QueueMode) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	item := entity.QueueItem{
		Id:        uuid.New(),
		ThoughtId: thoughtId,
		Mode:      mode,
		Status:    entity.QueueStatusPending,
		CreatedAt: time.Now(),
	}
	if err := uow.QueueItemRepository().Create(ctx, &item); err != nil {
		return uuid.Nil, err
	}
	return item.Id, nil
}

func (s *queueService) UpdateQueueItem(ctx context.Context, id uuid.UUID, update *dto.QueueItemUpdate) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	item, err := uow.QueueItemRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("queue item %s not found", id)
	}

	if update.Status != nil {
		item.Status = *update.Status
	}
	if update.Mode != nil {
		item.Mode = *update.Mode
	}
	if update.Error != nil {
		item.Error = *update.Error
	}
	if update.AiResponse != nil {
		item.AiResponse = update.AiResponse
	}
	if update.Revertible != nil {
		item.Revertible = *update.Revertible
	}
	if update.RevertData != nil {
		item.RevertData = update.RevertData
	}

	now := time.Now()
	item.UpdatedAt = &now
	return uow.QueueItemRepository().Update(ctx, item)
}

func (s *queueService) AddAction(ctx context.Context, queueId uuid.UUID, action *dto.NewActionData) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	item, err := uow.QueueItemRepository().FindOne(ctx, specification.ByID{ID: queueId})
	if err != nil {
		return uuid.Nil, err
	}
	if item == nil {
		return uuid.Nil, fmt.Errorf("queue item %s not found", queueId)
	}

	existing, err := uow.ProposedActionRepository().FindAll(ctx, specification.ByQueueItemID{QueueItemID: queueId})
	if err != nil {
		return uuid.Nil, err
	}

	proposed := entity.ProposedAction{
		Id:          uuid.New(),
		QueueItemId: queueId,
		Type:        action.Type,
		Tool:        action.Tool,
		Payload:     action.Payload,
		Status:      entity.ActionStatusPending,
		Reasoning:   action.Reasoning,
		Position:    len(existing),
		CreatedAt:   time.Now(),
	}
	if err := uow.ProposedActionRepository().Create(ctx, &proposed); err != nil {
		return uuid.Nil, err
	}
	return proposed.Id, nil
}

func (s *queueService) GetQueueItem(ctx context.Context, id uuid.UUID) (*entity.QueueItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return s.hydrate(ctx, uow, id)
}

func (s *queueService) hydrate(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.QueueItem, error) {
	item, err := uow.QueueItemRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	actions, err := uow.ProposedActionRepository().FindAll(ctx, specification.ByQueueItemID{QueueItemID: id})
	if err != nil {
		return nil, err
	}
	item.Actions = actions
	return item, nil
}

func (s *queueService) ListQueue(ctx context.Context) ([]*entity.QueueItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	items, err := uow.QueueItemRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		actions, err := uow.ProposedActionRepository().FindAll(ctx, specification.ByQueueItemID{QueueItemID: item.Id})
		if err != nil {
			return nil, err
		}
		item.Actions = actions
	}
	return items, nil
}

func (s *queueService) DeleteQueueItem(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.QueueItemRepository().Delete(ctx, id)
}

func (s *queueService) setActionStatus(ctx context.Context, queueId, actionId uuid.UUID, status entity.ActionStatus) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	item, err := s.hydrate(ctx, uow, queueId)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("queue item %s not found", queueId)
	}
	if item.Status != entity.QueueStatusAwaitingApproval {
		return fmt.Errorf("queue item %s is %s, approval not open", queueId, item.Status)
	}

	action := item.FindAction(actionId)
	if action == nil {
		return fmt.Errorf("action %s not found on queue item %s", actionId, queueId)
	}
	if action.Status == entity.ActionStatusExecuted {
		return fmt.Errorf("action %s already executed", actionId)
	}

	action.Status = status
	return uow.ProposedActionRepository().Update(ctx, action)
}

func (s *queueService) ApproveAction(ctx context.Context, queueId, actionId uuid.UUID) error {
	return s.setActionStatus(ctx, queueId, actionId, entity.ActionStatusApproved)
}

func (s *queueService) RejectAction(ctx context.Context, queueId, actionId uuid.UUID) error {
	return s.setActionStatus(ctx, queueId, actionId, entity.ActionStatusRejected)
}

// ExecuteApproved applies every approved action in presentation order. Each
// action runs in its own transaction; a failure leaves that action approved
// and the item in awaiting-approval so the user can retry or reject it.
func (s *queueService) ExecuteApproved(ctx context.Context, queueId uuid.UUID) (*dto.ExecuteApprovedResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	item, err := s.hydrate(ctx, uow, queueId)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("queue item %s not found", queueId)
	}
	if item.Status != entity.QueueStatusAwaitingApproval {
		return nil, fmt.Errorf("queue item %s is %s, nothing to execute", queueId, item.Status)
	}

	thought, err := uow.ThoughtRepository().FindOne(ctx, specification.ByID{ID: item.ThoughtId})
	if err != nil {
		return nil, err
	}
	if thought == nil {
		return nil, fmt.Errorf("thought %s not found", item.ThoughtId)
	}

	// Snapshot the pre-processing state on first execution. Nothing else
	// mutates the thought between enqueue and execution, so this captures
	// the original fields.
	rd := item.RevertData
	if rd == nil {
		rd = &entity.RevertData{
			OriginalThought: entity.ThoughtSnapshot{
				Text:      thought.Text,
				Tags:      append([]string{}, thought.Tags...),
				Intensity: thought.Intensity,
			},
		}
	}

	result := &dto.ExecuteApprovedResponse{}
	for _, action := range item.Actions {
		if action.Status != entity.ActionStatusApproved {
			continue
		}

		txUow := s.uowFactory.NewUnitOfWork(ctx)
		if err := txUow.Begin(ctx); err != nil {
			return nil, err
		}

		// Each action works on the thought as committed so far. A rolled
		// back action's in-memory mutations must never reach a later
		// action's commit.
		txThought, err := txUow.ThoughtRepository().FindOne(ctx, specification.ByID{ID: item.ThoughtId})
		if err != nil {
			_ = txUow.Rollback()
			return nil, err
		}
		if txThought == nil {
			_ = txUow.Rollback()
			return nil, fmt.Errorf("thought %s not found", item.ThoughtId)
		}

		if err := s.executor.Apply(ctx, txUow, item, action, txThought, rd); err != nil {
			_ = txUow.Rollback()
			result.Failed = append(result.Failed, action.Id)
			s.recordActivity(ctx, activitylog.Entry{
				Kind:     "execution",
				QueueId:  item.Id.String(),
				ActionId: action.Id.String(),
				Message:  err.Error(),
			})
			continue
		}

		action.Status = entity.ActionStatusExecuted
		if err := txUow.ProposedActionRepository().Update(ctx, action); err != nil {
			_ = txUow.Rollback()
			return nil, err
		}
		if err := txUow.Commit(); err != nil {
			return nil, err
		}

		result.Executed = append(result.Executed, action.Id)
		s.recordActivity(ctx, activitylog.Entry{
			Kind:     "execution",
			QueueId:  item.Id.String(),
			ActionId: action.Id.String(),
			Message:  string(action.Type),
		})
		s.publishEvent(ctx, events.EventActionExecuted, map[string]interface{}{
			"queue_id":    item.Id,
			"action_id":   action.Id,
			"action_type": action.Type,
		})
	}

	item.RevertData = rd
	item.Revertible = len(result.Executed) > 0 || item.Revertible
	if item.AllApprovedExecuted() {
		item.Status = entity.QueueStatusCompleted
		// Mark the thought so the selector never re-enqueues it. Re-read
		// it first, the executed actions worked on their own copies.
		current, err := uow.ThoughtRepository().FindOne(ctx, specification.ByID{ID: item.ThoughtId})
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, fmt.Errorf("thought %s not found", item.ThoughtId)
		}
		if !current.HasTag(entity.TagProcessed) {
			current.AddTag(entity.TagProcessed)
			if err := uow.ThoughtRepository().Update(ctx, current); err != nil {
				return nil, err
			}
		}
	}
	now := time.Now()
	item.UpdatedAt = &now
	if err := uow.QueueItemRepository().Update(ctx, item); err != nil {
		return nil, err
	}

	result.Status = item.Status
	return result, nil
}

// Revert restores the thought to its recorded snapshot, removes created
// entities and deletes the queue item so the thought becomes a candidate
// again.
func (s *queueService) Revert(ctx context.Context, queueId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	item, err := s.hydrate(ctx, uow, queueId)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("queue item %s not found", queueId)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := revert.Apply(ctx, uow, item); err != nil {
		return err
	}
	if err := uow.QueueItemRepository().Delete(ctx, item.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.recordActivity(ctx, activitylog.Entry{
		Kind:      "revert",
		QueueId:   item.Id.String(),
		ThoughtId: item.ThoughtId.String(),
	})
	s.publishEvent(ctx, events.EventQueueReverted, map[string]interface{}{
		"queue_id":   item.Id,
		"thought_id": item.ThoughtId,
	})
	return nil
}

func (s *queueService) recordActivity(ctx context.Context, entry activitylog.Entry) {
	if s.activity != nil {
		s.activity.Record(ctx, entry)
	}
}

func (s *queueService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	// Events are auxiliary, a publish failure never fails the operation.
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn(queueLogModule, "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
