package executor

import (
	"context"
	"fmt"
	"time"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"
	"lifeflow-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Attempt describes one execution attempt, delivered to registered hooks so
// every attempt is observable externally.
type Attempt struct {
	QueueItemId uuid.UUID
	ActionId    uuid.UUID
	ActionType  entity.ActionType
	Err         error
	At          time.Time
}

// Hook observes execution attempts. Hooks must not block.
type Hook func(ctx context.Context, attempt Attempt)

// Executor applies approved actions to the entity store. Each Apply call
// performs exactly one mutation and records enough revert metadata to
// reverse it later.
type Executor struct {
	hooks []Hook
}

func New() *Executor {
	return &Executor{}
}

// RegisterHook adds an observer for execution attempts.
func (e *Executor) RegisterHook(hook Hook) {
	e.hooks = append(e.hooks, hook)
}

func (e *Executor) notify(ctx context.Context, item *entity.QueueItem, action *entity.ProposedAction, err error) {
	attempt := Attempt{
		QueueItemId: item.Id,
		ActionId:    action.Id,
		ActionType:  action.Type,
		Err:         err,
		At:          time.Now(),
	}
	for _, hook := range e.hooks {
		hook(ctx, attempt)
	}
}

// Apply executes one approved action against the entity store through the
// given unit of work and folds its revert metadata into revertData.
func (e *Executor) Apply(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	item *entity.QueueItem,
	action *entity.ProposedAction,
	thought *entity.Thought,
	revertData *entity.RevertData,
) error {
	if action.Status != entity.ActionStatusApproved {
		err := fmt.Errorf("action %s is %s, not approved", action.Id, action.Status)
		e.notify(ctx, item, action, err)
		return err
	}

	err := e.apply(ctx, uow, action, thought, revertData)
	e.notify(ctx, item, action, err)
	return err
}

func (e *Executor) apply(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	action *entity.ProposedAction,
	thought *entity.Thought,
	revertData *entity.RevertData,
) error {
	switch payload := action.Payload.(type) {
	case *entity.AddTagPayload:
		return e.applyAddTag(ctx, uow, thought, payload, revertData)
	case *entity.CreateTaskPayload:
		return e.applyCreateTask(ctx, uow, thought, payload, revertData)
	case *entity.CreateProjectPayload:
		return e.applyCreateProject(ctx, uow, thought, payload, revertData)
	case *entity.CreateGoalPayload:
		return e.applyCreateGoal(ctx, uow, thought, payload, revertData)
	case *entity.CreateMoodPayload:
		return e.applyCreateMood(ctx, uow, thought, payload, revertData)
	case *entity.EnhanceTaskPayload:
		return e.applyEnhanceTask(ctx, uow, payload, revertData)
	case *entity.LinkToProjectPayload:
		return e.applyLinkToProject(ctx, uow, payload, revertData)
	case *entity.EnhanceThoughtPayload:
		return e.applyEnhanceThought(ctx, uow, thought, payload, revertData)
	default:
		return fmt.Errorf("no executor for action type %s", action.Type)
	}
}

func (e *Executor) applyAddTag(ctx context.Context, uow unitofwork.UnitOfWork, thought *entity.Thought, payload *entity.AddTagPayload, rd *entity.RevertData) error {
	if thought.HasTag(payload.Tag) {
		return nil // idempotent
	}
	thought.AddTag(payload.Tag)
	if err := uow.ThoughtRepository().Update(ctx, thought); err != nil {
		return fmt.Errorf("add tag: %w", err)
	}
	rd.TagsAdded = append(rd.TagsAdded, payload.Tag)
	return nil
}

func (e *Executor) applyCreateTask(ctx context.Context, uow unitofwork.UnitOfWork, thought *entity.Thought, payload *entity.CreateTaskPayload, rd *entity.RevertData) error {
	task := &entity.Task{
		Id:          uuid.New(),
		Title:       payload.Title,
		Description: payload.Description,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
		ProjectId:   payload.ProjectId,
		UserId:      thought.UserId,
		CreatedAt:   time.Now(),
	}
	if err := uow.TaskRepository().Create(ctx, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	rd.CreatedEntityIds.Tasks = append(rd.CreatedEntityIds.Tasks, task.Id)
	return nil
}

func (e *Executor) applyCreateProject(ctx context.Context, uow unitofwork.UnitOfWork, thought *entity.Thought, payload *entity.CreateProjectPayload, rd *entity.RevertData) error {
	project := &entity.Project{
		Id:          uuid.New(),
		Name:        payload.Name,
		Description: payload.Description,
		UserId:      thought.UserId,
		CreatedAt:   time.Now(),
	}
	if err := uow.ProjectRepository().Create(ctx, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	rd.CreatedEntityIds.Projects = append(rd.CreatedEntityIds.Projects, project.Id)
	return nil
}

func (e *Executor) applyCreateGoal(ctx context.Context, uow unitofwork.UnitOfWork, thought *entity.Thought, payload *entity.CreateGoalPayload, rd *entity.RevertData) error {
	goal := &entity.Goal{
		Id:          uuid.New(),
		Title:       payload.Title,
		Description: payload.Description,
		TargetDate:  payload.TargetDate,
		UserId:      thought.UserId,
		CreatedAt:   time.Now(),
	}
	if err := uow.GoalRepository().Create(ctx, goal); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	rd.CreatedEntityIds.Goals = append(rd.CreatedEntityIds.Goals, goal.Id)
	return nil
}

func (e *Executor) applyCreateMood(ctx context.Context, uow unitofwork.UnitOfWork, thought *entity.Thought, payload *entity.CreateMoodPayload, rd *entity.RevertData) error {
	mood := &entity.Mood{
		Id:        uuid.New(),
		Label:     payload.Label,
		Intensity: payload.Intensity,
		Note:      payload.Note,
		UserId:    thought.UserId,
		CreatedAt: time.Now(),
	}
	if err := uow.MoodRepository().Create(ctx, mood); err != nil {
		return fmt.Errorf("create mood: %w", err)
	}
	rd.CreatedEntityIds.Moods = append(rd.CreatedEntityIds.Moods, mood.Id)
	return nil
}

func (e *Executor) applyEnhanceTask(ctx context.Context, uow unitofwork.UnitOfWork, payload *entity.EnhanceTaskPayload, rd *entity.RevertData) error {
	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: payload.TaskId})
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task %s not found", payload.TaskId)
	}

	if rd.TaskChanges == nil {
		rd.TaskChanges = map[string]string{}
	}
	if payload.Title != "" {
		rd.TaskChanges[task.Id.String()+".title"] = task.Title
		task.Title = payload.Title
	}
	if payload.Description != "" {
		rd.TaskChanges[task.Id.String()+".description"] = task.Description
		task.Description = payload.Description
	}
	if payload.Priority != "" {
		rd.TaskChanges[task.Id.String()+".priority"] = task.Priority
		task.Priority = payload.Priority
	}

	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		return fmt.Errorf("enhance task: %w", err)
	}
	return nil
}

func (e *Executor) applyLinkToProject(ctx context.Context, uow unitofwork.UnitOfWork, payload *entity.LinkToProjectPayload, rd *entity.RevertData) error {
	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: payload.TaskId})
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task %s not found", payload.TaskId)
	}
	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: payload.ProjectId})
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return fmt.Errorf("project %s not found", payload.ProjectId)
	}

	if rd.TaskChanges == nil {
		rd.TaskChanges = map[string]string{}
	}
	previous := ""
	if task.ProjectId != nil {
		previous = task.ProjectId.String()
	}
	rd.TaskChanges[task.Id.String()+".project_id"] = previous

	task.ProjectId = &project.Id
	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		return fmt.Errorf("link to project: %w", err)
	}
	return nil
}

func (e *Executor) applyEnhanceThought(ctx context.Context, uow unitofwork.UnitOfWork, thought *entity.Thought, payload *entity.EnhanceThoughtPayload, rd *entity.RevertData) error {
	if payload.ImprovedText == "" {
		return fmt.Errorf("enhance thought: empty improved text")
	}
	thought.Text = payload.ImprovedText
	if err := uow.ThoughtRepository().Update(ctx, thought); err != nil {
		return fmt.Errorf("enhance thought: %w", err)
	}
	rd.ThoughtEnhanced = true
	return nil
}
