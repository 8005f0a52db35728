package service

import (
	"context"
	"fmt"
	"time"

	"lifeflow-be/internal/dto"
	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"
	"lifeflow-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ITaskService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.TaskResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.TaskResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type taskService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewTaskService(uowFactory unitofwork.RepositoryFactory) ITaskService {
	return &taskService{
		uowFactory: uowFactory,
	}
}

func (s *taskService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task := entity.Task{
		Id:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ProjectId:   req.ProjectId,
		UserId:      userId,
		CreatedAt:   time.Now(),
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	if err := uow.TaskRepository().Create(ctx, &task); err != nil {
		return nil, err
	}
	return toTaskResponse(&task), nil
}

func (s *taskService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return toTaskResponse(task), nil
}

func (s *taskService) List(ctx context.Context, userId uuid.UUID) ([]*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tasks, err := uow.TaskRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	responses := make([]*dto.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, toTaskResponse(task))
	}
	return responses, nil
}

func (s *taskService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %s not found", req.Id)
	}

	task.Title = req.Title
	task.Description = req.Description
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	task.DueDate = req.DueDate
	task.ProjectId = req.ProjectId
	now := time.Now()
	task.UpdatedAt = &now

	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		return nil, err
	}
	return toTaskResponse(task), nil
}

func (s *taskService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %s not found", id)
	}
	return uow.TaskRepository().Delete(ctx, id)
}

func toTaskResponse(task *entity.Task) *dto.TaskResponse {
	return &dto.TaskResponse{
		Id:          task.Id,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Completed:   task.Completed,
		DueDate:     task.DueDate,
		ProjectId:   task.ProjectId,
		CreatedAt:   task.CreatedAt,
	}
}
