package unitofwork

import (
	"context"

	"lifeflow-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ThoughtRepository() contract.ThoughtRepository
	QueueItemRepository() contract.QueueItemRepository
	ProposedActionRepository() contract.ProposedActionRepository
	TaskRepository() contract.TaskRepository
	ProjectRepository() contract.ProjectRepository
	GoalRepository() contract.GoalRepository
	MoodRepository() contract.MoodRepository
	SettingsRepository() contract.SettingsRepository
}
