package revert

import (
	"context"
	"fmt"
	"strings"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"
	"lifeflow-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Apply undoes everything a queue item's executed actions changed: the
// thought is restored to its recorded snapshot and entities created as side
// effects are removed. The caller is responsible for deleting the queue item
// afterwards so the thought becomes a candidate again.
func Apply(ctx context.Context, uow unitofwork.UnitOfWork, item *entity.QueueItem) error {
	if !item.Revertible {
		return fmt.Errorf("queue item %s is not revertible", item.Id)
	}
	if item.RevertData == nil {
		return fmt.Errorf("queue item %s has no revert data", item.Id)
	}
	rd := item.RevertData

	thought, err := uow.ThoughtRepository().FindOne(ctx, specification.ByID{ID: item.ThoughtId})
	if err != nil {
		return fmt.Errorf("load thought: %w", err)
	}
	if thought == nil {
		return fmt.Errorf("thought %s not found", item.ThoughtId)
	}

	// Restore the snapshot wholesale; it captures text, tags and intensity
	// as they were before processing.
	thought.Text = rd.OriginalThought.Text
	thought.Tags = rd.OriginalThought.Tags
	if thought.Tags == nil {
		thought.Tags = []string{}
	}
	thought.Intensity = rd.OriginalThought.Intensity
	if err := uow.ThoughtRepository().Update(ctx, thought); err != nil {
		return fmt.Errorf("restore thought: %w", err)
	}

	if err := restoreTaskChanges(ctx, uow, rd); err != nil {
		return err
	}

	for _, id := range rd.CreatedEntityIds.Tasks {
		if err := uow.TaskRepository().Delete(ctx, id); err != nil {
			return fmt.Errorf("remove created task %s: %w", id, err)
		}
	}
	for _, id := range rd.CreatedEntityIds.Projects {
		if err := uow.ProjectRepository().Delete(ctx, id); err != nil {
			return fmt.Errorf("remove created project %s: %w", id, err)
		}
	}
	for _, id := range rd.CreatedEntityIds.Goals {
		if err := uow.GoalRepository().Delete(ctx, id); err != nil {
			return fmt.Errorf("remove created goal %s: %w", id, err)
		}
	}
	for _, id := range rd.CreatedEntityIds.Moods {
		if err := uow.MoodRepository().Delete(ctx, id); err != nil {
			return fmt.Errorf("remove created mood %s: %w", id, err)
		}
	}

	return nil
}

// restoreTaskChanges rolls back field edits made by enhanceTask and
// linkToProject actions. Keys are "<taskId>.<field>" with the pre-change
// value; tasks that were themselves created by this item are skipped since
// they get deleted anyway.
func restoreTaskChanges(ctx context.Context, uow unitofwork.UnitOfWork, rd *entity.RevertData) error {
	created := make(map[string]struct{}, len(rd.CreatedEntityIds.Tasks))
	for _, id := range rd.CreatedEntityIds.Tasks {
		created[id.String()] = struct{}{}
	}

	for key, previous := range rd.TaskChanges {
		dot := strings.LastIndex(key, ".")
		if dot < 0 {
			continue
		}
		taskIdStr, field := key[:dot], key[dot+1:]
		if _, ok := created[taskIdStr]; ok {
			continue
		}
		taskId, err := uuid.Parse(taskIdStr)
		if err != nil {
			continue
		}

		task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: taskId})
		if err != nil {
			return fmt.Errorf("load task %s: %w", taskId, err)
		}
		if task == nil {
			continue
		}

		switch field {
		case "title":
			task.Title = previous
		case "description":
			task.Description = previous
		case "priority":
			task.Priority = previous
		case "project_id":
			if previous == "" {
				task.ProjectId = nil
			} else if pid, err := uuid.Parse(previous); err == nil {
				task.ProjectId = &pid
			}
		default:
			continue
		}

		if err := uow.TaskRepository().Update(ctx, task); err != nil {
			return fmt.Errorf("restore task %s: %w", taskId, err)
		}
	}
	return nil
}
