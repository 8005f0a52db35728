package mapper

import (
	"time"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/model"
)

func toUpdatedAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t
	return &u
}

func fromUpdatedAt(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

type TaskMapper struct{}

func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

func (m *TaskMapper) ToEntity(t *model.Task) *entity.Task {
	if t == nil {
		return nil
	}
	return &entity.Task{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Completed:   t.Completed,
		DueDate:     t.DueDate,
		ProjectId:   t.ProjectId,
		UserId:      t.UserId,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   toUpdatedAt(t.UpdatedAt),
	}
}

func (m *TaskMapper) ToModel(t *entity.Task) *model.Task {
	if t == nil {
		return nil
	}
	return &model.Task{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Completed:   t.Completed,
		DueDate:     t.DueDate,
		ProjectId:   t.ProjectId,
		UserId:      t.UserId,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   fromUpdatedAt(t.UpdatedAt),
	}
}

func (m *TaskMapper) ToEntities(tasks []*model.Task) []*entity.Task {
	entities := make([]*entity.Task, len(tasks))
	for i, t := range tasks {
		entities[i] = m.ToEntity(t)
	}
	return entities
}

type ProjectMapper struct{}

func NewProjectMapper() *ProjectMapper {
	return &ProjectMapper{}
}

func (m *ProjectMapper) ToEntity(p *model.Project) *entity.Project {
	if p == nil {
		return nil
	}
	return &entity.Project{
		Id:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		UserId:      p.UserId,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   toUpdatedAt(p.UpdatedAt),
	}
}

func (m *ProjectMapper) ToModel(p *entity.Project) *model.Project {
	if p == nil {
		return nil
	}
	return &model.Project{
		Id:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		UserId:      p.UserId,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   fromUpdatedAt(p.UpdatedAt),
	}
}

func (m *ProjectMapper) ToEntities(projects []*model.Project) []*entity.Project {
	entities := make([]*entity.Project, len(projects))
	for i, p := range projects {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

type GoalMapper struct{}

func NewGoalMapper() *GoalMapper {
	return &GoalMapper{}
}

func (m *GoalMapper) ToEntity(g *model.Goal) *entity.Goal {
	if g == nil {
		return nil
	}
	return &entity.Goal{
		Id:          g.Id,
		Title:       g.Title,
		Description: g.Description,
		TargetDate:  g.TargetDate,
		UserId:      g.UserId,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   toUpdatedAt(g.UpdatedAt),
	}
}

func (m *GoalMapper) ToModel(g *entity.Goal) *model.Goal {
	if g == nil {
		return nil
	}
	return &model.Goal{
		Id:          g.Id,
		Title:       g.Title,
		Description: g.Description,
		TargetDate:  g.TargetDate,
		UserId:      g.UserId,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   fromUpdatedAt(g.UpdatedAt),
	}
}

func (m *GoalMapper) ToEntities(goals []*model.Goal) []*entity.Goal {
	entities := make([]*entity.Goal, len(goals))
	for i, g := range goals {
		entities[i] = m.ToEntity(g)
	}
	return entities
}

type MoodMapper struct{}

func NewMoodMapper() *MoodMapper {
	return &MoodMapper{}
}

func (m *MoodMapper) ToEntity(mo *model.Mood) *entity.Mood {
	if mo == nil {
		return nil
	}
	return &entity.Mood{
		Id:        mo.Id,
		Label:     mo.Label,
		Intensity: mo.Intensity,
		Note:      mo.Note,
		UserId:    mo.UserId,
		CreatedAt: mo.CreatedAt,
	}
}

func (m *MoodMapper) ToModel(mo *entity.Mood) *model.Mood {
	if mo == nil {
		return nil
	}
	return &model.Mood{
		Id:        mo.Id,
		Label:     mo.Label,
		Intensity: mo.Intensity,
		Note:      mo.Note,
		UserId:    mo.UserId,
		CreatedAt: mo.CreatedAt,
	}
}

func (m *MoodMapper) ToEntities(moods []*model.Mood) []*entity.Mood {
	entities := make([]*entity.Mood, len(moods))
	for i, mo := range moods {
		entities[i] = m.ToEntity(mo)
	}
	return entities
}

type SettingsMapper struct{}

func NewSettingsMapper() *SettingsMapper {
	return &SettingsMapper{}
}

func (m *SettingsMapper) ToEntity(s *model.UserSettings) *entity.UserSettings {
	if s == nil {
		return nil
	}
	return &entity.UserSettings{
		Id:                       s.Id,
		UserId:                   s.UserId,
		ThoughtProcessingEnabled: s.ThoughtProcessingEnabled,
		ProcessingMode:           entity.QueueMode(s.ProcessingMode),
		GatewayApiKey:            s.GatewayApiKey,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                toUpdatedAt(s.UpdatedAt),
	}
}

func (m *SettingsMapper) ToModel(s *entity.UserSettings) *model.UserSettings {
	if s == nil {
		return nil
	}
	return &model.UserSettings{
		Id:                       s.Id,
		UserId:                   s.UserId,
		ThoughtProcessingEnabled: s.ThoughtProcessingEnabled,
		ProcessingMode:           string(s.ProcessingMode),
		GatewayApiKey:            s.GatewayApiKey,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                fromUpdatedAt(s.UpdatedAt),
	}
}
