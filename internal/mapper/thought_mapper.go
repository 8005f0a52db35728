package mapper

import (
	"encoding/json"
	"time"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/model"

	"gorm.io/datatypes"
)

type ThoughtMapper struct{}

func NewThoughtMapper() *ThoughtMapper {
	return &ThoughtMapper{}
}

func (m *ThoughtMapper) ToEntity(t *model.Thought) *entity.Thought {
	if t == nil {
		return nil
	}

	var tags []string
	if len(t.Tags) > 0 {
		// A corrupt tags column degrades to an empty set instead of failing reads.
		_ = json.Unmarshal(t.Tags, &tags)
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.Thought{
		Id:           t.Id,
		Text:         t.Text,
		SemanticType: t.SemanticType,
		Tags:         tags,
		Intensity:    t.Intensity,
		UserId:       t.UserId,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ThoughtMapper) ToModel(t *entity.Thought) *model.Thought {
	if t == nil {
		return nil
	}

	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJson, _ := json.Marshal(tags)

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.Thought{
		Id:           t.Id,
		Text:         t.Text,
		SemanticType: t.SemanticType,
		Tags:         datatypes.JSON(tagsJson),
		Intensity:    t.Intensity,
		UserId:       t.UserId,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ThoughtMapper) ToEntities(thoughts []*model.Thought) []*entity.Thought {
	entities := make([]*entity.Thought, len(thoughts))
	for i, t := range thoughts {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
