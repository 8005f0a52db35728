package mapper

import (
	"encoding/json"
	"time"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/model"

	"gorm.io/datatypes"
)

type QueueMapper struct{}

func NewQueueMapper() *QueueMapper {
	return &QueueMapper{}
}

func (m *QueueMapper) ToEntity(q *model.QueueItem, actions []*model.ProposedAction) (*entity.QueueItem, error) {
	if q == nil {
		return nil, nil
	}

	var revertData *entity.RevertData
	if q.RevertData != nil && len(*q.RevertData) > 0 {
		var rd entity.RevertData
		if err := json.Unmarshal(*q.RevertData, &rd); err != nil {
			return nil, err
		}
		revertData = &rd
	}

	var aiResponse json.RawMessage
	if q.AiResponse != nil {
		aiResponse = json.RawMessage(*q.AiResponse)
	}

	errMsg := ""
	if q.Error != nil {
		errMsg = *q.Error
	}

	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		u := q.UpdatedAt
		updatedAt = &u
	}

	item := &entity.QueueItem{
		Id:         q.Id,
		ThoughtId:  q.ThoughtId,
		Mode:       entity.QueueMode(q.Mode),
		Status:     entity.QueueStatus(q.Status),
		Revertible: q.Revertible,
		RevertData: revertData,
		AiResponse: aiResponse,
		Error:      errMsg,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  updatedAt,
	}

	for _, a := range actions {
		action, err := m.ActionToEntity(a)
		if err != nil {
			return nil, err
		}
		item.Actions = append(item.Actions, action)
	}

	return item, nil
}

func (m *QueueMapper) ToModel(q *entity.QueueItem) (*model.QueueItem, error) {
	if q == nil {
		return nil, nil
	}

	var revertData *datatypes.JSON
	if q.RevertData != nil {
		raw, err := json.Marshal(q.RevertData)
		if err != nil {
			return nil, err
		}
		j := datatypes.JSON(raw)
		revertData = &j
	}

	var aiResponse *datatypes.JSON
	if len(q.AiResponse) > 0 {
		j := datatypes.JSON(q.AiResponse)
		aiResponse = &j
	}

	var errMsg *string
	if q.Error != "" {
		e := q.Error
		errMsg = &e
	}

	var updatedAt time.Time
	if q.UpdatedAt != nil {
		updatedAt = *q.UpdatedAt
	}

	return &model.QueueItem{
		Id:         q.Id,
		ThoughtId:  q.ThoughtId,
		Mode:       string(q.Mode),
		Status:     string(q.Status),
		Revertible: q.Revertible,
		RevertData: revertData,
		AiResponse: aiResponse,
		Error:      errMsg,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func (m *QueueMapper) ActionToEntity(a *model.ProposedAction) (*entity.ProposedAction, error) {
	if a == nil {
		return nil, nil
	}

	payload, err := entity.DecodeActionPayload(entity.ActionType(a.Type), a.Payload)
	if err != nil {
		return nil, err
	}

	return &entity.ProposedAction{
		Id:          a.Id,
		QueueItemId: a.QueueItemId,
		Type:        entity.ActionType(a.Type),
		Tool:        a.Tool,
		Payload:     payload,
		Status:      entity.ActionStatus(a.Status),
		Reasoning:   a.Reasoning,
		Position:    a.Position,
		CreatedAt:   a.CreatedAt,
	}, nil
}

func (m *QueueMapper) ActionToModel(a *entity.ProposedAction) (*model.ProposedAction, error) {
	if a == nil {
		return nil, nil
	}

	payload, err := entity.EncodeActionPayload(a.Payload)
	if err != nil {
		return nil, err
	}

	return &model.ProposedAction{
		Id:          a.Id,
		QueueItemId: a.QueueItemId,
		Type:        string(a.Type),
		Tool:        a.Tool,
		Payload:     datatypes.JSON(payload),
		Status:      string(a.Status),
		Reasoning:   a.Reasoning,
		Position:    a.Position,
		CreatedAt:   a.CreatedAt,
	}, nil
}
