package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionType is the discriminator of the action payload union. Values match
// the Gateway wire format.
type ActionType string

const (
	ActionAddTag         ActionType = "addTag"
	ActionCreateTask     ActionType = "createTask"
	ActionCreateProject  ActionType = "createProject"
	ActionCreateGoal     ActionType = "createGoal"
	ActionCreateMood     ActionType = "createMood"
	ActionEnhanceTask    ActionType = "enhanceTask"
	ActionLinkToProject  ActionType = "linkToProject"
	ActionEnhanceThought ActionType = "enhanceThought"
)

// ActionPayload is the typed payload of a ProposedAction. Each action type
// has exactly one payload shape, so the executor never guesses at maps.
type ActionPayload interface {
	ActionType() ActionType
}

type AddTagPayload struct {
	Tag string `json:"tag"`
}

func (AddTagPayload) ActionType() ActionType { return ActionAddTag }

type CreateTaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ProjectId   *uuid.UUID `json:"projectId,omitempty"`
}

func (CreateTaskPayload) ActionType() ActionType { return ActionCreateTask }

type CreateProjectPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (CreateProjectPayload) ActionType() ActionType { return ActionCreateProject }

type CreateGoalPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
}

func (CreateGoalPayload) ActionType() ActionType { return ActionCreateGoal }

type CreateMoodPayload struct {
	Label     string `json:"label"`
	Intensity int    `json:"intensity,omitempty"`
	Note      string `json:"note,omitempty"`
}

func (CreateMoodPayload) ActionType() ActionType { return ActionCreateMood }

type EnhanceTaskPayload struct {
	TaskId      uuid.UUID `json:"taskId"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority,omitempty"`
}

func (EnhanceTaskPayload) ActionType() ActionType { return ActionEnhanceTask }

type LinkToProjectPayload struct {
	TaskId    uuid.UUID `json:"taskId"`
	ProjectId uuid.UUID `json:"projectId"`
}

func (LinkToProjectPayload) ActionType() ActionType { return ActionLinkToProject }

type EnhanceThoughtPayload struct {
	ImprovedText string   `json:"improvedText"`
	Changes      []string `json:"changes,omitempty"`
}

func (EnhanceThoughtPayload) ActionType() ActionType { return ActionEnhanceThought }

// DecodeActionPayload unmarshals a raw payload into the concrete variant
// for the given action type.
func DecodeActionPayload(actionType ActionType, raw []byte) (ActionPayload, error) {
	decode := func(target ActionPayload) (ActionPayload, error) {
		if len(raw) == 0 {
			return target, nil
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", actionType, err)
		}
		return target, nil
	}

	switch actionType {
	case ActionAddTag:
		return decode(&AddTagPayload{})
	case ActionCreateTask:
		return decode(&CreateTaskPayload{})
	case ActionCreateProject:
		return decode(&CreateProjectPayload{})
	case ActionCreateGoal:
		return decode(&CreateGoalPayload{})
	case ActionCreateMood:
		return decode(&CreateMoodPayload{})
	case ActionEnhanceTask:
		return decode(&EnhanceTaskPayload{})
	case ActionLinkToProject:
		return decode(&LinkToProjectPayload{})
	case ActionEnhanceThought:
		return decode(&EnhanceThoughtPayload{})
	default:
		return nil, fmt.Errorf("unknown action type: %s", actionType)
	}
}

// EncodeActionPayload marshals a payload for storage.
func EncodeActionPayload(payload ActionPayload) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", payload.ActionType(), err)
	}
	return data, nil
}
