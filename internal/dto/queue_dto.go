package dto

import (
	"encoding/json"
	"time"

	"lifeflow-be/internal/entity"

	"github.com/google/uuid"
)

// QueueItemUpdate is a partial update of a queue item; nil fields are left
// untouched.
type QueueItemUpdate struct {
	Status     *entity.QueueStatus
	Mode       *entity.QueueMode
	Error      *string
	AiResponse json.RawMessage
	Revertible *bool
	RevertData *entity.RevertData
}

// NewActionData describes one proposed action to append to a queue item.
type NewActionData struct {
	Type      entity.ActionType
	Tool      string
	Payload   entity.ActionPayload
	Reasoning string
}

type ProposedActionResponse struct {
	Id        uuid.UUID            `json:"id"`
	Type      entity.ActionType    `json:"type"`
	Tool      string               `json:"tool,omitempty"`
	Payload   entity.ActionPayload `json:"data"`
	Status    entity.ActionStatus  `json:"status"`
	Reasoning string               `json:"reasoning,omitempty"`
}

type QueueItemResponse struct {
	Id              uuid.UUID                `json:"id"`
	ThoughtId       uuid.UUID                `json:"thought_id"`
	Mode            entity.QueueMode         `json:"mode"`
	Status          entity.QueueStatus       `json:"status"`
	Actions         []ProposedActionResponse `json:"actions"`
	ApprovedActions []uuid.UUID              `json:"approved_actions"`
	ExecutedActions []uuid.UUID              `json:"executed_actions"`
	Revertible      bool                     `json:"revertible"`
	Error           string                   `json:"error,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       *time.Time               `json:"updated_at"`
}

type ExecuteApprovedResponse struct {
	Executed []uuid.UUID        `json:"executed"`
	Failed   []uuid.UUID        `json:"failed"`
	Status   entity.QueueStatus `json:"status"`
}

type DaemonStatusResponse struct {
	Enabled  bool       `json:"enabled"`
	InFlight bool       `json:"in_flight"`
	LastRun  *time.Time `json:"last_run"`
	Interval string     `json:"interval"`
}
