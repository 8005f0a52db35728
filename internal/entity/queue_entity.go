package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type QueueStatus string

const (
	QueueStatusPending          QueueStatus = "pending"
	QueueStatusProcessing       QueueStatus = "processing"
	QueueStatusAwaitingApproval QueueStatus = "awaiting-approval"
	QueueStatusFailed           QueueStatus = "failed"
	QueueStatusCompleted        QueueStatus = "completed"
)

type QueueMode string

const (
	QueueModeAuto   QueueMode = "auto"
	QueueModeManual QueueMode = "manual"
)

type ActionStatus string

const (
	ActionStatusPending  ActionStatus = "pending"
	ActionStatusApproved ActionStatus = "approved"
	ActionStatusRejected ActionStatus = "rejected"
	ActionStatusExecuted ActionStatus = "executed"
)

// QueueItem is one processing attempt for a single Thought. It owns its
// actions; everything else is referenced by identifier only.
type QueueItem struct {
	Id         uuid.UUID
	ThoughtId  uuid.UUID
	Mode       QueueMode
	Status     QueueStatus
	Actions    []*ProposedAction // insertion order = presentation order
	Revertible bool
	RevertData *RevertData
	AiResponse json.RawMessage // raw Gateway result, kept for audit
	Error      string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// ApprovedActionIds returns the ids of actions the user approved, in
// presentation order. Executed actions stay in the set.
func (q *QueueItem) ApprovedActionIds() []uuid.UUID {
	var ids []uuid.UUID
	for _, a := range q.Actions {
		if a.Status == ActionStatusApproved || a.Status == ActionStatusExecuted {
			ids = append(ids, a.Id)
		}
	}
	return ids
}

// ExecutedActionIds returns the ids of actions already applied to the
// entity store.
func (q *QueueItem) ExecutedActionIds() []uuid.UUID {
	var ids []uuid.UUID
	for _, a := range q.Actions {
		if a.Status == ActionStatusExecuted {
			ids = append(ids, a.Id)
		}
	}
	return ids
}

// AllApprovedExecuted reports whether every approved action has been
// executed and at least one action was approved. Used to decide the
// transition to completed.
func (q *QueueItem) AllApprovedExecuted() bool {
	approved := 0
	for _, a := range q.Actions {
		switch a.Status {
		case ActionStatusApproved:
			return false
		case ActionStatusExecuted:
			approved++
		}
	}
	return approved > 0
}

// FindAction returns the owned action with the given id, or nil.
func (q *QueueItem) FindAction(actionId uuid.UUID) *ProposedAction {
	for _, a := range q.Actions {
		if a.Id == actionId {
			return a
		}
	}
	return nil
}

// ProposedAction is a single AI-suggested mutation awaiting approval.
type ProposedAction struct {
	Id          uuid.UUID
	QueueItemId uuid.UUID
	Type        ActionType
	Tool        string
	Payload     ActionPayload
	Status      ActionStatus
	Reasoning   string // AI-supplied, explanatory only
	Position    int
	CreatedAt   time.Time
}

// RevertData captures everything needed to reconstruct the pre-processing
// state of a thought once actions were executed.
type RevertData struct {
	OriginalThought  ThoughtSnapshot   `json:"originalThought"`
	CreatedEntityIds CreatedEntityIds  `json:"createdEntityIds"`
	ThoughtEnhanced  bool              `json:"thoughtEnhanced"`
	TagsAdded        []string          `json:"tagsAdded,omitempty"`
	TaskChanges      map[string]string `json:"taskChanges,omitempty"`
}

type ThoughtSnapshot struct {
	Text      string   `json:"text"`
	Tags      []string `json:"tags"`
	Intensity *int     `json:"intensity,omitempty"`
}

type CreatedEntityIds struct {
	Tasks    []uuid.UUID `json:"tasks,omitempty"`
	Projects []uuid.UUID `json:"projects,omitempty"`
	Goals    []uuid.UUID `json:"goals,omitempty"`
	Moods    []uuid.UUID `json:"moods,omitempty"`
}
