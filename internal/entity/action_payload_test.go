package entity

import (
	"testing"

	"github.com/google/uuid"
)

func TestDecodeActionPayload(t *testing.T) {
	taskId := uuid.New()

	tests := []struct {
		name       string
		actionType ActionType
		raw        string
		check      func(t *testing.T, payload ActionPayload)
		wantErr    bool
	}{
		{
			name:       "add tag",
			actionType: ActionAddTag,
			raw:        `{"tag":"garden"}`,
			check: func(t *testing.T, payload ActionPayload) {
				p, ok := payload.(*AddTagPayload)
				if !ok || p.Tag != "garden" {
					t.Errorf("payload = %#v", payload)
				}
			},
		},
		{
			name:       "create task with project link",
			actionType: ActionCreateTask,
			raw:        `{"title":"Buy seeds","priority":"low","projectId":"` + taskId.String() + `"}`,
			check: func(t *testing.T, payload ActionPayload) {
				p, ok := payload.(*CreateTaskPayload)
				if !ok || p.Title != "Buy seeds" || p.ProjectId == nil || *p.ProjectId != taskId {
					t.Errorf("payload = %#v", payload)
				}
			},
		},
		{
			name:       "enhance thought",
			actionType: ActionEnhanceThought,
			raw:        `{"improvedText":"Clearer text.","changes":["grammar"]}`,
			check: func(t *testing.T, payload ActionPayload) {
				p, ok := payload.(*EnhanceThoughtPayload)
				if !ok || p.ImprovedText != "Clearer text." || len(p.Changes) != 1 {
					t.Errorf("payload = %#v", payload)
				}
			},
		},
		{
			name:       "empty payload decodes to zero value",
			actionType: ActionCreateMood,
			raw:        "",
			check: func(t *testing.T, payload ActionPayload) {
				if _, ok := payload.(*CreateMoodPayload); !ok {
					t.Errorf("payload = %#v", payload)
				}
			},
		},
		{
			name:       "unknown action type",
			actionType: ActionType("teleport"),
			raw:        `{}`,
			wantErr:    true,
		},
		{
			name:       "malformed json",
			actionType: ActionAddTag,
			raw:        `{"tag":`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := DecodeActionPayload(tt.actionType, []byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if payload.ActionType() != tt.actionType {
				t.Errorf("ActionType() = %s, want %s", payload.ActionType(), tt.actionType)
			}
			tt.check(t, payload)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	projectId := uuid.New()
	original := &LinkToProjectPayload{TaskId: uuid.New(), ProjectId: projectId}

	data, err := EncodeActionPayload(original)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeActionPayload(ActionLinkToProject, data)
	if err != nil {
		t.Fatal(err)
	}

	p, ok := decoded.(*LinkToProjectPayload)
	if !ok {
		t.Fatalf("decoded = %#v", decoded)
	}
	if p.TaskId != original.TaskId || p.ProjectId != original.ProjectId {
		t.Errorf("round trip changed the payload: %#v", p)
	}
}

func TestQueueItemApprovalBookkeeping(t *testing.T) {
	approved := &ProposedAction{Id: uuid.New(), Status: ActionStatusApproved}
	executed := &ProposedAction{Id: uuid.New(), Status: ActionStatusExecuted}
	rejected := &ProposedAction{Id: uuid.New(), Status: ActionStatusRejected}
	item := &QueueItem{Actions: []*ProposedAction{approved, executed, rejected}}

	if item.AllApprovedExecuted() {
		t.Error("AllApprovedExecuted true while an approved action is pending execution")
	}

	approved.Status = ActionStatusExecuted
	if !item.AllApprovedExecuted() {
		t.Error("AllApprovedExecuted false after every approved action executed")
	}

	if got := item.ExecutedActionIds(); len(got) != 2 {
		t.Errorf("ExecutedActionIds = %d ids, want 2", len(got))
	}
	if item.FindAction(rejected.Id) != rejected {
		t.Error("FindAction did not return the rejected action")
	}
	if item.FindAction(uuid.New()) != nil {
		t.Error("FindAction returned something for an unknown id")
	}
}
