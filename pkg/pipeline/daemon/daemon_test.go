package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lifeflow-be/internal/config"
	"lifeflow-be/internal/dto"
	"lifeflow-be/internal/entity"
	"lifeflow-be/pkg/gateway"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type memQueue struct {
	mu    sync.Mutex
	items []*entity.QueueItem
	adds  int
}

func (q *memQueue) AddToQueue(_ context.Context, thoughtId uuid.UUID, mode entity.QueueMode) (uuid.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.ThoughtId == thoughtId {
			return uuid.Nil, fmt.Errorf("thought %s already queued", thoughtId)
		}
	}
	item := &entity.QueueItem{
		Id:        uuid.New(),
		ThoughtId: thoughtId,
		Mode:      mode,
		Status:    entity.QueueStatusPending,
		CreatedAt: time.Now(),
	}
	q.items = append(q.items, item)
	q.adds++
	return item.Id, nil
}

func (q *memQueue) UpdateQueueItem(_ context.Context, id uuid.UUID, update *dto.QueueItemUpdate) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.find(id)
	if item == nil {
		return fmt.Errorf("queue item %s not found", id)
	}
	if update.Status != nil {
		item.Status = *update.Status
	}
	if update.Error != nil {
		item.Error = *update.Error
	}
	if update.AiResponse != nil {
		item.AiResponse = update.AiResponse
	}
	return nil
}

func (q *memQueue) AddAction(_ context.Context, queueId uuid.UUID, action *dto.NewActionData) (uuid.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.find(queueId)
	if item == nil {
		return uuid.Nil, fmt.Errorf("queue item %s not found", queueId)
	}
	proposed := &entity.ProposedAction{
		Id:          uuid.New(),
		QueueItemId: queueId,
		Type:        action.Type,
		Tool:        action.Tool,
		Payload:     action.Payload,
		Status:      entity.ActionStatusPending,
		Reasoning:   action.Reasoning,
		Position:    len(item.Actions),
	}
	item.Actions = append(item.Actions, proposed)
	return proposed.Id, nil
}

func (q *memQueue) ListQueue(context.Context) ([]*entity.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*entity.QueueItem, len(q.items))
	copy(out, q.items)
	return out, nil
}

func (q *memQueue) DeleteQueueItem(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.Id == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("queue item %s not found", id)
}

func (q *memQueue) find(id uuid.UUID) *entity.QueueItem {
	for _, item := range q.items {
		if item.Id == id {
			return item
		}
	}
	return nil
}

func (q *memQueue) snapshot() []*entity.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*entity.QueueItem, len(q.items))
	copy(out, q.items)
	return out
}

type fakeThoughts struct {
	list []*entity.Thought
}

func (f *fakeThoughts) ListAll(context.Context) ([]*entity.Thought, error) {
	return f.list, nil
}

type fakeSettings struct {
	mu       sync.Mutex
	settings *entity.UserSettings
	byUser   map[uuid.UUID]*entity.UserSettings
	reads    int
}

func (f *fakeSettings) Current(_ context.Context, userId uuid.UUID) (*entity.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if s, ok := f.byUser[userId]; ok {
		return s, nil
	}
	return f.settings, nil
}

type fakeContexts struct{ rendered string }

func (f *fakeContexts) Build(context.Context, uuid.UUID) (string, error) {
	return f.rendered, nil
}

type fakeTools struct{}

func (fakeTools) Descriptors() []gateway.ToolDescription {
	return []gateway.ToolDescription{{Name: "create_task", ActionType: "createTask"}}
}

type fakeProvider struct {
	mu       sync.Mutex
	resp     *gateway.ProcessResponse
	err      error
	block    chan struct{}
	requests []*gateway.ProcessRequest
}

func (f *fakeProvider) ProcessThought(_ context.Context, req *gateway.ProcessRequest) (*gateway.ProcessResponse, json.RawMessage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	raw, _ := json.Marshal(f.resp)
	return f.resp, raw, nil
}

func enabledSettings() *entity.UserSettings {
	return &entity.UserSettings{
		Id:                       uuid.New(),
		UserId:                   uuid.New(),
		ThoughtProcessingEnabled: true,
		ProcessingMode:           entity.QueueModeManual,
		GatewayApiKey:            "gk-test",
	}
}

func newTestDaemon(queue *memQueue, thoughts *fakeThoughts, settings *fakeSettings, provider *fakeProvider) *Daemon {
	return New(
		config.DaemonConfig{Interval: 2 * time.Minute, InitialDelay: 5 * time.Second},
		Deps{
			Queue:    queue,
			Thoughts: thoughts,
			Settings: settings,
			Contexts: &fakeContexts{rendered: "<tasks>\n</tasks>"},
			Tools:    fakeTools{},
			Provider: provider,
			Logger:   nopLogger{},
		},
	)
}

func TestTickQueuesHeadCandidate(t *testing.T) {
	th := &entity.Thought{Id: uuid.New(), Text: "plan the garden", UserId: uuid.New(), CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{
		resp: &gateway.ProcessResponse{
			Result: &gateway.ProcessResult{
				Actions: []gateway.Action{
					{Type: "addTag", Data: json.RawMessage(`{"tag":"garden"}`), Reasoning: "topical tag"},
					{Type: "createTask", Data: json.RawMessage(`{"title":"Buy seeds"}`)},
				},
				ThoughtEnhancement: &gateway.ThoughtEnhancement{
					ShouldApply:  true,
					ImprovedText: "Plan the vegetable garden for spring.",
					Changes:      []string{"clarified scope"},
				},
			},
		},
	}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: enabledSettings()}, provider)

	d.Tick(context.Background())

	items := queue.snapshot()
	if len(items) != 1 {
		t.Fatalf("queue has %d items, want 1", len(items))
	}
	item := items[0]
	if item.Status != entity.QueueStatusAwaitingApproval {
		t.Errorf("status = %s, want awaiting-approval", item.Status)
	}
	if item.ThoughtId != th.Id {
		t.Errorf("thought id = %s, want %s", item.ThoughtId, th.Id)
	}
	if len(item.AiResponse) == 0 {
		t.Error("raw gateway response was not stored")
	}

	wantOrder := []entity.ActionType{entity.ActionEnhanceThought, entity.ActionAddTag, entity.ActionCreateTask}
	if len(item.Actions) != len(wantOrder) {
		t.Fatalf("item has %d actions, want %d", len(item.Actions), len(wantOrder))
	}
	for i, want := range wantOrder {
		if item.Actions[i].Type != want {
			t.Errorf("action[%d] = %s, want %s", i, item.Actions[i].Type, want)
		}
	}

	if len(provider.requests) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.requests))
	}
	req := provider.requests[0]
	if req.ApiKey != "gk-test" {
		t.Errorf("request api key = %q", req.ApiKey)
	}
	if req.Context == "" {
		t.Error("entity context was not attached to the request")
	}
}

func TestTickProcessesOneThoughtOnly(t *testing.T) {
	first := &entity.Thought{Id: uuid.New(), Text: "first", UserId: uuid.New(), CreatedAt: time.Now()}
	second := &entity.Thought{Id: uuid.New(), Text: "second", UserId: first.UserId, CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{resp: &gateway.ProcessResponse{Result: &gateway.ProcessResult{}}}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{first, second}}, &fakeSettings{settings: enabledSettings()}, provider)

	d.Tick(context.Background())

	items := queue.snapshot()
	if len(items) != 1 {
		t.Fatalf("queue has %d items, want 1", len(items))
	}
	if items[0].ThoughtId != first.Id {
		t.Errorf("queued thought = %s, want the oldest candidate %s", items[0].ThoughtId, first.Id)
	}
}

func TestTickSkipsWhenDisabled(t *testing.T) {
	settings := enabledSettings()
	settings.ThoughtProcessingEnabled = false
	th := &entity.Thought{Id: uuid.New(), Text: "idle", UserId: settings.UserId, CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{resp: &gateway.ProcessResponse{Result: &gateway.ProcessResult{}}}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: settings}, provider)

	d.Tick(context.Background())

	if len(queue.snapshot()) != 0 {
		t.Error("daemon queued a thought while processing is disabled")
	}
	if len(provider.requests) != 0 {
		t.Error("daemon called the gateway while processing is disabled")
	}
}

func TestTickSkipsSilentlyWithoutApiKey(t *testing.T) {
	settings := enabledSettings()
	settings.GatewayApiKey = ""
	th := &entity.Thought{Id: uuid.New(), Text: "waiting for key", UserId: settings.UserId, CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{resp: &gateway.ProcessResponse{Result: &gateway.ProcessResult{}}}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: settings}, provider)

	d.Tick(context.Background())

	if len(queue.snapshot()) != 0 {
		t.Error("daemon queued a thought without a gateway key")
	}
	if len(provider.requests) != 0 {
		t.Error("daemon called the gateway without a key")
	}
}

func TestTickMarksFailedOnGatewayError(t *testing.T) {
	th := &entity.Thought{Id: uuid.New(), Text: "doomed", UserId: uuid.New(), CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{resp: &gateway.ProcessResponse{Error: "Invalid API key"}}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: enabledSettings()}, provider)

	d.Tick(context.Background())

	items := queue.snapshot()
	if len(items) != 1 {
		t.Fatalf("queue has %d items, want 1", len(items))
	}
	if items[0].Status != entity.QueueStatusFailed {
		t.Errorf("status = %s, want failed", items[0].Status)
	}
	if items[0].Error != "Invalid API key" {
		t.Errorf("error = %q, want the gateway message", items[0].Error)
	}
}

func TestTickStoresTransportFailureMessage(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"message preserved", errors.New("dial tcp: connection refused"), "dial tcp: connection refused"},
		{"blank message falls back", errors.New(""), "Unknown error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			th := &entity.Thought{Id: uuid.New(), Text: "unreachable", UserId: uuid.New(), CreatedAt: time.Now()}
			queue := &memQueue{}
			provider := &fakeProvider{err: tc.err}
			d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: enabledSettings()}, provider)

			d.Tick(context.Background())

			items := queue.snapshot()
			if len(items) != 1 {
				t.Fatalf("queue has %d items, want 1", len(items))
			}
			if items[0].Status != entity.QueueStatusFailed {
				t.Errorf("status = %s, want failed", items[0].Status)
			}
			if items[0].Error != tc.wantMsg {
				t.Errorf("error = %q, want %q", items[0].Error, tc.wantMsg)
			}
		})
	}
}

func TestTickSkipsGatedUsersAndProcessesNextCandidate(t *testing.T) {
	disabled := enabledSettings()
	disabled.ThoughtProcessingEnabled = false
	keyless := enabledSettings()
	keyless.GatewayApiKey = ""
	enabled := enabledSettings()

	// Oldest two candidates belong to gated users; they must not starve the
	// eligible one behind them.
	gatedOld := &entity.Thought{Id: uuid.New(), Text: "stuck", UserId: disabled.UserId, CreatedAt: time.Now()}
	gatedMid := &entity.Thought{Id: uuid.New(), Text: "no key", UserId: keyless.UserId, CreatedAt: time.Now()}
	eligible := &entity.Thought{Id: uuid.New(), Text: "process me", UserId: enabled.UserId, CreatedAt: time.Now()}

	queue := &memQueue{}
	provider := &fakeProvider{resp: &gateway.ProcessResponse{Result: &gateway.ProcessResult{}}}
	settings := &fakeSettings{byUser: map[uuid.UUID]*entity.UserSettings{
		disabled.UserId: disabled,
		keyless.UserId:  keyless,
		enabled.UserId:  enabled,
	}}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{gatedOld, gatedMid, eligible}}, settings, provider)

	d.Tick(context.Background())

	items := queue.snapshot()
	if len(items) != 1 {
		t.Fatalf("queue has %d items, want 1", len(items))
	}
	if items[0].ThoughtId != eligible.Id {
		t.Fatalf("queued thought = %s, want the eligible user's %s", items[0].ThoughtId, eligible.Id)
	}
	if items[0].Status != entity.QueueStatusAwaitingApproval {
		t.Errorf("status = %s, want awaiting-approval", items[0].Status)
	}

	// Gated thoughts stay candidates without ever being queued.
	d.Tick(context.Background())
	if len(queue.snapshot()) != 1 {
		t.Error("a gated user's thought was queued on a later tick")
	}
	if len(provider.requests) != 1 {
		t.Errorf("gateway called %d times, want 1", len(provider.requests))
	}
}

func TestTickSkipsWhilePreviousTickInFlight(t *testing.T) {
	th := &entity.Thought{Id: uuid.New(), Text: "slow", UserId: uuid.New(), CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{
		resp:  &gateway.ProcessResponse{Result: &gateway.ProcessResult{}},
		block: make(chan struct{}),
	}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: enabledSettings()}, provider)

	done := make(chan struct{})
	go func() {
		d.Tick(context.Background())
		close(done)
	}()

	// Wait until the first tick is inside the gateway call.
	deadline := time.After(2 * time.Second)
	for {
		if d.Status().InFlight {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first tick never became in-flight")
		case <-time.After(5 * time.Millisecond):
		}
	}

	d.Tick(context.Background())

	queue.mu.Lock()
	adds := queue.adds
	queue.mu.Unlock()
	if adds != 1 {
		t.Fatalf("overlapping tick ran the pipeline, %d queue adds", adds)
	}

	close(provider.block)
	<-done
	if d.Status().InFlight {
		t.Error("daemon still reports in-flight after the tick finished")
	}
}

func TestEnqueuedThoughtNotReprocessedNextTick(t *testing.T) {
	th := &entity.Thought{Id: uuid.New(), Text: "once only", UserId: uuid.New(), CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{resp: &gateway.ProcessResponse{Error: "model overloaded"}}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: enabledSettings()}, provider)

	d.Tick(context.Background())
	d.Tick(context.Background())

	if len(queue.snapshot()) != 1 {
		t.Fatalf("queue has %d items, want 1", len(queue.snapshot()))
	}
	if len(provider.requests) != 1 {
		t.Errorf("gateway called %d times, want 1 (failed item blocks re-selection)", len(provider.requests))
	}
}

func TestDeletedFailedItemMakesThoughtCandidateAgain(t *testing.T) {
	th := &entity.Thought{Id: uuid.New(), Text: "retry me", UserId: uuid.New(), CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{resp: &gateway.ProcessResponse{Error: "transient"}}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: enabledSettings()}, provider)

	d.Tick(context.Background())
	items := queue.snapshot()
	if len(items) != 1 || items[0].Status != entity.QueueStatusFailed {
		t.Fatalf("expected one failed item, got %+v", items)
	}

	if err := queue.DeleteQueueItem(context.Background(), items[0].Id); err != nil {
		t.Fatal(err)
	}

	provider.resp = &gateway.ProcessResponse{Result: &gateway.ProcessResult{}}
	d.Tick(context.Background())

	items = queue.snapshot()
	if len(items) != 1 {
		t.Fatalf("queue has %d items after retry, want 1", len(items))
	}
	if items[0].Status != entity.QueueStatusAwaitingApproval {
		t.Errorf("retried item status = %s, want awaiting-approval", items[0].Status)
	}
}

func TestTickRecoversAfterFailure(t *testing.T) {
	bad := &entity.Thought{Id: uuid.New(), Text: "bad", UserId: uuid.New(), CreatedAt: time.Now()}
	good := &entity.Thought{Id: uuid.New(), Text: "good", UserId: bad.UserId, CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{resp: &gateway.ProcessResponse{Error: "bad thought"}}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{bad, good}}, &fakeSettings{settings: enabledSettings()}, provider)

	d.Tick(context.Background())

	// The next tick moves on to the second thought; the first failure is
	// contained to its own queue item.
	provider.resp = &gateway.ProcessResponse{Result: &gateway.ProcessResult{}}
	d.Tick(context.Background())

	items := queue.snapshot()
	if len(items) != 2 {
		t.Fatalf("queue has %d items, want 2", len(items))
	}
	byThought := map[uuid.UUID]entity.QueueStatus{}
	for _, item := range items {
		byThought[item.ThoughtId] = item.Status
	}
	if byThought[bad.Id] != entity.QueueStatusFailed {
		t.Errorf("first item status = %s, want failed", byThought[bad.Id])
	}
	if byThought[good.Id] != entity.QueueStatusAwaitingApproval {
		t.Errorf("second item status = %s, want awaiting-approval", byThought[good.Id])
	}
}

func TestTickDropsUndecodableActions(t *testing.T) {
	th := &entity.Thought{Id: uuid.New(), Text: "mixed bag", UserId: uuid.New(), CreatedAt: time.Now()}
	queue := &memQueue{}
	provider := &fakeProvider{
		resp: &gateway.ProcessResponse{
			Result: &gateway.ProcessResult{
				Actions: []gateway.Action{
					{Type: "teleport", Data: json.RawMessage(`{}`)},
					{Type: "addTag", Data: json.RawMessage(`{"tag":"kept"}`)},
				},
			},
		},
	}
	d := newTestDaemon(queue, &fakeThoughts{list: []*entity.Thought{th}}, &fakeSettings{settings: enabledSettings()}, provider)

	d.Tick(context.Background())

	items := queue.snapshot()
	if len(items) != 1 {
		t.Fatalf("queue has %d items, want 1", len(items))
	}
	if items[0].Status != entity.QueueStatusAwaitingApproval {
		t.Fatalf("status = %s, want awaiting-approval", items[0].Status)
	}
	if len(items[0].Actions) != 1 {
		t.Fatalf("item has %d actions, want 1 (unknown type dropped)", len(items[0].Actions))
	}
	if items[0].Actions[0].Type != entity.ActionAddTag {
		t.Errorf("kept action = %s, want addTag", items[0].Actions[0].Type)
	}
}
