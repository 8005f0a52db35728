package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"lifeflow-be/internal/dto"
	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/contract"
	"lifeflow-be/internal/repository/specification"
	"lifeflow-be/internal/repository/unitofwork"
	"lifeflow-be/pkg/events"
	"lifeflow-be/pkg/pipeline/executor"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// memStore backs a fake unit of work for service tests. One store is shared
// by every unit of work the factory hands out, mimicking a database.
type memStore struct {
	thoughts map[uuid.UUID]*entity.Thought
	items    map[uuid.UUID]*entity.QueueItem
	actions  map[uuid.UUID]*entity.ProposedAction
	tasks    map[uuid.UUID]*entity.Task
	projects map[uuid.UUID]*entity.Project
	goals    map[uuid.UUID]*entity.Goal
	moods    map[uuid.UUID]*entity.Mood
	settings map[uuid.UUID]*entity.UserSettings

	// When positive, the next thought updates fail, counting down.
	thoughtUpdateErrs int
}

func newMemStore() *memStore {
	return &memStore{
		thoughts: map[uuid.UUID]*entity.Thought{},
		items:    map[uuid.UUID]*entity.QueueItem{},
		actions:  map[uuid.UUID]*entity.ProposedAction{},
		tasks:    map[uuid.UUID]*entity.Task{},
		projects: map[uuid.UUID]*entity.Project{},
		goals:    map[uuid.UUID]*entity.Goal{},
		moods:    map[uuid.UUID]*entity.Mood{},
		settings: map[uuid.UUID]*entity.UserSettings{},
	}
}

type memFactory struct{ store *memStore }

func (f memFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &memUow{store: f.store}
}

type memUow struct{ store *memStore }

func (u *memUow) Begin(context.Context) error { return nil }
func (u *memUow) Commit() error               { return nil }
func (u *memUow) Rollback() error             { return nil }

func (u *memUow) ThoughtRepository() contract.ThoughtRepository   { return thoughtRepo{u.store} }
func (u *memUow) QueueItemRepository() contract.QueueItemRepository {
	return queueRepo{u.store}
}
func (u *memUow) ProposedActionRepository() contract.ProposedActionRepository {
	return actionRepo{u.store}
}
func (u *memUow) TaskRepository() contract.TaskRepository       { return taskRepo{u.store} }
func (u *memUow) ProjectRepository() contract.ProjectRepository { return projectRepo{u.store} }
func (u *memUow) GoalRepository() contract.GoalRepository       { return goalRepo{u.store} }
func (u *memUow) MoodRepository() contract.MoodRepository       { return moodRepo{u.store} }
func (u *memUow) SettingsRepository() contract.SettingsRepository {
	return settingsRepo{u.store}
}

func specID(specs []specification.Specification) (uuid.UUID, bool) {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return byID.ID, true
		}
	}
	return uuid.Nil, false
}

func specQueueItemID(specs []specification.Specification) (uuid.UUID, bool) {
	for _, s := range specs {
		if byQueue, ok := s.(specification.ByQueueItemID); ok {
			return byQueue.QueueItemID, true
		}
	}
	return uuid.Nil, false
}

// thoughtRepo hands out copies and stores copies, like a row-mapping ORM,
// so in-memory mutations on a loaded thought are invisible until updated.
type thoughtRepo struct{ s *memStore }

func copyThought(t *entity.Thought) *entity.Thought {
	c := *t
	c.Tags = append([]string{}, t.Tags...)
	return &c
}

func (r thoughtRepo) Create(_ context.Context, t *entity.Thought) error {
	r.s.thoughts[t.Id] = copyThought(t)
	return nil
}
func (r thoughtRepo) Update(_ context.Context, t *entity.Thought) error {
	if r.s.thoughtUpdateErrs > 0 {
		r.s.thoughtUpdateErrs--
		return errors.New("update thought: connection reset")
	}
	r.s.thoughts[t.Id] = copyThought(t)
	return nil
}
func (r thoughtRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.thoughts, id)
	return nil
}
func (r thoughtRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Thought, error) {
	if id, ok := specID(specs); ok {
		if t, ok := r.s.thoughts[id]; ok {
			return copyThought(t), nil
		}
	}
	return nil, nil
}
func (r thoughtRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Thought, error) {
	out := make([]*entity.Thought, 0, len(r.s.thoughts))
	for _, t := range r.s.thoughts {
		out = append(out, t)
	}
	return out, nil
}
func (r thoughtRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(r.s.thoughts)), nil
}

type queueRepo struct{ s *memStore }

func (r queueRepo) Create(_ context.Context, item *entity.QueueItem) error {
	r.s.items[item.Id] = item
	return nil
}
func (r queueRepo) Update(_ context.Context, item *entity.QueueItem) error {
	r.s.items[item.Id] = item
	return nil
}
func (r queueRepo) Delete(_ context.Context, id uuid.UUID) error {
	for actionId, a := range r.s.actions {
		if a.QueueItemId == id {
			delete(r.s.actions, actionId)
		}
	}
	delete(r.s.items, id)
	return nil
}
func (r queueRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.QueueItem, error) {
	if id, ok := specID(specs); ok {
		return r.s.items[id], nil
	}
	return nil, nil
}
func (r queueRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.QueueItem, error) {
	out := make([]*entity.QueueItem, 0, len(r.s.items))
	for _, item := range r.s.items {
		out = append(out, item)
	}
	return out, nil
}
func (r queueRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(r.s.items)), nil
}

type actionRepo struct{ s *memStore }

func (r actionRepo) Create(_ context.Context, a *entity.ProposedAction) error {
	r.s.actions[a.Id] = a
	return nil
}
func (r actionRepo) Update(_ context.Context, a *entity.ProposedAction) error {
	r.s.actions[a.Id] = a
	return nil
}
func (r actionRepo) DeleteByQueueItemId(_ context.Context, queueItemId uuid.UUID) error {
	for id, a := range r.s.actions {
		if a.QueueItemId == queueItemId {
			delete(r.s.actions, id)
		}
	}
	return nil
}
func (r actionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ProposedAction, error) {
	queueId, scoped := specQueueItemID(specs)
	var out []*entity.ProposedAction
	for _, a := range r.s.actions {
		if scoped && a.QueueItemId != queueId {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

type taskRepo struct{ s *memStore }

func (r taskRepo) Create(_ context.Context, t *entity.Task) error {
	r.s.tasks[t.Id] = t
	return nil
}
func (r taskRepo) Update(_ context.Context, t *entity.Task) error {
	r.s.tasks[t.Id] = t
	return nil
}
func (r taskRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.tasks, id)
	return nil
}
func (r taskRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Task, error) {
	if id, ok := specID(specs); ok {
		return r.s.tasks[id], nil
	}
	return nil, nil
}
func (r taskRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Task, error) {
	out := make([]*entity.Task, 0, len(r.s.tasks))
	for _, t := range r.s.tasks {
		out = append(out, t)
	}
	return out, nil
}

type projectRepo struct{ s *memStore }

func (r projectRepo) Create(_ context.Context, p *entity.Project) error {
	r.s.projects[p.Id] = p
	return nil
}
func (r projectRepo) Update(_ context.Context, p *entity.Project) error {
	r.s.projects[p.Id] = p
	return nil
}
func (r projectRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.projects, id)
	return nil
}
func (r projectRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Project, error) {
	if id, ok := specID(specs); ok {
		return r.s.projects[id], nil
	}
	return nil, nil
}
func (r projectRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Project, error) {
	return nil, nil
}

type goalRepo struct{ s *memStore }

func (r goalRepo) Create(_ context.Context, g *entity.Goal) error {
	r.s.goals[g.Id] = g
	return nil
}
func (r goalRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.goals, id)
	return nil
}
func (r goalRepo) FindOne(context.Context, ...specification.Specification) (*entity.Goal, error) {
	return nil, nil
}
func (r goalRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Goal, error) {
	return nil, nil
}

type moodRepo struct{ s *memStore }

func (r moodRepo) Create(_ context.Context, m *entity.Mood) error {
	r.s.moods[m.Id] = m
	return nil
}
func (r moodRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.moods, id)
	return nil
}
func (r moodRepo) FindOne(context.Context, ...specification.Specification) (*entity.Mood, error) {
	return nil, nil
}
func (r moodRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Mood, error) {
	return nil, nil
}

type settingsRepo struct{ s *memStore }

func (r settingsRepo) Upsert(_ context.Context, settings *entity.UserSettings) error {
	r.s.settings[settings.UserId] = settings
	return nil
}
func (r settingsRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.UserSettings, error) {
	for _, s := range specs {
		if owned, ok := s.(specification.OwnedByUser); ok {
			return r.s.settings[owned.UserID], nil
		}
	}
	return nil, nil
}

func newQueueServiceForTest(store *memStore) IQueueService {
	return NewQueueService(memFactory{store: store}, executor.New(), nil, nil, nopLogger{})
}

func seedAwaitingItem(t *testing.T, store *memStore, svc IQueueService) (*entity.Thought, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	th := &entity.Thought{
		Id:     uuid.New(),
		Text:   "plant tomatoes this weekend",
		Tags:   []string{"idea"},
		UserId: uuid.New(),
	}
	store.thoughts[th.Id] = th

	queueId, err := svc.AddToQueue(ctx, th.Id, entity.QueueModeManual)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AddAction(ctx, queueId, &dto.NewActionData{
		Type:    entity.ActionEnhanceThought,
		Payload: &entity.EnhanceThoughtPayload{ImprovedText: "Plant tomato seedlings on Saturday."},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddAction(ctx, queueId, &dto.NewActionData{
		Type:    entity.ActionCreateTask,
		Payload: &entity.CreateTaskPayload{Title: "Buy seedlings"},
	}); err != nil {
		t.Fatal(err)
	}

	awaiting := entity.QueueStatusAwaitingApproval
	if err := svc.UpdateQueueItem(ctx, queueId, &dto.QueueItemUpdate{Status: &awaiting}); err != nil {
		t.Fatal(err)
	}
	return th, queueId
}

func TestExecuteApprovedCompletesItemAndMarksThought(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newQueueServiceForTest(store)
	th, queueId := seedAwaitingItem(t, store, svc)

	item, err := svc.GetQueueItem(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}
	for _, action := range item.Actions {
		if err := svc.ApproveAction(ctx, queueId, action.Id); err != nil {
			t.Fatal(err)
		}
	}

	res, err := svc.ExecuteApproved(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Executed) != 2 || len(res.Failed) != 0 {
		t.Fatalf("executed=%d failed=%d, want 2/0", len(res.Executed), len(res.Failed))
	}
	if res.Status != entity.QueueStatusCompleted {
		t.Errorf("status = %s, want completed", res.Status)
	}

	updated := store.thoughts[th.Id]
	if updated.Text != "Plant tomato seedlings on Saturday." {
		t.Errorf("thought text = %q, enhancement not applied", updated.Text)
	}
	if !updated.HasTag(entity.TagProcessed) {
		t.Error("thought not marked processed after completion")
	}
	if len(store.tasks) != 1 {
		t.Errorf("tasks created = %d, want 1", len(store.tasks))
	}

	stored := store.items[queueId]
	if !stored.Revertible || stored.RevertData == nil {
		t.Fatal("completed item is not revertible")
	}
	if stored.RevertData.OriginalThought.Text != "plant tomatoes this weekend" {
		t.Errorf("snapshot text = %q, want the pre-processing text", stored.RevertData.OriginalThought.Text)
	}
}

func TestExecuteApprovedSkipsPendingAndRejected(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newQueueServiceForTest(store)
	_, queueId := seedAwaitingItem(t, store, svc)

	item, err := svc.GetQueueItem(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}
	// Approve only the enhancement, reject the task creation.
	if err := svc.ApproveAction(ctx, queueId, item.Actions[0].Id); err != nil {
		t.Fatal(err)
	}
	if err := svc.RejectAction(ctx, queueId, item.Actions[1].Id); err != nil {
		t.Fatal(err)
	}

	res, err := svc.ExecuteApproved(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Executed) != 1 {
		t.Fatalf("executed = %d, want 1", len(res.Executed))
	}
	if len(store.tasks) != 0 {
		t.Error("rejected action was executed")
	}
	if res.Status != entity.QueueStatusCompleted {
		t.Errorf("status = %s, rejected actions must not block completion", res.Status)
	}
}

func TestExecuteApprovedRequiresAwaitingApproval(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newQueueServiceForTest(store)

	th := &entity.Thought{Id: uuid.New(), Text: "still processing", UserId: uuid.New()}
	store.thoughts[th.Id] = th
	queueId, err := svc.AddToQueue(ctx, th.Id, entity.QueueModeManual)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ExecuteApproved(ctx, queueId); err == nil {
		t.Error("execution accepted a pending item")
	}
}

func TestApprovalClosedOutsideAwaitingApproval(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newQueueServiceForTest(store)
	_, queueId := seedAwaitingItem(t, store, svc)

	item, err := svc.GetQueueItem(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}
	actionId := item.Actions[0].Id

	failed := entity.QueueStatusFailed
	if err := svc.UpdateQueueItem(ctx, queueId, &dto.QueueItemUpdate{Status: &failed}); err != nil {
		t.Fatal(err)
	}

	if err := svc.ApproveAction(ctx, queueId, actionId); err == nil {
		t.Error("approval accepted on a failed item")
	}
}

func TestRevertRestoresAndDeletesItem(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newQueueServiceForTest(store)
	th, queueId := seedAwaitingItem(t, store, svc)

	item, err := svc.GetQueueItem(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}
	for _, action := range item.Actions {
		if err := svc.ApproveAction(ctx, queueId, action.Id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.ExecuteApproved(ctx, queueId); err != nil {
		t.Fatal(err)
	}

	if err := svc.Revert(ctx, queueId); err != nil {
		t.Fatal(err)
	}

	restored := store.thoughts[th.Id]
	if restored.Text != "plant tomatoes this weekend" {
		t.Errorf("thought text = %q, want the original restored", restored.Text)
	}
	if restored.HasTag(entity.TagProcessed) {
		t.Error("processed tag survived the revert")
	}
	if len(store.tasks) != 0 {
		t.Error("created task survived the revert")
	}
	if _, ok := store.items[queueId]; ok {
		t.Error("queue item still present after revert")
	}
	if len(store.actions) != 0 {
		t.Error("proposed actions still present after revert")
	}
}

func TestFailedActionMutationsDoNotLeakIntoLaterCommits(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newQueueServiceForTest(store)

	th := &entity.Thought{Id: uuid.New(), Text: "tag me", Tags: []string{"idea"}, UserId: uuid.New()}
	store.thoughts[th.Id] = th
	queueId, err := svc.AddToQueue(ctx, th.Id, entity.QueueModeManual)
	if err != nil {
		t.Fatal(err)
	}
	for _, tag := range []string{"first", "second"} {
		if _, err := svc.AddAction(ctx, queueId, &dto.NewActionData{
			Type:    entity.ActionAddTag,
			Payload: &entity.AddTagPayload{Tag: tag},
		}); err != nil {
			t.Fatal(err)
		}
	}
	awaiting := entity.QueueStatusAwaitingApproval
	if err := svc.UpdateQueueItem(ctx, queueId, &dto.QueueItemUpdate{Status: &awaiting}); err != nil {
		t.Fatal(err)
	}
	item, err := svc.GetQueueItem(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}
	for _, action := range item.Actions {
		if err := svc.ApproveAction(ctx, queueId, action.Id); err != nil {
			t.Fatal(err)
		}
	}

	// The first tag write fails and rolls back; the second must commit
	// without dragging the rolled back tag along.
	store.thoughtUpdateErrs = 1
	res, err := svc.ExecuteApproved(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Executed) != 1 || len(res.Failed) != 1 {
		t.Fatalf("executed=%d failed=%d, want 1/1", len(res.Executed), len(res.Failed))
	}
	if res.Status != entity.QueueStatusAwaitingApproval {
		t.Errorf("status = %s, a failed action must keep the item awaiting-approval", res.Status)
	}

	stored := store.thoughts[th.Id]
	if stored.HasTag("first") {
		t.Error("rolled back tag was persisted by a later commit")
	}
	if !stored.HasTag("second") {
		t.Error("successful tag was not persisted")
	}
	if rd := store.items[queueId].RevertData; rd == nil || len(rd.TagsAdded) != 1 || rd.TagsAdded[0] != "second" {
		t.Errorf("revert metadata = %+v, want only the committed tag", store.items[queueId].RevertData)
	}
}

type warnRecorder struct {
	nopLogger
	warns []string
}

func (l *warnRecorder) Warn(_, message string, _ map[string]interface{}) {
	l.warns = append(l.warns, message)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return errors.New("nats: connection closed")
}

func TestPublishFailureIsLoggedNotFatal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rec := &warnRecorder{}
	svc := NewQueueService(memFactory{store: store}, executor.New(), failingPublisher{}, nil, rec)
	_, queueId := seedAwaitingItem(t, store, svc)

	item, err := svc.GetQueueItem(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}
	for _, action := range item.Actions {
		if err := svc.ApproveAction(ctx, queueId, action.Id); err != nil {
			t.Fatal(err)
		}
	}

	res, err := svc.ExecuteApproved(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != entity.QueueStatusCompleted {
		t.Errorf("status = %s, a publish failure must not fail execution", res.Status)
	}
	if len(rec.warns) == 0 {
		t.Error("publish failure was not logged")
	}
}

func TestAddActionAssignsSequentialPositions(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newQueueServiceForTest(store)
	_, queueId := seedAwaitingItem(t, store, svc)

	item, err := svc.GetQueueItem(ctx, queueId)
	if err != nil {
		t.Fatal(err)
	}
	for i, action := range item.Actions {
		if action.Position != i {
			t.Errorf("action[%d].Position = %d", i, action.Position)
		}
	}
	if item.Actions[0].Type != entity.ActionEnhanceThought {
		t.Error("first action is not the enhancement")
	}
}
