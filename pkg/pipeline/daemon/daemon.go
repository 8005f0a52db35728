package daemon

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"lifeflow-be/internal/config"
	"lifeflow-be/internal/dto"
	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/pkg/activitylog"
	"lifeflow-be/internal/pkg/logger"
	"lifeflow-be/pkg/events"
	"lifeflow-be/pkg/gateway"
	"lifeflow-be/pkg/pipeline/selector"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const logModule = "ThoughtDaemon"

// QueueStore is the slice of the queue service the daemon drives.
type QueueStore interface {
	AddToQueue(ctx context.Context, thoughtId uuid.UUID, mode entity.QueueMode) (uuid.UUID, error)
	UpdateQueueItem(ctx context.Context, id uuid.UUID, update *dto.QueueItemUpdate) error
	AddAction(ctx context.Context, queueId uuid.UUID, action *dto.NewActionData) (uuid.UUID, error)
	ListQueue(ctx context.Context) ([]*entity.QueueItem, error)
	DeleteQueueItem(ctx context.Context, id uuid.UUID) error
}

// ThoughtSource lists every thought in creation order.
type ThoughtSource interface {
	ListAll(ctx context.Context) ([]*entity.Thought, error)
}

// SettingsSource reads the persisted per-user settings.
type SettingsSource interface {
	Current(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error)
}

// ContextSource renders the user's current entity state for the model.
type ContextSource interface {
	Build(ctx context.Context, userId uuid.UUID) (string, error)
}

// ToolSource lists the tool descriptions sent with each request.
type ToolSource interface {
	Descriptors() []gateway.ToolDescription
}

// EventPublisher fans pipeline events out to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// SettingsNotifier delivers settings-change notifications. Satisfied by
// *gochannel.GoChannel.
type SettingsNotifier interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Daemon is the background loop that picks one unprocessed thought per tick,
// submits it to the gateway and records the proposed actions on the queue.
// At most one tick body runs at a time; a tick that fires while the previous
// one is still in flight is skipped.
type Daemon struct {
	cfg       config.DaemonConfig
	queue     QueueStore
	thoughts  ThoughtSource
	settings  SettingsSource
	contexts  ContextSource
	tools     ToolSource
	provider  gateway.Provider
	notifier  SettingsNotifier
	topicName string
	publisher EventPublisher
	activity  *activitylog.Log
	log       logger.ILogger

	mu       sync.Mutex
	inFlight bool
	lastRun  *time.Time

	cacheMu       sync.Mutex
	settingsCache map[uuid.UUID]*entity.UserSettings

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Deps struct {
	Queue     QueueStore
	Thoughts  ThoughtSource
	Settings  SettingsSource
	Contexts  ContextSource
	Tools     ToolSource
	Provider  gateway.Provider
	Notifier  SettingsNotifier
	TopicName string
	Publisher EventPublisher
	Activity  *activitylog.Log
	Logger    logger.ILogger
}

func New(cfg config.DaemonConfig, deps Deps) *Daemon {
	return &Daemon{
		cfg:           cfg,
		queue:         deps.Queue,
		thoughts:      deps.Thoughts,
		settings:      deps.Settings,
		contexts:      deps.Contexts,
		tools:         deps.Tools,
		provider:      deps.Provider,
		notifier:      deps.Notifier,
		topicName:     deps.TopicName,
		publisher:     deps.Publisher,
		activity:      deps.Activity,
		log:           deps.Logger,
		settingsCache: make(map[uuid.UUID]*entity.UserSettings),
	}
}

// Start launches the loop. The first tick fires after the initial delay,
// subsequent ticks at the configured interval.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	d.mu.Lock()
	d.running = true
	d.mu.Unlock()

	if d.notifier != nil {
		if err := d.watchSettings(ctx); err != nil {
			cancel()
			return err
		}
	}

	go d.run(ctx)
	d.log.Info(logModule, "Daemon started", map[string]interface{}{
		"interval":      d.cfg.Interval.String(),
		"initial_delay": d.cfg.InitialDelay.String(),
	})
	return nil
}

// Stop halts the loop. An in-flight tick finishes first.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
		<-d.done
	}
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
}

func (d *Daemon) run(ctx context.Context) {
	defer close(d.done)

	initial := time.NewTimer(d.cfg.InitialDelay)
	select {
	case <-ctx.Done():
		initial.Stop()
		return
	case <-initial.C:
	}
	d.Tick(ctx)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// watchSettings invalidates the settings cache whenever a change
// notification arrives, so the next tick re-reads the persisted row.
func (d *Daemon) watchSettings(ctx context.Context) error {
	messages, err := d.notifier.Subscribe(ctx, d.topicName)
	if err != nil {
		return err
	}
	go func() {
		for msg := range messages {
			var payload dto.SettingsChangedMessage
			if err := json.Unmarshal(msg.Payload, &payload); err == nil {
				d.cacheMu.Lock()
				delete(d.settingsCache, payload.UserId)
				d.cacheMu.Unlock()
				d.log.Debug(logModule, "Settings cache invalidated", map[string]interface{}{
					"user_id": payload.UserId,
				})
			}
			msg.Ack()
		}
	}()
	return nil
}

// Tick runs one pass of the loop. If a previous pass is still in flight the
// call returns immediately.
func (d *Daemon) Tick(ctx context.Context) {
	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()
		d.log.Debug(logModule, "Tick skipped, previous pass still running", nil)
		return
	}
	d.inFlight = true
	d.mu.Unlock()

	defer func() {
		now := time.Now()
		d.mu.Lock()
		d.inFlight = false
		d.lastRun = &now
		d.mu.Unlock()
	}()

	if err := d.processNext(ctx); err != nil {
		d.log.Error(logModule, "Tick failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Status reports the loop state for the status endpoint.
func (d *Daemon) Status() dto.DaemonStatusResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	return dto.DaemonStatusResponse{
		Enabled:  d.running,
		InFlight: d.inFlight,
		LastRun:  d.lastRun,
		Interval: d.cfg.Interval.String(),
	}
}

func (d *Daemon) settingsFor(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error) {
	d.cacheMu.Lock()
	cached, ok := d.settingsCache[userId]
	d.cacheMu.Unlock()
	if ok {
		return cached, nil
	}

	settings, err := d.settings.Current(ctx, userId)
	if err != nil {
		return nil, err
	}
	d.cacheMu.Lock()
	d.settingsCache[userId] = settings
	d.cacheMu.Unlock()
	return settings, nil
}

// processNext picks the oldest unprocessed, unqueued thought whose owner is
// eligible and runs it through the gateway. Thoughts of users with processing
// disabled or no key are passed over so they never block other users; at most
// one thought is processed per tick.
func (d *Daemon) processNext(ctx context.Context) error {
	thoughts, err := d.thoughts.ListAll(ctx)
	if err != nil {
		return err
	}
	queue, err := d.queue.ListQueue(ctx)
	if err != nil {
		return err
	}

	for _, thought := range selector.Candidates(thoughts, queue) {
		settings, err := d.settingsFor(ctx, thought.UserId)
		if err != nil {
			return err
		}
		if !settings.ThoughtProcessingEnabled {
			d.log.Debug(logModule, "Processing disabled, skipping thought", map[string]interface{}{
				"user_id":    thought.UserId,
				"thought_id": thought.Id,
			})
			continue
		}
		if settings.GatewayApiKey == "" {
			// No key configured yet. Not an error, the thought stays a
			// candidate for when one is set.
			d.log.Debug(logModule, "No gateway key configured, skipping thought", map[string]interface{}{
				"user_id":    thought.UserId,
				"thought_id": thought.Id,
			})
			continue
		}
		return d.process(ctx, thought, settings)
	}
	return nil
}

func (d *Daemon) process(ctx context.Context, thought *entity.Thought, settings *entity.UserSettings) error {
	queueId, err := d.queue.AddToQueue(ctx, thought.Id, settings.ProcessingMode)
	if err != nil {
		return err
	}

	d.log.Info(logModule, "Processing thought", map[string]interface{}{
		"thought_id": thought.Id,
		"queue_id":   queueId,
	})
	d.recordActivity(ctx, activitylog.Entry{
		Kind:      "attempt",
		ThoughtId: thought.Id.String(),
		QueueId:   queueId.String(),
	})

	processing := entity.QueueStatusProcessing
	if err := d.queue.UpdateQueueItem(ctx, queueId, &dto.QueueItemUpdate{Status: &processing}); err != nil {
		return err
	}

	entityContext, err := d.contexts.Build(ctx, thought.UserId)
	if err != nil {
		return d.markFailed(ctx, thought, queueId, err.Error())
	}

	req := &gateway.ProcessRequest{
		Thought: gateway.ThoughtPayload{
			Id:        thought.Id.String(),
			Text:      thought.Text,
			Tags:      thought.Tags,
			CreatedAt: thought.CreatedAt,
		},
		ApiKey:           settings.GatewayApiKey,
		ToolDescriptions: d.tools.Descriptors(),
		Context:          entityContext,
	}

	resp, raw, err := d.provider.ProcessThought(ctx, req)
	if err != nil {
		// Transport and decode failures store their message best-effort,
		// falling back to the generic one.
		d.log.Error(logModule, "Gateway call failed", map[string]interface{}{
			"thought_id": thought.Id,
			"error":      err.Error(),
		})
		reason := err.Error()
		if reason == "" {
			reason = "Unknown error"
		}
		return d.markFailed(ctx, thought, queueId, reason)
	}
	if resp.Error != "" {
		return d.markFailed(ctx, thought, queueId, resp.Error)
	}
	if resp.Result == nil {
		return d.markFailed(ctx, thought, queueId, "Unknown error")
	}

	if err := d.appendActions(ctx, queueId, resp.Result); err != nil {
		return d.markFailed(ctx, thought, queueId, err.Error())
	}

	awaiting := entity.QueueStatusAwaitingApproval
	if err := d.queue.UpdateQueueItem(ctx, queueId, &dto.QueueItemUpdate{
		Status:     &awaiting,
		AiResponse: json.RawMessage(raw),
	}); err != nil {
		return err
	}

	d.publishEvent(ctx, events.EventThoughtQueued, map[string]interface{}{
		"thought_id": thought.Id,
		"queue_id":   queueId,
	})
	return nil
}

// appendActions turns the gateway result into proposed actions. A thought
// enhancement, when suggested, is always the first action so the user sees
// the rewrite before the mutations derived from it.
func (d *Daemon) appendActions(ctx context.Context, queueId uuid.UUID, result *gateway.ProcessResult) error {
	if enh := result.ThoughtEnhancement; enh != nil && enh.ShouldApply {
		_, err := d.queue.AddAction(ctx, queueId, &dto.NewActionData{
			Type: entity.ActionEnhanceThought,
			Payload: &entity.EnhanceThoughtPayload{
				ImprovedText: enh.ImprovedText,
				Changes:      enh.Changes,
			},
		})
		if err != nil {
			return err
		}
	}

	for _, action := range result.Actions {
		payload, err := entity.DecodeActionPayload(entity.ActionType(action.Type), action.Data)
		if err != nil {
			// One malformed action never poisons the rest of the batch.
			d.log.Warn(logModule, "Dropping undecodable action", map[string]interface{}{
				"queue_id": queueId,
				"type":     action.Type,
				"error":    err.Error(),
			})
			continue
		}
		_, err = d.queue.AddAction(ctx, queueId, &dto.NewActionData{
			Type:      entity.ActionType(action.Type),
			Tool:      action.Tool,
			Payload:   payload,
			Reasoning: action.Reasoning,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// markFailed parks the queue item in the failed state. The thought is left
// untagged so deleting the item makes it a candidate again.
func (d *Daemon) markFailed(ctx context.Context, thought *entity.Thought, queueId uuid.UUID, reason string) error {
	failed := entity.QueueStatusFailed
	if err := d.queue.UpdateQueueItem(ctx, queueId, &dto.QueueItemUpdate{
		Status: &failed,
		Error:  &reason,
	}); err != nil {
		return err
	}
	d.recordActivity(ctx, activitylog.Entry{
		Kind:      "failure",
		ThoughtId: thought.Id.String(),
		QueueId:   queueId.String(),
		Message:   reason,
	})
	d.publishEvent(ctx, events.EventThoughtProcessingFailed, map[string]interface{}{
		"thought_id": thought.Id,
		"queue_id":   queueId,
		"error":      reason,
	})
	return nil
}

func (d *Daemon) recordActivity(ctx context.Context, entry activitylog.Entry) {
	if d.activity != nil {
		d.activity.Record(ctx, entry)
	}
}

func (d *Daemon) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if d.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := d.publisher.Publish(ctx, evt); err != nil {
		d.log.Warn(logModule, "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
