package bootstrap

import (
	"context"
	"log"

	"lifeflow-be/internal/config"
	"lifeflow-be/internal/controller"
	"lifeflow-be/internal/pkg/activitylog"
	"lifeflow-be/internal/pkg/logger"
	"lifeflow-be/internal/repository/unitofwork"
	"lifeflow-be/internal/service"
	"lifeflow-be/pkg/gateway/factory"
	pktNats "lifeflow-be/pkg/nats"
	"lifeflow-be/pkg/pipeline/contextbuilder"
	"lifeflow-be/pkg/pipeline/daemon"
	"lifeflow-be/pkg/pipeline/executor"
	"lifeflow-be/pkg/tools"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ThoughtController  controller.IThoughtController
	QueueController    controller.IQueueController
	SettingsController controller.ISettingsController
	TaskController     controller.ITaskController
	DaemonController   controller.IDaemonController

	// Background loop, started from main.go.
	Daemon *daemon.Daemon

	NatsPublisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// In-process event bus for settings change notifications
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	activity := activitylog.New(rdb)

	// Gateway provider
	provider, err := factory.NewProvider(
		cfg.Ai.Provider,
		cfg.Ai.GatewayBaseURL,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaModel,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize gateway provider: %v", err)
	}
	log.Printf("[INFO] Using gateway provider: %s", cfg.Ai.Provider)

	toolRegistry := tools.NewRegistry()

	// Executor with an observability hook so every attempt lands in the
	// activity log.
	exec := executor.New()
	exec.RegisterHook(func(ctx context.Context, attempt executor.Attempt) {
		entry := activitylog.Entry{
			Kind:     "attempt",
			QueueId:  attempt.QueueItemId.String(),
			ActionId: attempt.ActionId.String(),
			Message:  string(attempt.ActionType),
			At:       attempt.At,
		}
		if attempt.Err != nil {
			entry.Kind = "failure"
			entry.Message = attempt.Err.Error()
			sysLogger.Warn("ActionExecutor", "Action execution failed", map[string]interface{}{
				"queue_item_id": entry.QueueId,
				"action_id":     entry.ActionId,
				"action_type":   string(attempt.ActionType),
				"error":         attempt.Err.Error(),
			})
		} else {
			sysLogger.Info("ActionExecutor", "Action executed", map[string]interface{}{
				"queue_item_id": entry.QueueId,
				"action_id":     entry.ActionId,
				"action_type":   string(attempt.ActionType),
			})
		}
		activity.Record(ctx, entry)
	})

	// Services
	thoughtService := service.NewThoughtService(uowFactory)
	queueService := service.NewQueueService(uowFactory, exec, natsPub, activity, sysLogger)
	settingsService := service.NewSettingsService(uowFactory, pubSub, cfg.Keys.SettingsTopic)
	taskService := service.NewTaskService(uowFactory)

	contextBuilder := contextbuilder.NewBuilder(uowFactory)

	// Processing daemon
	d := daemon.New(cfg.Daemon, daemon.Deps{
		Queue:     queueService,
		Thoughts:  thoughtService,
		Settings:  settingsService,
		Contexts:  contextBuilder,
		Tools:     toolRegistry,
		Provider:  provider,
		Notifier:  pubSub,
		TopicName: cfg.Keys.SettingsTopic,
		Publisher: natsPub,
		Activity:  activity,
		Logger:    sysLogger,
	})

	return &Container{
		ThoughtController:  controller.NewThoughtController(thoughtService),
		QueueController:    controller.NewQueueController(queueService),
		SettingsController: controller.NewSettingsController(settingsService),
		TaskController:     controller.NewTaskController(taskService),
		DaemonController:   controller.NewDaemonController(d, activity),
		Daemon:             d,
		NatsPublisher:      natsPub,
	}
}
