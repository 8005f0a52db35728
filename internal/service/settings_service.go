package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"lifeflow-be/internal/dto"
	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"
	"lifeflow-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type ISettingsService interface {
	Show(ctx context.Context, userId uuid.UUID) (*dto.ShowSettingsResponse, error)
	Update(ctx context.Context, userId uuid.UUID, request *dto.UpdateSettingsRequest) (*dto.ShowSettingsResponse, error)

	// Current returns the persisted settings for the daemon, creating the
	// default row on first read.
	Current(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error)
}

type settingsService struct {
	uowFactory unitofwork.RepositoryFactory
	pubSub     *gochannel.GoChannel
	topicName  string
}

func NewSettingsService(
	uowFactory unitofwork.RepositoryFactory,
	pubSub *gochannel.GoChannel,
	topicName string,
) ISettingsService {
	return &settingsService{
		uowFactory: uowFactory,
		pubSub:     pubSub,
		topicName:  topicName,
	}
}

func (s *settingsService) Current(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	settings, err := uow.SettingsRepository().FindOne(ctx, specification.OwnedByUser{UserID: userId})
	if err != nil {
		return nil, err
	}
	if settings == nil {
		// Processing is opt-in: the default row has it disabled.
		settings = &entity.UserSettings{
			Id:                       uuid.New(),
			UserId:                   userId,
			ThoughtProcessingEnabled: false,
			ProcessingMode:           entity.QueueModeManual,
			CreatedAt:                time.Now(),
		}
		if err := uow.SettingsRepository().Upsert(ctx, settings); err != nil {
			return nil, err
		}
	}
	return settings, nil
}

func (s *settingsService) Show(ctx context.Context, userId uuid.UUID) (*dto.ShowSettingsResponse, error) {
	settings, err := s.Current(ctx, userId)
	if err != nil {
		return nil, err
	}
	return toShowSettings(settings), nil
}

func (s *settingsService) Update(ctx context.Context, userId uuid.UUID, request *dto.UpdateSettingsRequest) (*dto.ShowSettingsResponse, error) {
	settings, err := s.Current(ctx, userId)
	if err != nil {
		return nil, err
	}

	if request.ThoughtProcessingEnabled != nil {
		settings.ThoughtProcessingEnabled = *request.ThoughtProcessingEnabled
	}
	if request.ProcessingMode != nil {
		settings.ProcessingMode = entity.QueueMode(*request.ProcessingMode)
	}
	if request.GatewayApiKey != nil {
		settings.GatewayApiKey = *request.GatewayApiKey
	}
	now := time.Now()
	settings.UpdatedAt = &now

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SettingsRepository().Upsert(ctx, settings); err != nil {
		return nil, err
	}

	s.notifyChanged(userId)
	return toShowSettings(settings), nil
}

// notifyChanged tells subscribers (the daemon) that the persisted settings
// changed so they re-read them before the next tick.
func (s *settingsService) notifyChanged(userId uuid.UUID) {
	if s.pubSub == nil {
		return
	}
	payload, err := json.Marshal(dto.SettingsChangedMessage{UserId: userId})
	if err != nil {
		log.Printf("[ERROR] Failed to marshal settings change notification: %v", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		log.Printf("[ERROR] Failed to publish settings change notification: %v", err)
	}
}

func toShowSettings(settings *entity.UserSettings) *dto.ShowSettingsResponse {
	return &dto.ShowSettingsResponse{
		ThoughtProcessingEnabled: settings.ThoughtProcessingEnabled,
		ProcessingMode:           string(settings.ProcessingMode),
		GatewayApiKeySet:         settings.GatewayApiKey != "",
	}
}
