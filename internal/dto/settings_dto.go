package dto

import "github.com/google/uuid"

// SettingsChangedMessage is the pub/sub notification emitted after a
// settings update so subscribers re-read the persisted row.
type SettingsChangedMessage struct {
	UserId uuid.UUID `json:"user_id"`
}

type ShowSettingsResponse struct {
	ThoughtProcessingEnabled bool   `json:"thought_processing_enabled"`
	ProcessingMode           string `json:"processing_mode"`
	GatewayApiKeySet         bool   `json:"gateway_api_key_set"`
}

type UpdateSettingsRequest struct {
	ThoughtProcessingEnabled *bool   `json:"thought_processing_enabled"`
	ProcessingMode           *string `json:"processing_mode" validate:"omitempty,oneof=auto manual"`
	GatewayApiKey            *string `json:"gateway_api_key"`
}
