package factory

import (
	"fmt"

	"lifeflow-be/pkg/gateway"
	"lifeflow-be/pkg/gateway/hosted"
	"lifeflow-be/pkg/gateway/ollama"
)

func NewProvider(providerType, gatewayBaseURL, ollamaBaseURL, ollamaModel string) (gateway.Provider, error) {
	switch providerType {
	case "hosted":
		return hosted.NewClient(gatewayBaseURL), nil
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434" // Default
		}
		return ollama.NewProvider(ollamaBaseURL, ollamaModel), nil
	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", providerType)
	}
}
