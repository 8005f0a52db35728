package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lifeflow-be/pkg/gateway"
)

// Provider analyses thoughts with a local Ollama model instead of the hosted
// endpoint. It prompts the model for the same action-list JSON the hosted
// Gateway returns, so callers cannot tell the two apart.
type Provider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ gateway.Provider = &Provider{}

func NewProvider(baseURL, modelName string) *Provider {
	return &Provider{
		BaseURL:   baseURL,
		ModelName: modelName,
		// Same no-timeout policy as the hosted client.
		Client: &http.Client{},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

const systemPrompt = `You analyze a user's free-text thought and propose concrete actions.
Respond with JSON only, shaped as:
{"result":{"actions":[{"type":"createTask","tool":"tasks","data":{...},"reasoning":"..."}],"thoughtEnhancement":{"shouldApply":false,"improvedText":"","changes":[]}}}
Valid action types: addTag, createTask, createProject, createGoal, createMood, enhanceTask, linkToProject.
Use only tools from the provided tool list. Propose nothing when the thought is not actionable.`

func (p *Provider) ProcessThought(ctx context.Context, req *gateway.ProcessRequest) (*gateway.ProcessResponse, json.RawMessage, error) {
	var tools strings.Builder
	for _, t := range req.ToolDescriptions {
		fmt.Fprintf(&tools, "- %s (%s): %s\n", t.Name, t.ActionType, t.Description)
	}

	userPrompt := fmt.Sprintf("Tools:\n%s\nContext:\n%s\nThought (tags: %s):\n%s",
		tools.String(), req.Context, strings.Join(req.Thought.Tags, ", "), req.Thought.Text)

	reqPayload := ollamaChatRequest{
		Model: p.ModelName,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
		Format: "json",
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.BaseURL + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return nil, nil, fmt.Errorf("unmarshal response: %w", err)
	}

	content := []byte(chatResp.Message.Content)
	var envelope gateway.ProcessResponse
	if err := json.Unmarshal(content, &envelope); err != nil {
		return nil, nil, fmt.Errorf("unmarshal model output: %w", err)
	}

	// Some models emit the result object without the envelope.
	if envelope.Result == nil && envelope.Error == "" {
		var result gateway.ProcessResult
		if err := json.Unmarshal(content, &result); err == nil && len(result.Actions) > 0 {
			envelope.Result = &result
		}
	}

	return &envelope, json.RawMessage(content), nil
}
