package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lifeflow-be/pkg/gateway"
)

// Client talks to the hosted completion endpoint at POST /process-thought.
type Client struct {
	BaseURL string
	Client  *http.Client
}

var _ gateway.Provider = &Client{}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		// No request timeout. A hung Gateway call stalls the daemon's
		// in-flight guard until the process restarts; adding a timeout here
		// would change that observable behavior.
		Client: &http.Client{},
	}
}

func (c *Client) ProcessThought(ctx context.Context, reqBody *gateway.ProcessRequest) (*gateway.ProcessResponse, json.RawMessage, error) {
	payloadBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.BaseURL + "/process-thought"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("gateway error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var envelope gateway.ProcessResponse
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return nil, nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &envelope, json.RawMessage(bodyBytes), nil
}
