package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookCICDConnector starts pipeline runs by POSTing to a CI server's
// trigger endpoint.
type WebhookCICDConnector struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewWebhookCICDConnector(baseURL, token string) *WebhookCICDConnector {
	return &WebhookCICDConnector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *WebhookCICDConnector) TriggerPipeline(ctx context.Context, request PipelineRequest) (*PipelineRef, error) {
	payload := map[string]any{
		"pipeline":    request.Pipeline,
		"environment": request.Environment,
		"ref":         request.Ref,
		"parameters":  request.Parameters,
	}

	url := fmt.Sprintf("%s/pipelines/%s/trigger", c.baseURL, request.Pipeline)

	body, err := postJSON(ctx, c.client, url, c.token, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to trigger pipeline %s: %w", request.Pipeline, err)
	}

	var started struct {
		RunID string `json:"run_id"`
		URL   string `json:"url"`
	}

	if err := json.Unmarshal(body, &started); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline response: %w", err)
	}

	return &PipelineRef{RunID: started.RunID, URL: started.URL}, nil
}

// NullCICDConnector acknowledges pipeline triggers without an external call.
// It backs development setups that have no CI server configured.
type NullCICDConnector struct{}

func (NullCICDConnector) TriggerPipeline(_ context.Context, request PipelineRequest) (*PipelineRef, error) {
	return &PipelineRef{RunID: "local-" + request.Pipeline}, nil
}
