package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const ticketRequestTimeout = 30 * time.Second

// JiraConnector creates issues through the Jira REST API v2.
type JiraConnector struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewJiraConnector(baseURL, token string) *JiraConnector {
	return &JiraConnector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: ticketRequestTimeout},
	}
}

func (c *JiraConnector) CreateTicket(ctx context.Context, request TicketRequest) (*TicketRef, error) {
	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]any{"key": request.Project},
			"summary":     request.Title,
			"description": request.Description,
			"issuetype":   map[string]any{"name": "Task"},
		},
	}

	if request.Priority != "" {
		payload["fields"].(map[string]any)["priority"] = map[string]any{"name": request.Priority}
	}

	body, err := postJSON(ctx, c.client, c.baseURL+"/rest/api/2/issue", c.token, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira issue: %w", err)
	}

	var created struct {
		Key  string `json:"key"`
		Self string `json:"self"`
	}

	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode jira response: %w", err)
	}

	return &TicketRef{Key: created.Key, URL: created.Self, System: "JIRA"}, nil
}

// GitHubConnector creates issues through the GitHub REST API. Project is the
// "owner/repo" slug.
type GitHubConnector struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewGitHubConnector(token string) *GitHubConnector {
	return &GitHubConnector{
		baseURL: "https://api.github.com",
		token:   token,
		client:  &http.Client{Timeout: ticketRequestTimeout},
	}
}

func (c *GitHubConnector) CreateTicket(ctx context.Context, request TicketRequest) (*TicketRef, error) {
	payload := map[string]any{
		"title": request.Title,
		"body":  request.Description,
	}

	if request.Assignee != "" {
		payload["assignees"] = []string{request.Assignee}
	}

	url := fmt.Sprintf("%s/repos/%s/issues", c.baseURL, request.Project)

	body, err := postJSON(ctx, c.client, url, c.token, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create github issue: %w", err)
	}

	var created struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}

	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode github response: %w", err)
	}

	return &TicketRef{
		Key:    fmt.Sprintf("%s#%d", request.Project, created.Number),
		URL:    created.HTMLURL,
		System: "GITHUB",
	}, nil
}

// NullTicketConnector returns synthetic ticket refs without an external
// call. It backs development setups with no tracker configured.
type NullTicketConnector struct {
	system  string
	counter atomic.Int64
}

func NewNullTicketConnector(system string) *NullTicketConnector {
	return &NullTicketConnector{system: system}
}

func (c *NullTicketConnector) CreateTicket(_ context.Context, request TicketRequest) (*TicketRef, error) {
	number := c.counter.Add(1)

	project := request.Project
	if project == "" {
		project = "LOCAL"
	}

	return &TicketRef{
		Key:    fmt.Sprintf("%s-%d", project, number),
		System: c.system,
	}, nil
}

func postJSON(ctx context.Context, client *http.Client, url, token string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
