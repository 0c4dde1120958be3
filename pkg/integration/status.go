package integration

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// LogStatusUpdater records status updates in the log.
type LogStatusUpdater struct {
	logger *slog.Logger
}

func NewLogStatusUpdater(logger *slog.Logger) *LogStatusUpdater {
	return &LogStatusUpdater{logger: logger.With("module", "status_updater")}
}

func (u *LogStatusUpdater) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	u.logger.InfoContext(ctx, "Updating status",
		"target", update.Target,
		"entity", update.Entity,
		"status", update.Status,
		"note", update.Note)

	return nil
}

// HTTPStatusUpdater pushes status updates to an external status endpoint.
type HTTPStatusUpdater struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPStatusUpdater(baseURL, token string) *HTTPStatusUpdater {
	return &HTTPStatusUpdater{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *HTTPStatusUpdater) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	payload := map[string]any{
		"entity": update.Entity,
		"status": update.Status,
		"note":   update.Note,
	}

	url := fmt.Sprintf("%s/targets/%s/status", u.baseURL, update.Target)

	if _, err := postJSON(ctx, u.client, url, u.token, payload); err != nil {
		return fmt.Errorf("failed to update status for %s: %w", update.Entity, err)
	}

	return nil
}
