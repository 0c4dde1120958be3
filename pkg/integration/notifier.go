package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// LogNotifier writes notifications to the log. It is the default delivery
// path for development and tests.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	n.logger.InfoContext(ctx, "Delivering notification",
		"recipient", notification.Recipient,
		"channel_id", notification.ChannelID,
		"type", notification.Type,
		"message", notification.Message)

	return nil
}

const notificationQueueKey = "collabot:notifications"

// RedisNotifier pushes notifications onto a Redis list consumed by the chat
// gateway.
type RedisNotifier struct {
	client goredis.UniversalClient
}

func NewRedisNotifier(client goredis.UniversalClient) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, notification Notification) error {
	if notification.SentAt.IsZero() {
		notification.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	if err := n.client.LPush(ctx, notificationQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	return nil
}
