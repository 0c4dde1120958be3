// Package reminder manages scheduled reminders and their delivery.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agarg/collabot/pkg/eventbus"
	"github.com/agarg/collabot/pkg/events"
	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
)

type Service struct {
	logger    *slog.Logger
	reminders persistence.ReminderRepository
	notifier  integration.Notifier
	publisher eventbus.EventPublisher
}

func NewService(
	logger *slog.Logger,
	reminders persistence.ReminderRepository,
	notifier integration.Notifier,
	publisher eventbus.EventPublisher,
) *Service {
	return &Service{
		logger:    logger.With("module", "reminder"),
		reminders: reminders,
		notifier:  notifier,
		publisher: publisher,
	}
}

func (s *Service) Create(ctx context.Context, owner, channelID, title, description string, remindAt time.Time) (*models.Reminder, error) {
	if owner == "" {
		return nil, fmt.Errorf("reminder owner is required")
	}

	if title == "" {
		return nil, fmt.Errorf("reminder title is required")
	}

	reminder := &models.Reminder{
		ID:          uuid.New().String(),
		Owner:       owner,
		ChannelID:   channelID,
		Title:       title,
		Description: description,
		RemindAt:    remindAt,
		CreatedAt:   time.Now().UTC(),
		Active:      true,
	}

	if err := s.reminders.SaveReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}

	s.logger.InfoContext(ctx, "Created reminder",
		"reminder_id", reminder.ID, "owner", owner, "remind_at", remindAt)

	return reminder, nil
}

// Cancel deactivates a reminder. Cancelling a reminder that already fired
// has no effect on its triggered state.
func (s *Service) Cancel(ctx context.Context, id string) (*models.Reminder, error) {
	return s.reminders.UpdateReminder(ctx, id, func(reminder *models.Reminder) error {
		reminder.Active = false

		return nil
	})
}

func (s *Service) Get(ctx context.Context, id string) (*models.Reminder, error) {
	return s.reminders.ReminderByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, owner string) ([]*models.Reminder, error) {
	return s.reminders.RemindersByOwner(ctx, owner)
}

// ListTriggered returns the owner's reminders that have already fired.
func (s *Service) ListTriggered(ctx context.Context, owner string) ([]*models.Reminder, error) {
	all, err := s.reminders.RemindersByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	triggered := make([]*models.Reminder, 0)

	for _, reminder := range all {
		if reminder.Triggered {
			triggered = append(triggered, reminder)
		}
	}

	return triggered, nil
}

// Scan fires every due reminder exactly once. The triggered flip happens
// atomically in the repository, so a reminder observed as due by two
// concurrent scans is delivered by only one of them.
func (s *Service) Scan(ctx context.Context, now time.Time) error {
	due, err := s.reminders.DueReminders(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due reminders: %w", err)
	}

	for _, candidate := range due {
		fired, err := s.fire(ctx, candidate.ID, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to fire reminder",
				"reminder_id", candidate.ID, "error", err)

			continue
		}

		if fired != nil {
			s.deliver(ctx, fired)
		}
	}

	return nil
}

// fire flips the triggered flag. Returns nil without error when another scan
// already claimed the reminder.
func (s *Service) fire(ctx context.Context, id string, now time.Time) (*models.Reminder, error) {
	claimed := false

	reminder, err := s.reminders.UpdateReminder(ctx, id, func(reminder *models.Reminder) error {
		if reminder.Triggered || !reminder.Active {
			return nil
		}

		triggeredAt := now
		reminder.Triggered = true
		reminder.TriggeredAt = &triggeredAt
		claimed = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !claimed {
		return nil, nil
	}

	return reminder, nil
}

// deliver is best effort. A failed notification does not untrigger the
// reminder.
func (s *Service) deliver(ctx context.Context, reminder *models.Reminder) {
	notification := integration.Notification{
		Recipient: reminder.Owner,
		ChannelID: reminder.ChannelID,
		Type:      "REMINDER",
		Message:   fmt.Sprintf("Reminder: %s. %s", reminder.Title, reminder.Description),
		SentAt:    time.Now().UTC(),
	}

	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.logger.ErrorContext(ctx, "Failed to deliver reminder notification",
			"reminder_id", reminder.ID, "error", err)
	}

	event := events.ReminderTriggered{
		BaseEvent:  events.NewBaseEvent(events.ReminderTriggeredEvent),
		ReminderID: reminder.ID,
		Owner:      reminder.Owner,
		ChannelID:  reminder.ChannelID,
		Title:      reminder.Title,
		RemindAt:   reminder.RemindAt,
	}

	if err := s.publisher.Publish(ctx, reminder.ID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish reminder event",
			"reminder_id", reminder.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "Reminder fired",
		"reminder_id", reminder.ID, "owner", reminder.Owner)
}
