package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/persistence"
)

type ReminderRepository struct {
	mu        sync.RWMutex
	reminders map[string]*models.Reminder
}

func NewReminderRepository() *ReminderRepository {
	return &ReminderRepository{
		reminders: make(map[string]*models.Reminder),
	}
}

func (r *ReminderRepository) SaveReminder(_ context.Context, reminder *models.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *reminder
	r.reminders[reminder.ID] = &clone

	return nil
}

func (r *ReminderRepository) ReminderByID(_ context.Context, id string) (*models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reminder, ok := r.reminders[id]
	if !ok {
		return nil, persistence.ErrReminderNotFound
	}

	clone := *reminder

	return &clone, nil
}

func (r *ReminderRepository) RemindersByOwner(_ context.Context, owner string) ([]*models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Reminder, 0)

	for _, reminder := range r.reminders {
		if reminder.Owner == owner {
			clone := *reminder
			result = append(result, &clone)
		}
	}

	return result, nil
}

func (r *ReminderRepository) DueReminders(_ context.Context, now time.Time) ([]*models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Reminder, 0)

	for _, reminder := range r.reminders {
		if reminder.Due(now) {
			clone := *reminder
			result = append(result, &clone)
		}
	}

	return result, nil
}

func (r *ReminderRepository) UpdateReminder(_ context.Context, id string, fn func(*models.Reminder) error) (*models.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reminder, ok := r.reminders[id]
	if !ok {
		return nil, persistence.ErrReminderNotFound
	}

	updated := *reminder
	if err := fn(&updated); err != nil {
		return nil, err
	}

	r.reminders[id] = &updated
	clone := updated

	return &clone, nil
}
