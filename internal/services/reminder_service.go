package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/daily-todo/internal/models"
	"github.com/adanyl0v/daily-todo/internal/storage"
)

type reminderServiceImpl struct {
	logger   zerolog.Logger
	backend  storage.Backend
	tasks    TaskFinder
	notifier Notifier
	key      string
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	reminders []models.Reminder
	lastID    int64
}

func NewReminderService(
	logger zerolog.Logger,
	backend storage.Backend,
	tasks TaskFinder,
	notifier Notifier,
	key string,
	interval time.Duration,
	now func() time.Time,
) ReminderService {
	if now == nil {
		now = time.Now
	}
	if key == "" {
		key = "dailyReminders"
	}
	return &reminderServiceImpl{
		logger:    logger,
		backend:   backend,
		tasks:     tasks,
		notifier:  notifier,
		key:       key,
		interval:  interval,
		now:       now,
		reminders: []models.Reminder{},
	}
}

func (s *reminderServiceImpl) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reminders = []models.Reminder{}
	s.lastID = 0

	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.Warn().
				Err(err).
				Str("key", s.key).
				Msg("failed to read reminders, starting empty")
		}
		return
	}

	var stored []models.Reminder
	err = json.Unmarshal(data, &stored)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("key", s.key).
			Msg("malformed reminders, starting empty")
		return
	}

	for _, r := range stored {
		s.lastID = max(s.lastID, r.ID)
	}
	s.reminders = slices.DeleteFunc(stored, func(r models.Reminder) bool {
		_, found := s.tasks.Find(r.TaskID)
		return !found
	})
	if orphans := len(stored) - len(s.reminders); orphans > 0 {
		s.logger.Warn().
			Int("count", orphans).
			Msg("dropped reminders of missing tasks")
	}
	s.logger.Info().
		Int("count", len(s.reminders)).
		Msg("loaded reminders")
}

func (s *reminderServiceImpl) Create(ctx context.Context, taskID int64, remindAt string) (*models.Reminder, error) {
	at, ok := normalizeDateTime(remindAt)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReminderTime, remindAt)
	}
	normalized := at.UTC().Format(time.RFC3339)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Checked under the lock so a task deleted concurrently is either seen
	// as missing here or swept by its DeleteForTask.
	if _, found := s.tasks.Find(taskID); !found {
		return nil, ErrTaskNotFound
	}

	for _, r := range s.reminders {
		if r.TaskID == taskID && r.RemindAt == normalized {
			return nil, ErrReminderExists
		}
	}

	prev := slices.Clone(s.reminders)
	s.lastID++
	reminder := models.Reminder{
		ID:        s.lastID,
		TaskID:    taskID,
		RemindAt:  normalized,
		CreatedAt: s.now().UTC(),
	}
	s.reminders = append(s.reminders, reminder)

	err := s.commitLocked(ctx, prev)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("reminder_id", reminder.ID).
		Int64("task_id", taskID).
		Str("remind_at", normalized).
		Msg("created reminder")
	return &reminder, nil
}

func (s *reminderServiceImpl) ListForTask(taskID int64) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reminder, 0)
	for _, r := range s.reminders {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Reminder) int {
		return strings.Compare(a.RemindAt, b.RemindAt)
	})
	return out
}

func (s *reminderServiceImpl) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.reminders, func(r models.Reminder) bool {
		return r.ID == id
	})
	if i < 0 {
		return ErrReminderNotFound
	}

	prev := slices.Clone(s.reminders)
	s.reminders = slices.Delete(s.reminders, i, i+1)

	err := s.commitLocked(ctx, prev)
	if err != nil {
		return err
	}
	s.logger.Info().
		Int64("reminder_id", id).
		Msg("deleted reminder")
	return nil
}

func (s *reminderServiceImpl) DeleteForTask(ctx context.Context, taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := slices.Clone(s.reminders)
	s.reminders = slices.DeleteFunc(s.reminders, func(r models.Reminder) bool {
		return r.TaskID == taskID
	})
	removed := len(prev) - len(s.reminders)
	if removed == 0 {
		return nil
	}

	err := s.commitLocked(ctx, prev)
	if err != nil {
		return err
	}
	s.logger.Info().
		Int64("task_id", taskID).
		Int("count", removed).
		Msg("deleted reminders of task")
	return nil
}

func (s *reminderServiceImpl) CheckAndFire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	prev := slices.Clone(s.reminders)
	changed := false

	var notifyErr error
	for i := range s.reminders {
		r := &s.reminders[i]
		if r.Triggered {
			continue
		}

		task, ok := s.tasks.Find(r.TaskID)
		if !ok {
			continue
		}

		at, ok := normalizeDateTime(r.RemindAt)
		if !ok {
			s.logger.Warn().
				Int64("reminder_id", r.ID).
				Str("remind_at", r.RemindAt).
				Msg("dropping reminder with unreadable time")
			r.Triggered = true
			changed = true
			continue
		}
		if at.After(now) {
			continue
		}

		late := s.interval > 0 && now.Sub(at) > s.interval
		notifyErr = s.notifier.Notify(ctx, task.Title, reminderBody(task, late))
		if notifyErr != nil {
			s.logger.Error().
				Err(notifyErr).
				Int64("reminder_id", r.ID).
				Msg("failed to send reminder")
			break
		}
		r.Triggered = true
		changed = true
		s.logger.Debug().
			Int64("reminder_id", r.ID).
			Int64("task_id", r.TaskID).
			Bool("late", late).
			Msg("fired reminder")
	}

	if changed {
		err := s.commitLocked(ctx, prev)
		if err != nil {
			return errors.Join(notifyErr, err)
		}
	}
	return notifyErr
}

func (s *reminderServiceImpl) Run(ctx context.Context) {
	s.check(ctx)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("stopped reminder worker")
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *reminderServiceImpl) check(ctx context.Context) {
	err := s.CheckAndFire(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("reminder check failed")
	}
}

func (s *reminderServiceImpl) commitLocked(ctx context.Context, prev []models.Reminder) error {
	data, err := json.Marshal(s.reminders)
	if err == nil {
		err = s.backend.Set(ctx, s.key, data)
	}
	if err != nil {
		s.reminders = prev
		s.logger.Error().
			Err(err).
			Str("key", s.key).
			Msg("failed to persist reminders")
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

func reminderBody(task models.Task, late bool) string {
	var parts []string
	if task.Priority != "" {
		parts = append(parts, "Priority: "+string(task.Priority))
	}
	if len(task.Tags) > 0 {
		parts = append(parts, "Category: "+string(task.Tags[0]))
	}
	if late {
		parts = append(parts, "Late reminder")
	}
	if len(parts) == 0 {
		return "Task reminder"
	}
	return strings.Join(parts, " • ")
}

var localDateTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// normalizeDateTime accepts RFC 3339 or one of the local layouts.
func normalizeDateTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, title, body string) error {
	n.logger.Info().
		Str("title", title).
		Str("body", body).
		Msg("reminder")
	return nil
}
