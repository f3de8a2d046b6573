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

	"github.com/adanyl0v/daily-todo/internal/config"
	"github.com/adanyl0v/daily-todo/internal/models"
	"github.com/adanyl0v/daily-todo/internal/storage"
)

type TodoOptions struct {
	StorageKey      string
	Retention       string
	DateLayout      string
	DefaultPriority models.Priority
}

func DefaultTodoOptions() TodoOptions {
	return TodoOptions{
		StorageKey:      "dailyTodos",
		Retention:       config.RetentionMerge,
		DateLayout:      "Mon Jan 02 2006",
		DefaultPriority: models.PriorityMedium,
	}
}

type todoServiceImpl struct {
	logger  zerolog.Logger
	backend storage.Backend
	now     func() time.Time
	opts    TodoOptions

	mu      sync.Mutex
	day     string
	active  []models.Task
	history []models.Task
	lastID  int64
	draft   models.Draft
}

func NewTodoService(
	logger zerolog.Logger,
	backend storage.Backend,
	now func() time.Time,
	opts TodoOptions,
) TodoService {
	if now == nil {
		now = time.Now
	}
	defaults := DefaultTodoOptions()
	if opts.StorageKey == "" {
		opts.StorageKey = defaults.StorageKey
	}
	if opts.Retention == "" {
		opts.Retention = defaults.Retention
	}
	if opts.DateLayout == "" {
		opts.DateLayout = defaults.DateLayout
	}
	if !opts.DefaultPriority.Valid() {
		opts.DefaultPriority = defaults.DefaultPriority
	}

	s := &todoServiceImpl{
		logger:  logger,
		backend: backend,
		now:     now,
		opts:    opts,
		active:  []models.Task{},
	}
	s.day = s.today()
	s.draft = s.emptyDraft()
	return s
}

func (s *todoServiceImpl) Load(ctx context.Context) {
	stored := s.readStored(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID = 0
	for i := range stored {
		stored[i] = stored[i].Clone()
		s.lastID = max(s.lastID, stored[i].ID)
	}

	// Ids duplicated by older clock-based writers get fresh ones.
	seen := make(map[int64]bool, len(stored))
	for i := range stored {
		if seen[stored[i].ID] || stored[i].ID <= 0 {
			old := stored[i].ID
			stored[i].ID = s.nextIDLocked()
			s.logger.Warn().
				Int64("old_id", old).
				Int64("task_id", stored[i].ID).
				Msg("reassigned duplicate task id")
		}
		seen[stored[i].ID] = true
	}

	s.day = s.today()
	s.active, s.history = partitionByDay(stored, s.day)
	s.logger.Info().
		Str("day", s.day).
		Int("active", len(s.active)).
		Int("history", len(s.history)).
		Msg("loaded tasks")
}

func (s *todoServiceImpl) readStored(ctx context.Context) []models.Task {
	data, err := s.backend.Get(ctx, s.opts.StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.Warn().
				Err(err).
				Str("key", s.opts.StorageKey).
				Msg("failed to read tasks, starting empty")
		}
		return nil
	}

	var stored []models.Task
	err = json.Unmarshal(data, &stored)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("key", s.opts.StorageKey).
			Msg("malformed tasks, starting empty")
		return nil
	}
	return stored
}

func (s *todoServiceImpl) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	return cloneTasks(s.active)
}

func (s *todoServiceImpl) All() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	return cloneTasks(append(slices.Clone(s.history), s.active...))
}

func (s *todoServiceImpl) Find(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, list := range [][]models.Task{s.active, s.history} {
		for _, task := range list {
			if task.ID == id {
				return task.Clone(), true
			}
		}
	}
	return models.Task{}, false
}

func (s *todoServiceImpl) Add(ctx context.Context, input TaskInput) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	return s.addLocked(ctx, input)
}

func (s *todoServiceImpl) addLocked(ctx context.Context, input TaskInput) (*models.Task, error) {
	input, err := s.normalizeInput(input)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Msg("rejected new task")
		return nil, err
	}

	prev := cloneTasks(s.active)
	task := models.Task{
		ID:          s.nextIDLocked(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      false,
		Tags:        input.Tags,
		Date:        s.day,
	}
	s.active = append(s.active, task)

	err = s.commitLocked(ctx, prev)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Str("date", task.Date).
		Msg("appended task")

	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("created task")
	created := task.Clone()
	return &created, nil
}

func (s *todoServiceImpl) Edit(ctx context.Context, id int64, input TaskInput) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	return s.editLocked(ctx, id, input)
}

func (s *todoServiceImpl) editLocked(ctx context.Context, id int64, input TaskInput) (*models.Task, error) {
	input, err := s.normalizeInput(input)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Int64("task_id", id).
			Msg("rejected task edit")
		return nil, err
	}

	i := indexOf(s.active, id)
	if i < 0 {
		s.logger.Warn().
			Int64("task_id", id).
			Msg("task to edit not found")
		return nil, nil
	}

	prev := cloneTasks(s.active)
	task := &s.active[i]
	task.Title = input.Title
	task.Description = input.Description
	task.Priority = input.Priority
	task.Tags = input.Tags
	task.Date = s.day

	err = s.commitLocked(ctx, prev)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("task_id", id).
		Msg("updated task")
	updated := s.active[i].Clone()
	return &updated, nil
}

func (s *todoServiceImpl) ToggleStatus(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	i := indexOf(s.active, id)
	if i < 0 {
		s.logger.Warn().
			Int64("task_id", id).
			Msg("task to toggle not found")
		return nil, nil
	}

	prev := cloneTasks(s.active)
	s.active[i].Status = !s.active[i].Status

	err := s.commitLocked(ctx, prev)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("task_id", id).
		Bool("status", s.active[i].Status).
		Msg("toggled task status")
	toggled := s.active[i].Clone()
	return &toggled, nil
}

func (s *todoServiceImpl) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	i := indexOf(s.active, id)
	if i < 0 {
		s.logger.Warn().
			Int64("task_id", id).
			Msg("task to delete not found")
		return false, nil
	}

	prev := cloneTasks(s.active)
	s.active = slices.Delete(s.active, i, i+1)

	err := s.commitLocked(ctx, prev)
	if err != nil {
		return false, err
	}

	if s.draft.EditingID != nil && *s.draft.EditingID == id {
		s.draft = s.emptyDraft()
		s.logger.Debug().
			Int64("task_id", id).
			Msg("canceled edit of deleted task")
	}
	s.logger.Info().
		Int64("task_id", id).
		Msg("deleted task")
	return true, nil
}

func (s *todoServiceImpl) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	return DeriveStats(s.active)
}

// DeriveStats counts completed tasks. The percentage is 0 for an empty list.
func DeriveStats(tasks []models.Task) models.Stats {
	stats := models.Stats{TotalCount: len(tasks)}
	for _, task := range tasks {
		if task.Status {
			stats.CompletedCount++
		}
	}
	if stats.TotalCount > 0 {
		stats.ProgressPercent = float64(stats.CompletedCount) / float64(stats.TotalCount) * 100
	}
	return stats
}

func (s *todoServiceImpl) Draft() models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneDraft(s.draft)
}

func (s *todoServiceImpl) UpdateDraft(params UpdateDraftParams) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.Priority != nil && !params.Priority.Valid() {
		return cloneDraft(s.draft), ErrInvalidPriority
	}
	if params.Title != nil {
		s.draft.Title = *params.Title
	}
	if params.Description != nil {
		s.draft.Description = *params.Description
	}
	if params.Priority != nil {
		s.draft.Priority = *params.Priority
	}
	return cloneDraft(s.draft), nil
}

func (s *todoServiceImpl) ToggleDraftTag(tag models.Tag) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !tag.Valid() {
		return cloneDraft(s.draft), ErrInvalidTag
	}
	if i := slices.Index(s.draft.Tags, tag); i >= 0 {
		s.draft.Tags = slices.Delete(s.draft.Tags, i, i+1)
	} else {
		s.draft.Tags = append(s.draft.Tags, tag)
	}
	return cloneDraft(s.draft), nil
}

func (s *todoServiceImpl) StartEdit(id int64) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	i := indexOf(s.active, id)
	if i < 0 {
		return cloneDraft(s.draft), ErrTaskNotFound
	}

	task := s.active[i].Clone()
	s.draft = models.Draft{
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Tags:        task.Tags,
		EditingID:   &id,
	}
	s.logger.Debug().
		Int64("task_id", id).
		Msg("started task edit")
	return cloneDraft(s.draft), nil
}

func (s *todoServiceImpl) CancelEdit() models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = s.emptyDraft()
	return cloneDraft(s.draft)
}

func (s *todoServiceImpl) SubmitDraft(ctx context.Context) (*models.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDayLocked()
	input := TaskInput{
		Title:       s.draft.Title,
		Description: s.draft.Description,
		Priority:    s.draft.Priority,
		Tags:        slices.Clone(s.draft.Tags),
	}

	var (
		task *models.Task
		err  error
	)
	edited := s.draft.EditingID != nil
	if !edited {
		task, err = s.addLocked(ctx, input)
	} else {
		task, err = s.editLocked(ctx, *s.draft.EditingID, input)
	}
	if err != nil {
		return nil, edited, err
	}

	s.draft = s.emptyDraft()
	return task, edited, nil
}

func (s *todoServiceImpl) normalizeInput(input TaskInput) (TaskInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return input, ErrEmptyTitle
	}

	if input.Priority == "" {
		input.Priority = s.opts.DefaultPriority
	}
	if !input.Priority.Valid() {
		return input, fmt.Errorf("%w: %q", ErrInvalidPriority, input.Priority)
	}

	tags := make([]models.Tag, 0, len(input.Tags))
	for _, tag := range input.Tags {
		if !tag.Valid() {
			return input, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
		}
		if !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	input.Tags = tags
	return input, nil
}

// commitLocked persists the collection and restores prev when the write
// fails, so memory never runs ahead of storage.
func (s *todoServiceImpl) commitLocked(ctx context.Context, prev []models.Task) error {
	collection := s.active
	if s.opts.Retention != config.RetentionDay {
		collection = append(slices.Clone(s.history), s.active...)
	}

	data, err := json.Marshal(collection)
	if err == nil {
		err = s.backend.Set(ctx, s.opts.StorageKey, data)
	}
	if err != nil {
		s.active = prev
		s.logger.Error().
			Err(err).
			Str("key", s.opts.StorageKey).
			Msg("failed to persist tasks")
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	s.logger.Debug().
		Int("count", len(collection)).
		Msg("persisted tasks")
	return nil
}

// rollDayLocked re-derives the active collection when the calendar day has
// changed since it was loaded.
func (s *todoServiceImpl) rollDayLocked() {
	today := s.today()
	if today == s.day {
		return
	}

	all := append(slices.Clone(s.history), s.active...)
	s.active, s.history = partitionByDay(all, today)
	s.logger.Info().
		Str("from", s.day).
		Str("to", today).
		Int("active", len(s.active)).
		Msg("rolled over to a new day")
	s.day = today
}

func (s *todoServiceImpl) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *todoServiceImpl) today() string {
	return s.now().Format(s.opts.DateLayout)
}

func (s *todoServiceImpl) emptyDraft() models.Draft {
	return models.Draft{
		Priority: s.opts.DefaultPriority,
		Tags:     []models.Tag{},
	}
}

func partitionByDay(tasks []models.Task, day string) (active, history []models.Task) {
	active = make([]models.Task, 0, len(tasks))
	history = make([]models.Task, 0)
	for _, task := range tasks {
		if task.Date == day {
			active = append(active, task)
		} else {
			history = append(history, task)
		}
	}
	return active, history
}

func indexOf(tasks []models.Task, id int64) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool {
		return t.ID == id
	})
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Clone()
	}
	return out
}

func cloneDraft(d models.Draft) models.Draft {
	d.Tags = slices.Clone(d.Tags)
	if d.Tags == nil {
		d.Tags = []models.Tag{}
	}
	if d.EditingID != nil {
		id := *d.EditingID
		d.EditingID = &id
	}
	return d
}
