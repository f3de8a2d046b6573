package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/daily-todo/internal/config"
	"github.com/adanyl0v/daily-todo/internal/models"
	"github.com/adanyl0v/daily-todo/internal/storage"
)

const testKey = "dailyTodos"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type failingBackend struct {
	*storage.MemoryBackend
	failSet bool
}

func (b *failingBackend) Set(ctx context.Context, key string, value []byte) error {
	if b.failSet {
		return errors.New("disk full")
	}
	return b.MemoryBackend.Set(ctx, key, value)
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.Local)}
}

func newTodoServiceForTests(t *testing.T, backend storage.Backend, clock *fakeClock, retention string) TodoService {
	t.Helper()

	opts := DefaultTodoOptions()
	opts.Retention = retention
	s := NewTodoService(zerolog.Nop(), backend, clock.Now, opts)
	s.Load(context.Background())
	return s
}

func storedTasks(t *testing.T, backend storage.Backend) []models.Task {
	t.Helper()

	data, err := backend.Get(context.Background(), testKey)
	require.NoError(t, err)

	var tasks []models.Task
	require.NoError(t, json.Unmarshal(data, &tasks))
	return tasks
}

func seed(t *testing.T, backend storage.Backend, tasks []models.Task) {
	t.Helper()

	data, err := json.Marshal(tasks)
	require.NoError(t, err)
	require.NoError(t, backend.Set(context.Background(), testKey, data))
}

func TestTodoService_LoadFiltersToToday(t *testing.T) {
	backend := storage.NewMemoryBackend()
	seed(t, backend, []models.Task{
		{ID: 1, Title: "old", Priority: models.PriorityLow, Date: "Sun Dec 31 2023"},
		{ID: 2, Title: "today", Priority: models.PriorityHigh, Date: "Mon Jan 01 2024"},
	})

	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(2), tasks[0].ID)
	assert.Len(t, s.All(), 2)
}

func TestTodoService_LoadAbsentOrMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
	}{
		{name: "absent"},
		{name: "malformed", value: []byte(`{"not":"a list"`)},
		{name: "wrong shape", value: []byte(`{"id":1}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := storage.NewMemoryBackend()
			if tc.value != nil {
				require.NoError(t, backend.Set(context.Background(), testKey, tc.value))
			}

			s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)
			assert.Empty(t, s.Tasks())
			assert.Equal(t, models.Stats{}, s.Stats())
		})
	}
}

func TestTodoService_LoadReassignsDuplicateIDs(t *testing.T) {
	backend := storage.NewMemoryBackend()
	seed(t, backend, []models.Task{
		{ID: 7, Title: "a", Priority: models.PriorityLow, Date: "Mon Jan 01 2024"},
		{ID: 7, Title: "b", Priority: models.PriorityLow, Date: "Mon Jan 01 2024"},
	})

	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, int64(7), tasks[0].ID)
	assert.NotEqual(t, tasks[0].ID, tasks[1].ID)
}

func TestTodoService_AddBuyMilk(t *testing.T) {
	backend := storage.NewMemoryBackend()
	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)

	task, err := s.Add(context.Background(), TaskInput{Title: "Buy milk", Priority: models.PriorityHigh})
	require.NoError(t, err)
	require.NotNil(t, task)

	assert.Len(t, s.Tasks(), 1)
	assert.False(t, task.Status)
	assert.Empty(t, task.Tags)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, "Mon Jan 01 2024", task.Date)
	assert.Equal(t, []models.Task{*task}, storedTasks(t, backend))
}

func TestTodoService_AddRejectsBlankTitle(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		task, err := s.Add(ctx, TaskInput{Title: title})
		assert.ErrorIs(t, err, ErrEmptyTitle)
		assert.Nil(t, task)
		assert.Empty(t, s.Tasks())
	}
}

func TestTodoService_AddValidatesVocabulary(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)
	ctx := context.Background()

	_, err := s.Add(ctx, TaskInput{Title: "x", Priority: "Urgent"})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = s.Add(ctx, TaskInput{Title: "x", Tags: []models.Tag{"Errands"}})
	assert.ErrorIs(t, err, ErrInvalidTag)

	task, err := s.Add(ctx, TaskInput{Title: "x", Tags: []models.Tag{models.TagWork, models.TagHealth, models.TagWork}})
	require.NoError(t, err)
	assert.Equal(t, []models.Tag{models.TagWork, models.TagHealth}, task.Tags)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Len(t, s.Tasks(), 1)
}

func TestTodoService_IDsUniqueWithinSameTick(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 50; i++ {
		task, err := s.Add(ctx, TaskInput{Title: "same tick"})
		require.NoError(t, err)
		assert.False(t, seen[task.ID])
		seen[task.ID] = true
	}
}

func TestTodoService_IDsAboveStoredMax(t *testing.T) {
	backend := storage.NewMemoryBackend()
	future := newClock().Now().Add(time.Hour).UnixMilli()
	seed(t, backend, []models.Task{
		{ID: future, Title: "from the future", Priority: models.PriorityLow, Date: "Sun Dec 31 2023"},
	})

	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)
	task, err := s.Add(context.Background(), TaskInput{Title: "next"})
	require.NoError(t, err)
	assert.Equal(t, future+1, task.ID)
}

func TestTodoService_ToggleStatusIsInvolution(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)
	ctx := context.Background()

	task, err := s.Add(ctx, TaskInput{Title: "stretch"})
	require.NoError(t, err)

	toggled, err := s.ToggleStatus(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Status)

	toggled, err = s.ToggleStatus(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Status, toggled.Status)
}

func TestTodoService_MissingIDsAreNoOps(t *testing.T) {
	backend := storage.NewMemoryBackend()
	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)
	ctx := context.Background()

	task, err := s.Add(ctx, TaskInput{Title: "keep"})
	require.NoError(t, err)
	before := s.Tasks()

	edited, err := s.Edit(ctx, 5, TaskInput{Title: "ghost"})
	assert.NoError(t, err)
	assert.Nil(t, edited)

	toggled, err := s.ToggleStatus(ctx, 5)
	assert.NoError(t, err)
	assert.Nil(t, toggled)

	deleted, err := s.Delete(ctx, 5)
	assert.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, before, s.Tasks())
	assert.Equal(t, []models.Task{*task}, storedTasks(t, backend))
}

func TestTodoService_EditReplacesFieldsAndKeepsID(t *testing.T) {
	clock := newClock()
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), clock, config.RetentionMerge)
	ctx := context.Background()

	task, err := s.Add(ctx, TaskInput{Title: "draft", Tags: []models.Tag{models.TagWork}})
	require.NoError(t, err)
	_, err = s.ToggleStatus(ctx, task.ID)
	require.NoError(t, err)

	edited, err := s.Edit(ctx, task.ID, TaskInput{
		Title:       "final",
		Description: "with notes",
		Priority:    models.PriorityLow,
		Tags:        []models.Tag{models.TagStudy},
	})
	require.NoError(t, err)
	require.NotNil(t, edited)

	assert.Equal(t, task.ID, edited.ID)
	assert.Equal(t, "final", edited.Title)
	assert.Equal(t, "with notes", edited.Description)
	assert.Equal(t, models.PriorityLow, edited.Priority)
	assert.Equal(t, []models.Tag{models.TagStudy}, edited.Tags)
	assert.True(t, edited.Status)
	assert.Equal(t, "Mon Jan 01 2024", edited.Date)

	_, err = s.Edit(ctx, task.ID, TaskInput{Title: "  "})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	got, ok := s.Find(task.ID)
	require.True(t, ok)
	assert.Equal(t, "final", got.Title)
}

func TestTodoService_Delete(t *testing.T) {
	backend := storage.NewMemoryBackend()
	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)
	ctx := context.Background()

	a, err := s.Add(ctx, TaskInput{Title: "a"})
	require.NoError(t, err)
	b, err := s.Add(ctx, TaskInput{Title: "b"})
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []models.Task{*b}, s.Tasks())
	assert.Equal(t, []models.Task{*b}, storedTasks(t, backend))
}

func TestTodoService_DeriveStats(t *testing.T) {
	assert.Equal(t, models.Stats{}, DeriveStats(nil))

	stats := DeriveStats([]models.Task{
		{ID: 1, Status: true},
		{ID: 2, Status: false},
	})
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 2, stats.TotalCount)
	assert.InDelta(t, 50.0, stats.ProgressPercent, 1e-9)

	stats = DeriveStats([]models.Task{{Status: true}, {}, {}})
	assert.InDelta(t, 33.333, stats.ProgressPercent, 1e-3)
}

func TestTodoService_RoundTrip(t *testing.T) {
	backend := storage.NewMemoryBackend()
	clock := newClock()
	s := newTodoServiceForTests(t, backend, clock, config.RetentionMerge)
	ctx := context.Background()

	_, err := s.Add(ctx, TaskInput{Title: "one", Tags: []models.Tag{models.TagShopping}})
	require.NoError(t, err)
	two, err := s.Add(ctx, TaskInput{Title: "two", Priority: models.PriorityHigh, Description: "d"})
	require.NoError(t, err)
	_, err = s.ToggleStatus(ctx, two.ID)
	require.NoError(t, err)

	reloaded := newTodoServiceForTests(t, backend, clock, config.RetentionMerge)
	assert.Equal(t, s.Tasks(), reloaded.Tasks())
}

func TestTodoService_MergeRetentionKeepsHistory(t *testing.T) {
	backend := storage.NewMemoryBackend()
	seed(t, backend, []models.Task{
		{ID: 1, Title: "yesterday", Priority: models.PriorityLow, Date: "Sun Dec 31 2023"},
	})

	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)
	_, err := s.Add(context.Background(), TaskInput{Title: "today"})
	require.NoError(t, err)

	stored := storedTasks(t, backend)
	require.Len(t, stored, 2)
	assert.Equal(t, "yesterday", stored[0].Title)
	assert.Equal(t, "today", stored[1].Title)
}

func TestTodoService_DayRetentionDropsHistory(t *testing.T) {
	backend := storage.NewMemoryBackend()
	seed(t, backend, []models.Task{
		{ID: 1, Title: "yesterday", Priority: models.PriorityLow, Date: "Sun Dec 31 2023"},
	})

	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionDay)
	_, err := s.Add(context.Background(), TaskInput{Title: "today"})
	require.NoError(t, err)

	stored := storedTasks(t, backend)
	require.Len(t, stored, 1)
	assert.Equal(t, "today", stored[0].Title)
}

func TestTodoService_RollsOverAtMidnight(t *testing.T) {
	clock := newClock()
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), clock, config.RetentionMerge)
	ctx := context.Background()

	yesterday, err := s.Add(ctx, TaskInput{Title: "monday"})
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)
	assert.Empty(t, s.Tasks())

	today, err := s.Add(ctx, TaskInput{Title: "tuesday"})
	require.NoError(t, err)
	assert.Equal(t, "Tue Jan 02 2024", today.Date)

	for _, task := range s.Tasks() {
		assert.Equal(t, "Tue Jan 02 2024", task.Date)
	}

	toggled, err := s.ToggleStatus(ctx, yesterday.ID)
	assert.NoError(t, err)
	assert.Nil(t, toggled)
	assert.Len(t, s.All(), 2)
}

func TestTodoService_PersistFailureRollsBack(t *testing.T) {
	backend := &failingBackend{MemoryBackend: storage.NewMemoryBackend()}
	s := newTodoServiceForTests(t, backend, newClock(), config.RetentionMerge)
	ctx := context.Background()

	task, err := s.Add(ctx, TaskInput{Title: "saved"})
	require.NoError(t, err)

	backend.failSet = true

	_, err = s.Add(ctx, TaskInput{Title: "lost"})
	assert.ErrorIs(t, err, ErrPersistFailed)

	_, err = s.ToggleStatus(ctx, task.ID)
	assert.ErrorIs(t, err, ErrPersistFailed)

	_, err = s.Edit(ctx, task.ID, TaskInput{Title: "renamed"})
	assert.ErrorIs(t, err, ErrPersistFailed)

	deleted, err := s.Delete(ctx, task.ID)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.False(t, deleted)

	assert.Equal(t, []models.Task{*task}, s.Tasks())

	backend.failSet = false
	_, err = s.Add(ctx, TaskInput{Title: "retry"})
	assert.NoError(t, err)
	assert.Len(t, storedTasks(t, backend), 2)
}

func TestTodoService_DraftToggleTag(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)

	draft, err := s.ToggleDraftTag(models.TagWork)
	require.NoError(t, err)
	assert.Equal(t, []models.Tag{models.TagWork}, draft.Tags)

	draft, err = s.ToggleDraftTag(models.TagHealth)
	require.NoError(t, err)
	assert.Equal(t, []models.Tag{models.TagWork, models.TagHealth}, draft.Tags)

	draft, err = s.ToggleDraftTag(models.TagWork)
	require.NoError(t, err)
	assert.Equal(t, []models.Tag{models.TagHealth}, draft.Tags)

	_, err = s.ToggleDraftTag("Errands")
	assert.ErrorIs(t, err, ErrInvalidTag)
	assert.Empty(t, s.Tasks())
}

func TestTodoService_SubmitDraftAddsAndResets(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)
	ctx := context.Background()

	title := "Buy milk"
	priority := models.PriorityHigh
	_, err := s.UpdateDraft(UpdateDraftParams{Title: &title, Priority: &priority})
	require.NoError(t, err)
	_, err = s.ToggleDraftTag(models.TagShopping)
	require.NoError(t, err)

	task, edited, err := s.SubmitDraft(ctx)
	require.NoError(t, err)
	assert.False(t, edited)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, []models.Tag{models.TagShopping}, task.Tags)

	draft := s.Draft()
	assert.Empty(t, draft.Title)
	assert.Empty(t, draft.Tags)
	assert.Equal(t, models.PriorityMedium, draft.Priority)
	assert.Nil(t, draft.EditingID)
}

func TestTodoService_SubmitDraftBlankTitleKeepsDraft(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)

	title := "   "
	desc := "remember the receipt"
	_, err := s.UpdateDraft(UpdateDraftParams{Title: &title, Description: &desc})
	require.NoError(t, err)

	_, _, err = s.SubmitDraft(context.Background())
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Empty(t, s.Tasks())
	assert.Equal(t, "remember the receipt", s.Draft().Description)
}

func TestTodoService_EditSession(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)
	ctx := context.Background()

	task, err := s.Add(ctx, TaskInput{Title: "call mom", Tags: []models.Tag{models.TagPersonal}})
	require.NoError(t, err)

	draft, err := s.StartEdit(task.ID)
	require.NoError(t, err)
	require.NotNil(t, draft.EditingID)
	assert.Equal(t, task.ID, *draft.EditingID)
	assert.Equal(t, "call mom", draft.Title)

	title := "call mom tonight"
	_, err = s.UpdateDraft(UpdateDraftParams{Title: &title})
	require.NoError(t, err)

	edited, wasEdit, err := s.SubmitDraft(ctx)
	require.NoError(t, err)
	assert.True(t, wasEdit)
	assert.Equal(t, task.ID, edited.ID)
	assert.Equal(t, "call mom tonight", edited.Title)
	assert.Len(t, s.Tasks(), 1)
	assert.Nil(t, s.Draft().EditingID)

	_, err = s.StartEdit(12345)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTodoService_DeletingEditedTaskCancelsEdit(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)
	ctx := context.Background()

	task, err := s.Add(ctx, TaskInput{Title: "water plants"})
	require.NoError(t, err)
	_, err = s.StartEdit(task.ID)
	require.NoError(t, err)

	_, err = s.Delete(ctx, task.ID)
	require.NoError(t, err)

	draft := s.Draft()
	assert.Nil(t, draft.EditingID)
	assert.Empty(t, draft.Title)
}

func TestTodoService_SubmitEditOfVanishedTask(t *testing.T) {
	clock := newClock()
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), clock, config.RetentionMerge)
	ctx := context.Background()

	task, err := s.Add(ctx, TaskInput{Title: "monday only"})
	require.NoError(t, err)
	_, err = s.StartEdit(task.ID)
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)

	edited, wasEdit, err := s.SubmitDraft(ctx)
	assert.NoError(t, err)
	assert.True(t, wasEdit)
	assert.Nil(t, edited)
	assert.Empty(t, s.Tasks())
	assert.Nil(t, s.Draft().EditingID)
}

func TestTodoService_CancelEdit(t *testing.T) {
	s := newTodoServiceForTests(t, storage.NewMemoryBackend(), newClock(), config.RetentionMerge)

	task, err := s.Add(context.Background(), TaskInput{Title: "x"})
	require.NoError(t, err)
	_, err = s.StartEdit(task.ID)
	require.NoError(t, err)

	draft := s.CancelEdit()
	assert.Nil(t, draft.EditingID)
	assert.Empty(t, draft.Title)
}
