package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/daily-todo/internal/models"
)

var (
	ErrTaskNotFound            = errors.New("task not found")
	ErrEmptyTitle              = errors.New("title must not be empty")
	ErrInvalidPriority         = errors.New("invalid priority")
	ErrInvalidTag              = errors.New("invalid tag")
	ErrPersistFailed           = errors.New("failed to persist changes")
	ErrReminderNotFound        = errors.New("reminder not found")
	ErrReminderExists          = errors.New("a reminder already exists for this time")
	ErrInvalidReminderTime     = errors.New("invalid reminder time")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
	ErrAuthDisabled            = errors.New("auth is disabled")
	ErrPasswordMismatch        = errors.New("password mismatch")
	ErrTokenInvalid            = errors.New("invalid token")
)

// TodoService owns today's task collection and the draft form used to
// compose or edit tasks. Every mutation rewrites the persisted collection.
type TodoService interface {
	// Load reads the persisted collection and keeps only the tasks dated
	// today as the active collection. Absent or malformed data yields an
	// empty collection.
	Load(ctx context.Context)

	// Tasks returns today's tasks in insertion order.
	Tasks() []models.Task

	// All returns every known task, including the ones from previous days.
	All() []models.Task

	// Find looks a task up by id among all known tasks.
	Find(id int64) (models.Task, bool)

	// Add appends a new pending task dated today.
	//
	// It returns ErrEmptyTitle if the title is blank, ErrInvalidPriority
	// or ErrInvalidTag for values outside the vocabulary and
	// ErrPersistFailed if the collection could not be written.
	Add(ctx context.Context, input TaskInput) (*models.Task, error)

	// Edit replaces the title, description, priority and tags of the task
	// and re-stamps its date to today. A missing id is a no-op that
	// returns a nil task and a nil error.
	Edit(ctx context.Context, id int64, input TaskInput) (*models.Task, error)

	// ToggleStatus flips the completion flag. A missing id is a no-op
	// that returns a nil task and a nil error.
	ToggleStatus(ctx context.Context, id int64) (*models.Task, error)

	// Delete removes the task and reports whether it existed. Deleting
	// the task under edit cancels the edit session.
	Delete(ctx context.Context, id int64) (bool, error)

	// Stats derives completion statistics over today's tasks.
	Stats() models.Stats

	Draft() models.Draft
	UpdateDraft(params UpdateDraftParams) (models.Draft, error)
	ToggleDraftTag(tag models.Tag) (models.Draft, error)

	// StartEdit loads the task into the draft and remembers it as the
	// edit target. It returns ErrTaskNotFound for an unknown id.
	StartEdit(id int64) (models.Draft, error)
	CancelEdit() models.Draft

	// SubmitDraft adds a task from the draft, or commits the edit when an
	// edit session is active, and reports which of the two it did. On
	// success the draft resets to defaults; on error it is left untouched.
	SubmitDraft(ctx context.Context) (task *models.Task, edited bool, err error)
}

// AvailabilityChecker performs one availability check of the local AI
// assistant.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context) (models.AssistantSnapshot, error)
}

type AssistantService interface {
	// Snapshot returns the last known availability without checking.
	Snapshot() models.AssistantSnapshot

	// Refresh runs a check and returns the updated snapshot. Concurrent
	// callers wait for the check already in flight.
	Refresh(ctx context.Context) models.AssistantSnapshot

	// Run refreshes immediately and then periodically until ctx is done.
	Run(ctx context.Context)
}

type ReminderService interface {
	Load(ctx context.Context)
	Create(ctx context.Context, taskID int64, remindAt string) (*models.Reminder, error)
	ListForTask(taskID int64) []models.Reminder
	Delete(ctx context.Context, id int64) error
	DeleteForTask(ctx context.Context, taskID int64) error

	// CheckAndFire notifies about every untriggered reminder that is due
	// and marks it triggered.
	CheckAndFire(ctx context.Context) error
	Run(ctx context.Context)
}

// Notifier delivers a reminder to the operator.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// TaskFinder is the read-only view of tasks needed by reminders.
type TaskFinder interface {
	Find(id int64) (models.Task, bool)
}

type ExportService interface {
	// Export renders tasks in the given format and returns the payload
	// with its content type.
	Export(tasks []models.Task, format string) ([]byte, string, error)
}

type AuthService interface {
	Enabled() bool

	// Login compares the password with the configured argon2id hash and
	// issues a signed access token.
	//
	// It returns ErrAuthDisabled when auth is off and
	// ErrPasswordMismatch for a wrong password.
	Login(ctx context.Context, password string) (*LoginResult, error)

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or an error wrapping ErrTokenInvalid.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type TaskInput struct {
	Title       string
	Description string
	Priority    models.Priority
	Tags        []models.Tag
}

type UpdateDraftParams struct {
	Title       *string
	Description *string
	Priority    *models.Priority
}

type LoginResult struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
}
