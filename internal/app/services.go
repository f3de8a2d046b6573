package app

import (
	"context"
	"errors"
	"sync"

	"github.com/adanyl0v/daily-todo/internal/config"
	"github.com/adanyl0v/daily-todo/internal/models"
	"github.com/adanyl0v/daily-todo/internal/services"
)

var (
	globalTodoService      services.TodoService
	globalAssistantService services.AssistantService
	globalReminderService  services.ReminderService
	globalExportService    services.ExportService
	globalAuthService      services.AuthService
)

var errAuthMisconfigured = errors.New("auth is enabled but AUTH_PASSWORD_HASH or JWT_SIGNING_KEY is empty")

func MustInitServices() {
	cfg := config.Global()
	ctx := context.Background()

	globalTodoService = services.NewTodoService(
		globalLogger.With().Str("service", "todos").Logger(),
		globalBackend,
		nil,
		services.TodoOptions{
			StorageKey:      cfg.Todo.StorageKey,
			Retention:       cfg.Todo.Retention,
			DateLayout:      cfg.Todo.DateLayout,
			DefaultPriority: models.Priority(cfg.Todo.DefaultPriority),
		},
	)
	globalTodoService.Load(ctx)

	reminderLogger := globalLogger.With().Str("service", "reminders").Logger()
	globalReminderService = services.NewReminderService(
		reminderLogger,
		globalBackend,
		globalTodoService,
		services.NewLogNotifier(reminderLogger),
		cfg.Reminders.StorageKey,
		cfg.Reminders.CheckInterval,
		nil,
	)
	globalReminderService.Load(ctx)

	globalAssistantService = services.NewAssistantService(
		globalLogger.With().Str("service", "assistant").Logger(),
		services.NewOllamaChecker(
			cfg.Assistant.BaseURL,
			cfg.Assistant.Binary,
			cfg.Assistant.PreferredModel,
			cfg.Assistant.Timeout,
		),
		cfg.Assistant.PollInterval,
		nil,
	)

	globalExportService = services.NewExportService(globalLogger, "Daily To-Do")

	if cfg.Auth.Enabled && (cfg.Auth.PasswordHash == "" || cfg.JWT.SigningKey == "") {
		globalLogger.Error().
			Err(errAuthMisconfigured).
			Msg("failed to init auth service")
		panic(errAuthMisconfigured)
	}
	globalAuthService = services.NewAuthService(
		globalLogger.With().Str("service", "auth").Logger(),
		cfg.Auth.Enabled,
		cfg.Auth.PasswordHash,
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
		cfg.JWT.AccessTokenTTL,
	)

	globalLogger.Info().
		Int("tasks", len(globalTodoService.Tasks())).
		Bool("auth", cfg.Auth.Enabled).
		Msg("initialized services")
}

// StartWorkers runs the assistant poller and the reminder checker in the
// background. The returned function stops them and waits for both.
func StartWorkers() func() {
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		globalAssistantService.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		globalReminderService.Run(ctx)
	}()
	globalLogger.Info().Msg("started background workers")

	return func() {
		cancel()
		wg.Wait()
		globalLogger.Info().Msg("stopped background workers")
	}
}
