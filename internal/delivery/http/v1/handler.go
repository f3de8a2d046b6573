package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/daily-todo/internal/services"
)

type Handler interface {
	HandleRequestID(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleLogout(c *gin.Context)

	HandleGetTodos(c *gin.Context)
	HandleGetStats(c *gin.Context)
	HandleExportTodos(c *gin.Context)
	HandleCreateTodo(c *gin.Context)
	HandleUpdateTodo(c *gin.Context)
	HandleToggleTodoStatus(c *gin.Context)
	HandleDeleteTodo(c *gin.Context)

	HandleGetDraft(c *gin.Context)
	HandleUpdateDraft(c *gin.Context)
	HandleToggleDraftTag(c *gin.Context)
	HandleStartEdit(c *gin.Context)
	HandleCancelEdit(c *gin.Context)
	HandleSubmitDraft(c *gin.Context)

	HandleGetAssistantStatus(c *gin.Context)
	HandleRefreshAssistant(c *gin.Context)

	HandleGetReminders(c *gin.Context)
	HandleCreateReminder(c *gin.Context)
	HandleDeleteReminder(c *gin.Context)
}

type handlerImpl struct {
	logger    zerolog.Logger
	auth      services.AuthService
	todos     services.TodoService
	assistant services.AssistantService
	reminders services.ReminderService
	export    services.ExportService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	todoService services.TodoService,
	assistantService services.AssistantService,
	reminderService services.ReminderService,
	exportService services.ExportService,
) Handler {
	return &handlerImpl{
		logger:    logger,
		auth:      authService,
		todos:     todoService,
		assistant: assistantService,
		reminders: reminderService,
		export:    exportService,
	}
}

// RegisterRoutes mounts the v1 API on router. Login and logout stay
// reachable without a token.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router = router.Group("/api/v1", h.HandleRequestID)

	authRouter := router.Group("/auth")
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/logout", h.HandleLogout)

	protected := router.Group("", h.HandleAuthMiddleware)

	todosRouter := protected.Group("/todos")
	todosRouter.GET("", h.HandleGetTodos)
	todosRouter.POST("", h.HandleCreateTodo)
	todosRouter.GET("/stats", h.HandleGetStats)
	todosRouter.GET("/export", h.HandleExportTodos)
	todosRouter.PUT("/:id", h.HandleUpdateTodo)
	todosRouter.PATCH("/:id/status", h.HandleToggleTodoStatus)
	todosRouter.DELETE("/:id", h.HandleDeleteTodo)
	todosRouter.GET("/:id/reminders", h.HandleGetReminders)
	todosRouter.POST("/:id/reminders", h.HandleCreateReminder)

	protected.DELETE("/reminders/:id", h.HandleDeleteReminder)

	draftRouter := protected.Group("/draft")
	draftRouter.GET("", h.HandleGetDraft)
	draftRouter.PATCH("", h.HandleUpdateDraft)
	draftRouter.POST("/tags/:tag", h.HandleToggleDraftTag)
	draftRouter.POST("/edit/:id", h.HandleStartEdit)
	draftRouter.DELETE("/edit", h.HandleCancelEdit)
	draftRouter.POST("/submit", h.HandleSubmitDraft)

	assistantRouter := protected.Group("/assistant")
	assistantRouter.GET("/status", h.HandleGetAssistantStatus)
	assistantRouter.POST("/refresh", h.HandleRefreshAssistant)
}
