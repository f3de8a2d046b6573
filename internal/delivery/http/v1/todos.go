package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/daily-todo/internal/models"
	"github.com/adanyl0v/daily-todo/internal/services"
)

type getTodosResponse struct {
	Tasks []models.Task `json:"tasks"`
	Stats models.Stats  `json:"stats"`
}

type taskRequest struct {
	Title       string          `json:"title" binding:"max=255"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	Tags        []models.Tag    `json:"tags"`
}

func (r taskRequest) input() services.TaskInput {
	return services.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Tags:        r.Tags,
	}
}

func (h *handlerImpl) HandleGetTodos(c *gin.Context) {
	c.JSON(http.StatusOK, getTodosResponse{
		Tasks: h.todos.Tasks(),
		Stats: h.todos.Stats(),
	})
}

func (h *handlerImpl) HandleGetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.todos.Stats())
}

func (h *handlerImpl) HandleExportTodos(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", services.ExportFormatJSON))

	var tasks []models.Task
	switch scope := c.DefaultQuery("scope", "today"); scope {
	case "today":
		tasks = h.todos.Tasks()
	case "all":
		tasks = h.todos.All()
	default:
		h.logger.Error().
			Str("scope", scope).
			Msg("invalid export scope")
		abort(c, newBadRequestError(fmt.Sprintf("invalid scope: %s", scope)))
		return
	}

	data, contentType, err := h.export.Export(tasks, format)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("format", format).
			Msg("failed to export todos")
		abortWithServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="todos.%s"`, format))
	c.Data(http.StatusOK, contentType, data)
}

func (h *handlerImpl) HandleCreateTodo(c *gin.Context) {
	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.todos.Add(c, req.input())
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create todo")
		abortWithServiceError(c, err)
		return
	}

	h.logger.Info().
		Int64("id", task.ID).
		Msg("created todo")
	c.JSON(http.StatusCreated, task)
}

func (h *handlerImpl) HandleUpdateTodo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.todos.Edit(c, id, req.input())
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("id", id).
			Msg("failed to update todo")
		abortWithServiceError(c, err)
		return
	}
	if task == nil {
		h.logger.Warn().
			Int64("id", id).
			Msg("todo not found")
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return
	}

	h.logger.Info().
		Int64("id", id).
		Msg("updated todo")
	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleToggleTodoStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.todos.ToggleStatus(c, id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("id", id).
			Msg("failed to toggle todo status")
		abortWithServiceError(c, err)
		return
	}
	if task == nil {
		h.logger.Warn().
			Int64("id", id).
			Msg("todo not found")
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return
	}

	h.logger.Info().
		Int64("id", id).
		Bool("status", task.Status).
		Msg("toggled todo status")
	c.JSON(http.StatusOK, task)
}

func (h *handlerImpl) HandleDeleteTodo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.todos.Delete(c, id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("id", id).
			Msg("failed to delete todo")
		abortWithServiceError(c, err)
		return
	}
	if !deleted {
		h.logger.Warn().
			Int64("id", id).
			Msg("todo not found")
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return
	}

	err = h.reminders.DeleteForTask(c, id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("id", id).
			Msg("failed to delete reminders of deleted todo")
	}

	h.logger.Info().
		Int64("id", id).
		Msg("deleted todo")
	c.Status(http.StatusNoContent)
}
