package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/daily-todo/internal/services"
)

type createReminderRequest struct {
	RemindAt string `json:"remindAt" binding:"required"`
}

func (h *handlerImpl) HandleGetReminders(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, found := h.todos.Find(taskID); !found {
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return
	}
	c.JSON(http.StatusOK, h.reminders.ListForTask(taskID))
}

func (h *handlerImpl) HandleCreateReminder(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req createReminderRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	reminder, err := h.reminders.Create(c, taskID, req.RemindAt)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to create reminder")
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reminder)
}

func (h *handlerImpl) HandleDeleteReminder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.reminders.Delete(c, id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("id", id).
			Msg("failed to delete reminder")
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
