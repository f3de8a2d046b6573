package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/daily-todo/internal/models"
	"github.com/adanyl0v/daily-todo/internal/services"
)

type updateDraftRequest struct {
	Title       *string          `json:"title,omitempty" binding:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	Priority    *models.Priority `json:"priority,omitempty"`
}

func (h *handlerImpl) HandleGetDraft(c *gin.Context) {
	c.JSON(http.StatusOK, h.todos.Draft())
}

func (h *handlerImpl) HandleUpdateDraft(c *gin.Context) {
	var req updateDraftRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	draft, err := h.todos.UpdateDraft(services.UpdateDraftParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update draft")
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *handlerImpl) HandleToggleDraftTag(c *gin.Context) {
	tag := models.Tag(c.Param("tag"))

	draft, err := h.todos.ToggleDraftTag(tag)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("tag", string(tag)).
			Msg("failed to toggle draft tag")
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *handlerImpl) HandleStartEdit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	draft, err := h.todos.StartEdit(id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("id", id).
			Msg("failed to start edit")
		abortWithServiceError(c, err)
		return
	}

	h.logger.Debug().
		Int64("id", id).
		Msg("started edit")
	c.JSON(http.StatusOK, draft)
}

func (h *handlerImpl) HandleCancelEdit(c *gin.Context) {
	c.JSON(http.StatusOK, h.todos.CancelEdit())
}

func (h *handlerImpl) HandleSubmitDraft(c *gin.Context) {
	task, editing, err := h.todos.SubmitDraft(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to submit draft")
		abortWithServiceError(c, err)
		return
	}

	if task == nil {
		// The task under edit was deleted meanwhile.
		c.Status(http.StatusNoContent)
		return
	}

	status := http.StatusCreated
	if editing {
		status = http.StatusOK
	}
	h.logger.Info().
		Int64("id", task.ID).
		Bool("edit", editing).
		Msg("submitted draft")
	c.JSON(status, task)
}
