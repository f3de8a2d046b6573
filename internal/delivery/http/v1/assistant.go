package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlerImpl) HandleGetAssistantStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.Snapshot())
}

func (h *handlerImpl) HandleRefreshAssistant(c *gin.Context) {
	snapshot := h.assistant.Refresh(c)
	h.logger.Debug().
		Bool("available", snapshot.IsAvailable).
		Msg("refreshed assistant status")
	c.JSON(http.StatusOK, snapshot)
}
