package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/services"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// TopPerformers returns the weekly and monthly leaderboards
func (h *StatsHandler) TopPerformers(c *gin.Context) {
	result, err := h.statsService.TopPerformers(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TopPerformersResponse{
		Weekly:  dto.ToPerformerDTOs(result.Weekly),
		Monthly: dto.ToPerformerDTOs(result.Monthly),
	})
}
