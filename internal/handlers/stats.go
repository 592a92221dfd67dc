package handlers

import (
	"net/http"

	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/gin-gonic/gin"
)

// StatsHandler serves the dashboard counters.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler instance.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Get godoc
// @Summary Dashboard statistics
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Stats
// @Router /stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.statsService.Get(c.Request.Context())
	if err != nil {
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro interno do servidor ao buscar estatísticas.")
		return
	}
	c.JSON(http.StatusOK, stats)
}
