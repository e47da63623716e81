package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftsign/draftsign-api/internal/services"
)

// JobHandler exposes background worker state
type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// @Summary Worker Stats
// @Description Get background worker queue statistics
// @Tags Jobs
// @Produce json
// @Success 200 {object} jobs.WorkerStats
// @Security BearerAuth
// @Router /jobs/stats [get]
func (h *JobHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.Stats())
}
