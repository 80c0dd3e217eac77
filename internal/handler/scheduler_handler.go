package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StartScheduler starts the periodic pipeline runs
func (h *Handlers) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(); err != nil {
		errorJSON(c, http.StatusConflict, "scheduler_error", "Failed to start scheduler: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler started successfully",
		"status":  "running",
	})
}

// StopScheduler stops the periodic pipeline runs
func (h *Handlers) StopScheduler(c *gin.Context) {
	if err := h.scheduler.Stop(); err != nil {
		errorJSON(c, http.StatusInternalServerError, "scheduler_error", "Failed to stop scheduler")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler stopped successfully",
		"status":  "stopped",
	})
}

// RunPipeline processes the mailbox once and returns the run summary. An
// aborted run answers 502.
func (h *Handlers) RunPipeline(c *gin.Context) {
	summary := h.scheduler.RunOnce(c.Request.Context())

	status := http.StatusOK
	if summary.Aborted {
		status = http.StatusBadGateway
	}
	c.JSON(status, summary)
}

// GetSchedulerStatus returns the current scheduler status
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	response := SchedulerStatusResponse{
		Status:   "stopped",
		Interval: h.scheduler.Interval().String(),
		NextRun:  h.scheduler.GetNextRun(),
		LastRun:  h.scheduler.GetLastRun(),
	}
	if h.scheduler.IsRunning() {
		response.Status = "running"
	}
	if last, ok := h.scheduler.LastSummary(); ok {
		response.LastSummary = &last
	}

	c.JSON(http.StatusOK, response)
}
