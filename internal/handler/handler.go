package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/repository"
	"smart-mail-reply-go/internal/service/ai"
	"smart-mail-reply-go/internal/service/rules"
	"smart-mail-reply-go/internal/service/scheduler"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	repo      *repository.Repository
	rules     rules.Store
	scheduler *scheduler.Scheduler
	engine    *ai.Engine
	gatherer  prometheus.Gatherer
}

// NewHandlers creates new HTTP handlers. A nil gatherer serves the default registry.
func NewHandlers(repo *repository.Repository, rules rules.Store, scheduler *scheduler.Scheduler, engine *ai.Engine, gatherer prometheus.Gatherer) *Handlers {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handlers{
		repo:      repo,
		rules:     rules,
		scheduler: scheduler,
		engine:    engine,
		gatherer:  gatherer,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.POST("/pipeline/run", h.RunPipeline)

		api.GET("/audit", h.GetAuditRecords)
		api.GET("/audit/stats", h.GetAuditStats)
		api.GET("/audit/export", h.ExportAudit)
		api.GET("/audit/:id", h.GetAuditRecord)

		api.GET("/rules", h.GetRules)
		api.PUT("/rules", h.UpdateRules)

		api.GET("/models", h.GetModels)

		api.POST("/scheduler/start", h.StartScheduler)
		api.POST("/scheduler/stop", h.StopScheduler)
		api.POST("/scheduler/run-once", h.RunPipeline)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Scheduler: "stopped",
	}

	if err := h.repo.Ping(c.Request.Context()); err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.scheduler.IsRunning() {
		response.Scheduler = "running"
	}
	if last, ok := h.scheduler.LastSummary(); ok {
		response.LastRun = &last.StartedAt
		response.LastRunAborted = last.Aborted
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func errorJSON(c *gin.Context, code int, kind, message string) {
	c.JSON(code, ErrorResponse{
		Error:   kind,
		Message: message,
		Code:    code,
	})
}
