package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nitayke/pbar/internal/service"
)

// 请求体：创建调度规则
type CreateScheduleRequest struct {
	TaskID             string     `json:"task_id" binding:"required"`
	IntervalSeconds    int        `json:"interval_seconds" binding:"required,gt=0"`
	BulkSizeSeconds    int        `json:"bulk_size_seconds" binding:"required,gt=0"`
	CronExpr           string     `json:"cron_expr"`
	FirstExecutionTime *time.Time `json:"first_execution_time"`
	CreatedBy          string     `json:"created_by"`
}

// POST /api/v1/schedules
func (h *Handler) CreateSchedule(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	sched, err := h.schedules.CreateSchedule(c.Request.Context(), service.CreateScheduleParams{
		TaskID:             req.TaskID,
		IntervalSeconds:    req.IntervalSeconds,
		BulkSizeSeconds:    req.BulkSizeSeconds,
		CronExpr:           req.CronExpr,
		FirstExecutionTime: req.FirstExecutionTime,
		CreatedBy:          req.CreatedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sched)
}

// GET /api/v1/schedules?task_id=
func (h *Handler) ListSchedules(c *gin.Context) {
	schedules, err := h.schedules.ListSchedules(c.Request.Context(), c.Query("task_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules, "count": len(schedules)})
}

// GET /api/v1/schedules/:id
func (h *Handler) GetSchedule(c *gin.Context) {
	sched, err := h.schedules.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// 请求体：更新调度规则（全部字段可选）
type UpdateScheduleRequest struct {
	IntervalSeconds *int    `json:"interval_seconds"`
	BulkSizeSeconds *int    `json:"bulk_size_seconds"`
	CronExpr        *string `json:"cron_expr"`
	IsEnabled       *bool   `json:"is_enabled"`
}

// PATCH /api/v1/schedules/:id
func (h *Handler) UpdateSchedule(c *gin.Context) {
	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	sched, err := h.schedules.UpdateSchedule(c.Request.Context(), c.Param("id"), service.UpdateScheduleParams{
		IntervalSeconds: req.IntervalSeconds,
		BulkSizeSeconds: req.BulkSizeSeconds,
		CronExpr:        req.CronExpr,
		IsEnabled:       req.IsEnabled,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// DELETE /api/v1/schedules/:id
func (h *Handler) DeleteSchedule(c *gin.Context) {
	if err := h.schedules.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
