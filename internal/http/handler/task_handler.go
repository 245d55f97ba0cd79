package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nitayke/pbar/internal/service"
)

// 请求体：创建任务
type CreateTaskRequest struct {
	TaskID               string             `json:"task_id" binding:"required"`
	Description          string             `json:"description"`
	CreatedBy            string             `json:"created_by"`
	PartitionSizeSeconds *int               `json:"partition_size_seconds"`
	PartitionMinutes     *int               `json:"partition_minutes"`
	Ranges               []TaskRangeRequest `json:"ranges" binding:"required,min=1,dive"`
}

type TaskRangeRequest struct {
	TimeFrom time.Time `json:"time_from" binding:"required"`
	TimeTo   time.Time `json:"time_to" binding:"required"`
}

// POST /api/v1/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	ranges := make([]service.RangeWindow, 0, len(req.Ranges))
	for _, r := range req.Ranges {
		ranges = append(ranges, service.RangeWindow{TimeFrom: r.TimeFrom, TimeTo: r.TimeTo})
	}

	taskID, err := h.tasks.CreateTask(c.Request.Context(), service.CreateTaskParams{
		TaskID:               req.TaskID,
		Description:          req.Description,
		CreatedBy:            req.CreatedBy,
		PartitionSizeSeconds: req.PartitionSizeSeconds,
		PartitionMinutes:     req.PartitionMinutes,
		Ranges:               ranges,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task_id": taskID})
}

// GET /api/v1/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	take, _ := strconv.Atoi(c.DefaultQuery("take", "100"))
	includeProgress := c.Query("include_progress") == "true"

	tasks, err := h.tasks.ListTasks(c.Request.Context(), c.Query("type"), c.Query("search"), skip, take, includeProgress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// GET /api/v1/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.tasks.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /api/v1/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.tasks.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/tasks/:id/progress
func (h *Handler) GetProgress(c *gin.Context) {
	snap, err := h.partitions.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
