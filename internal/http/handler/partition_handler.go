package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/tasks/:id/partitions
func (h *Handler) ListPartitions(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	take, _ := strconv.Atoi(c.DefaultQuery("take", "100"))

	partitions, err := h.partitions.ListPartitions(c.Request.Context(), c.Param("id"), skip, take)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partitions": partitions, "count": len(partitions)})
}

// POST /api/v1/tasks/:id/partitions/claim
// 200 返回认领到的分区；204 表示暂无可认领的工作
func (h *Handler) ClaimPartition(c *gin.Context) {
	claimed, err := h.partitions.ClaimNext(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if claimed == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, claimed)
}

// DELETE /api/v1/tasks/:id/partitions
func (h *Handler) ClearPartitions(c *gin.Context) {
	if err := h.partitions.ClearPartitions(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/tasks/:id/histogram?interval_seconds=&from=&to=
func (h *Handler) GetHistogram(c *gin.Context) {
	var intervalSeconds *int
	if v := c.Query("interval_seconds"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interval_seconds"})
			return
		}
		intervalSeconds = &parsed
	}
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from (RFC3339)"})
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to (RFC3339)"})
		return
	}

	result, err := h.histograms.GetHistogram(c.Request.Context(), c.Param("id"), intervalSeconds, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/v1/tasks/:id/metrics
func (h *Handler) GetTaskMetrics(c *gin.Context) {
	// 先确认任务存在，避免对任意 ID 返回空视图
	if _, err := h.tasks.GetTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	view := h.metrics.Get(c.Param("id"), time.Now().UTC())
	c.JSON(http.StatusOK, view)
}
