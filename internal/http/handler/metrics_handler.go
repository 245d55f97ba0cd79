package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// GET /api/v1/metrics/scheduler
// 调度器在 Redis 里记录的运行计数与最近一轮信息
func (h *Handler) GetSchedulerMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	last, err := h.rdb.HGetAll(ctx, "metrics:schedule_runner:last").Result()
	if err != nil {
		log.Printf("failed to get schedule runner metrics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	ticks, err := h.rdb.Get(ctx, "metrics:schedule_runner:ticks").Int64()
	if err != nil && err != redis.Nil {
		log.Printf("failed to get schedule runner ticks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticks": ticks,
		"last":  last,
	})
}
