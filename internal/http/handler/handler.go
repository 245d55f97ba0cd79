package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nitayke/pbar/internal/metrics"
	"github.com/nitayke/pbar/internal/service"
)

type Handler struct {
	tasks      *service.TaskService
	ranges     *service.RangeService
	partitions *service.PartitionService
	histograms *service.HistogramService
	schedules  *service.ScheduleService
	metrics    *metrics.Cache
	db         *pgxpool.Pool
	rdb        *redis.Client
}

func New(
	tasks *service.TaskService,
	ranges *service.RangeService,
	partitions *service.PartitionService,
	histograms *service.HistogramService,
	schedules *service.ScheduleService,
	metricsCache *metrics.Cache,
	db *pgxpool.Pool,
	rdb *redis.Client,
) *Handler {
	return &Handler{
		tasks:      tasks,
		ranges:     ranges,
		partitions: partitions,
		histograms: histograms,
		schedules:  schedules,
		metrics:    metricsCache,
		db:         db,
		rdb:        rdb,
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	// 简单就绪检查：DB、Redis 都能 ping
	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": "db ping failed"})
		return
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ready": false, "error": "redis ping failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "timestamp": time.Now().UTC()})
}

// respondError 把 service 层错误分类映射到 HTTP 状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "detail": err.Error()})
	}
}

// parseTimeParam 解析 RFC3339 查询参数，空串返回 nil
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
