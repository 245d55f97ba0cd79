package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nitayke/pbar/internal/config"
	"github.com/nitayke/pbar/internal/db"
	"github.com/nitayke/pbar/internal/http/handler"
	"github.com/nitayke/pbar/internal/lease"
	"github.com/nitayke/pbar/internal/metrics"
	"github.com/nitayke/pbar/internal/service"
)

func main() {
	// 加载配置
	cfg := config.Load()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库连接
	initCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancel()

	pool, err := db.Init(initCtx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres init failed: %v", err)
	}
	defer pool.Close()

	// 确保最小表结构存在
	if err := db.EnsureSchema(initCtx, pool); err != nil {
		log.Fatalf("ensure schema failed: %v", err)
	}

	// 初始化 Redis
	rdb, err := lease.Connect(initCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	defer rdb.Close()

	// 组装服务与路由
	taskSvc := service.NewTaskService(pool, cfg.PartitionMinutes, cfg.PartitionStatusTodo)
	rangeSvc := service.NewRangeService(pool, cfg.PartitionMinutes, cfg.PartitionStatusTodo)
	partitionSvc := service.NewPartitionService(pool, cfg.PartitionMinutes, cfg.PartitionStatusTodo)
	histogramSvc := service.NewHistogramService(pool)
	scheduleSvc := service.NewScheduleService(pool, cfg.PartitionMinutes, cfg.PartitionStatusTodo)

	// 指标采样：缓存在进程内，采样循环跟随进程生命周期
	cache := metrics.NewCache(metrics.DefaultMaxSamples)
	sampler := metrics.NewSampler(rootCtx, pool, cache, cfg.MetricsSampleInterval, cfg.MetricsLookback, cfg.MetricsMaxTasks, cfg.PartitionMinutes)
	go sampler.Start()
	defer sampler.Stop()

	engine := gin.Default()
	h := handler.New(taskSvc, rangeSvc, partitionSvc, histogramSvc, scheduleSvc, cache, pool, rdb)

	// 健康与就绪
	engine.GET("/healthz", h.Healthz)
	engine.GET("/readyz", h.Readyz)

	api := engine.Group("/api/v1")
	{
		api.POST("/tasks", h.CreateTask)
		api.GET("/tasks", h.ListTasks)
		api.GET("/tasks/:id", h.GetTask)
		api.DELETE("/tasks/:id", h.DeleteTask)
		api.GET("/tasks/:id/progress", h.GetProgress)

		api.POST("/tasks/:id/ranges", h.AddRange)
		api.GET("/tasks/:id/ranges", h.ListRanges)
		api.DELETE("/tasks/:id/ranges", h.DeleteRange)

		api.GET("/tasks/:id/partitions", h.ListPartitions)
		api.POST("/tasks/:id/partitions/claim", h.ClaimPartition)
		api.DELETE("/tasks/:id/partitions", h.ClearPartitions)

		api.GET("/tasks/:id/histogram", h.GetHistogram)
		api.GET("/tasks/:id/metrics", h.GetTaskMetrics)

		api.POST("/schedules", h.CreateSchedule)
		api.GET("/schedules", h.ListSchedules)
		api.GET("/schedules/:id", h.GetSchedule)
		api.PATCH("/schedules/:id", h.UpdateSchedule)
		api.DELETE("/schedules/:id", h.DeleteSchedule)

		api.GET("/metrics/scheduler", h.GetSchedulerMetrics)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	log.Printf("starting api server on :%s", cfg.HTTPPort)
	if err := serveUntilDone(rootCtx, srv); err != nil {
		log.Fatal(err)
	}
	log.Println("api server stopped")
}

// serveUntilDone 运行 HTTP 服务，ctx 取消时优雅关停
func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("shutdown signal received")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}
