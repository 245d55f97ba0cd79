package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/nitayke/pbar/internal/config"
	"github.com/nitayke/pbar/internal/db"
	"github.com/nitayke/pbar/internal/lease"
	"github.com/nitayke/pbar/internal/scheduler"
	"github.com/nitayke/pbar/internal/service"
)

func main() {
	// 加载配置
	cfg := config.Load()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancel()

	pool, err := db.Init(initCtx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres init failed: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(initCtx, pool); err != nil {
		log.Fatalf("ensure schema failed: %v", err)
	}

	rdb, err := lease.Connect(initCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	defer rdb.Close()

	scheduleSvc := service.NewScheduleService(pool, cfg.PartitionMinutes, cfg.PartitionStatusTodo)

	runner := scheduler.NewRunner(rootCtx, scheduleSvc, rdb, cfg.SchedulePollInterval, cfg.SchedulerLockTTL)
	go runner.Start()

	<-rootCtx.Done()
	log.Println("shutdown signal received")
	runner.Stop()
}
