package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	HTTPPort    string
	PostgresDSN string
	RedisURL    string

	// 分区默认参数
	PartitionMinutes    int
	PartitionStatusTodo string

	// 指标采样参数
	MetricsSampleInterval time.Duration
	MetricsLookback       time.Duration
	MetricsMaxTasks       int

	// 调度器参数
	SchedulePollInterval time.Duration
	SchedulerLockTTL     time.Duration
}

func Load() AppConfig {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=pbar dbname=pbar sslmode=disable"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	todoStatus := os.Getenv("PARTITION_STATUS_TODO")
	if todoStatus == "" {
		todoStatus = "TODO"
	}

	// 采样间隔不得低于 2 秒
	sampleSeconds := envInt("METRICS_SAMPLE_INTERVAL_SECONDS", 10)
	if sampleSeconds < 2 {
		sampleSeconds = 2
	}

	return AppConfig{
		HTTPPort:              port,
		PostgresDSN:           dsn,
		RedisURL:              redisURL,
		PartitionMinutes:      envInt("PARTITION_MINUTES", 5),
		PartitionStatusTodo:   todoStatus,
		MetricsSampleInterval: time.Duration(sampleSeconds) * time.Second,
		MetricsLookback:       time.Duration(envInt("METRICS_LOOKBACK_MINUTES", 120)) * time.Minute,
		MetricsMaxTasks:       envInt("METRICS_MAX_TASKS", 200),
		SchedulePollInterval:  envDuration("SCHEDULE_POLL_INTERVAL", time.Minute),
		SchedulerLockTTL:      envDuration("SCHEDULER_LOCK_TTL", 30*time.Second),
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
