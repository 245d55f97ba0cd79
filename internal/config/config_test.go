package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 5, cfg.PartitionMinutes)
	assert.Equal(t, "TODO", cfg.PartitionStatusTodo)
	assert.Equal(t, 10*time.Second, cfg.MetricsSampleInterval)
	assert.Equal(t, 120*time.Minute, cfg.MetricsLookback)
	assert.Equal(t, 200, cfg.MetricsMaxTasks)
	assert.Equal(t, time.Minute, cfg.SchedulePollInterval)
	assert.Equal(t, 30*time.Second, cfg.SchedulerLockTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PARTITION_MINUTES", "15")
	t.Setenv("PARTITION_STATUS_TODO", "PENDING")
	t.Setenv("METRICS_SAMPLE_INTERVAL_SECONDS", "30")
	t.Setenv("SCHEDULE_POLL_INTERVAL", "10s")

	cfg := Load()
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 15, cfg.PartitionMinutes)
	assert.Equal(t, "PENDING", cfg.PartitionStatusTodo)
	assert.Equal(t, 30*time.Second, cfg.MetricsSampleInterval)
	assert.Equal(t, 10*time.Second, cfg.SchedulePollInterval)
}

// 采样间隔过小或非法时落回安全值
func TestLoadGuards(t *testing.T) {
	t.Setenv("METRICS_SAMPLE_INTERVAL_SECONDS", "1")
	assert.Equal(t, 2*time.Second, Load().MetricsSampleInterval)

	t.Setenv("METRICS_SAMPLE_INTERVAL_SECONDS", "abc")
	assert.Equal(t, 10*time.Second, Load().MetricsSampleInterval)

	t.Setenv("PARTITION_MINUTES", "-3")
	assert.Equal(t, 5, Load().PartitionMinutes)

	t.Setenv("SCHEDULE_POLL_INTERVAL", "bogus")
	assert.Equal(t, time.Minute, Load().SchedulePollInterval)
}
