package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitayke/pbar/internal/domain"
)

func TestCacheEvictsOldestSamples(t *testing.T) {
	c := NewCache(3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		c.AddSample("task-a", domain.MetricSample{
			TimestampUTC: base.Add(time.Duration(i) * time.Minute),
			Done:         int64(i),
			Total:        100,
		})
	}

	view := c.Get("task-a", base.Add(5*time.Minute))
	require.Len(t, view.Samples, 3)
	// 最旧的两个被淘汰
	assert.Equal(t, int64(2), view.Samples[0].Done)
	assert.Equal(t, int64(4), view.Samples[2].Done)
}

func TestCacheZeroCapacityUsesDefault(t *testing.T) {
	c := NewCache(0)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultMaxSamples+10; i++ {
		c.AddSample("task-a", domain.MetricSample{TimestampUTC: base.Add(time.Duration(i) * time.Second), Total: 1})
	}
	view := c.Get("task-a", base)
	assert.Len(t, view.Samples, DefaultMaxSamples)
}

func TestGetThroughputAndETA(t *testing.T) {
	c := NewCache(DefaultMaxSamples)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 10 分钟内完成 40 个分区 -> 4/min，剩余 60 个 -> 15 分钟
	c.AddSample("task-a", domain.MetricSample{TimestampUTC: base, Done: 0, Total: 100})
	c.AddSample("task-a", domain.MetricSample{TimestampUTC: base.Add(10 * time.Minute), Done: 40, Total: 100})

	now := base.Add(10 * time.Minute)
	view := c.Get("task-a", now)

	require.NotNil(t, view.PartitionsPerMinute)
	assert.Equal(t, 4.0, *view.PartitionsPerMinute)

	assert.Equal(t, int64(100), view.Progress.Total)
	assert.Equal(t, int64(40), view.Progress.Done)
	assert.Equal(t, int64(60), view.Progress.Todo)
	assert.Equal(t, 40.0, view.Progress.PercentDone)

	require.NotNil(t, view.EstimatedMinutesRemaining)
	assert.Equal(t, 15.0, *view.EstimatedMinutesRemaining)
	require.NotNil(t, view.EstimatedFinishUTC)
	assert.Equal(t, now.Add(15*time.Minute), *view.EstimatedFinishUTC)
}

func TestGetSingleSampleNoRate(t *testing.T) {
	c := NewCache(DefaultMaxSamples)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.AddSample("task-a", domain.MetricSample{TimestampUTC: base, Done: 5, Total: 10})

	view := c.Get("task-a", base.Add(time.Minute))
	assert.Nil(t, view.PartitionsPerMinute)
	assert.Nil(t, view.EstimatedMinutesRemaining)
	assert.Nil(t, view.EstimatedFinishUTC)
	assert.Equal(t, int64(5), view.Progress.Done)
	assert.Equal(t, int64(5), view.Progress.Todo)
}

func TestGetZeroRateNoETA(t *testing.T) {
	c := NewCache(DefaultMaxSamples)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 两个采样点之间没有任何进展：有速率字段但为 0，不给 ETA
	c.AddSample("task-a", domain.MetricSample{TimestampUTC: base, Done: 10, Total: 100})
	c.AddSample("task-a", domain.MetricSample{TimestampUTC: base.Add(5 * time.Minute), Done: 10, Total: 100})

	view := c.Get("task-a", base.Add(5*time.Minute))
	require.NotNil(t, view.PartitionsPerMinute)
	assert.Zero(t, *view.PartitionsPerMinute)
	assert.Nil(t, view.EstimatedMinutesRemaining)
	assert.Nil(t, view.EstimatedFinishUTC)
}

func TestGetUnknownTask(t *testing.T) {
	c := NewCache(DefaultMaxSamples)
	view := c.Get("no-such-task", time.Now())
	assert.Empty(t, view.Samples)
	assert.Nil(t, view.PartitionsPerMinute)
	assert.Zero(t, view.Progress.Total)
}

// done 超过 total 时 todo 钳制到 0
func TestGetTodoClampedNonNegative(t *testing.T) {
	c := NewCache(DefaultMaxSamples)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.AddSample("task-a", domain.MetricSample{TimestampUTC: base, Done: 12, Total: 10})

	view := c.Get("task-a", base)
	assert.Equal(t, int64(0), view.Progress.Todo)
}

func TestCacheTasksAreIsolated(t *testing.T) {
	c := NewCache(2)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		taskID := fmt.Sprintf("task-%d", i%2)
		c.AddSample(taskID, domain.MetricSample{TimestampUTC: base.Add(time.Duration(i) * time.Minute), Done: int64(i), Total: 10})
	}

	assert.Len(t, c.Get("task-0", base).Samples, 2)
	assert.Len(t, c.Get("task-1", base).Samples, 2)
}
