package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nitayke/pbar/internal/domain"
)

func TestRunWindowFirstExecution(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := domain.Schedule{
		IntervalSeconds: 3600,
		BulkSizeSeconds: 1800,
	}

	from, to := runWindow(sched, now)
	assert.Equal(t, now, from)
	assert.Equal(t, now.Add(30*time.Minute), to)
}

// 后续执行从上次窗口的终点接续，不留缝隙
func TestRunWindowContinuesFromLastExecution(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-time.Hour)
	sched := domain.Schedule{
		IntervalSeconds:   3600,
		BulkSizeSeconds:   1800,
		LastExecutionTime: &last,
	}

	from, to := runWindow(sched, now)
	assert.Equal(t, last, from)
	assert.Equal(t, last.Add(30*time.Minute), to)
}

func TestRunWindowChainsAcrossRuns(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sched := domain.Schedule{
		IntervalSeconds: 3600,
		BulkSizeSeconds: 1800,
	}

	// 模拟三轮连续执行：每轮 last = 上一轮的 to
	var windows [][2]time.Time
	for i := 0; i < 3; i++ {
		from, to := runWindow(sched, now.Add(time.Duration(i)*time.Hour))
		windows = append(windows, [2]time.Time{from, to})
		end := to
		sched.LastExecutionTime = &end
	}

	assert.Equal(t, windows[0][1], windows[1][0])
	assert.Equal(t, windows[1][1], windows[2][0])
}

func TestNextExecutionInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := domain.Schedule{IntervalSeconds: 3600, BulkSizeSeconds: 1800}

	assert.Equal(t, now.Add(time.Hour), nextExecution(sched, now))
}

func TestNextExecutionCron(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 30, 0, 0, time.UTC)
	sched := domain.Schedule{
		IntervalSeconds: 3600,
		BulkSizeSeconds: 1800,
		CronExpr:        "0 0 * * * *", // 每小时整点
	}

	assert.Equal(t, time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC), nextExecution(sched, now))
}

// cron 解析失败时回退到 interval
func TestNextExecutionBadCronFallsBack(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := domain.Schedule{
		IntervalSeconds: 600,
		CronExpr:        "not a cron",
	}

	assert.Equal(t, now.Add(10*time.Minute), nextExecution(sched, now))
}

// 目标任务消失时规则停用而不是报错：enabled=false、下次执行清空、历史保留
func TestDisableForMissingTask(t *testing.T) {
	next := time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)
	last := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := domain.Schedule{
		ScheduleID:        "sched-1",
		TaskID:            "gone-task",
		IsEnabled:         true,
		NextExecutionTime: &next,
		LastExecutionTime: &last,
	}

	disableForMissingTask(&sched)

	assert.False(t, sched.IsEnabled)
	assert.Nil(t, sched.NextExecutionTime)
	assert.Equal(t, &last, sched.LastExecutionTime)
	assert.Equal(t, "gone-task", sched.TaskID)
}

func TestTaskType(t *testing.T) {
	assert.Equal(t, "reflow", TaskType("nightly-reflow-2026"))
	assert.Equal(t, "reflow", TaskType("REFLOW-main"))
	assert.Equal(t, "hermetics", TaskType("hermetics-backfill"))
	assert.Equal(t, "other", TaskType("ingest-clickstream"))
	assert.Equal(t, "other", TaskType(""))
}

func TestClampPage(t *testing.T) {
	skip, take := clampPage(-5, 0)
	assert.Equal(t, 0, skip)
	assert.Equal(t, 100, take)

	skip, take = clampPage(20, 9999)
	assert.Equal(t, 20, skip)
	assert.Equal(t, 500, take)

	skip, take = clampPage(3, 50)
	assert.Equal(t, 3, skip)
	assert.Equal(t, 50, take)
}
