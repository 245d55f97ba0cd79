// Package metrics 维护每个任务的进程内采样环形缓冲，并在读取时派生吞吐与 ETA
// 缓冲是尽力而为的缓存，进程重启后丢失是可接受的
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/nitayke/pbar/internal/domain"
)

// DefaultMaxSamples 每个任务保留的采样点上限，最旧的先淘汰
const DefaultMaxSamples = 360

type Cache struct {
	mu         sync.Mutex
	samples    map[string][]domain.MetricSample
	maxSamples int
}

func NewCache(maxSamples int) *Cache {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Cache{
		samples:    make(map[string][]domain.MetricSample),
		maxSamples: maxSamples,
	}
}

// AddSample 追加一个采样点，超出容量时丢弃最旧的
func (c *Cache) AddSample(taskID string, sample domain.MetricSample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := append(c.samples[taskID], sample)
	if len(list) > c.maxSamples {
		list = list[len(list)-c.maxSamples:]
	}
	c.samples[taskID] = list
}

// Get 构建指标视图，吞吐与 ETA 每次读取时重新计算
func (c *Cache) Get(taskID string, now time.Time) domain.MetricsView {
	c.mu.Lock()
	list := c.samples[taskID]
	samples := make([]domain.MetricSample, len(list))
	copy(samples, list)
	c.mu.Unlock()

	view := domain.MetricsView{Samples: samples}

	// 吞吐：首尾采样点之间的完成量 / 分钟数
	if len(samples) >= 2 {
		first, last := samples[0], samples[len(samples)-1]
		minutes := last.TimestampUTC.Sub(first.TimestampUTC).Minutes()
		if minutes > 0 {
			rate := round2(float64(last.Done-first.Done) / minutes)
			view.PartitionsPerMinute = &rate
		}
	}

	if len(samples) > 0 {
		last := samples[len(samples)-1]
		todo := last.Total - last.Done
		if todo < 0 {
			todo = 0
		}
		view.Progress = domain.ProgressSnapshot{
			Total: last.Total,
			Done:  last.Done,
			Todo:  todo,
		}
		if last.Total > 0 {
			view.Progress.PercentDone = round2(float64(last.Done) * 100 / float64(last.Total))
			view.Progress.PercentTodo = round2(float64(todo) * 100 / float64(last.Total))
		}
	}

	if view.PartitionsPerMinute != nil && view.Progress.Total > 0 && *view.PartitionsPerMinute > 0 {
		minutesRemaining := float64(view.Progress.Todo) / *view.PartitionsPerMinute
		rounded := math.Round(minutesRemaining*10) / 10
		finish := now.Add(time.Duration(minutesRemaining * float64(time.Minute)))
		view.EstimatedMinutesRemaining = &rounded
		view.EstimatedFinishUTC = &finish
	}
	return view
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
