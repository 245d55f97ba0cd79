package domain

import (
	"time"
)

// ProgressSnapshot 进度快照（派生值，不落库）
// 恒等式：Done + InProgress + Todo == Total；百分比保留两位小数，Total 为 0 时全部为 0
type ProgressSnapshot struct {
	Total             int64   `json:"total"`
	Done              int64   `json:"done"`
	InProgress        int64   `json:"in_progress"`
	Todo              int64   `json:"todo"`
	PercentDone       float64 `json:"percent_done"`
	PercentInProgress float64 `json:"percent_in_progress"`
	PercentTodo       float64 `json:"percent_todo"`
}

// MetricSample 某一时刻的采样点，仅保存在进程内的环形缓冲中
type MetricSample struct {
	TimestampUTC time.Time `json:"timestamp_utc"`
	Done         int64     `json:"done"`
	Total        int64     `json:"total"`
}

// MetricsView 指标读取视图，吞吐与 ETA 在每次读取时重新计算
type MetricsView struct {
	Progress                  ProgressSnapshot `json:"progress"`
	PartitionsPerMinute       *float64         `json:"partitions_per_minute,omitempty"`
	EstimatedMinutesRemaining *float64         `json:"estimated_minutes_remaining,omitempty"`
	EstimatedFinishUTC        *time.Time       `json:"estimated_finish_utc,omitempty"`
	Samples                   []MetricSample   `json:"samples"`
}
