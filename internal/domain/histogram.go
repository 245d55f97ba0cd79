package domain

import (
	"time"
)

// Histogram 按时间桶统计的分区状态分布
type Histogram struct {
	IntervalSeconds int               `json:"interval_seconds"`
	Buckets         []HistogramBucket `json:"buckets"`
}

type HistogramBucket struct {
	TimestampUTC time.Time              `json:"timestamp_utc"`
	Statuses     []HistogramStatusCount `json:"statuses"`
}

type HistogramStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
