package domain

import (
	"time"
)

type Partition struct {
	TaskID   string    `json:"task_id"`   // 所属任务
	RangeID  string    `json:"range_id"`  // 所属时间范围
	TimeFrom time.Time `json:"time_from"` // 分区起始时间
	TimeTo   time.Time `json:"time_to"`   // 分区结束时间
	Status   string    `json:"status"`    // 状态（开放字符串集，大小写不敏感）
}

// StatusCount 按状态聚合的分区计数
type StatusCount struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// PartitionRow 直方图查询用的最小行
type PartitionRow struct {
	TimeFrom time.Time `json:"time_from"`
	Status   string    `json:"status"`
}
