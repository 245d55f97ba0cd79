package domain

import (
	"time"
)

type Task struct {
	TaskID               string    `json:"task_id"`                // 唯一标识符（由调用方指定，不可变）
	Description          string    `json:"description"`            // 任务描述
	CreatedBy            string    `json:"created_by"`             // 创建者
	LastUpdate           time.Time `json:"last_update"`            // 最后更新时间
	PartitionSizeSeconds *int      `json:"partition_size_seconds"` // 分区大小（秒），为空时使用全局默认
}

// TaskSummary 任务列表视图，附带类型与可选的进度
type TaskSummary struct {
	TaskID               string            `json:"task_id"`
	Description          string            `json:"description"`
	CreatedBy            string            `json:"created_by"`
	LastUpdate           time.Time         `json:"last_update"`
	PartitionSizeSeconds *int              `json:"partition_size_seconds"`
	Type                 string            `json:"type"`
	Progress             *ProgressSnapshot `json:"progress,omitempty"`
}
