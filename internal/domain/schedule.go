package domain

import (
	"time"
)

type Schedule struct {
	ScheduleID        string     `json:"schedule_id"`         // 调度规则的唯一标识
	TaskID            string     `json:"task_id"`             // 目标任务
	IntervalSeconds   int        `json:"interval_seconds"`    // 两次执行之间的间隔（秒）
	BulkSizeSeconds   int        `json:"bulk_size_seconds"`   // 每次自动生成的范围时长（秒）
	CronExpr          string     `json:"cron_expr,omitempty"` // 可选 cron 表达式，优先于 interval
	LastExecutionTime *time.Time `json:"last_execution_time"` // 上次执行时间（即上个范围的结束点）
	NextExecutionTime *time.Time `json:"next_execution_time"` // 下次执行时间，nil 表示停用
	IsEnabled         bool       `json:"is_enabled"`          // 是否启用
	CreatedAt         time.Time  `json:"created_at"`
	CreatedBy         string     `json:"created_by"`
}
