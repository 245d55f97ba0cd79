package domain

import (
	"time"
)

type TimeRange struct {
	RangeID      string    `json:"range_id"`      // 唯一标识（生成）
	TaskID       string    `json:"task_id"`       // 所属任务
	TimeFrom     time.Time `json:"time_from"`     // 起始时间
	TimeTo       time.Time `json:"time_to"`       // 结束时间（必须晚于起始时间）
	CreationTime time.Time `json:"creation_time"` // 创建时间
	CreatedBy    string    `json:"created_by"`    // 创建者
}
