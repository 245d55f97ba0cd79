package service

import (
	"strings"
)

// TaskType 根据任务 ID 推断粗粒度类型，用于列表筛选
func TaskType(taskID string) string {
	normalized := strings.ToLower(taskID)
	if strings.Contains(normalized, "reflow") {
		return "reflow"
	}
	if strings.Contains(normalized, "hermetics") {
		return "hermetics"
	}
	return "other"
}
