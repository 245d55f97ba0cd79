// Package progress 把分区状态计数聚合成进度快照
// 状态是开放字符串集：按小写归一后的成员判定分类，未识别的一律计入 todo
package progress

import (
	"math"
	"strings"

	"github.com/nitayke/pbar/internal/domain"
)

var doneStatuses = map[string]bool{
	"done":      true,
	"complete":  true,
	"completed": true,
}

var inProgressStatuses = map[string]bool{
	"in_progress": true,
	"inprogress":  true,
	"running":     true,
}

const (
	classDone = iota
	classInProgress
	classTodo
)

// Classify 状态分类，大小写不敏感
func Classify(status string) int {
	normalized := strings.ToLower(strings.TrimSpace(status))
	switch {
	case doneStatuses[normalized]:
		return classDone
	case inProgressStatuses[normalized]:
		return classInProgress
	default:
		return classTodo
	}
}

// IsDone / IsInProgress 供外部按单个状态判断
func IsDone(status string) bool       { return Classify(status) == classDone }
func IsInProgress(status string) bool { return Classify(status) == classInProgress }

// BuildSnapshot 根据状态计数和期望总数构建进度快照
//
// expectedTotal > 0 时以期望总数为准：in_progress 与 todo 取观测值，
// 溢出时先压缩 todo 再压缩 in_progress，done 取差值，不会为负；
// expectedTotal <= 0 时退化为纯计数模式（观测值直接求和）
func BuildSnapshot(counts []domain.StatusCount, expectedTotal int64) domain.ProgressSnapshot {
	var observedDone, observedInProgress, observedTodo int64
	for _, c := range counts {
		switch Classify(c.Status) {
		case classDone:
			observedDone += c.Count
		case classInProgress:
			observedInProgress += c.Count
		default:
			observedTodo += c.Count
		}
	}

	var snap domain.ProgressSnapshot
	if expectedTotal > 0 {
		snap.Total = expectedTotal
		snap.InProgress = observedInProgress
		snap.Todo = observedTodo
		if over := snap.InProgress + snap.Todo - snap.Total; over > 0 {
			cut := min64(snap.Todo, over)
			snap.Todo -= cut
			snap.InProgress -= over - cut
		}
		snap.Done = snap.Total - snap.InProgress - snap.Todo
	} else {
		snap.Total = observedDone + observedInProgress + observedTodo
		snap.Done = observedDone
		snap.InProgress = observedInProgress
		snap.Todo = observedTodo
	}

	finalizePercentages(&snap)
	return snap
}

// BuildSnapshotMap 批量形式：一次遍历给每个任务构建快照
func BuildSnapshotMap(taskIDs []string, counts map[string][]domain.StatusCount, expectedTotals map[string]int64) map[string]domain.ProgressSnapshot {
	result := make(map[string]domain.ProgressSnapshot, len(taskIDs))
	for _, taskID := range taskIDs {
		result[taskID] = BuildSnapshot(counts[taskID], expectedTotals[taskID])
	}
	return result
}

func finalizePercentages(p *domain.ProgressSnapshot) {
	if p.Total == 0 {
		return
	}
	p.PercentDone = round2(float64(p.Done) * 100 / float64(p.Total))
	p.PercentInProgress = round2(float64(p.InProgress) * 100 / float64(p.Total))
	p.PercentTodo = round2(float64(p.Todo) * 100 / float64(p.Total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
