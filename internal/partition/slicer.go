// Package partition 提供纯函数的时间范围切分
// 把一个 [from, to) 范围按固定步长切成首尾相接的分区序列：
// 第一个分区从范围起点开始，之后每个分区紧接上一个结束点，
// 最后一个分区截断到范围终点，保证无缝隙、无重叠、无零长度分区
package partition

import (
	"errors"
	"time"

	"github.com/nitayke/pbar/internal/domain"
)

var (
	ErrInvalidRange     = errors.New("time_to must be after time_from")
	ErrInvalidSliceSize = errors.New("slice size must be positive")
)

// Slice 把 range 切成分区，status 作为每个分区的初始状态
// 分区数量恒等于 ceil((to-from)/sliceSeconds)
func Slice(r domain.TimeRange, sliceSeconds int, status string) ([]domain.Partition, error) {
	if !r.TimeTo.After(r.TimeFrom) {
		return nil, ErrInvalidRange
	}
	if sliceSeconds <= 0 {
		return nil, ErrInvalidSliceSize
	}

	step := time.Duration(sliceSeconds) * time.Second
	partitions := make([]domain.Partition, 0, Count(r.TimeFrom, r.TimeTo, sliceSeconds))

	cursor := r.TimeFrom
	for cursor.Before(r.TimeTo) {
		next := cursor.Add(step)
		if next.After(r.TimeTo) {
			next = r.TimeTo
		}
		partitions = append(partitions, domain.Partition{
			TaskID:   r.TaskID,
			RangeID:  r.RangeID,
			TimeFrom: cursor,
			TimeTo:   next,
			Status:   status,
		})
		cursor = next
	}
	return partitions, nil
}

// Count 返回一个范围切分后的分区数 ceil(duration/sliceSeconds)
// 非法输入返回 0
func Count(from, to time.Time, sliceSeconds int) int64 {
	if !to.After(from) || sliceSeconds <= 0 {
		return 0
	}
	duration := int64(to.Sub(from) / time.Second)
	slice := int64(sliceSeconds)
	return (duration + slice - 1) / slice
}

// ExpectedTotal 对任务全部范围求和得到期望分区总数，跳过时长非正的范围
func ExpectedTotal(ranges []domain.TimeRange, sliceSeconds int) int64 {
	var total int64
	for _, r := range ranges {
		total += Count(r.TimeFrom, r.TimeTo, sliceSeconds)
	}
	return total
}
