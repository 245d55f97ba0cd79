// Package histogram 把分区起始时间按状态分桶
// 桶宽可以显式指定，否则根据时间跨度自适应选择
package histogram

import (
	"sort"
	"strings"
	"time"

	"github.com/nitayke/pbar/internal/domain"
)

const (
	minIntervalSeconds     = 1
	maxIntervalSeconds     = 86400
	defaultIntervalSeconds = 3600
)

// ResolveInterval 计算有效桶宽（秒）
//
// 优先级：显式值（钳制到 [1, 86400]）> 按跨度选择 > 任务分区大小 > 3600
// 跨度取自显式边界，缺失的一侧用数据行的最小/最大起始时间补齐
func ResolveInterval(intervalSeconds *int, from, to *time.Time, partitionSizeSeconds *int, rows []domain.PartitionRow) int {
	if intervalSeconds != nil {
		return clamp(*intervalSeconds, minIntervalSeconds, maxIntervalSeconds)
	}

	spanFrom, spanTo := from, to
	if (spanFrom == nil || spanTo == nil) && len(rows) > 0 {
		minRow, maxRow := rows[0].TimeFrom, rows[0].TimeFrom
		for _, r := range rows[1:] {
			if r.TimeFrom.Before(minRow) {
				minRow = r.TimeFrom
			}
			if r.TimeFrom.After(maxRow) {
				maxRow = r.TimeFrom
			}
		}
		if spanFrom == nil {
			spanFrom = &minRow
		}
		if spanTo == nil {
			spanTo = &maxRow
		}
	}

	if spanFrom != nil && spanTo != nil {
		span := spanTo.Sub(*spanFrom)
		switch {
		case span <= 6*time.Hour:
			return 300 // 5 分钟桶
		case span <= 24*time.Hour:
			return 900
		case span <= 3*24*time.Hour:
			return 1800
		case span <= 7*24*time.Hour:
			return 3600
		case span <= 30*24*time.Hour:
			return 14400
		case span <= 90*24*time.Hour:
			return 43200
		default:
			return 86400
		}
	}

	if partitionSizeSeconds != nil {
		return *partitionSizeSeconds
	}
	return defaultIntervalSeconds
}

// Build 对行集合分桶，结果完全确定：桶按时间升序，桶内状态按字典序
// 空白状态归一为 "unknown"
func Build(rows []domain.PartitionRow, intervalSeconds int) domain.Histogram {
	buckets := make(map[int64]map[string]int64)

	width := int64(intervalSeconds)
	for _, row := range rows {
		epoch := row.TimeFrom.UTC().Unix()
		bucketStart := epoch / width * width

		status := strings.ToLower(strings.TrimSpace(row.Status))
		if status == "" {
			status = "unknown"
		}

		statusMap, ok := buckets[bucketStart]
		if !ok {
			statusMap = make(map[string]int64)
			buckets[bucketStart] = statusMap
		}
		statusMap[status]++
	}

	starts := make([]int64, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	result := domain.Histogram{
		IntervalSeconds: intervalSeconds,
		Buckets:         make([]domain.HistogramBucket, 0, len(starts)),
	}
	for _, start := range starts {
		statusMap := buckets[start]
		statuses := make([]string, 0, len(statusMap))
		for s := range statusMap {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)

		bucket := domain.HistogramBucket{
			TimestampUTC: time.Unix(start, 0).UTC(),
			Statuses:     make([]domain.HistogramStatusCount, 0, len(statuses)),
		}
		for _, s := range statuses {
			bucket.Statuses = append(bucket.Statuses, domain.HistogramStatusCount{
				Status: s,
				Count:  statusMap[s],
			})
		}
		result.Buckets = append(result.Buckets, bucket)
	}
	return result
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
