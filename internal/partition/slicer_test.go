package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitayke/pbar/internal/domain"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestSliceExactMultiple(t *testing.T) {
	r := domain.TimeRange{
		TaskID:   "task-a",
		RangeID:  "range-1",
		TimeFrom: mustTime(t, "2026-01-01T00:00:00Z"),
		TimeTo:   mustTime(t, "2026-01-01T01:00:00Z"),
	}

	partitions, err := Slice(r, 600, "TODO")
	require.NoError(t, err)
	require.Len(t, partitions, 6)

	// 首尾对齐范围边界，中间首尾相接
	assert.Equal(t, r.TimeFrom, partitions[0].TimeFrom)
	assert.Equal(t, r.TimeTo, partitions[5].TimeTo)
	for i := 1; i < len(partitions); i++ {
		assert.Equal(t, partitions[i-1].TimeTo, partitions[i].TimeFrom)
	}
	for _, p := range partitions {
		assert.Equal(t, "task-a", p.TaskID)
		assert.Equal(t, "range-1", p.RangeID)
		assert.Equal(t, "TODO", p.Status)
		assert.True(t, p.TimeTo.After(p.TimeFrom))
	}
}

func TestSliceTruncatesLastPartition(t *testing.T) {
	// 11 分钟范围按 5 分钟切：最后一个分区只剩 1 分钟
	r := domain.TimeRange{
		TaskID:   "task-a",
		RangeID:  "range-1",
		TimeFrom: mustTime(t, "2026-01-01T00:00:00Z"),
		TimeTo:   mustTime(t, "2026-01-01T00:11:00Z"),
	}

	partitions, err := Slice(r, 300, "TODO")
	require.NoError(t, err)
	require.Len(t, partitions, 3)

	assert.Equal(t, mustTime(t, "2026-01-01T00:05:00Z"), partitions[0].TimeTo)
	assert.Equal(t, mustTime(t, "2026-01-01T00:10:00Z"), partitions[1].TimeTo)
	assert.Equal(t, mustTime(t, "2026-01-01T00:10:00Z"), partitions[2].TimeFrom)
	assert.Equal(t, r.TimeTo, partitions[2].TimeTo)
}

func TestSliceSmallerThanStep(t *testing.T) {
	r := domain.TimeRange{
		TimeFrom: mustTime(t, "2026-01-01T00:00:00Z"),
		TimeTo:   mustTime(t, "2026-01-01T00:00:30Z"),
	}

	partitions, err := Slice(r, 3600, "TODO")
	require.NoError(t, err)
	require.Len(t, partitions, 1)
	assert.Equal(t, r.TimeFrom, partitions[0].TimeFrom)
	assert.Equal(t, r.TimeTo, partitions[0].TimeTo)
}

func TestSliceInvalidInputs(t *testing.T) {
	from := mustTime(t, "2026-01-01T00:00:00Z")

	_, err := Slice(domain.TimeRange{TimeFrom: from, TimeTo: from}, 300, "TODO")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Slice(domain.TimeRange{TimeFrom: from, TimeTo: from.Add(-time.Hour)}, 300, "TODO")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Slice(domain.TimeRange{TimeFrom: from, TimeTo: from.Add(time.Hour)}, 0, "TODO")
	assert.ErrorIs(t, err, ErrInvalidSliceSize)

	_, err = Slice(domain.TimeRange{TimeFrom: from, TimeTo: from.Add(time.Hour)}, -60, "TODO")
	assert.ErrorIs(t, err, ErrInvalidSliceSize)
}

func TestCountMatchesSliceLength(t *testing.T) {
	from := mustTime(t, "2026-01-01T00:00:00Z")
	cases := []struct {
		duration time.Duration
		slice    int
		want     int64
	}{
		{time.Hour, 600, 6},
		{11 * time.Minute, 300, 3},
		{30 * time.Second, 3600, 1},
		{24 * time.Hour, 3600, 24},
		{25 * time.Hour, 86400, 2},
	}

	for _, tc := range cases {
		got := Count(from, from.Add(tc.duration), tc.slice)
		assert.Equal(t, tc.want, got, "duration=%s slice=%d", tc.duration, tc.slice)

		partitions, err := Slice(domain.TimeRange{TimeFrom: from, TimeTo: from.Add(tc.duration)}, tc.slice, "TODO")
		require.NoError(t, err)
		assert.Equal(t, int(tc.want), len(partitions))
	}
}

func TestCountInvalidInputs(t *testing.T) {
	from := mustTime(t, "2026-01-01T00:00:00Z")
	assert.Zero(t, Count(from, from, 300))
	assert.Zero(t, Count(from, from.Add(-time.Minute), 300))
	assert.Zero(t, Count(from, from.Add(time.Hour), 0))
}

func TestExpectedTotal(t *testing.T) {
	from := mustTime(t, "2026-01-01T00:00:00Z")
	ranges := []domain.TimeRange{
		{TimeFrom: from, TimeTo: from.Add(time.Hour)},         // 6
		{TimeFrom: from, TimeTo: from.Add(11 * time.Minute)},  // 2
		{TimeFrom: from, TimeTo: from},                        // 非法，跳过
		{TimeFrom: from, TimeTo: from.Add(-30 * time.Minute)}, // 非法，跳过
		{TimeFrom: from, TimeTo: from.Add(90 * time.Second)},  // 1
	}

	assert.Equal(t, int64(9), ExpectedTotal(ranges, 600))
	assert.Zero(t, ExpectedTotal(nil, 600))
	assert.Zero(t, ExpectedTotal(ranges, 0))
}
