package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nitayke/pbar/internal/domain"
)

// InsertRange 插入一条时间范围
func InsertRange(ctx context.Context, db Querier, r *domain.TimeRange) error {
	_, err := db.Exec(ctx, `
		INSERT INTO task_ranges (range_id, task_id, time_from, time_to, creation_time, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.RangeID, r.TaskID, r.TimeFrom, r.TimeTo, r.CreationTime, r.CreatedBy)
	return err
}

// ListRangesByTask 按任务查询全部范围，按起始时间升序
func ListRangesByTask(ctx context.Context, db Querier, taskID string) ([]domain.TimeRange, error) {
	rows, err := db.Query(ctx, `
		SELECT range_id, task_id, time_from, time_to, creation_time, created_by
		FROM task_ranges
		WHERE task_id=$1
		ORDER BY time_from
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRanges(rows)
}

// ListRangesByTasks 批量查询多个任务的范围，返回 task_id -> ranges
func ListRangesByTasks(ctx context.Context, db Querier, taskIDs []string) (map[string][]domain.TimeRange, error) {
	rows, err := db.Query(ctx, `
		SELECT range_id, task_id, time_from, time_to, creation_time, created_by
		FROM task_ranges
		WHERE task_id = ANY($1)
	`, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ranges, err := scanRanges(rows)
	if err != nil {
		return nil, err
	}
	res := make(map[string][]domain.TimeRange)
	for _, r := range ranges {
		res[r.TaskID] = append(res[r.TaskID], r)
	}
	return res, nil
}

// GetRangeByWindow 按 (task, from, to) 精确匹配查找范围，不存在返回 (nil, nil)
func GetRangeByWindow(ctx context.Context, db Querier, taskID string, from, to time.Time) (*domain.TimeRange, error) {
	row := db.QueryRow(ctx, `
		SELECT range_id, task_id, time_from, time_to, creation_time, created_by
		FROM task_ranges
		WHERE task_id=$1 AND time_from=$2 AND time_to=$3
		LIMIT 1
	`, taskID, from, to)
	var r domain.TimeRange
	if err := row.Scan(&r.RangeID, &r.TaskID, &r.TimeFrom, &r.TimeTo, &r.CreationTime, &r.CreatedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// DeleteRangeByID 按范围 ID 删除
func DeleteRangeByID(ctx context.Context, db Querier, rangeID string) error {
	_, err := db.Exec(ctx, `
		DELETE FROM task_ranges
		WHERE range_id=$1
	`, rangeID)
	return err
}

// DeleteRangesByWindow 按 (task, from, to) 删除
func DeleteRangesByWindow(ctx context.Context, db Querier, taskID string, from, to time.Time) error {
	_, err := db.Exec(ctx, `
		DELETE FROM task_ranges
		WHERE task_id=$1 AND time_from=$2 AND time_to=$3
	`, taskID, from, to)
	return err
}

// DeleteRangesByTask 删除任务的全部范围
func DeleteRangesByTask(ctx context.Context, db Querier, taskID string) error {
	_, err := db.Exec(ctx, `
		DELETE FROM task_ranges
		WHERE task_id=$1
	`, taskID)
	return err
}

func scanRanges(rows pgx.Rows) ([]domain.TimeRange, error) {
	var res []domain.TimeRange
	for rows.Next() {
		var r domain.TimeRange
		if err := rows.Scan(&r.RangeID, &r.TaskID, &r.TimeFrom, &r.TimeTo, &r.CreationTime, &r.CreatedBy); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}
