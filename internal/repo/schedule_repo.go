package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nitayke/pbar/internal/domain"
)

// CreateSchedule 创建调度规则
func CreateSchedule(ctx context.Context, db Querier, s *domain.Schedule) error {
	_, err := db.Exec(ctx, `
		INSERT INTO scheduled_tasks (schedule_id, task_id, interval_seconds, bulk_size_seconds, cron_expr,
			last_execution_time, next_execution_time, is_enabled, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ScheduleID, s.TaskID, s.IntervalSeconds, s.BulkSizeSeconds, s.CronExpr,
		s.LastExecutionTime, s.NextExecutionTime, s.IsEnabled, s.CreatedAt, s.CreatedBy)
	return err
}

// ListSchedules 查询全部调度规则，可按任务过滤（taskID 为空表示不过滤）
func ListSchedules(ctx context.Context, db Querier, taskID string) ([]domain.Schedule, error) {
	query := `
		SELECT schedule_id, task_id, interval_seconds, bulk_size_seconds, cron_expr,
			last_execution_time, next_execution_time, is_enabled, created_at, created_by
		FROM scheduled_tasks
	`
	args := []any{}
	if taskID != "" {
		query += " WHERE task_id=$1"
		args = append(args, taskID)
	}
	query += " ORDER BY created_at"

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// ListDueSchedules 查询所有已启用且 next_execution_time <= now 的调度规则
func ListDueSchedules(ctx context.Context, db Querier, now time.Time) ([]domain.Schedule, error) {
	rows, err := db.Query(ctx, `
		SELECT schedule_id, task_id, interval_seconds, bulk_size_seconds, cron_expr,
			last_execution_time, next_execution_time, is_enabled, created_at, created_by
		FROM scheduled_tasks
		WHERE is_enabled AND next_execution_time IS NOT NULL AND next_execution_time <= $1
		ORDER BY next_execution_time
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// GetScheduleByID 按 ID 查询调度规则，不存在返回 (nil, nil)
func GetScheduleByID(ctx context.Context, db Querier, scheduleID string) (*domain.Schedule, error) {
	row := db.QueryRow(ctx, `
		SELECT schedule_id, task_id, interval_seconds, bulk_size_seconds, cron_expr,
			last_execution_time, next_execution_time, is_enabled, created_at, created_by
		FROM scheduled_tasks
		WHERE schedule_id=$1
	`, scheduleID)
	var s domain.Schedule
	if err := scanSchedule(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpdateSchedule 整行更新可变字段
func UpdateSchedule(ctx context.Context, db Querier, s *domain.Schedule) error {
	_, err := db.Exec(ctx, `
		UPDATE scheduled_tasks
		SET interval_seconds=$2, bulk_size_seconds=$3, cron_expr=$4,
			last_execution_time=$5, next_execution_time=$6, is_enabled=$7
		WHERE schedule_id=$1
	`, s.ScheduleID, s.IntervalSeconds, s.BulkSizeSeconds, s.CronExpr,
		s.LastExecutionTime, s.NextExecutionTime, s.IsEnabled)
	return err
}

// DeleteSchedule 删除调度规则
func DeleteSchedule(ctx context.Context, db Querier, scheduleID string) error {
	_, err := db.Exec(ctx, `
		DELETE FROM scheduled_tasks
		WHERE schedule_id=$1
	`, scheduleID)
	return err
}

func scanSchedules(rows pgx.Rows) ([]domain.Schedule, error) {
	var res []domain.Schedule
	for rows.Next() {
		var s domain.Schedule
		if err := scanSchedule(rows, &s); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func scanSchedule(row pgx.Row, s *domain.Schedule) error {
	return row.Scan(&s.ScheduleID, &s.TaskID, &s.IntervalSeconds, &s.BulkSizeSeconds, &s.CronExpr,
		&s.LastExecutionTime, &s.NextExecutionTime, &s.IsEnabled, &s.CreatedAt, &s.CreatedBy)
}
