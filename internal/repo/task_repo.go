package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nitayke/pbar/internal/domain"
)

// InsertTask 向 tasks 表插入一条任务记录
func InsertTask(ctx context.Context, db Querier, t *domain.Task) error {
	_, err := db.Exec(ctx, `
		INSERT INTO tasks (task_id, description, created_by, last_update, partition_size_seconds)
		VALUES ($1, $2, $3, $4, $5)
	`, t.TaskID, t.Description, t.CreatedBy, t.LastUpdate, t.PartitionSizeSeconds)
	return err
}

// GetTaskByID 按 ID 查询任务，不存在时返回 (nil, nil)
func GetTaskByID(ctx context.Context, db Querier, taskID string) (*domain.Task, error) {
	row := db.QueryRow(ctx, `
		SELECT task_id, description, created_by, last_update, partition_size_seconds
		FROM tasks
		WHERE task_id=$1
	`, taskID)
	var t domain.Task
	if err := row.Scan(&t.TaskID, &t.Description, &t.CreatedBy, &t.LastUpdate, &t.PartitionSizeSeconds); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// TaskExists 任务是否存在
func TaskExists(ctx context.Context, db Querier, taskID string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tasks WHERE task_id=$1)
	`, taskID).Scan(&exists)
	return exists, err
}

// ListTasks 按类型与搜索词过滤并分页，按最后更新时间倒序
// taskType 可取 reflow/hermetics/other，空串表示不过滤
func ListTasks(ctx context.Context, db Querier, taskType, search string, skip, take int) ([]domain.Task, error) {
	query := `
		SELECT task_id, description, created_by, last_update, partition_size_seconds
		FROM tasks
	`
	var conditions []string
	var args []any

	switch taskType {
	case "reflow":
		conditions = append(conditions, `task_id ILIKE '%reflow%'`)
	case "hermetics":
		conditions = append(conditions, `task_id ILIKE '%hermetics%'`)
	case "other":
		conditions = append(conditions, `task_id NOT ILIKE '%reflow%' AND task_id NOT ILIKE '%hermetics%'`)
	}
	if search != "" {
		args = append(args, search)
		conditions = append(conditions, fmt.Sprintf(
			`(task_id ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')`, len(args), len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, skip, take)
	query += fmt.Sprintf(" ORDER BY last_update DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.TaskID, &t.Description, &t.CreatedBy, &t.LastUpdate, &t.PartitionSizeSeconds); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// ListRecentTasks 最近更新过的任务，供指标采样用（按更新时间倒序，限量）
func ListRecentTasks(ctx context.Context, db Querier, since time.Time, limit int) ([]domain.Task, error) {
	rows, err := db.Query(ctx, `
		SELECT task_id, description, created_by, last_update, partition_size_seconds
		FROM tasks
		WHERE last_update >= $1
		ORDER BY last_update DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.TaskID, &t.Description, &t.CreatedBy, &t.LastUpdate, &t.PartitionSizeSeconds); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// TouchTask 刷新任务的最后更新时间
func TouchTask(ctx context.Context, db Querier, taskID string, at time.Time) error {
	_, err := db.Exec(ctx, `
		UPDATE tasks
		SET last_update=$2
		WHERE task_id=$1
	`, taskID, at)
	return err
}

// DeleteTask 删除任务行本身（级联删除由 service 层在事务里按序完成）
func DeleteTask(ctx context.Context, db Querier, taskID string) error {
	_, err := db.Exec(ctx, `
		DELETE FROM tasks
		WHERE task_id=$1
	`, taskID)
	return err
}
