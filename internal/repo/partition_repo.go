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

// insertChunkSize 每次往返最多插入的分区数，避免超出后端参数上限
const insertChunkSize = 2000

// claimMaxAttempts CAS 认领的最大重试次数，超过后按"暂无工作"处理
const claimMaxAttempts = 20

// InsertPartitions 分块批量插入
// 单块内一条多值 INSERT；整体的原子性由调用方的事务保证
func InsertPartitions(ctx context.Context, db Querier, partitions []domain.Partition) error {
	for start := 0; start < len(partitions); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(partitions) {
			end = len(partitions)
		}
		if err := insertPartitionChunk(ctx, db, partitions[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertPartitionChunk(ctx context.Context, db Querier, chunk []domain.Partition) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO task_partitions (task_id, range_id, time_from, time_to, status) VALUES `)
	args := make([]any, 0, len(chunk)*5)
	for i, p := range chunk {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		args = append(args, p.TaskID, p.RangeID, p.TimeFrom, p.TimeTo, p.Status)
	}
	_, err := db.Exec(ctx, sb.String(), args...)
	return err
}

// StatusCounts 单任务按状态聚合计数
func StatusCounts(ctx context.Context, db Querier, taskID string) ([]domain.StatusCount, error) {
	rows, err := db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM task_partitions
		WHERE task_id=$1
		GROUP BY status
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.StatusCount
	for rows.Next() {
		c := domain.StatusCount{TaskID: taskID}
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// StatusCountsForTasks 多任务聚合计数，返回 task_id -> counts
func StatusCountsForTasks(ctx context.Context, db Querier, taskIDs []string) (map[string][]domain.StatusCount, error) {
	rows, err := db.Query(ctx, `
		SELECT task_id, status, COUNT(*)
		FROM task_partitions
		WHERE task_id = ANY($1)
		GROUP BY task_id, status
	`, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[string][]domain.StatusCount)
	for rows.Next() {
		var c domain.StatusCount
		if err := rows.Scan(&c.TaskID, &c.Status, &c.Count); err != nil {
			return nil, err
		}
		res[c.TaskID] = append(res[c.TaskID], c)
	}
	return res, rows.Err()
}

// HistogramRows 直方图原始行：边界给定时按 time_from >= from 且 time_from < to 过滤
func HistogramRows(ctx context.Context, db Querier, taskID string, from, to *time.Time) ([]domain.PartitionRow, error) {
	query := `
		SELECT time_from, status
		FROM task_partitions
		WHERE task_id=$1
	`
	args := []any{taskID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND time_from >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND time_from < $%d", len(args))
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.PartitionRow
	for rows.Next() {
		var r domain.PartitionRow
		if err := rows.Scan(&r.TimeFrom, &r.Status); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// ListPartitions 分页查询分区，按起始时间升序
func ListPartitions(ctx context.Context, db Querier, taskID string, skip, take int) ([]domain.Partition, error) {
	rows, err := db.Query(ctx, `
		SELECT task_id, range_id, time_from, time_to, status
		FROM task_partitions
		WHERE task_id=$1
		ORDER BY time_from
		OFFSET $2 LIMIT $3
	`, taskID, skip, take)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Partition
	for rows.Next() {
		var p domain.Partition
		if err := rows.Scan(&p.TaskID, &p.RangeID, &p.TimeFrom, &p.TimeTo, &p.Status); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// DeletePartitionsByTask 删除任务的全部分区
func DeletePartitionsByTask(ctx context.Context, db Querier, taskID string) error {
	_, err := db.Exec(ctx, `
		DELETE FROM task_partitions
		WHERE task_id=$1
	`, taskID)
	return err
}

// DeletePartitionsByRange 删除某个范围的全部分区
func DeletePartitionsByRange(ctx context.Context, db Querier, taskID, rangeID string) error {
	_, err := db.Exec(ctx, `
		DELETE FROM task_partitions
		WHERE task_id=$1 AND range_id=$2
	`, taskID, rangeID)
	return err
}

// ClaimNext 乐观认领：选出最早的 fromStatus 分区，
// 用"旧状态仍未变"为前提的条件更新完成 TODO -> IN_PROGRESS 转移
// 没有候选或重试耗尽时返回 (nil, nil)，调用方退化为稍后再来轮询
func ClaimNext(ctx context.Context, db Querier, taskID, fromStatus, toStatus string) (*domain.Partition, error) {
	pick := func() (*domain.Partition, error) {
		row := db.QueryRow(ctx, `
			SELECT task_id, range_id, time_from, time_to
			FROM task_partitions
			WHERE task_id=$1 AND status=$2
			ORDER BY time_from, time_to
			LIMIT 1
		`, taskID, fromStatus)
		var p domain.Partition
		if err := row.Scan(&p.TaskID, &p.RangeID, &p.TimeFrom, &p.TimeTo); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, err
		}
		return &p, nil
	}

	cas := func(p *domain.Partition) (bool, error) {
		tag, err := db.Exec(ctx, `
			UPDATE task_partitions
			SET status=$4
			WHERE task_id=$1 AND time_from=$2 AND time_to=$3 AND status=$5
		`, p.TaskID, p.TimeFrom, p.TimeTo, toStatus, fromStatus)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	}

	claimed, err := claimWithRetry(claimMaxAttempts, pick, cas)
	if err != nil || claimed == nil {
		return claimed, err
	}
	claimed.Status = toStatus
	return claimed, nil
}

// claimWithRetry 认领循环本体：每轮选一个候选并尝试 CAS，
// 输掉竞争（零行更新）就重选，直到成功、无候选或次数耗尽
func claimWithRetry(maxAttempts int, pick func() (*domain.Partition, error), cas func(*domain.Partition) (bool, error)) (*domain.Partition, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := pick()
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, nil
		}
		won, err := cas(candidate)
		if err != nil {
			return nil, err
		}
		if won {
			return candidate, nil
		}
	}
	return nil, nil
}
