package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execRecorder 记录执行过的 SQL，在无数据库环境下验证级联删除的覆盖面
type execRecorder struct {
	statements []string
	failOn     int
}

func (r *execRecorder) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.statements = append(r.statements, sql)
	if r.failOn > 0 && len(r.statements) == r.failOn {
		return pgconn.CommandTag{}, errors.New("exec failed")
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (r *execRecorder) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (r *execRecorder) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

// 级联删除必须依次清空分区、范围、任务三张表
func TestDeleteTaskInTxCoversAllTables(t *testing.T) {
	rec := &execRecorder{}

	require.NoError(t, deleteTaskInTx(context.Background(), rec, "task-a"))
	require.Len(t, rec.statements, 3)
	assert.Contains(t, rec.statements[0], "DELETE FROM task_partitions")
	assert.Contains(t, rec.statements[1], "DELETE FROM task_ranges")
	assert.Contains(t, rec.statements[2], "DELETE FROM tasks")
}

// 中途失败立即返回错误，让调用方的事务回滚
func TestDeleteTaskInTxStopsOnError(t *testing.T) {
	rec := &execRecorder{failOn: 2}

	err := deleteTaskInTx(context.Background(), rec, "task-a")
	require.Error(t, err)
	assert.Len(t, rec.statements, 2)
}
