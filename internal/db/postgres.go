package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Init(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	//连接测试
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            task_id TEXT PRIMARY KEY,
            description TEXT NOT NULL DEFAULT '',
            created_by TEXT NOT NULL DEFAULT '',
            last_update TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            partition_size_seconds INT
        );`,
		`CREATE TABLE IF NOT EXISTS task_ranges (
            range_id TEXT PRIMARY KEY,
            task_id TEXT NOT NULL,
            time_from TIMESTAMPTZ NOT NULL,
            time_to TIMESTAMPTZ NOT NULL,
            creation_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            created_by TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE INDEX IF NOT EXISTS idx_task_ranges_task ON task_ranges(task_id);`,
		`CREATE TABLE IF NOT EXISTS task_partitions (
            task_id TEXT NOT NULL,
            range_id TEXT NOT NULL,
            time_from TIMESTAMPTZ NOT NULL,
            time_to TIMESTAMPTZ NOT NULL,
            status TEXT NOT NULL,
            PRIMARY KEY (task_id, time_from, time_to)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_task_partitions_claim ON task_partitions(task_id, status, time_from);`,
		`CREATE INDEX IF NOT EXISTS idx_task_partitions_range ON task_partitions(task_id, range_id);`,
		`CREATE TABLE IF NOT EXISTS scheduled_tasks (
            schedule_id TEXT PRIMARY KEY,
            task_id TEXT NOT NULL,
            interval_seconds INT NOT NULL,
            bulk_size_seconds INT NOT NULL,
            cron_expr TEXT NOT NULL DEFAULT '',
            last_execution_time TIMESTAMPTZ,
            next_execution_time TIMESTAMPTZ,
            is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            created_by TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_tasks_due ON scheduled_tasks(is_enabled, next_execution_time);`,
	}
	for _, q := range ddl {
		if _, err := pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
