package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitayke/pbar/internal/domain"
	"github.com/nitayke/pbar/internal/partition"
	"github.com/nitayke/pbar/internal/progress"
	"github.com/nitayke/pbar/internal/repo"
)

// inProgressStatus 认领转移的目标状态
const inProgressStatus = "IN_PROGRESS"

type PartitionService struct {
	db               *pgxpool.Pool
	partitionMinutes int
	todoStatus       string
}

func NewPartitionService(db *pgxpool.Pool, partitionMinutes int, todoStatus string) *PartitionService {
	return &PartitionService{db: db, partitionMinutes: partitionMinutes, todoStatus: todoStatus}
}

// GetProgress 进度快照：观测计数对照由范围推出的期望总数
func (s *PartitionService) GetProgress(ctx context.Context, taskID string) (*domain.ProgressSnapshot, error) {
	task, err := repo.GetTaskByID(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}

	counts, err := repo.StatusCounts(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	ranges, err := repo.ListRangesByTask(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}

	sizeSeconds := s.partitionMinutes * 60
	if task.PartitionSizeSeconds != nil {
		sizeSeconds = *task.PartitionSizeSeconds
	}
	expected := partition.ExpectedTotal(ranges, sizeSeconds)

	snap := progress.BuildSnapshot(counts, expected)
	return &snap, nil
}

// ClaimNext 认领下一个待处理分区
// 返回 (nil, nil) 表示任务存在但当前没有可认领的工作
func (s *PartitionService) ClaimNext(ctx context.Context, taskID string) (*domain.Partition, error) {
	exists, err := repo.TaskExists(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	return repo.ClaimNext(ctx, s.db, taskID, s.todoStatus, inProgressStatus)
}

// ListPartitions 分页列出分区
func (s *PartitionService) ListPartitions(ctx context.Context, taskID string, skip, take int) ([]domain.Partition, error) {
	exists, err := repo.TaskExists(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	skip, take = clampPage(skip, take)
	return repo.ListPartitions(ctx, s.db, taskID, skip, take)
}

// ClearPartitions 清空任务的全部分区（保留任务和范围）
func (s *PartitionService) ClearPartitions(ctx context.Context, taskID string) error {
	exists, err := repo.TaskExists(ctx, s.db, taskID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	return repo.DeletePartitionsByTask(ctx, s.db, taskID)
}
