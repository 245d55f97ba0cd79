package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitayke/pbar/internal/domain"
	"github.com/nitayke/pbar/internal/partition"
	"github.com/nitayke/pbar/internal/repo"
)

type RangeService struct {
	db               *pgxpool.Pool
	partitionMinutes int
	todoStatus       string
}

func NewRangeService(db *pgxpool.Pool, partitionMinutes int, todoStatus string) *RangeService {
	return &RangeService{db: db, partitionMinutes: partitionMinutes, todoStatus: todoStatus}
}

// ListRanges 查询任务的全部范围
func (s *RangeService) ListRanges(ctx context.Context, taskID string) ([]domain.TimeRange, error) {
	exists, err := repo.TaskExists(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	return repo.ListRangesByTask(ctx, s.db, taskID)
}

// AddRange 为已有任务追加一个范围并立刻切分，范围和分区在同一事务提交
func (s *RangeService) AddRange(ctx context.Context, taskID string, from, to time.Time, createdBy string) (*domain.TimeRange, error) {
	task, err := repo.GetTaskByID(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: time_to must be after time_from", ErrValidation)
	}
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		return nil, fmt.Errorf("%w: created_by is required", ErrValidation)
	}

	sizeSeconds := s.partitionMinutes * 60
	if task.PartitionSizeSeconds != nil {
		sizeSeconds = *task.PartitionSizeSeconds
	}

	r := domain.TimeRange{
		RangeID:      uuid.NewString(),
		TaskID:       taskID,
		TimeFrom:     from,
		TimeTo:       to,
		CreationTime: time.Now().UTC(),
		CreatedBy:    createdBy,
	}

	partitions, err := partition.Slice(r, sizeSeconds, s.todoStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := repo.InsertRange(ctx, tx, &r); err != nil {
		return nil, err
	}
	if err := repo.InsertPartitions(ctx, tx, partitions); err != nil {
		return nil, err
	}
	if err := repo.TouchTask(ctx, tx, taskID, r.CreationTime); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRange 按 (from, to) 定位范围并按 mode 删除
// mode: partitions 只删分区 / range 只删范围 / all 两者都删
func (s *RangeService) DeleteRange(ctx context.Context, taskID string, from, to time.Time, mode string) error {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized != "partitions" && normalized != "range" && normalized != "all" {
		return fmt.Errorf("%w: mode must be one of partitions, range, all", ErrValidation)
	}

	target, err := repo.GetRangeByWindow(ctx, s.db, taskID, from, to)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if normalized == "partitions" || normalized == "all" {
		if target != nil {
			if err := repo.DeletePartitionsByRange(ctx, tx, taskID, target.RangeID); err != nil {
				return err
			}
		}
	}
	if normalized == "range" || normalized == "all" {
		if target != nil {
			if err := repo.DeleteRangeByID(ctx, tx, target.RangeID); err != nil {
				return err
			}
		} else {
			if err := repo.DeleteRangesByWindow(ctx, tx, taskID, from, to); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}
