package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitayke/pbar/internal/domain"
	"github.com/nitayke/pbar/internal/histogram"
	"github.com/nitayke/pbar/internal/repo"
)

type HistogramService struct {
	db *pgxpool.Pool
}

func NewHistogramService(db *pgxpool.Pool) *HistogramService {
	return &HistogramService{db: db}
}

// GetHistogram 按时间桶统计分区状态分布
// intervalSeconds 为空时按跨度自适应选择桶宽
func (s *HistogramService) GetHistogram(ctx context.Context, taskID string, intervalSeconds *int, from, to *time.Time) (*domain.Histogram, error) {
	task, err := repo.GetTaskByID(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}

	rows, err := repo.HistogramRows(ctx, s.db, taskID, from, to)
	if err != nil {
		return nil, err
	}

	interval := histogram.ResolveInterval(intervalSeconds, from, to, task.PartitionSizeSeconds, rows)
	result := histogram.Build(rows, interval)
	return &result, nil
}
