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
	"github.com/nitayke/pbar/internal/progress"
	"github.com/nitayke/pbar/internal/repo"
)

type TaskService struct {
	db               *pgxpool.Pool
	partitionMinutes int
	todoStatus       string
}

func NewTaskService(db *pgxpool.Pool, partitionMinutes int, todoStatus string) *TaskService {
	return &TaskService{db: db, partitionMinutes: partitionMinutes, todoStatus: todoStatus}
}

type RangeWindow struct {
	TimeFrom time.Time
	TimeTo   time.Time
}

type CreateTaskParams struct {
	TaskID               string
	Description          string
	CreatedBy            string
	PartitionSizeSeconds *int
	PartitionMinutes     *int
	Ranges               []RangeWindow
}

// CreateTask 创建任务及其全部范围和分区，整体在一个事务里提交
func (s *TaskService) CreateTask(ctx context.Context, p CreateTaskParams) (string, error) {
	taskID := strings.TrimSpace(p.TaskID)
	if taskID == "" {
		return "", fmt.Errorf("%w: task_id is required", ErrValidation)
	}
	if len(p.Ranges) == 0 {
		return "", fmt.Errorf("%w: at least one time range is required", ErrValidation)
	}

	exists, err := repo.TaskExists(ctx, s.db, taskID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: task %q", ErrConflict, taskID)
	}

	// 分区大小：秒参数 > 分钟参数 > 全局默认
	sizeSeconds := s.partitionMinutes * 60
	if p.PartitionSizeSeconds != nil {
		sizeSeconds = *p.PartitionSizeSeconds
	} else if p.PartitionMinutes != nil {
		sizeSeconds = *p.PartitionMinutes * 60
	}
	if sizeSeconds <= 0 {
		return "", fmt.Errorf("%w: partition size must be positive", ErrValidation)
	}

	now := time.Now().UTC()
	task := domain.Task{
		TaskID:               taskID,
		Description:          p.Description,
		CreatedBy:            p.CreatedBy,
		LastUpdate:           now,
		PartitionSizeSeconds: &sizeSeconds,
	}

	ranges := make([]domain.TimeRange, 0, len(p.Ranges))
	for _, w := range p.Ranges {
		if !w.TimeTo.After(w.TimeFrom) {
			return "", fmt.Errorf("%w: time_to must be after time_from", ErrValidation)
		}
		ranges = append(ranges, domain.TimeRange{
			RangeID:      uuid.NewString(),
			TaskID:       taskID,
			TimeFrom:     w.TimeFrom,
			TimeTo:       w.TimeTo,
			CreationTime: now,
			CreatedBy:    p.CreatedBy,
		})
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if err := repo.InsertTask(ctx, tx, &task); err != nil {
		return "", err
	}
	for i := range ranges {
		if err := repo.InsertRange(ctx, tx, &ranges[i]); err != nil {
			return "", err
		}
		partitions, err := partition.Slice(ranges[i], sizeSeconds, s.todoStatus)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if err := repo.InsertPartitions(ctx, tx, partitions); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return taskID, nil
}

// DeleteTask 级联删除：分区 -> 范围 -> 任务，一个事务
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	exists, err := repo.TaskExists(ctx, s.db, taskID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := deleteTaskInTx(ctx, tx, taskID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// deleteTaskInTx 级联删除本体：先子表后父表，三张表都清空
func deleteTaskInTx(ctx context.Context, q repo.Querier, taskID string) error {
	if err := repo.DeletePartitionsByTask(ctx, q, taskID); err != nil {
		return err
	}
	if err := repo.DeleteRangesByTask(ctx, q, taskID); err != nil {
		return err
	}
	return repo.DeleteTask(ctx, q, taskID)
}

// ListTasks 任务列表，includeProgress 时附带批量计算的进度
func (s *TaskService) ListTasks(ctx context.Context, taskType, search string, skip, take int, includeProgress bool) ([]domain.TaskSummary, error) {
	skip, take = clampPage(skip, take)

	tasks, err := repo.ListTasks(ctx, s.db, taskType, search, skip, take)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		summaries = append(summaries, domain.TaskSummary{
			TaskID:               t.TaskID,
			Description:          t.Description,
			CreatedBy:            t.CreatedBy,
			LastUpdate:           t.LastUpdate,
			PartitionSizeSeconds: t.PartitionSizeSeconds,
			Type:                 TaskType(t.TaskID),
		})
	}

	if !includeProgress || len(summaries) == 0 {
		return summaries, nil
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.TaskID)
	}
	countsMap, err := repo.StatusCountsForTasks(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	rangesMap, err := repo.ListRangesByTasks(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	expectedTotals := make(map[string]int64, len(tasks))
	for _, t := range tasks {
		expectedTotals[t.TaskID] = partition.ExpectedTotal(rangesMap[t.TaskID], s.taskSliceSeconds(&t))
	}

	progressMap := progress.BuildSnapshotMap(ids, countsMap, expectedTotals)
	for i := range summaries {
		if snap, ok := progressMap[summaries[i].TaskID]; ok {
			snapCopy := snap
			summaries[i].Progress = &snapCopy
		}
	}
	return summaries, nil
}

// GetTask 单任务查询
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*domain.TaskSummary, error) {
	t, err := repo.GetTaskByID(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	return &domain.TaskSummary{
		TaskID:               t.TaskID,
		Description:          t.Description,
		CreatedBy:            t.CreatedBy,
		LastUpdate:           t.LastUpdate,
		PartitionSizeSeconds: t.PartitionSizeSeconds,
		Type:                 TaskType(t.TaskID),
	}, nil
}

func (s *TaskService) taskSliceSeconds(t *domain.Task) int {
	if t.PartitionSizeSeconds != nil {
		return *t.PartitionSizeSeconds
	}
	return s.partitionMinutes * 60
}

func clampPage(skip, take int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if take < 1 {
		take = 100
	}
	if take > 500 {
		take = 500
	}
	return skip, take
}
