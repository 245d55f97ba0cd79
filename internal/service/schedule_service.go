package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"github.com/nitayke/pbar/internal/domain"
	"github.com/nitayke/pbar/internal/partition"
	"github.com/nitayke/pbar/internal/repo"
)

// cronParser 带秒字段的 6 段表达式
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type ScheduleService struct {
	db               *pgxpool.Pool
	partitionMinutes int
	todoStatus       string
}

func NewScheduleService(db *pgxpool.Pool, partitionMinutes int, todoStatus string) *ScheduleService {
	return &ScheduleService{db: db, partitionMinutes: partitionMinutes, todoStatus: todoStatus}
}

type CreateScheduleParams struct {
	TaskID             string
	IntervalSeconds    int
	BulkSizeSeconds    int
	CronExpr           string
	FirstExecutionTime *time.Time
	CreatedBy          string
}

// CreateSchedule 创建调度规则，目标任务必须已存在
func (s *ScheduleService) CreateSchedule(ctx context.Context, p CreateScheduleParams) (*domain.Schedule, error) {
	exists, err := repo.TaskExists(ctx, s.db, p.TaskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, p.TaskID)
	}
	if p.IntervalSeconds <= 0 {
		return nil, fmt.Errorf("%w: interval_seconds must be positive", ErrValidation)
	}
	if p.BulkSizeSeconds <= 0 {
		return nil, fmt.Errorf("%w: bulk_size_seconds must be positive", ErrValidation)
	}
	cronExpr := strings.TrimSpace(p.CronExpr)
	if cronExpr != "" {
		if _, err := cronParser.Parse(cronExpr); err != nil {
			return nil, fmt.Errorf("%w: bad cron expression: %v", ErrValidation, err)
		}
	}

	now := time.Now().UTC()
	firstExec := now
	if p.FirstExecutionTime != nil {
		firstExec = p.FirstExecutionTime.UTC()
	}
	createdBy := strings.TrimSpace(p.CreatedBy)
	if createdBy == "" {
		createdBy = "system"
	}

	sched := domain.Schedule{
		ScheduleID:        uuid.NewString(),
		TaskID:            strings.TrimSpace(p.TaskID),
		IntervalSeconds:   p.IntervalSeconds,
		BulkSizeSeconds:   p.BulkSizeSeconds,
		CronExpr:          cronExpr,
		NextExecutionTime: &firstExec,
		IsEnabled:         true,
		CreatedAt:         now,
		CreatedBy:         createdBy,
	}
	if err := repo.CreateSchedule(ctx, s.db, &sched); err != nil {
		return nil, err
	}

	log.Printf("created schedule %s for task %s interval=%ds bulk=%ds", sched.ScheduleID, sched.TaskID, sched.IntervalSeconds, sched.BulkSizeSeconds)
	return &sched, nil
}

type UpdateScheduleParams struct {
	IntervalSeconds *int
	BulkSizeSeconds *int
	CronExpr        *string
	IsEnabled       *bool
}

// UpdateSchedule 更新间隔、范围大小、cron 或启停状态
// 重新启用一个没有下次执行时间的规则时，重置为立即到期
func (s *ScheduleService) UpdateSchedule(ctx context.Context, scheduleID string, p UpdateScheduleParams) (*domain.Schedule, error) {
	sched, err := repo.GetScheduleByID(ctx, s.db, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, fmt.Errorf("%w: schedule %q", ErrNotFound, scheduleID)
	}

	if p.IntervalSeconds != nil {
		if *p.IntervalSeconds <= 0 {
			return nil, fmt.Errorf("%w: interval_seconds must be positive", ErrValidation)
		}
		sched.IntervalSeconds = *p.IntervalSeconds
	}
	if p.BulkSizeSeconds != nil {
		if *p.BulkSizeSeconds <= 0 {
			return nil, fmt.Errorf("%w: bulk_size_seconds must be positive", ErrValidation)
		}
		sched.BulkSizeSeconds = *p.BulkSizeSeconds
	}
	if p.CronExpr != nil {
		expr := strings.TrimSpace(*p.CronExpr)
		if expr != "" {
			if _, err := cronParser.Parse(expr); err != nil {
				return nil, fmt.Errorf("%w: bad cron expression: %v", ErrValidation, err)
			}
		}
		sched.CronExpr = expr
	}
	if p.IsEnabled != nil {
		sched.IsEnabled = *p.IsEnabled
		if sched.IsEnabled && sched.NextExecutionTime == nil {
			now := time.Now().UTC()
			sched.NextExecutionTime = &now
		}
	}

	if err := repo.UpdateSchedule(ctx, s.db, sched); err != nil {
		return nil, err
	}
	log.Printf("updated schedule %s (enabled=%v)", scheduleID, sched.IsEnabled)
	return sched, nil
}

// GetSchedule 按 ID 查询
func (s *ScheduleService) GetSchedule(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	sched, err := repo.GetScheduleByID(ctx, s.db, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, fmt.Errorf("%w: schedule %q", ErrNotFound, scheduleID)
	}
	return sched, nil
}

// ListSchedules 列出调度规则，taskID 为空表示全部
func (s *ScheduleService) ListSchedules(ctx context.Context, taskID string) ([]domain.Schedule, error) {
	return repo.ListSchedules(ctx, s.db, taskID)
}

// DeleteSchedule 删除调度规则
func (s *ScheduleService) DeleteSchedule(ctx context.Context, scheduleID string) error {
	sched, err := repo.GetScheduleByID(ctx, s.db, scheduleID)
	if err != nil {
		return err
	}
	if sched == nil {
		return fmt.Errorf("%w: schedule %q", ErrNotFound, scheduleID)
	}
	return repo.DeleteSchedule(ctx, s.db, scheduleID)
}

// ExecuteDueSchedules 执行所有到期的调度规则
// 单条失败只记录日志，不影响其余规则
func (s *ScheduleService) ExecuteDueSchedules(ctx context.Context, now time.Time) error {
	due, err := repo.ListDueSchedules(ctx, s.db, now)
	if err != nil {
		return err
	}
	for _, sched := range due {
		if err := s.executeSchedule(ctx, sched, now); err != nil {
			log.Printf("execute schedule %s for task %s failed: %v", sched.ScheduleID, sched.TaskID, err)
		}
	}
	return nil
}

func (s *ScheduleService) executeSchedule(ctx context.Context, sched domain.Schedule, now time.Time) error {
	task, err := repo.GetTaskByID(ctx, s.db, sched.TaskID)
	if err != nil {
		return err
	}
	if task == nil {
		// 目标任务已不存在：停用而不是删除
		log.Printf("task %s not found for schedule %s, disabling", sched.TaskID, sched.ScheduleID)
		disableForMissingTask(&sched)
		return repo.UpdateSchedule(ctx, s.db, &sched)
	}

	timeFrom, timeTo := runWindow(sched, now)

	sizeSeconds := s.partitionMinutes * 60
	if task.PartitionSizeSeconds != nil {
		sizeSeconds = *task.PartitionSizeSeconds
	}

	r := domain.TimeRange{
		RangeID:      uuid.NewString(),
		TaskID:       sched.TaskID,
		TimeFrom:     timeFrom,
		TimeTo:       timeTo,
		CreationTime: now,
		CreatedBy:    "scheduled:" + sched.ScheduleID,
	}
	partitions, err := partition.Slice(r, sizeSeconds, s.todoStatus)
	if err != nil {
		return err
	}

	next := nextExecution(sched, now)
	sched.LastExecutionTime = &timeTo
	sched.NextExecutionTime = &next

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := repo.InsertRange(ctx, tx, &r); err != nil {
		return err
	}
	if err := repo.InsertPartitions(ctx, tx, partitions); err != nil {
		return err
	}
	if err := repo.TouchTask(ctx, tx, sched.TaskID, now); err != nil {
		return err
	}
	if err := repo.UpdateSchedule(ctx, tx, &sched); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("schedule %s created range [%s, %s) for task %s", sched.ScheduleID, timeFrom.Format(time.RFC3339), timeTo.Format(time.RFC3339), sched.TaskID)
	return nil
}

// disableForMissingTask 目标任务不存在时的处理：停用并清空下次执行时间，
// 历史执行记录保留
func disableForMissingTask(sched *domain.Schedule) {
	sched.IsEnabled = false
	sched.NextExecutionTime = nil
}

// runWindow 本次执行生成的范围：起点接上次执行的结束点，首次从 now 开始
func runWindow(sched domain.Schedule, now time.Time) (time.Time, time.Time) {
	from := now
	if sched.LastExecutionTime != nil {
		from = *sched.LastExecutionTime
	}
	return from, from.Add(time.Duration(sched.BulkSizeSeconds) * time.Second)
}

// nextExecution 下次执行时间：cron 表达式优先，否则 now + interval
func nextExecution(sched domain.Schedule, now time.Time) time.Time {
	if sched.CronExpr != "" {
		if expr, err := cronParser.Parse(sched.CronExpr); err == nil {
			return expr.Next(now)
		}
	}
	return now.Add(time.Duration(sched.IntervalSeconds) * time.Second)
}
