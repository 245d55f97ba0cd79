package metrics

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitayke/pbar/internal/domain"
	"github.com/nitayke/pbar/internal/partition"
	"github.com/nitayke/pbar/internal/progress"
	"github.com/nitayke/pbar/internal/repo"
)

// Sampler 周期性为最近活跃的任务采样进度，写入 Cache
type Sampler struct {
	db               *pgxpool.Pool
	cache            *Cache
	interval         time.Duration
	lookback         time.Duration
	maxTasks         int
	partitionMinutes int
	ctx              context.Context
	cancel           context.CancelFunc
}

func NewSampler(ctx context.Context, db *pgxpool.Pool, cache *Cache, interval, lookback time.Duration, maxTasks, partitionMinutes int) *Sampler {
	cctx, cancel := context.WithCancel(ctx)
	return &Sampler{
		db:               db,
		cache:            cache,
		interval:         interval,
		lookback:         lookback,
		maxTasks:         maxTasks,
		partitionMinutes: partitionMinutes,
		ctx:              cctx,
		cancel:           cancel,
	}
}

// Start 阻塞运行采样循环，存储故障只记录日志等下一轮
func (s *Sampler) Start() {
	log.Printf("metrics sampler started, interval=%s lookback=%s max_tasks=%d", s.interval, s.lookback, s.maxTasks)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			log.Println("metrics sampler stopped")
			return
		case <-ticker.C:
			if err := s.sampleOnce(s.ctx); err != nil {
				log.Printf("metrics sample tick failed: %v", err)
			}
		}
	}
}

// Stop 取消循环，进行中的一轮采样完成后退出
func (s *Sampler) Stop() {
	s.cancel()
}

func (s *Sampler) sampleOnce(ctx context.Context) error {
	now := time.Now().UTC()
	tasks, err := repo.ListRecentTasks(ctx, s.db, now.Add(-s.lookback), s.maxTasks)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	taskIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.TaskID)
	}

	countsMap, err := repo.StatusCountsForTasks(ctx, s.db, taskIDs)
	if err != nil {
		return err
	}
	rangesMap, err := repo.ListRangesByTasks(ctx, s.db, taskIDs)
	if err != nil {
		return err
	}

	expectedTotals := make(map[string]int64, len(tasks))
	for _, t := range tasks {
		sizeSeconds := s.partitionMinutes * 60
		if t.PartitionSizeSeconds != nil {
			sizeSeconds = *t.PartitionSizeSeconds
		}
		expectedTotals[t.TaskID] = partition.ExpectedTotal(rangesMap[t.TaskID], sizeSeconds)
	}

	progressMap := progress.BuildSnapshotMap(taskIDs, countsMap, expectedTotals)
	for _, taskID := range taskIDs {
		snap, ok := progressMap[taskID]
		if !ok {
			continue
		}
		s.cache.AddSample(taskID, domain.MetricSample{
			TimestampUTC: now,
			Done:         snap.Done,
			Total:        snap.Total,
		})
	}
	return nil
}
