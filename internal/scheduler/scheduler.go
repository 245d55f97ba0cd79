package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nitayke/pbar/internal/lease"
	"github.com/nitayke/pbar/internal/service"
)

const lockKey = "lock:schedule_runner"

// Runner 周期性执行到期的调度规则
// 通过 Redis 锁保证多副本部署时每轮只有一个实例执行
type Runner struct {
	schedules *service.ScheduleService
	rdb       *redis.Client
	leaseMgr  *lease.Manager
	runnerID  string
	ticker    *time.Ticker
	interval  time.Duration
	lockTTL   time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewRunner(ctx context.Context, schedules *service.ScheduleService, rdb *redis.Client, interval, lockTTL time.Duration) *Runner {
	cctx, cancel := context.WithCancel(ctx)
	return &Runner{
		schedules: schedules,
		rdb:       rdb,
		leaseMgr:  lease.NewManager(rdb),
		runnerID:  uuid.NewString(),
		ticker:    time.NewTicker(interval),
		interval:  interval,
		lockTTL:   lockTTL,
		ctx:       cctx,
		cancel:    cancel,
	}
}

// Start 阻塞运行，直到 Stop 或上游 context 取消
// 单轮失败只记录日志，循环继续
func (r *Runner) Start() {
	log.Printf("schedule runner started with interval=%s", r.interval)
	for {
		select {
		case <-r.ctx.Done():
			log.Println("schedule runner stopped")
			return
		case <-r.ticker.C:
			if err := r.tickOnce(r.ctx); err != nil {
				log.Printf("schedule tick failed: %v", err)
			}
		}
	}
}

// Stop 停止循环，不打断已开始的一轮
func (r *Runner) Stop() {
	r.cancel()
	r.ticker.Stop()
}

func (r *Runner) tickOnce(ctx context.Context) error {
	got, err := r.leaseMgr.Acquire(ctx, lockKey, r.runnerID, r.lockTTL)
	if err != nil {
		return err
	}
	if !got {
		// 其他副本在跑
		return nil
	}
	defer func() {
		if _, err := r.leaseMgr.Release(ctx, lockKey, r.runnerID); err != nil {
			log.Printf("release schedule lock failed: %v", err)
		}
	}()

	// 执行期间持续续期，防止一轮跑得比锁 TTL 还久
	renewCtx, cancelRenew := context.WithCancel(ctx)
	defer cancelRenew()
	go keepAlive(renewCtx, r.lockTTL/2, func() (bool, error) {
		return r.leaseMgr.Renew(renewCtx, lockKey, r.runnerID, r.lockTTL)
	})

	now := time.Now().UTC()
	if err := r.schedules.ExecuteDueSchedules(ctx, now); err != nil {
		return err
	}

	_ = r.rdb.Incr(ctx, "metrics:schedule_runner:ticks").Err()
	_ = r.rdb.HSet(ctx, "metrics:schedule_runner:last", map[string]any{
		"time":      now.Format(time.RFC3339),
		"runner_id": r.runnerID,
	}).Err()
	return nil
}

// keepAlive 周期性调用 renew 直到 ctx 取消；续期失败或锁已易主时停止
func keepAlive(ctx context.Context, interval time.Duration, renew func() (bool, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := renew()
			if err != nil {
				log.Printf("renew schedule lock failed: %v", err)
				return
			}
			if !ok {
				log.Println("schedule lock no longer held, stop renewing")
				return
			}
		}
	}
}
