// Package lease 基于 Redis 的简单租约锁
// 用于让多副本场景下同一时刻只有一个调度器实例在执行
package lease

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Manager struct {
	rdb *redis.Client
}

func NewManager(rdb *redis.Client) *Manager {
	return &Manager{rdb: rdb}
}

// Acquire 尝试获取锁（仅当不存在时成功），返回是否成功
func (m *Manager) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return m.rdb.SetNX(ctx, key, owner, ttl).Result()
}

// Renew 仅当持有者匹配时续期，返回是否成功
func (m *Manager) Renew(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	script := `
		if redis.call('GET', KEYS[1]) == ARGV[1] then
 			return redis.call('PEXPIRE', KEYS[1], ARGV[2])
		else
			return 0
		end`

	cmd := m.rdb.Eval(ctx, script, []string{key}, owner, int(ttl.Milliseconds()))
	if err := cmd.Err(); err != nil {
		return false, err
	}
	n, _ := cmd.Int()
	return n == 1, nil
}

// Release 仅当持有者匹配时释放锁
func (m *Manager) Release(ctx context.Context, key, owner string) (bool, error) {
	script := `
		if redis.call('GET', KEYS[1]) == ARGV[1] then
			return redis.call('DEL', KEYS[1])
		else
			return 0
		end`

	cmd := m.rdb.Eval(ctx, script, []string{key}, owner)
	if err := cmd.Err(); err != nil {
		return false, err
	}
	n, _ := cmd.Int()
	return n == 1, nil
}

// Connect 建立 Redis 连接并验证可用
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
