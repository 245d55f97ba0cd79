package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeepAliveRenewsUntilCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int64
	done := make(chan struct{})
	go func() {
		keepAlive(ctx, time.Millisecond, func() (bool, error) {
			calls.Add(1)
			return true, nil
		})
		close(done)
	}()

	// 等到至少续期过几次再取消
	deadline := time.After(2 * time.Second)
	for calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("renew was never called")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("keepAlive did not stop after cancel")
	}
}

// 锁已易主：续期返回 false 时循环必须自行退出
func TestKeepAliveStopsWhenLockLost(t *testing.T) {
	done := make(chan struct{})
	go func() {
		keepAlive(context.Background(), time.Millisecond, func() (bool, error) {
			return false, nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("keepAlive did not stop after losing the lock")
	}
}

func TestKeepAliveStopsOnError(t *testing.T) {
	var calls atomic.Int64
	done := make(chan struct{})
	go func() {
		keepAlive(context.Background(), time.Millisecond, func() (bool, error) {
			calls.Add(1)
			return false, errors.New("redis down")
		})
		close(done)
	}()

	select {
	case <-done:
		assert.Equal(t, int64(1), calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("keepAlive did not stop after renew error")
	}
}
