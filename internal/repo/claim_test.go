package repo

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitayke/pbar/internal/domain"
)

// fakeClaimStore 用内存表模拟认领的选取与 CAS，用于在无数据库环境下验证重试循环
type fakeClaimStore struct {
	mu         sync.Mutex
	partitions []domain.Partition
}

func newFakeClaimStore(n int) *fakeClaimStore {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &fakeClaimStore{}
	for i := 0; i < n; i++ {
		s.partitions = append(s.partitions, domain.Partition{
			TaskID:   "task-a",
			RangeID:  "range-1",
			TimeFrom: base.Add(time.Duration(i) * time.Hour),
			TimeTo:   base.Add(time.Duration(i+1) * time.Hour),
			Status:   "TODO",
		})
	}
	return s
}

func (s *fakeClaimStore) pick() (*domain.Partition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.partitions {
		if p.Status == "TODO" {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeClaimStore) cas(candidate *domain.Partition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.partitions {
		p := &s.partitions[i]
		if p.TimeFrom.Equal(candidate.TimeFrom) && p.TimeTo.Equal(candidate.TimeTo) && p.Status == "TODO" {
			p.Status = "IN_PROGRESS"
			return true, nil
		}
	}
	return false, nil
}

func TestClaimWithRetryPicksEarliest(t *testing.T) {
	store := newFakeClaimStore(3)

	claimed, err := claimWithRetry(claimMaxAttempts, store.pick, store.cas)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, store.partitions[0].TimeFrom, claimed.TimeFrom)
}

func TestClaimWithRetryNoCandidate(t *testing.T) {
	store := newFakeClaimStore(0)

	claimed, err := claimWithRetry(claimMaxAttempts, store.pick, store.cas)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

// 并发认领互斥：每个分区只被认领一次，没有重复
func TestClaimWithRetryConcurrentExclusive(t *testing.T) {
	const total = 50
	const claimers = 10

	store := newFakeClaimStore(total)

	var mu sync.Mutex
	seen := make(map[time.Time]int)

	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				claimed, err := claimWithRetry(claimMaxAttempts, store.pick, store.cas)
				if !assert.NoError(t, err) {
					return
				}
				if claimed == nil {
					return
				}
				mu.Lock()
				seen[claimed.TimeFrom]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
	for from, count := range seen {
		assert.Equal(t, 1, count, "partition %s claimed more than once", from)
	}
}

// CAS 总是输时耗尽重试并安静返回 nil
func TestClaimWithRetryExhaustion(t *testing.T) {
	store := newFakeClaimStore(3)
	attempts := 0
	alwaysLose := func(*domain.Partition) (bool, error) {
		attempts++
		return false, nil
	}

	claimed, err := claimWithRetry(5, store.pick, alwaysLose)
	require.NoError(t, err)
	assert.Nil(t, claimed)
	assert.Equal(t, 5, attempts)
}
