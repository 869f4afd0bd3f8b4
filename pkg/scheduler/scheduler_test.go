package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitIsFIFOWithinPriority(t *testing.T) {
	s := New(SleepMode)

	var ids []string
	for i := 0; i < 5; i++ {
		token := s.Submit(TaskIndexNode, PriorityNormal, func(*CancelToken) error { return nil })
		_ = token
	}
	s.mu.Lock()
	for _, task := range s.lanes[PriorityNormal] {
		ids = append(ids, task.ID)
	}
	s.mu.Unlock()

	popped := s.popTasks(sleepModeCap, false)
	require.Len(t, popped, 5)
	for i, task := range popped {
		assert.Equal(t, ids[i], task.ID)
	}
}

func TestHighActivityPopsAtMostOneFromUrgentOnly(t *testing.T) {
	s := New(HighActivity)
	s.Submit(TaskIndexNode, PriorityUrgent, func(*CancelToken) error { return nil })
	s.Submit(TaskIndexNode, PriorityUrgent, func(*CancelToken) error { return nil })
	s.Submit(TaskIndexNode, PriorityNormal, func(*CancelToken) error { return nil })

	limit := s.popLimitForLevel(s.ActivityLevel())
	assert.Equal(t, 1, limit)

	popped := s.popTasks(limit, true)
	assert.Len(t, popped, 1)
	assert.Equal(t, PriorityUrgent, popped[0].Priority)

	depths := s.QueueDepth()
	assert.Equal(t, 1, depths["urgent"])
	assert.Equal(t, 1, depths["normal"])
}

func TestSleepModeDrainsAcrossLanesInPriorityOrder(t *testing.T) {
	s := New(SleepMode)
	s.Submit(TaskBackupData, PriorityBatch, func(*CancelToken) error { return nil })
	s.Submit(TaskIndexNode, PriorityUrgent, func(*CancelToken) error { return nil })
	s.Submit(TaskGenerateSummary, PriorityNormal, func(*CancelToken) error { return nil })

	popped := s.popTasks(sleepModeCap, false)
	require.Len(t, popped, 3)
	assert.Equal(t, PriorityUrgent, popped[0].Priority)
	assert.Equal(t, PriorityNormal, popped[1].Priority)
	assert.Equal(t, PriorityBatch, popped[2].Priority)
}

func TestCancelTokenIsCooperative(t *testing.T) {
	token := &CancelToken{}
	assert.False(t, token.Cancelled())
	token.Cancel()
	assert.True(t, token.Cancelled())
	token.Cancel() // idempotent
	assert.True(t, token.Cancelled())
}

func TestStartStopExecutesSubmittedTask(t *testing.T) {
	s := New(SleepMode)
	done := make(chan struct{})

	s.Submit(TaskIndexNode, PriorityUrgent, func(*CancelToken) error {
		close(done)
		return nil
	})

	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed within 2 seconds")
	}
}

func TestFailingTaskDoesNotAffectOthers(t *testing.T) {
	s := New(SleepMode)

	var okRan int32
	s.Submit(TaskIndexNode, PriorityUrgent, func(*CancelToken) error {
		return assert.AnError
	})
	s.Submit(TaskIndexNode, PriorityUrgent, func(*CancelToken) error {
		atomic.StoreInt32(&okRan, 1)
		return nil
	})

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&okRan) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
