package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kodewerx/memoria/pkg/log"
	"github.com/kodewerx/memoria/pkg/metrics"
	"github.com/rs/zerolog"
)

// Priority is the closed set of task priority lanes, high to low (§4.8).
type Priority int

const (
	PriorityUrgent Priority = iota
	PriorityNormal
	PriorityLow
	PriorityBatch
)

func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	case PriorityBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// priorityOrder is the cascade order used when draining "any lane,
// priority order".
var priorityOrder = []Priority{PriorityUrgent, PriorityNormal, PriorityLow, PriorityBatch}

// ActivityLevel controls how aggressively the scheduler drains its lanes
// on each tick (§4.8).
type ActivityLevel int

const (
	HighActivity ActivityLevel = iota
	LowActivity
	SleepMode
)

// Per-tick pop caps, taken verbatim from the Rust original's
// task-scheduler/src/lib.rs (§12).
const (
	highActivityCap = 1
	lowActivityCap  = 5
	sleepModeCap    = 100
)

const tickPeriod = 100 * time.Millisecond

// TaskKind is the closed set of background task kinds the scheduler
// executes. The scheduler treats Kind as opaque beyond using it as a
// metrics label (§4.8).
type TaskKind string

const (
	TaskGenerateEmbedding     TaskKind = "generate_embedding"
	TaskExtractEntities       TaskKind = "extract_entities"
	TaskLinkEntities          TaskKind = "link_entities"
	TaskGenerateSummary       TaskKind = "generate_summary"
	TaskCreateAssociativeLink TaskKind = "create_associative_links"
	TaskIndexNode             TaskKind = "index_node"
	TaskUpdateVectorIndex     TaskKind = "update_vector_index"
	TaskRotateMemoryLayers    TaskKind = "rotate_memory_layers"
	TaskBackupData            TaskKind = "backup_data"
)

// CancelToken is a cooperative cancellation flag (§4.8, §5). A Run
// function is expected to check Cancelled() at its own coarse
// checkpoints; the scheduler never interrupts a running goroutine.
type CancelToken struct {
	cancelled int32
}

// Cancel requests cancellation. Idempotent.
func (t *CancelToken) Cancel() { atomic.StoreInt32(&t.cancelled, 1) }

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool { return atomic.LoadInt32(&t.cancelled) != 0 }

// Task is one unit of background work.
type Task struct {
	ID       string
	Kind     TaskKind
	Priority Priority
	Run      func(token *CancelToken) error

	token *CancelToken
}

// Scheduler is a priority queue of background tasks gated by an activity
// level. It runs a 100ms tick loop; each popped task is spawned on its own
// goroutine, and the loop never blocks on a task's completion (§4.8, §5).
type Scheduler struct {
	mu       sync.Mutex
	lanes    map[Priority][]*Task
	activity int32 // ActivityLevel, atomic

	log    zerolog.Logger
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a scheduler at the given initial activity level. Call Start
// to begin the tick loop.
func New(initial ActivityLevel) *Scheduler {
	s := &Scheduler{
		lanes:  make(map[Priority][]*Task),
		log:    log.WithComponent("scheduler"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	atomic.StoreInt32(&s.activity, int32(initial))
	return s
}

// SetActivityLevel changes the gate applied on subsequent ticks.
func (s *Scheduler) SetActivityLevel(level ActivityLevel) {
	atomic.StoreInt32(&s.activity, int32(level))
}

// ActivityLevel returns the current gate.
func (s *Scheduler) ActivityLevel() ActivityLevel {
	return ActivityLevel(atomic.LoadInt32(&s.activity))
}

// Submit enqueues a task on its priority lane, in FIFO order relative to
// other tasks already in that lane, and returns a token the task's Run
// function can use to observe a cooperative cancellation request.
func (s *Scheduler) Submit(kind TaskKind, priority Priority, run func(token *CancelToken) error) *CancelToken {
	token := &CancelToken{}
	task := &Task{
		ID:       uuid.NewString(),
		Kind:     kind,
		Priority: priority,
		Run:      run,
		token:    token,
	}

	s.mu.Lock()
	s.lanes[priority] = append(s.lanes[priority], task)
	s.mu.Unlock()

	return token
}

// QueueDepth returns the current queue depth per priority, for metrics
// collection.
func (s *Scheduler) QueueDepth() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	depths := make(map[string]int, len(priorityOrder))
	for _, p := range priorityOrder {
		depths[p.String()] = len(s.lanes[p])
	}
	return depths
}

// Start begins the 100ms tick loop in the background.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop halts the tick loop. Per §4.8, shutdown drains no queues: whatever
// tasks remain enqueued are dropped, not executed.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) tick() {
	limit := s.popLimitForLevel(s.ActivityLevel())
	popped := s.popTasks(limit, s.ActivityLevel() == HighActivity)

	if len(popped) > 0 {
		s.log.Debug().Int("count", len(popped)).Msg("dispatching background tasks")
	}

	for _, task := range popped {
		s.spawn(task)
	}
}

func (s *Scheduler) popLimitForLevel(level ActivityLevel) int {
	switch level {
	case HighActivity:
		return highActivityCap
	case LowActivity:
		return lowActivityCap
	case SleepMode:
		return sleepModeCap
	default:
		return lowActivityCap
	}
}

// popTasks removes up to limit tasks from the lanes, in priority order. When
// urgentOnly is set (HighActivity), only the Urgent lane is consulted.
func (s *Scheduler) popTasks(limit int, urgentOnly bool) []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Task
	lanes := priorityOrder
	if urgentOnly {
		lanes = []Priority{PriorityUrgent}
	}

	for _, p := range lanes {
		for len(out) < limit && len(s.lanes[p]) > 0 {
			task := s.lanes[p][0]
			s.lanes[p] = s.lanes[p][1:]
			out = append(out, task)
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (s *Scheduler) spawn(task *Task) {
	go func() {
		logger := log.WithTaskID(task.ID)
		defer func() {
			if r := recover(); r != nil {
				metrics.TaskExecutions.WithLabelValues(string(task.Kind), "panic").Inc()
				logger.Error().Interface("panic", r).Str("kind", string(task.Kind)).Msg("background task panicked")
			}
		}()

		if err := task.Run(task.token); err != nil {
			metrics.TaskExecutions.WithLabelValues(string(task.Kind), "error").Inc()
			logger.Warn().Err(err).Str("kind", string(task.Kind)).Msg("background task failed")
			return
		}
		metrics.TaskExecutions.WithLabelValues(string(task.Kind), "ok").Inc()
	}()
}
