package sched

import (
	"context"

	"go.uber.org/zap"

	"github.com/benz9527/xbst/lib/id"
	"github.com/benz9527/xbst/lib/tree"
	"github.com/benz9527/xbst/xlog"
)

// Scheduler is a LIFO stack of tasks bound to one tree. The latest pushed
// task is the current one, it preempts every older unfinished task.
// A Scheduler is not safe for concurrent use.
type Scheduler[K any] struct {
	name           string
	tree           tree.BST[K]
	tasks          []*Task[K]
	idGen          id.Gen
	logger         xlog.XLogger
	observers      []Observer[K]
	isStatsEnabled bool
	stats          *schedulerStats
}

type SchedulerOption[K any] func(*Scheduler[K])

func WithSchedulerName[K any](name string) SchedulerOption[K] {
	return func(s *Scheduler[K]) {
		s.name = name
	}
}

func WithSchedulerLogger[K any](logger xlog.XLogger) SchedulerOption[K] {
	return func(s *Scheduler[K]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithSchedulerObserver[K any](observer Observer[K]) SchedulerOption[K] {
	return func(s *Scheduler[K]) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// WithSchedulerIDGen shares a task id sequence between schedulers.
func WithSchedulerIDGen[K any](gen id.Gen) SchedulerOption[K] {
	return func(s *Scheduler[K]) {
		if gen != nil {
			s.idGen = gen
		}
	}
}

func WithSchedulerStats[K any]() SchedulerOption[K] {
	return func(s *Scheduler[K]) {
		s.isStatsEnabled = true
	}
}

func NewScheduler[K any](bst tree.BST[K], opts ...SchedulerOption[K]) (*Scheduler[K], error) {
	if bst == nil {
		return nil, ErrSchedNilTree
	}
	s := &Scheduler[K]{
		tree:   bst,
		tasks:  make([]*Task[K], 0, 8),
		logger: xlog.NewNopXLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.idGen == nil {
		s.idGen = id.MonotonicNonZeroID()
	}
	if s.isStatsEnabled {
		s.stats = newSchedulerStats(s.name)
	}
	return s, nil
}

func (s *Scheduler[K]) Tree() tree.BST[K] {
	return s.tree
}

func (s *Scheduler[K]) Len() int {
	return len(s.tasks)
}

// Current peeks the top task, nil when idle.
func (s *Scheduler[K]) Current() *Task[K] {
	if len(s.tasks) == 0 {
		return nil
	}
	return s.tasks[len(s.tasks)-1]
}

// Tasks lists the pending tasks, the current one first.
func (s *Scheduler[K]) Tasks() []*Task[K] {
	res := make([]*Task[K], 0, len(s.tasks))
	for i := len(s.tasks) - 1; i >= 0; i-- {
		res = append(res, s.tasks[i])
	}
	return res
}

func (s *Scheduler[K]) PushInsert(key K, traced bool) (*Task[K], error) {
	return s.push(KindInsert, key, traced)
}

func (s *Scheduler[K]) PushDelete(key K, traced bool) (*Task[K], error) {
	return s.push(KindDelete, key, traced)
}

func (s *Scheduler[K]) PushSearch(key K, traced bool) (*Task[K], error) {
	return s.push(KindSearch, key, traced)
}

// push stacks a new task. A traced task waits for AdvanceCurrent, an
// untraced one is driven to completion before push returns.
func (s *Scheduler[K]) push(kind Kind, key K, traced bool) (*Task[K], error) {
	task := newTask[K](s.idGen(), kind, key, traced, s.tree)
	s.tasks = append(s.tasks, task)
	s.stats.IncreasePushedCount(kind)
	s.stats.RecordPending(len(s.tasks))
	s.logger.DebugContext(s.taskContext(task), "task pushed",
		zap.Any("key", key),
		zap.Bool("traced", traced),
		zap.Int("pending", len(s.tasks)),
	)

	if traced {
		s.tree.ResetLastStepComplete()
		s.notify(EventPushed, task)
		return task, nil
	}

	for {
		state, err := s.AdvanceCurrent()
		if state != StillWorking {
			return task, err
		}
	}
}

// AdvanceCurrent runs one step of the current task and pops it once the
// operation is complete. A task finishing with a recoverable failure,
// like an absent key, reports TaskFinished together with the error.
func (s *Scheduler[K]) AdvanceCurrent() (State, error) {
	task := s.Current()
	if task == nil {
		return NoTasks, nil
	}

	done, err := task.Advance()
	s.stats.IncreaseStepCount(task.kind)
	s.notify(EventStepped, task)
	if !done {
		s.logger.DebugContext(s.taskContext(task), "task stepped", zap.Int("steps", task.steps))
		return StillWorking, err
	}

	s.tasks[len(s.tasks)-1] = nil
	s.tasks = s.tasks[:len(s.tasks)-1]
	s.stats.IncreaseFinishedCount(task.kind, err)
	s.stats.RecordPending(len(s.tasks))
	if err != nil {
		s.logger.WarnContext(s.taskContext(task), "task finished with failure",
			zap.Error(err),
			zap.Int("steps", task.steps),
		)
	} else {
		s.logger.DebugContext(s.taskContext(task), "task finished", zap.Int("steps", task.steps))
	}
	s.notify(EventFinished, task)
	return TaskFinished, err
}

func (s *Scheduler[K]) notify(evt Event, task *Task[K]) {
	for _, o := range s.observers {
		o(evt, task)
	}
}

func (s *Scheduler[K]) taskContext(task *Task[K]) context.Context {
	ctx := context.WithValue(context.Background(), xlog.ContextKeyTaskID, task.id)
	return context.WithValue(ctx, xlog.ContextKeyKind, task.kind.String())
}
