package sched

import "errors"

var (
	ErrSchedUnknownOperation = errors.New("[sched] unknown task operation kind")
	ErrSchedNilTree          = errors.New("[sched] scheduler requires a tree")
)

// Kind is the tree operation a task performs.
type Kind uint8

const (
	KindInsert Kind = iota
	KindDelete
	KindSearch
	_kindMax
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "Insert"
	case KindDelete:
		return "Delete"
	case KindSearch:
		return "Search"
	default:
	}
	return "Unknown"
}

// State is the outcome of one scheduler tick.
type State uint8

const (
	NoTasks State = iota
	TaskFinished
	StillWorking
)

func (s State) String() string {
	switch s {
	case NoTasks:
		return "NoTasks"
	case TaskFinished:
		return "TaskFinished"
	case StillWorking:
		return "StillWorking"
	default:
	}
	return "Unknown"
}

type Event uint8

const (
	// EventPushed fires for traced tasks before their first step.
	EventPushed Event = iota
	EventStepped
	EventFinished
)

func (e Event) String() string {
	switch e {
	case EventPushed:
		return "Pushed"
	case EventStepped:
		return "Stepped"
	case EventFinished:
		return "Finished"
	default:
	}
	return "Unknown"
}

// Observer receives the task lifecycle of a scheduler. It runs on the
// caller's goroutine and must not push or advance tasks itself.
type Observer[K any] func(evt Event, task *Task[K])
