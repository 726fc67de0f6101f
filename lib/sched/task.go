package sched

import (
	"fmt"

	"github.com/benz9527/xbst/lib/tree"
)

// Task is one requested tree operation together with the progress it made.
// Insert and Search tasks carry a node handle, Delete tasks a removal state.
type Task[K any] struct {
	id      uint64
	kind    Kind
	key     K
	traced  bool
	tree    tree.BST[K]
	node    tree.NodeID
	removal tree.RemovalState[K]
	// Tree version observed after the latest step.
	version      uint64
	steps        int
	stepComplete bool
	done         bool
	err          error
}

func newTask[K any](id uint64, kind Kind, key K, traced bool, bst tree.BST[K]) *Task[K] {
	t := &Task[K]{
		id:     id,
		kind:   kind,
		key:    key,
		traced: traced,
		tree:   bst,
	}
	t.seed()
	return t
}

func (t *Task[K]) seed() {
	t.node = tree.NilNode
	if root := t.tree.Root(); root != nil {
		t.node = root.ID()
	}
	t.removal = tree.NewRemovalState[K](t.key)
	t.version = t.tree.Version()
}

// restart recovers a task whose tree was mutated by another task since
// its latest step. Walks are restarted from the root. A removal keeps
// its resolved node when it is still alive and still holds the target.
func (t *Task[K]) restart() {
	removal := t.removal
	t.seed()
	if t.kind != KindDelete || removal.ToDelete == tree.NilNode || removal.Terminated() {
		return
	}
	if node := t.tree.Node(removal.ToDelete); node != nil &&
		t.tree.Comparator()(node.Key(), removal.TargetKey) == 0 {
		t.removal = tree.RemovalState[K]{
			Phase:     tree.RemovalResolved,
			TargetKey: removal.TargetKey,
			ToDelete:  removal.ToDelete,
		}
		return
	}
	t.removal = tree.NewRemovalState[K](removal.TargetKey)
}

// Advance runs one step of the operation. In atomic tree mode one step
// is the whole operation.
func (t *Task[K]) Advance() (bool, error) {
	if t.done {
		return true, t.err
	}
	if t.version != t.tree.Version() {
		t.restart()
	}

	var (
		complete bool
		err      error
	)
	switch t.kind {
	case KindInsert:
		t.node, complete, err = t.tree.Insert(t.node, t.key)
	case KindDelete:
		t.removal, complete, err = t.tree.Remove(t.removal)
	case KindSearch:
		t.node, err = t.tree.Find(t.node, t.key)
		complete = true
	default:
		complete, err = true, fmt.Errorf("%w: %d", ErrSchedUnknownOperation, t.kind)
	}
	t.steps++
	t.stepComplete = complete
	t.version = t.tree.Version()
	t.err = err
	// Structural failures cannot make progress either.
	t.done = complete || err != nil
	return t.done, err
}

func (t *Task[K]) ID() uint64         { return t.id }
func (t *Task[K]) Kind() Kind         { return t.kind }
func (t *Task[K]) Key() K             { return t.key }
func (t *Task[K]) Traced() bool       { return t.traced }
func (t *Task[K]) Done() bool         { return t.done }
func (t *Task[K]) Err() error         { return t.err }
func (t *Task[K]) Steps() int         { return t.steps }
func (t *Task[K]) StepComplete() bool { return t.stepComplete }

// NodeID is the node the walk currently stands on, or the inserted or
// found node once the task is done.
func (t *Task[K]) NodeID() tree.NodeID {
	if t.kind == KindDelete {
		return tree.NilNode
	}
	return t.node
}

// Node is the live view of NodeID, nil when there is none.
func (t *Task[K]) Node() tree.BSTNode[K] {
	return t.tree.Node(t.NodeID())
}

// Removal is the progress of a Delete task.
func (t *Task[K]) Removal() tree.RemovalState[K] {
	return t.removal
}
