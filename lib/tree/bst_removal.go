package tree

type RemovalPhase uint8

const (
	// RemovalLocating walks the cursor from the root towards the target key.
	RemovalLocating RemovalPhase = iota
	// RemovalResolved has the node to delete, the strategy is not chosen yet.
	RemovalResolved
	// RemovalSplicing holds the only child that replaces the deleted node.
	RemovalSplicing
	// RemovalSeekingSuccessor walks the cursor to the leftmost node of the
	// right subtree of a two-children node.
	RemovalSeekingSuccessor
	// RemovalPromoting holds the inorder successor whose key is copied up.
	RemovalPromoting
	RemovalDone
	RemovalNotFound
)

func (phase RemovalPhase) String() string {
	switch phase {
	case RemovalLocating:
		return "Locating"
	case RemovalResolved:
		return "Resolved"
	case RemovalSplicing:
		return "Splicing"
	case RemovalSeekingSuccessor:
		return "SeekingSuccessor"
	case RemovalPromoting:
		return "Promoting"
	case RemovalDone:
		return "Done"
	case RemovalNotFound:
		return "NotFound"
	default:
	}
	return "Unknown"
}

// RemovalState is the progress of one deletion, held by the caller between
// steps. It is a plain value, every step produces a successor state.
type RemovalState[K any] struct {
	Phase       RemovalPhase
	TargetKey   K
	ToDelete    NodeID // NilNode while still locating.
	Cursor      NodeID // The node visited by the current walk.
	Replacement NodeID // Only child or inorder successor.
}

func NewRemovalState[K any](key K) RemovalState[K] {
	return RemovalState[K]{
		Phase:     RemovalLocating,
		TargetKey: key,
	}
}

func (state RemovalState[K]) Terminated() bool {
	return state.Phase == RemovalDone || state.Phase == RemovalNotFound
}

// remove drives the deletion state machine. Each phase handler returns
// yield=true when it consumed one step. Outside stepwise mode the machine
// simply runs until a terminal phase, so both modes share every transition.
func (tree *bst[K]) remove(state RemovalState[K]) (RemovalState[K], bool, error) {
	var (
		yield bool
		err   error
	)
	for !state.Terminated() {
		switch state.Phase {
		case RemovalLocating:
			state, yield, err = tree.locate(state)
		case RemovalResolved:
			state, yield, err = tree.resolve(state)
		case RemovalSplicing:
			state, yield, err = tree.splice(state)
		case RemovalSeekingSuccessor:
			state, yield, err = tree.seekSuccessor(state)
		case RemovalPromoting:
			state, yield, err = tree.promote(state)
		default:
			return state, false, ErrBSTCorrupted
		}
		if err != nil {
			return state, state.Terminated(), err
		}
		if yield && tree.stepwise && !state.Terminated() {
			return state, false, nil
		}
	}
	return state, true, nil
}

func (tree *bst[K]) locate(state RemovalState[K]) (RemovalState[K], bool, error) {
	if tree.root == NilNode {
		state.Phase, state.Cursor = RemovalNotFound, NilNode
		return state, false, ErrBSTEmpty
	}

	if state.Cursor == NilNode {
		state.Cursor = tree.root
	} else if !tree.arena.alive(state.Cursor) {
		return state, false, ErrBSTStaleNode
	}

	cursor := tree.arena.at(state.Cursor)
	res := tree.keyCompare(state.TargetKey, cursor.key)
	if /* equal */ res == 0 {
		state.Phase, state.ToDelete, state.Cursor = RemovalResolved, state.Cursor, NilNode
		return state, false, nil
	}

	next := cursor.right
	if /* less */ res < 0 {
		next = cursor.left
	}
	if next == NilNode {
		state.Phase, state.Cursor = RemovalNotFound, NilNode
		return state, false, ErrBSTKeyNotFound
	}
	if tree.keyCompare(state.TargetKey, tree.arena.at(next).key) == 0 {
		state.Phase, state.ToDelete, state.Cursor = RemovalResolved, next, NilNode
	} else {
		state.Cursor = next
	}
	return state, true, nil
}

func (tree *bst[K]) resolve(state RemovalState[K]) (RemovalState[K], bool, error) {
	if !tree.arena.alive(state.ToDelete) {
		return state, false, ErrBSTStaleNode
	}
	del := tree.arena.at(state.ToDelete)
	switch del.childCount() {
	case 0:
		if del.isRoot() {
			if tree.root != state.ToDelete {
				return state, false, ErrBSTCorrupted
			}
			tree.root = NilNode
		} else if err := tree.arena.at(del.parent).removeChild(state.ToDelete); err != nil {
			return state, false, err
		}
		tree.arena.free(state.ToDelete)
		tree.version++
		return RemovalState[K]{Phase: RemovalDone, TargetKey: state.TargetKey}, true, nil
	case 1:
		state.Phase, state.Replacement = RemovalSplicing, del.onlyChild()
	case 2:
		state.Phase, state.Cursor = RemovalSeekingSuccessor, del.right
	default:
		panic( /* debug assertion */ "[bst] a binary node with more than two children")
	}
	return state, true, nil
}

func (tree *bst[K]) splice(state RemovalState[K]) (RemovalState[K], bool, error) {
	if !tree.arena.alive(state.ToDelete) || !tree.arena.alive(state.Replacement) {
		return state, false, ErrBSTStaleNode
	}
	del, repl := tree.arena.at(state.ToDelete), tree.arena.at(state.Replacement)
	if del.childCount() != 1 || del.onlyChild() != state.Replacement {
		return state, false, ErrBSTCorrupted
	}

	if del.isRoot() {
		tree.root = state.Replacement
		repl.parent = NilNode
	} else if err := tree.arena.at(del.parent).replaceChildWithAnother(state.ToDelete, repl); err != nil {
		return state, false, err
	}
	tree.arena.free(state.ToDelete)
	tree.version++
	return RemovalState[K]{Phase: RemovalDone, TargetKey: state.TargetKey}, true, nil
}

func (tree *bst[K]) seekSuccessor(state RemovalState[K]) (RemovalState[K], bool, error) {
	if !tree.arena.alive(state.Cursor) {
		return state, false, ErrBSTStaleNode
	}
	if cursor := tree.arena.at(state.Cursor); cursor.left != NilNode {
		state.Cursor = cursor.left
	} else {
		state.Phase, state.Replacement, state.Cursor = RemovalPromoting, state.Cursor, NilNode
	}
	return state, true, nil
}

// promote copies the successor's key into the node to delete. The
// successor has no left child, so the follow-up pass removes it as a
// leaf or a single-child node.
func (tree *bst[K]) promote(state RemovalState[K]) (RemovalState[K], bool, error) {
	if !tree.arena.alive(state.ToDelete) || !tree.arena.alive(state.Replacement) {
		return state, false, ErrBSTStaleNode
	}
	succ := tree.arena.at(state.Replacement)
	if succ.left != NilNode {
		return state, false, ErrBSTCorrupted
	}
	tree.arena.at(state.ToDelete).adoptKeyFrom(succ)
	tree.version++
	return RemovalState[K]{
		Phase:     RemovalResolved,
		TargetKey: succ.key,
		ToDelete:  state.Replacement,
	}, true, nil
}
