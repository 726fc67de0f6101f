package tree

import "github.com/benz9527/xbst/lib/infra"

// NodeID is the handle of a node inside the tree's node arena.
// The zero handle is reserved as nil.
type NodeID uint32

const NilNode NodeID = 0

type Direction int8

const (
	Left Direction = -1 + iota
	Root
	Right
)

func (dir Direction) String() string {
	switch dir {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Unknown"
}

// BSTNode is a read-only view of a live node. A view is only valid
// until the next structural mutation of its tree.
type BSTNode[K any] interface {
	ID() NodeID
	Key() K
	Left() BSTNode[K]
	Right() BSTNode[K]
	Parent() BSTNode[K]
	IsLeaf() bool
	IsRoot() bool
	ChildCount() int
	Direction() Direction
}

// BST is a plain unbalanced binary search tree whose mutations can be
// executed atomically or one bounded step per call (stepwise mode).
// Equal keys are routed into the right subtree.
type BST[K any] interface {
	Len() int64
	Root() BSTNode[K]
	Node(id NodeID) BSTNode[K]
	Comparator() infra.Comparator[K]
	// Version increases on every structural mutation.
	Version() uint64

	Stepwise() bool
	SetStepwise(stepwise bool)
	// LastStepComplete reports whether the latest Insert or Remove call
	// finished its whole operation. Always true outside stepwise mode.
	LastStepComplete() bool
	ResetLastStepComplete()

	// Insert descends from start (nil means the root) towards the slot of
	// key. In stepwise mode a call descends one level and returns the next
	// node to look at, with complete=false, until the new node is linked.
	Insert(start NodeID, key K) (node NodeID, complete bool, err error)
	// Find always runs to completion.
	Find(start NodeID, key K) (NodeID, error)
	Search(key K) (BSTNode[K], error)
	// Remove advances a deletion and returns its successor state. complete
	// is true once a node was physically removed or the key is proven absent.
	Remove(state RemovalState[K]) (next RemovalState[K], complete bool, err error)

	NumberOfLeaves() int
	// Levels groups the live nodes by depth, left to right inside a level.
	Levels() [][]BSTNode[K]
	Height() int
	Foreach(action func(idx int64, node BSTNode[K]) bool)
	Release()
}
