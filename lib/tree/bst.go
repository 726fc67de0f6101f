package tree

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/benz9527/xbst/lib/infra"
)

var (
	ErrBSTKeyNotFound       = errors.New("[bst] key not found")
	ErrBSTEmpty             = fmt.Errorf("[bst] empty tree: %w", ErrBSTKeyNotFound)
	ErrBSTInvalidComparator = errors.New("[bst] comparator is nil")
	ErrBSTNotAChild         = errors.New("[bst] node is not a child of its supposed parent")
	ErrBSTStaleNode         = errors.New("[bst] node handle is not alive")
	ErrBSTCorrupted         = errors.New("[bst] structure corrupted")
)

var _ BST[int] = (*bst[int])(nil)

type bst[K any] struct {
	arena            nodeArena[K]
	root             NodeID
	cmp              infra.Comparator[K]
	version          uint64
	stepwise         bool
	lastStepComplete bool
}

func (tree *bst[K]) keyCompare(k1, k2 K) int64 {
	return infra.Sign(tree.cmp(k1, k2))
}

func (tree *bst[K]) Len() int64 {
	return int64(tree.arena.used())
}

func (tree *bst[K]) Root() BSTNode[K] {
	return tree.Node(tree.root)
}

func (tree *bst[K]) Node(id NodeID) BSTNode[K] {
	if !tree.arena.alive(id) {
		return nil
	}
	return nodeRef[K]{tree: tree, id: id}
}

func (tree *bst[K]) Comparator() infra.Comparator[K] {
	return tree.cmp
}

func (tree *bst[K]) Version() uint64 {
	return tree.version
}

func (tree *bst[K]) Stepwise() bool {
	return tree.stepwise
}

func (tree *bst[K]) SetStepwise(stepwise bool) {
	tree.stepwise = stepwise
	tree.lastStepComplete = !stepwise
}

func (tree *bst[K]) LastStepComplete() bool {
	return tree.lastStepComplete
}

func (tree *bst[K]) ResetLastStepComplete() {
	tree.lastStepComplete = !tree.stepwise
}

func (tree *bst[K]) Insert(start NodeID, key K) (NodeID, bool, error) {
	tree.lastStepComplete = !tree.stepwise
	if start == NilNode {
		if /* empty */ tree.root == NilNode {
			tree.root = tree.arena.malloc(key)
			tree.version++
			tree.lastStepComplete = true
			return tree.root, true, nil
		}
		start = tree.root
	}
	if !tree.arena.alive(start) {
		return NilNode, false, ErrBSTStaleNode
	}

	for x := start; ; {
		node := tree.arena.at(x)
		res := tree.keyCompare(key, node.key)
		next := node.right
		if /* less */ res < 0 {
			next = node.left
		}

		if next == NilNode {
			z := tree.arena.malloc(key)
			// Storage may have grown, reload the parent.
			parent := tree.arena.at(x)
			if res < 0 {
				parent.left = z
			} else {
				parent.right = z
			}
			tree.arena.at(z).parent = x
			tree.version++
			tree.lastStepComplete = true
			return z, true, nil
		}

		if tree.stepwise {
			return next, false, nil
		}
		x = next
	}
}

func (tree *bst[K]) Find(start NodeID, key K) (NodeID, error) {
	if tree.root == NilNode {
		return NilNode, ErrBSTEmpty
	}
	for x := start; x != NilNode; {
		if !tree.arena.alive(x) {
			return NilNode, ErrBSTStaleNode
		}
		node := tree.arena.at(x)
		res := tree.keyCompare(key, node.key)
		if /* equal */ res == 0 {
			return x, nil
		} else /* less */ if res < 0 {
			x = node.left
		} else /* greater */ {
			x = node.right
		}
	}
	return NilNode, ErrBSTKeyNotFound
}

func (tree *bst[K]) Search(key K) (BSTNode[K], error) {
	id, err := tree.Find(tree.root, key)
	if err != nil {
		return nil, err
	}
	return tree.Node(id), nil
}

func (tree *bst[K]) Remove(state RemovalState[K]) (RemovalState[K], bool, error) {
	tree.lastStepComplete = !tree.stepwise
	next, complete, err := tree.remove(state)
	if complete {
		tree.lastStepComplete = true
	}
	return next, complete, err
}

func (tree *bst[K]) NumberOfLeaves() int {
	leaves := 0
	tree.arena.foreachLive(func(node *bstNode[K]) {
		if node.isLeaf() {
			leaves++
		}
	})
	return leaves
}

// BFS traversal to group nodes by depth.
func (tree *bst[K]) levelIDs() [][]NodeID {
	if tree.root == NilNode {
		return [][]NodeID{}
	}
	levels := make([][]NodeID, 0, 8)
	for level := []NodeID{tree.root}; len(level) > 0; {
		levels = append(levels, level)
		next := make([]NodeID, 0, len(level)<<1)
		for _, id := range level {
			node := tree.arena.at(id)
			if node.left != NilNode {
				next = append(next, node.left)
			}
			if node.right != NilNode {
				next = append(next, node.right)
			}
		}
		level = next
	}
	return levels
}

func (tree *bst[K]) Levels() [][]BSTNode[K] {
	return lo.Map(tree.levelIDs(), func(level []NodeID, _ int) []BSTNode[K] {
		return lo.Map(level, func(id NodeID, _ int) BSTNode[K] {
			return nodeRef[K]{tree: tree, id: id}
		})
	})
}

func (tree *bst[K]) Height() int {
	return len(tree.levelIDs())
}

// Inorder traversal to implement the DFS.
func (tree *bst[K]) Foreach(action func(idx int64, node BSTNode[K]) bool) {
	aux := tree.root
	if aux == NilNode {
		return
	}

	stack := make([]NodeID, 0, tree.arena.used()>>1+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != NilNode; aux = tree.arena.at(aux).left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, nodeRef[K]{tree: tree, id: aux}) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = tree.arena.at(aux).right; aux != NilNode; aux = tree.arena.at(aux).left {
			stack = append(stack, aux)
		}
	}
}

func (tree *bst[K]) Release() {
	tree.arena.reset()
	tree.root = NilNode
	tree.version++
	tree.lastStepComplete = !tree.stepwise
}

type BSTOpt[K any] func(*bst[K])

// WithBSTStepwise makes every mutation advance one bounded step per call.
func WithBSTStepwise[K any]() BSTOpt[K] {
	return func(tree *bst[K]) {
		tree.stepwise = true
	}
}

// WithBSTDesc reverses the comparator.
func WithBSTDesc[K any]() BSTOpt[K] {
	return func(tree *bst[K]) {
		asc := tree.cmp
		tree.cmp = func(i, j K) int64 {
			return -infra.Sign(asc(i, j))
		}
	}
}

func NewBST[K any](cmp infra.Comparator[K], opts ...BSTOpt[K]) (BST[K], error) {
	if cmp == nil {
		return nil, ErrBSTInvalidComparator
	}
	tree := &bst[K]{
		root:     NilNode,
		cmp:      cmp,
		stepwise: false,
	}
	for _, o := range opts {
		o(tree)
	}
	tree.lastStepComplete = !tree.stepwise
	return tree, nil
}

func NewOrderedBST[K infra.OrderedKey](opts ...BSTOpt[K]) BST[K] {
	return lo.Must[BST[K]](NewBST[K](infra.NaturalOrder[K](), opts...))
}
