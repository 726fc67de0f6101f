package tree

type bstNode[K any] struct {
	key    K
	self   NodeID
	parent NodeID
	left   NodeID
	right  NodeID
	live   bool
}

func (node *bstNode[K]) isLeaf() bool {
	return node.left == NilNode && node.right == NilNode
}

func (node *bstNode[K]) isRoot() bool {
	return node.parent == NilNode
}

func (node *bstNode[K]) childCount() int {
	cnt := 0
	if node.left != NilNode {
		cnt++
	}
	if node.right != NilNode {
		cnt++
	}
	return cnt
}

// onlyChild returns the single child of a node with exactly one child.
func (node *bstNode[K]) onlyChild() NodeID {
	if node.right != NilNode {
		return node.right
	}
	return node.left
}

// removeChild detaches child, matched by identity.
func (node *bstNode[K]) removeChild(child NodeID) error {
	if child == NilNode {
		return ErrBSTNotAChild
	}
	switch child {
	case node.left:
		node.left = NilNode
	case node.right:
		node.right = NilNode
	default:
		return ErrBSTNotAChild
	}
	return nil
}

// replaceChildWithAnother rewires the link pointing at child to another
// and makes this node another's parent.
func (node *bstNode[K]) replaceChildWithAnother(child NodeID, another *bstNode[K]) error {
	if child == NilNode || another == nil {
		return ErrBSTNotAChild
	}
	switch child {
	case node.left:
		node.left = another.self
	case node.right:
		node.right = another.self
	default:
		return ErrBSTNotAChild
	}
	another.parent = node.self
	return nil
}

func (node *bstNode[K]) adoptKeyFrom(another *bstNode[K]) {
	node.key = another.key
}

var _ BSTNode[int] = nodeRef[int]{}

// nodeRef resolves a handle against its tree on every access.
type nodeRef[K any] struct {
	tree *bst[K]
	id   NodeID
}

func (ref nodeRef[K]) node() *bstNode[K] {
	return ref.tree.arena.at(ref.id)
}

func (ref nodeRef[K]) ID() NodeID         { return ref.id }
func (ref nodeRef[K]) Key() K             { return ref.node().key }
func (ref nodeRef[K]) Left() BSTNode[K]   { return ref.tree.Node(ref.node().left) }
func (ref nodeRef[K]) Right() BSTNode[K]  { return ref.tree.Node(ref.node().right) }
func (ref nodeRef[K]) Parent() BSTNode[K] { return ref.tree.Node(ref.node().parent) }
func (ref nodeRef[K]) IsLeaf() bool       { return ref.node().isLeaf() }
func (ref nodeRef[K]) IsRoot() bool       { return ref.node().isRoot() }
func (ref nodeRef[K]) ChildCount() int    { return ref.node().childCount() }

func (ref nodeRef[K]) Direction() Direction {
	node := ref.node()
	if node.isRoot() {
		return Root
	}
	if ref.tree.arena.at(node.parent).left == ref.id {
		return Left
	}
	return Right
}
