package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	errBSTOrderViolation = errors.New("bst order violation")
	errBSTLinkViolation  = errors.New("bst link violation")
)

// bst rule validation utilities.

// OrderViolationValidate checks that every key of a left subtree compares
// less than its ancestor and every key of a right subtree compares greater
// or equal. All violations are collected.
func OrderViolationValidate[K any](tree BST[K]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	cmp := tree.Comparator()

	type frame struct {
		node         BSTNode[K]
		lower, upper BSTNode[K] // lower <= node < upper
	}
	var merr error
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.lower != nil && cmp(cur.node.Key(), cur.lower.Key()) < 0 {
			merr = multierr.Append(merr, fmt.Errorf("%w: node %d key %v < ancestor %d key %v",
				errBSTOrderViolation, cur.node.ID(), cur.node.Key(), cur.lower.ID(), cur.lower.Key()))
		}
		if cur.upper != nil && cmp(cur.node.Key(), cur.upper.Key()) >= 0 {
			merr = multierr.Append(merr, fmt.Errorf("%w: node %d key %v >= ancestor %d key %v",
				errBSTOrderViolation, cur.node.ID(), cur.node.Key(), cur.upper.ID(), cur.upper.Key()))
		}

		if r := cur.node.Right(); r != nil {
			stack = append(stack, frame{node: r, lower: cur.node, upper: cur.upper})
		}
		if l := cur.node.Left(); l != nil {
			stack = append(stack, frame{node: l, lower: cur.lower, upper: cur.node})
		}
	}
	return merr
}

// LinkViolationValidate checks the parent/child back references and that
// exactly the reachable nodes are alive.
func LinkViolationValidate[K any](tree BST[K]) error {
	root := tree.Root()
	if root == nil {
		if tree.Len() != 0 {
			return fmt.Errorf("%w: empty root but %d live nodes", errBSTLinkViolation, tree.Len())
		}
		return nil
	}

	var merr error
	if root.Parent() != nil {
		merr = multierr.Append(merr, fmt.Errorf("%w: root %d has parent %d",
			errBSTLinkViolation, root.ID(), root.Parent().ID()))
	}

	reachable := int64(0)
	stack := []BSTNode[K]{root}
	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable++; reachable > tree.Len() {
			merr = multierr.Append(merr, fmt.Errorf("%w: cycle detected at node %d", errBSTLinkViolation, aux.ID()))
			return merr
		}
		for _, child := range []BSTNode[K]{aux.Left(), aux.Right()} {
			if child == nil {
				continue
			}
			if p := child.Parent(); p == nil || p.ID() != aux.ID() {
				merr = multierr.Append(merr, fmt.Errorf("%w: node %d does not point back to parent %d",
					errBSTLinkViolation, child.ID(), aux.ID()))
			}
			stack = append(stack, child)
		}
	}
	if reachable != tree.Len() {
		merr = multierr.Append(merr, fmt.Errorf("%w: %d reachable nodes but %d live nodes",
			errBSTLinkViolation, reachable, tree.Len()))
	}
	return merr
}

// Keys returns the keys in inorder.
func Keys[K any](tree BST[K]) []K {
	keys := make([]K, 0, tree.Len())
	tree.Foreach(func(_ int64, node BSTNode[K]) bool {
		keys = append(keys, node.Key())
		return true
	})
	return keys
}
