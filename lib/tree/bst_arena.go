package tree

import "math"

// nodeArena owns every node of a tree. Links between nodes are handles
// into storage, freed slots are recycled through gaps.
// Slot 0 is reserved so that the zero handle means nil.
type nodeArena[K any] struct {
	storage []bstNode[K]
	gaps    []NodeID
}

func (arena *nodeArena[K]) malloc(key K) NodeID {
	if n := len(arena.gaps); n > 0 {
		id := arena.gaps[n-1]
		arena.gaps = arena.gaps[:n-1]
		arena.storage[id] = bstNode[K]{key: key, self: id, live: true}
		return id
	}

	if len(arena.storage) == 0 {
		// Zero is reserved.
		arena.storage = append(arena.storage, bstNode[K]{})
	}
	if len(arena.storage) >= math.MaxUint32 {
		panic( /* debug assertion */ "[bst] node arena reached the maximum value for uint32")
	}
	id := NodeID(len(arena.storage))
	arena.storage = append(arena.storage, bstNode[K]{key: key, self: id, live: true})
	return id
}

func (arena *nodeArena[K]) free(id NodeID) {
	if id == NilNode {
		panic( /* debug assertion */ "[bst] node #0 is special and cannot be deallocated")
	}
	if !arena.alive(id) {
		panic( /* debug assertion */ "[bst] double free of a node")
	}
	arena.storage[id] = bstNode[K]{}
	arena.gaps = append(arena.gaps, id)
}

func (arena *nodeArena[K]) alive(id NodeID) bool {
	return id != NilNode && int(id) < len(arena.storage) && arena.storage[id].live
}

// at returns the slot of id. The pointer is invalidated by the next malloc.
func (arena *nodeArena[K]) at(id NodeID) *bstNode[K] {
	if !arena.alive(id) {
		panic( /* debug assertion */ "[bst] access to a dead node")
	}
	return &arena.storage[id]
}

func (arena *nodeArena[K]) used() int {
	if len(arena.storage) == 0 {
		return 0
	}
	return len(arena.storage) - 1 - len(arena.gaps)
}

func (arena *nodeArena[K]) foreachLive(action func(node *bstNode[K])) {
	for i := 1; i < len(arena.storage); i++ {
		if arena.storage[i].live {
			action(&arena.storage[i])
		}
	}
}

func (arena *nodeArena[K]) reset() {
	clear(arena.storage)
	arena.storage = arena.storage[:0]
	arena.gaps = arena.gaps[:0]
}
