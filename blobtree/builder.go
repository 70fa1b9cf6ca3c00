package blobtree

import "github.com/WillCodeCo/solver-util/wire"

// Builder incrementally assembles a Tree from nodes as they arrive, which is
// the shape a decoded IPC frame stream or a decoded blob actually takes: one
// wire.Node at a time, parent always seen before its children in practice
// but never assumed to be.
type Builder struct {
	tree *Tree
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{tree: New()}
}

// AddWireNode adds a decoded wire.Node to the tree under construction.
func (b *Builder) AddWireNode(n wire.Node) {
	b.tree.AddNode(n)
}

// Len reports how many nodes have been added so far.
func (b *Builder) Len() int {
	return b.tree.Len()
}

// Build returns the Tree assembled so far. The Builder remains usable
// afterward; Build does not reset any state.
func (b *Builder) Build() *Tree {
	return b.tree
}
