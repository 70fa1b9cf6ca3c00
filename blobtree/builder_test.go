package blobtree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/blobtree"
	"github.com/WillCodeCo/solver-util/wire"
)

func TestBuilderIncrementalAssembly(t *testing.T) {
	b := blobtree.NewBuilder()
	require.Equal(t, 0, b.Len())

	b.AddWireNode(wire.Node{NodeID: 0, ParentNodeID: 0})
	b.AddWireNode(wire.Node{NodeID: 1, ParentNodeID: 0, ChildID: "x"})
	require.Equal(t, 2, b.Len())

	tree := b.Build()
	root, err := tree.RootNode()
	require.NoError(t, err)
	require.Equal(t, blobtree.RootNodeID, root.NodeID)

	children, err := tree.ChildNodes(0)
	require.NoError(t, err)
	require.Len(t, children, 1)
}

func TestBuilderOutOfOrderArrival(t *testing.T) {
	b := blobtree.NewBuilder()
	b.AddWireNode(wire.Node{NodeID: 2, ParentNodeID: 1, ChildID: "c"})
	b.AddWireNode(wire.Node{NodeID: 1, ParentNodeID: 0, ChildID: "x"})
	b.AddWireNode(wire.Node{NodeID: 0, ParentNodeID: 0})

	tree := b.Build()
	nodes, err := tree.BFSTraversal(blobtree.RootNodeID)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
}
