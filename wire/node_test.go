package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/wire"
)

func TestNodeRoundTrip(t *testing.T) {
	cases := []wire.Node{
		{NodeID: 0, ParentNodeID: 0, ChildID: "", Payload: nil},
		{NodeID: 7, ParentNodeID: 3, ChildID: "r100", Payload: []byte("payload-bytes")},
	}
	for _, n := range cases {
		buf := make([]byte, wire.SizeOfNode(n))
		written, err := wire.PutNode(buf, n)
		require.NoError(t, err)
		require.Equal(t, len(buf), written)

		got, consumed, err := wire.DecodeNode(buf)
		require.NoError(t, err)
		require.Equal(t, n.NodeID, got.NodeID)
		require.Equal(t, n.ParentNodeID, got.ParentNodeID)
		require.Equal(t, n.ChildID, got.ChildID)
		require.True(t, bytes.Equal(n.Payload, got.Payload), "got %x, want %x", got.Payload, n.Payload)
		require.Equal(t, written, consumed)
	}
}

func TestNodeIsRoot(t *testing.T) {
	require.True(t, wire.Node{NodeID: 0}.IsRoot())
	require.False(t, wire.Node{NodeID: 1}.IsRoot())
}
