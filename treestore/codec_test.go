package treestore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/actionpath"
	"github.com/WillCodeCo/solver-util/treestore"
	"github.com/WillCodeCo/solver-util/wire"
)

func leafSpot() wire.SolvedSpot {
	return wire.SolvedSpot{
		StrategyMatrix: wire.IntMatrix{Rows: 0, Cols: 0},
		EVMatrix:       wire.IntMatrix{Rows: 0, Cols: 0},
	}
}

func decisionSpot(optionCount, rows int) wire.SolvedSpot {
	opts := make([]wire.StrategyOption, optionCount)
	kinds := []wire.OptionKind{wire.OptionFold, wire.OptionCheck, wire.OptionCall, wire.OptionRaise}
	for i := range opts {
		k := kinds[i%len(kinds)]
		opts[i] = wire.StrategyOption{Kind: k}
		if k == wire.OptionRaise {
			opts[i].Amount = int32(i * 100)
			opts[i].PotRatioBps = int32(i * 10)
		}
	}
	data := make([]int32, rows*optionCount)
	for i := range data {
		data[i] = int32(i) - int32(len(data)/2)
	}
	return wire.SolvedSpot{
		Options:        opts,
		StrategyMatrix: wire.IntMatrix{Rows: rows, Cols: optionCount, Data: append([]int32(nil), data...)},
		EVMatrix:       wire.IntMatrix{Rows: rows, Cols: optionCount, Data: append([]int32(nil), data...)},
	}
}

func buildSamplePathTree(t *testing.T) *treestore.Tree {
	t.Helper()
	tree := treestore.NewTree(decisionSpot(2, 3))
	seq, err := tree.AddChild(actionpath.Empty(), "x", decisionSpot(3, 3))
	require.NoError(t, err)
	_, err = tree.AddChild(seq, "c", leafSpot())
	require.NoError(t, err)
	return tree
}

func TestEncodeDecodeTreeRoundTrip(t *testing.T) {
	tree := buildSamplePathTree(t)

	encoded, err := treestore.EncodeTree(tree)
	require.NoError(t, err)

	decoded, err := treestore.DecodeTree(encoded)
	require.NoError(t, err)

	require.True(t, tree.Equal(decoded))
	require.Equal(t, tree.NodeCount(), decoded.NodeCount())
}

func TestDecodeTreePreservesActionSequences(t *testing.T) {
	tree := buildSamplePathTree(t)
	encoded, err := treestore.EncodeTree(tree)
	require.NoError(t, err)

	decoded, err := treestore.DecodeTree(encoded)
	require.NoError(t, err)

	require.True(t, decoded.HasNode(actionpath.Empty()))
	xSeq, err := actionpath.ParseSequence("x")
	require.NoError(t, err)
	require.True(t, decoded.HasNode(xSeq))
	xcSeq, err := actionpath.ParseSequence("xc")
	require.NoError(t, err)
	require.True(t, decoded.HasNode(xcSeq))

	leaf, err := decoded.GetNode(xcSeq)
	require.NoError(t, err)
	require.True(t, leaf.IsLeaf())
}

func TestPathSolveNodeCountMatchesActionSequenceLength(t *testing.T) {
	tree := buildSamplePathTree(t)
	xcSeq, err := actionpath.ParseSequence("xc")
	require.NoError(t, err)
	require.Equal(t, len(xcSeq)+1, tree.NodeCount())
}
