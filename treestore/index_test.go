package treestore_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/treestore"
)

func TestIndexAddIsIdempotentForSize(t *testing.T) {
	idx := treestore.NewIndex()
	entry := treestore.IndexEntry{SolverConfigKey: "cfg1", SolutionTreeKey: "tree1"}

	require.True(t, idx.Add("key1", entry))
	require.False(t, idx.Add("key1", entry))
	require.Equal(t, 1, idx.Size())
}

func TestIndexMergeIsSetUnion(t *testing.T) {
	a := treestore.NewIndex()
	a.Add("key1", treestore.IndexEntry{SolverConfigKey: "cfg1", SolutionTreeKey: "tree1"})

	b := treestore.NewIndex()
	b.Add("key1", treestore.IndexEntry{SolverConfigKey: "cfg1", SolutionTreeKey: "tree1"})
	b.Add("key1", treestore.IndexEntry{SolverConfigKey: "cfg2", SolutionTreeKey: "tree2"})
	b.Add("key2", treestore.IndexEntry{SolverConfigKey: "cfg3", SolutionTreeKey: "tree3"})

	a.Merge(b)
	require.Equal(t, 3, a.Size())
	require.Len(t, a.Lookup("key1"), 2)
	require.Len(t, a.Lookup("key2"), 1)
}

func TestIndexJSONRoundTripIsDeterministicallySorted(t *testing.T) {
	idx := treestore.NewIndex()
	idx.Add("key1", treestore.IndexEntry{SolverConfigKey: "cfgB", SolutionTreeKey: "treeB"})
	idx.Add("key1", treestore.IndexEntry{SolverConfigKey: "cfgA", SolutionTreeKey: "treeA"})

	data, err := json.Marshal(idx)
	require.NoError(t, err)

	var decoded map[string][]treestore.IndexEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "cfgA", decoded["key1"][0].SolverConfigKey)
	require.Equal(t, "cfgB", decoded["key1"][1].SolverConfigKey)

	roundTripped := treestore.NewIndex()
	require.NoError(t, json.Unmarshal(data, roundTripped))
	require.True(t, idx.Equal(roundTripped))
}

func TestIndexLookupMissingKeyIsEmpty(t *testing.T) {
	idx := treestore.NewIndex()
	require.Empty(t, idx.Lookup("nonexistent"))
}
