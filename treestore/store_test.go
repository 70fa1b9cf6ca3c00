package treestore_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/actionpath"
	"github.com/WillCodeCo/solver-util/solverconfig"
	"github.com/WillCodeCo/solver-util/treestore"
)

func sampleConfig(solvingTime int) solverconfig.Config {
	return solverconfig.Config{
		"bet_sizes":    []any{33.0, 66.0, 100.0},
		"solving_time": float64(solvingTime),
	}
}

func TestAddPostflopSaveIndexCleanUpLeavesOneIndex(t *testing.T) {
	store, err := treestore.CreateEmpty(t.TempDir())
	require.NoError(t, err)

	seq, err := actionpath.ParseSequence("x")
	require.NoError(t, err)

	_, err = store.AddPostflop(sampleConfig(10), seq, true, buildSamplePathTree(t))
	require.NoError(t, err)

	_, err = store.SaveIndex()
	require.NoError(t, err)
	require.NoError(t, store.CleanUpIndexes())

	keys, err := store.IndexBlobKeys()
	require.NoError(t, err)
	require.Len(t, keys, 1)
}

func TestPostflopIndexKeyIgnoresSolvingTime(t *testing.T) {
	seq, err := actionpath.ParseSequence("x")
	require.NoError(t, err)

	keyA, err := solverconfig.PostflopIndexKey(true, seq, sampleConfig(10))
	require.NoError(t, err)
	keyB, err := solverconfig.PostflopIndexKey(true, seq, sampleConfig(999))
	require.NoError(t, err)

	require.Equal(t, keyA, keyB)
}

func TestAddPostflopThenLookupThenGetSolutionTree(t *testing.T) {
	store, err := treestore.CreateEmpty(t.TempDir())
	require.NoError(t, err)

	seq, err := actionpath.ParseSequence("x")
	require.NoError(t, err)
	tree := buildSamplePathTree(t)

	entry, err := store.AddPostflop(sampleConfig(10), seq, true, tree)
	require.NoError(t, err)

	entries, err := store.Lookup(true, seq, sampleConfig(42), solverconfig.Postflop)
	require.NoError(t, err)
	require.Contains(t, entries, entry)

	got, err := store.GetSolutionTree(entry.SolutionTreeKey)
	require.NoError(t, err)
	require.True(t, tree.Equal(got))
}

func TestRebuildIndexReproducesCanonicalJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := treestore.CreateEmpty(dir)
	require.NoError(t, err)

	seqX, err := actionpath.ParseSequence("x")
	require.NoError(t, err)
	seqC, err := actionpath.ParseSequence("c")
	require.NoError(t, err)

	_, err = store.AddPreflop(sampleConfig(1), seqX, true, buildSamplePathTree(t))
	require.NoError(t, err)
	_, err = store.AddPostflop(sampleConfig(2), seqC, false, buildSamplePathTree(t))
	require.NoError(t, err)

	before := store.Index().Clone()
	require.NoError(t, store.RebuildIndex())

	require.True(t, before.Equal(store.Index()))
}

func TestGetPreflopConfigRoundTrip(t *testing.T) {
	store, err := treestore.CreateEmpty(t.TempDir())
	require.NoError(t, err)

	seq, err := actionpath.ParseSequence("xc")
	require.NoError(t, err)
	cfg := sampleConfig(7)

	entry, err := store.AddPreflop(cfg, seq, true, buildSamplePathTree(t))
	require.NoError(t, err)

	gotConfig, err := store.GetPreflopConfig(entry.SolverConfigKey)
	require.NoError(t, err)
	require.Equal(t, cfg["bet_sizes"], gotConfig["bet_sizes"])
}

func TestAddIsIdempotent(t *testing.T) {
	store, err := treestore.CreateEmpty(t.TempDir())
	require.NoError(t, err)

	seq, err := actionpath.ParseSequence("x")
	require.NoError(t, err)
	cfg := sampleConfig(1)
	tree := buildSamplePathTree(t)

	first, err := store.AddPreflop(cfg, seq, true, tree)
	require.NoError(t, err)
	second, err := store.AddPreflop(cfg, seq, true, tree)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, store.Index().Size())
}

func TestOpenAndMergeCombinesConcurrentIndexes(t *testing.T) {
	dir := t.TempDir()

	storeA, err := treestore.CreateEmpty(dir)
	require.NoError(t, err)
	seqA, err := actionpath.ParseSequence("x")
	require.NoError(t, err)
	_, err = storeA.AddPreflop(sampleConfig(1), seqA, true, buildSamplePathTree(t))
	require.NoError(t, err)
	_, err = storeA.SaveIndex()
	require.NoError(t, err)

	storeB, err := treestore.CreateEmpty(dir)
	require.NoError(t, err)
	seqB, err := actionpath.ParseSequence("c")
	require.NoError(t, err)
	_, err = storeB.AddPreflop(sampleConfig(2), seqB, true, buildSamplePathTree(t))
	require.NoError(t, err)
	_, err = storeB.SaveIndex()
	require.NoError(t, err)

	merged, err := treestore.OpenAndMerge(dir)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Index().Size())
}

func TestInvalidStoreLayoutRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/not-a-prefix", []byte("x"), 0o644))

	_, err := treestore.CreateEmpty(dir)
	require.Error(t, err)
}
