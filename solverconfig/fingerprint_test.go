package solverconfig_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/actionpath"
	"github.com/WillCodeCo/solver-util/solverconfig"
)

func TestCanonicalJSONSortsKeys(t *testing.T) {
	config := solverconfig.Config{"z": 1, "a": 2, "m": 3}
	data, err := solverconfig.CanonicalJSON(map[string]any(config))
	require.NoError(t, err)
	require.Equal(t, `{"a":2,"m":3,"z":1}`, string(data))
}

func TestConsistentHashIsDeterministic(t *testing.T) {
	a := solverconfig.Config{"x": 1, "y": 2}
	b := solverconfig.Config{"y": 2, "x": 1}

	hashA, err := a.Fingerprint()
	require.NoError(t, err)
	hashB, err := b.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, hashA, hashB)
}

func TestPostflopIndexKeyIgnoresSolvingTime(t *testing.T) {
	seq, err := actionpath.ParseSequence("xc")
	require.NoError(t, err)

	a := solverconfig.Config{"bet_sizes": []any{50, 100}, "solving_time": 30}
	b := solverconfig.Config{"bet_sizes": []any{50, 100}, "solving_time": 9000}

	keyA, err := solverconfig.PostflopIndexKey(true, seq, a)
	require.NoError(t, err)
	keyB, err := solverconfig.PostflopIndexKey(true, seq, b)
	require.NoError(t, err)
	require.Equal(t, keyA, keyB)
}

func TestPreflopIndexKeyDoesNotIgnoreAnyField(t *testing.T) {
	seq := actionpath.Empty()
	a := solverconfig.Config{"solving_time": 30}
	b := solverconfig.Config{"solving_time": 9000}

	keyA, err := solverconfig.PreflopIndexKey(true, seq, a)
	require.NoError(t, err)
	keyB, err := solverconfig.PreflopIndexKey(true, seq, b)
	require.NoError(t, err)
	require.NotEqual(t, keyA, keyB)
}

func TestIndexKeyDispatchesBySolverType(t *testing.T) {
	seq := actionpath.Empty()
	config := solverconfig.Config{"solving_time": 30}

	viaDispatch, err := solverconfig.IndexKey(solverconfig.Postflop, true, seq, config)
	require.NoError(t, err)
	viaDirect, err := solverconfig.PostflopIndexKey(true, seq, config)
	require.NoError(t, err)
	require.Equal(t, viaDirect, viaDispatch)
}

func TestIndexKeyDiffersByMode(t *testing.T) {
	seq := actionpath.Empty()
	config := solverconfig.Config{"a": 1}

	pathKey, err := solverconfig.PreflopIndexKey(true, seq, config)
	require.NoError(t, err)
	subtreeKey, err := solverconfig.PreflopIndexKey(false, seq, config)
	require.NoError(t, err)
	require.NotEqual(t, pathKey, subtreeKey)
}
