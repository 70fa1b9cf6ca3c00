package actionpath_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/actionpath"
)

func TestParseSequenceRoundTrip(t *testing.T) {
	cases := []string{"", "x", "c", "f", "r300", "xr300c", "ccccxr1000"}
	for _, s := range cases {
		seq, err := actionpath.ParseSequence(s)
		require.NoError(t, err)
		require.Equal(t, s, seq.String())
	}
}

func TestParseSequenceRejectsInvalid(t *testing.T) {
	for _, s := range []string{"y", "r", "rabc", "xcz", " c"} {
		_, err := actionpath.ParseSequence(s)
		require.Error(t, err, "expected error for %q", s)
	}
}

func TestSequenceEmptyIsRoot(t *testing.T) {
	seq := actionpath.Empty()
	require.Equal(t, "", seq.String())
	require.Len(t, seq, 0)
}

func TestSequenceAppend(t *testing.T) {
	seq := actionpath.Empty()
	seq = seq.Append(actionpath.NewCheck())
	seq = seq.Append(actionpath.NewRaise(300))
	seq = seq.Append(actionpath.NewCall())
	require.Equal(t, "xr300c", seq.String())
}

func TestSequenceParent(t *testing.T) {
	seq, err := actionpath.ParseSequence("xr300c")
	require.NoError(t, err)
	parent := seq.Parent()
	require.Equal(t, "xr300", parent.String())
	require.Equal(t, "", actionpath.Empty().Parent().String())
}

func TestSequencePrefixes(t *testing.T) {
	seq, err := actionpath.ParseSequence("xc")
	require.NoError(t, err)
	prefixes := seq.Prefixes()
	require.Len(t, prefixes, 3)
	require.Equal(t, "", prefixes[0].String())
	require.Equal(t, "x", prefixes[1].String())
	require.Equal(t, "xc", prefixes[2].String())
}

func TestSequenceEqual(t *testing.T) {
	a, _ := actionpath.ParseSequence("xr100c")
	b, _ := actionpath.ParseSequence("xr100c")
	c, _ := actionpath.ParseSequence("xr200c")
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestActionConstructors(t *testing.T) {
	require.Equal(t, "x", actionpath.NewCheck().String())
	require.Equal(t, "c", actionpath.NewCall().String())
	require.Equal(t, "f", actionpath.NewFold().String())
	require.Equal(t, "r500", actionpath.NewRaise(500).String())
}
