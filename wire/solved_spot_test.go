package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/wire"
)

func buildSolvedSpot() wire.SolvedSpot {
	options := []wire.StrategyOption{
		{Kind: wire.OptionFold},
		{Kind: wire.OptionCall},
		{Kind: wire.OptionRaise, Amount: 300, PotRatioBps: 6600},
	}
	return wire.SolvedSpot{
		Options: options,
		StrategyMatrix: wire.IntMatrix{
			Rows: 2, Cols: 3,
			Data: []int32{10000, 0, 0, 3000, 3000, 4000},
		},
		EVMatrix: wire.IntMatrix{
			Rows: 2, Cols: 3,
			Data: []int32{-150, 0, 0, 220, 180, 90},
		},
	}
}

func TestSolvedSpotRoundTrip(t *testing.T) {
	s := buildSolvedSpot()
	buf := make([]byte, wire.SizeOfSolvedSpot(s))
	n, err := wire.PutSolvedSpot(buf, s)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	got, consumed, err := wire.DecodeSolvedSpot(buf)
	require.NoError(t, err)
	require.Equal(t, s.Options, got.Options)
	require.Equal(t, s.StrategyMatrix, got.StrategyMatrix)
	require.Equal(t, s.EVMatrix, got.EVMatrix)
	require.Equal(t, n, consumed)
}

func TestSolvedSpotRejectsColumnMismatch(t *testing.T) {
	s := buildSolvedSpot()
	s.EVMatrix.Cols = 2
	s.EVMatrix.Data = s.EVMatrix.Data[:4]

	_, err := wire.PutSolvedSpot(make([]byte, 4096), s)
	require.Error(t, err)
}

func TestSolvedSpotRejectsRowMismatch(t *testing.T) {
	s := buildSolvedSpot()
	s.EVMatrix.Rows = 3
	s.EVMatrix.Data = append(s.EVMatrix.Data, 0, 0, 0)

	_, err := wire.PutSolvedSpot(make([]byte, 4096), s)
	require.Error(t, err)
}

func TestSolvedSpotEmptyOptions(t *testing.T) {
	s := wire.SolvedSpot{
		Options:        nil,
		StrategyMatrix: wire.IntMatrix{Rows: 0, Cols: 0},
		EVMatrix:       wire.IntMatrix{Rows: 0, Cols: 0},
	}
	buf := make([]byte, wire.SizeOfSolvedSpot(s))
	n, err := wire.PutSolvedSpot(buf, s)
	require.NoError(t, err)

	got, consumed, err := wire.DecodeSolvedSpot(buf)
	require.NoError(t, err)
	require.Empty(t, got.Options)
	require.Equal(t, n, consumed)
}
