package wire_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/wire"
)

func TestIntMatrixRoundTrip(t *testing.T) {
	cases := []wire.IntMatrix{
		{Rows: 0, Cols: 0, Data: nil},
		{Rows: 1, Cols: 1, Data: []int32{-1}},
		{Rows: 2, Cols: 3, Data: []int32{1, -2, 3, -4, 5, -6}},
	}
	for _, m := range cases {
		buf := make([]byte, wire.SizeOfIntMatrix(m))
		n, err := wire.PutIntMatrix(buf, m)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)

		got, consumed, err := wire.DecodeIntMatrix(buf)
		require.NoError(t, err)
		require.Equal(t, m.Rows, got.Rows)
		require.Equal(t, m.Cols, got.Cols)
		require.True(t, slices.Equal(m.Data, got.Data), "got %v, want %v", got.Data, m.Data)
		require.Equal(t, n, consumed)
	}
}

func TestIntMatrixRejectsShapeMismatch(t *testing.T) {
	m := wire.IntMatrix{Rows: 2, Cols: 2, Data: []int32{1, 2, 3}}
	_, err := wire.PutIntMatrix(make([]byte, 64), m)
	require.Error(t, err)
}

func TestIntMatrixAt(t *testing.T) {
	m := wire.IntMatrix{Rows: 2, Cols: 3, Data: []int32{1, 2, 3, 4, 5, 6}}
	require.Equal(t, int32(5), m.At(1, 1))
}
