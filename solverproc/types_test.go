package solverproc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/solverproc"
)

func TestCommandKindString(t *testing.T) {
	require.Equal(t, "SOLVE_PATH", solverproc.CommandSolvePath.String())
	require.Equal(t, "SOLVE_SUBTREE", solverproc.CommandSolveSubtree.String())
	require.Equal(t, "CANCEL", solverproc.CommandCancel.String())
	require.Equal(t, "PING", solverproc.CommandPing.String())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "UNKNOWN", solverproc.StateUnknown.String())
	require.Equal(t, "READY", solverproc.StateReady.String())
	require.Equal(t, "CLOSED", solverproc.StateClosed.String())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &solverproc.Error{Op: "test", Kind: solverproc.KindSupervisorTimeout, Err: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "supervisor-timeout")
}
