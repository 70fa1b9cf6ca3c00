package solverproc

import "context"

// SolverImplementation is the collaborator the child process drives. A
// concrete implementation owns the actual game-tree solver; this package
// only owns the process lifecycle and wire protocol around it.
//
// SolvePath and SolveSubtree stream results by writing frame bytes to sink
// and returning its frame id once each node's payload is durably written;
// the returned channel is closed (with a nil final error) once the
// implementation has nothing left to yield, or populated with a non-nil
// error on failure. Both must respect ctx cancellation so CANCEL can
// interrupt a running solve.
type SolverImplementation interface {
	// Initialize performs one-time setup. Called once, before any solve.
	Initialize(ctx context.Context) error

	// SolvePath solves every spot along actionSequence, yielding one frame
	// id per node from the root through to the sequence's terminal spot.
	SolvePath(ctx context.Context, config []byte, actionSequence string, sink FrameSink) (<-chan string, <-chan error)

	// SolveSubtree solves the subtree rooted at actionSequence down to
	// depth plies, yielding one frame id per node visited.
	SolveSubtree(ctx context.Context, config []byte, actionSequence string, depth int, sink FrameSink) (<-chan string, <-chan error)

	// Cancel interrupts a running SolvePath/SolveSubtree as promptly as
	// possible. Called only while a solve is in progress.
	Cancel(ctx context.Context) error

	// Close releases any resources held by the implementation. Called
	// exactly once, during shutdown.
	Close(ctx context.Context) error
}

// FrameSink is how a SolverImplementation hands a solved node's encoded
// bytes back to the daemon for IPC transport. Put returns the frame id the
// daemon should notify the supervisor with.
type FrameSink interface {
	Put(payload []byte) (string, error)
}
