package solverproc_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/solverproc"
)

// fakeImplementation is a minimal in-memory SolverImplementation used to
// drive the Daemon's state machine without a real subprocess or solver.
type fakeImplementation struct {
	frames       []string
	waitForEvent chan struct{}
	cancelled    chan struct{}
	closed       chan struct{}
}

func newFakeImplementation(frames []string) *fakeImplementation {
	return &fakeImplementation{
		frames:    frames,
		cancelled: make(chan struct{}),
		closed:    make(chan struct{}),
	}
}

func (f *fakeImplementation) Initialize(ctx context.Context) error { return nil }

func (f *fakeImplementation) Close(ctx context.Context) error {
	close(f.closed)
	return nil
}

func (f *fakeImplementation) Cancel(ctx context.Context) error {
	close(f.cancelled)
	if f.waitForEvent != nil {
		close(f.waitForEvent)
	}
	return nil
}

func (f *fakeImplementation) solve(ctx context.Context) (<-chan string, <-chan error) {
	frames := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(frames)
		for _, id := range f.frames {
			select {
			case frames <- id:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if f.waitForEvent != nil {
			select {
			case <-f.waitForEvent:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		errs <- nil
	}()
	return frames, errs
}

func (f *fakeImplementation) SolvePath(ctx context.Context, config []byte, actionSequence string, sink solverproc.FrameSink) (<-chan string, <-chan error) {
	return f.solve(ctx)
}

func (f *fakeImplementation) SolveSubtree(ctx context.Context, config []byte, actionSequence string, depth int, sink solverproc.FrameSink) (<-chan string, <-chan error) {
	return f.solve(ctx)
}

type noopSink struct{}

func (noopSink) Put(payload []byte) (string, error) { return "", nil }

// pipedDaemon wires a Daemon's command/notification envelopes to in-memory
// pipes and returns handles for driving it like a supervisor would.
type pipedDaemon struct {
	cmdWriter   *solverproc.EnvelopeWriter
	notifReader *solverproc.EnvelopeReader
}

func startPipedDaemon(t *testing.T, impl solverproc.SolverImplementation) *pipedDaemon {
	t.Helper()
	cmdR, cmdW := io.Pipe()
	notifR, notifW := io.Pipe()

	daemon := solverproc.NewDaemon(impl, solverproc.NewEnvelopeReader(cmdR), solverproc.NewEnvelopeWriter(notifW), noopSink{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = daemon.Run(ctx)
	}()

	return &pipedDaemon{
		cmdWriter:   solverproc.NewEnvelopeWriter(cmdW),
		notifReader: solverproc.NewEnvelopeReader(notifR),
	}
}

func (p *pipedDaemon) expectNotification(t *testing.T) solverproc.Notification {
	t.Helper()
	type result struct {
		n   solverproc.Notification
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := p.notifReader.ReadNotification()
		ch <- result{n, err}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return solverproc.Notification{}
	}
}

func TestDaemonInitializeThenPing(t *testing.T) {
	impl := newFakeImplementation(nil)
	p := startPipedDaemon(t, impl)

	init1 := p.expectNotification(t)
	require.Equal(t, solverproc.StateInitializing, init1.State)
	ready := p.expectNotification(t)
	require.Equal(t, solverproc.StateReady, ready.State)

	require.NoError(t, p.cmdWriter.WriteCommand(solverproc.Command{Kind: solverproc.CommandPing}))
	pong := p.expectNotification(t)
	require.Equal(t, solverproc.StateReady, pong.State)
}

func TestDaemonSolvePathHappyPath(t *testing.T) {
	impl := newFakeImplementation([]string{"psm_a", "psm_b", "psm_c"})
	p := startPipedDaemon(t, impl)

	p.expectNotification(t) // INITIALIZING
	p.expectNotification(t) // READY

	require.NoError(t, p.cmdWriter.WriteCommand(solverproc.Command{Kind: solverproc.CommandSolvePath, ActionSequence: "xc"}))

	solving := p.expectNotification(t)
	require.Equal(t, solverproc.StateSolving, solving.State)
	require.Empty(t, solving.FrameID)

	for _, want := range []string{"psm_a", "psm_b", "psm_c"} {
		n := p.expectNotification(t)
		require.Equal(t, solverproc.StateSolving, n.State)
		require.Equal(t, want, n.FrameID)
	}

	done := p.expectNotification(t)
	require.Equal(t, solverproc.StateReady, done.State)
}

func TestDaemonCancelMidSolve(t *testing.T) {
	impl := newFakeImplementation([]string{"psm_a"})
	impl.waitForEvent = make(chan struct{})
	p := startPipedDaemon(t, impl)

	p.expectNotification(t) // INITIALIZING
	p.expectNotification(t) // READY

	require.NoError(t, p.cmdWriter.WriteCommand(solverproc.Command{Kind: solverproc.CommandSolveSubtree, SolveDepth: 2}))
	p.expectNotification(t)              // SOLVING
	first := p.expectNotification(t)     // frame "psm_a"
	require.Equal(t, "psm_a", first.FrameID)

	require.NoError(t, p.cmdWriter.WriteCommand(solverproc.Command{Kind: solverproc.CommandCancel}))

	cancelling := p.expectNotification(t)
	require.Equal(t, solverproc.StateCancelling, cancelling.State)

	ready := p.expectNotification(t)
	require.Equal(t, solverproc.StateReady, ready.State)

	select {
	case <-impl.cancelled:
	case <-time.After(time.Second):
		t.Fatal("implementation Cancel was never invoked")
	}
}
