package solverproc

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/WillCodeCo/solver-util/actionpath"
	"github.com/WillCodeCo/solver-util/blobtree"
	"github.com/WillCodeCo/solver-util/ipc"
	"github.com/WillCodeCo/solver-util/wire"
)

const (
	// MaxSolveDepth bounds SOLVE_SUBTREE's depth argument.
	MaxSolveDepth = 1000

	recvWaitSleep            = 50 * time.Millisecond
	processTerminationNotice = 50 * time.Millisecond
	processKillTimeout       = time.Second
)

// Update is one decoded solution-tree node surfacing from a running solve:
// the raw blob-tree node plus its decoded solved-spot payload.
type Update struct {
	Node       wire.Node
	SolvedSpot wire.SolvedSpot
}

// Supervisor is the parent side of the protocol: it spawns a child
// process running a solver daemon, drives it through commands over a pipe,
// and streams back decoded solution-tree updates.
//
// A background goroutine continuously reads notifications off the pipe
// into a buffered channel; every public method selects over that channel
// alongside a deadline timer, mirroring the source's poll-then-sleep
// recv_notification loop but without the busy-wait (the pump blocks on the
// pipe read instead of a tight polling loop).
type Supervisor struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	writer  *EnvelopeWriter
	store   ipc.Store
	notifs  chan Notification
	pumpErr chan error

	state     State
	hasConfig bool
}

// Spawn starts cmd (already configured with its Stdin/Stdout wired to
// pipes the child's Daemon will read/write Command/Notification envelopes
// on) and begins pumping notifications. The caller owns cmd's other
// configuration (working directory, extra env, etc.) before calling Spawn.
func Spawn(cmd *exec.Cmd, writerPipe io.Writer, readerPipe io.Reader, store ipc.Store) (*Supervisor, error) {
	if err := cmd.Start(); err != nil {
		return nil, newError("spawn", KindSupervisorError, "starting child process: %w", err)
	}

	s := &Supervisor{
		cmd:     cmd,
		writer:  NewEnvelopeWriter(writerPipe),
		store:   store,
		notifs:  make(chan Notification, 16),
		pumpErr: make(chan error, 1),
		state:   StateUnknown,
	}

	reader := NewEnvelopeReader(readerPipe)
	go s.pump(reader)

	return s, nil
}

func (s *Supervisor) pump(reader *EnvelopeReader) {
	defer close(s.notifs)
	for {
		n, err := reader.ReadNotification()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.pumpErr <- err
			}
			return
		}
		s.notifs <- n
	}
}

// State returns the last known child state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) childIsAlive() bool {
	if s.cmd.ProcessState != nil {
		return false
	}
	return s.cmd.Process != nil
}

// recvNotification waits for the next notification, failing with
// supervisor-timeout if none arrives within timeout, or
// supervisor-died if the child process has exited in the meantime.
func (s *Supervisor) recvNotification(ctx context.Context, timeout time.Duration) (Notification, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(recvWaitSleep)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-s.notifs:
			if !ok {
				return Notification{}, newError("recv_notification", KindSupervisorDied, "notification channel closed")
			}
			s.mu.Lock()
			s.state = n.State
			s.mu.Unlock()
			return n, nil

		case err := <-s.pumpErr:
			return Notification{}, newError("recv_notification", KindSupervisorChildException, "reading notification: %w", err)

		case <-ctx.Done():
			return Notification{}, ctx.Err()

		case <-ticker.C:
			if !s.childIsAlive() {
				return Notification{}, newError("recv_notification", KindSupervisorDied, "child process is no longer running")
			}
			if time.Now().After(deadline) {
				return Notification{}, newError("recv_notification", KindSupervisorTimeout, "no notification within %s", timeout)
			}
		}
	}
}

// genNotificationsUntil drains notifications, invoking onEach for every one
// observed, until State reaches target. timeout bounds the wait for each
// single notification; the loop as a whole has no overall time limit.
func (s *Supervisor) genNotificationsUntil(ctx context.Context, target State, timeout time.Duration, onEach func(Notification)) error {
	for {
		n, err := s.recvNotification(ctx, timeout)
		if err != nil {
			return err
		}
		if onEach != nil {
			onEach(n)
		}
		if n.State == target {
			return nil
		}
	}
}

// Initialize waits for the child's post-spawn INITIALIZING -> READY
// transition.
func (s *Supervisor) Initialize(ctx context.Context, timeout time.Duration) error {
	return s.genNotificationsUntil(ctx, StateReady, timeout, nil)
}

func (s *Supervisor) sendCommand(cmd Command) error {
	if err := s.writer.WriteCommand(cmd); err != nil {
		return newError("send_command", KindSupervisorChildException, "writing command: %w", err)
	}
	return nil
}

// Ping round-trips a PING and returns the child's reported state.
func (s *Supervisor) Ping(ctx context.Context, timeout time.Duration) (State, error) {
	if err := s.sendCommand(Command{Kind: CommandPing}); err != nil {
		return StateUnknown, err
	}
	n, err := s.recvNotification(ctx, timeout)
	if err != nil {
		return StateUnknown, err
	}
	return n.State, nil
}

// Cancel interrupts a running solve and waits for the child to return to
// READY.
func (s *Supervisor) Cancel(ctx context.Context, timeout time.Duration) error {
	if s.State() != StateSolving {
		return newError("cancel", KindSupervisorError, "cancel requires SOLVING state, got %s", s.State())
	}
	if err := s.sendCommand(Command{Kind: CommandCancel}); err != nil {
		return err
	}
	return s.genNotificationsUntil(ctx, StateReady, timeout, nil)
}

// solveStream drives a SOLVE_PATH/SOLVE_SUBTREE command to completion,
// decoding each yielded frame into an Update and sending it on the returned
// channel. The channel is closed when the solve finishes; a send error is
// reported via the returned error channel.
func (s *Supervisor) solveStream(ctx context.Context, cmd Command, timeout time.Duration) (<-chan Update, <-chan error) {
	updates := make(chan Update)
	errs := make(chan error, 1)

	go func() {
		defer close(updates)
		defer close(errs)

		if s.State() != StateReady {
			errs <- newError("solve", KindSupervisorError, "solve requires READY state, got %s", s.State())
			return
		}
		if err := s.sendCommand(cmd); err != nil {
			errs <- err
			return
		}

		frameCount := 0
		err := s.genNotificationsUntil(ctx, StateReady, timeout, func(n Notification) {
			if n.FrameID == "" {
				return
			}
			frame, loadErr := s.store.Load(n.FrameID)
			if loadErr != nil {
				errs <- newError("solve", KindSupervisorChildException, "loading frame %s: %w", n.FrameID, loadErr)
				return
			}
			node, _, decodeErr := wire.DecodeNode(frame.Buf)
			if decodeErr != nil {
				errs <- newError("solve", KindSupervisorChildException, "decoding node from frame %s: %w", n.FrameID, decodeErr)
				return
			}
			spot, _, decodeErr := wire.DecodeSolvedSpot(node.Payload)
			if decodeErr != nil {
				errs <- newError("solve", KindSupervisorChildException, "decoding solved spot from frame %s: %w", n.FrameID, decodeErr)
				return
			}
			frameCount++
			select {
			case updates <- Update{Node: node, SolvedSpot: spot}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errs <- err
			return
		}
		if frameCount == 0 {
			errs <- newError("solve", KindSupervisorNoResult, "child yielded zero frames")
		}
	}()

	return updates, errs
}

// SolveSubtree solves the subtree rooted at actionSequence down to depth
// plies.
func (s *Supervisor) SolveSubtree(ctx context.Context, config []byte, actionSequence string, depth int, timeout time.Duration) (<-chan Update, <-chan error) {
	if depth > MaxSolveDepth {
		errs := make(chan error, 1)
		errs <- newError("solve_subtree", KindSupervisorError, "depth %d exceeds MaxSolveDepth %d", depth, MaxSolveDepth)
		updates := make(chan Update)
		close(updates)
		return updates, errs
	}
	cmd := Command{Kind: CommandSolveSubtree, ConfigJSON: config, ActionSequence: actionSequence, SolveDepth: depth}
	return s.solveStream(ctx, cmd, timeout)
}

// SolvePath solves every spot along actionSequence, validating that
// exactly len(actionSequence)+1 nodes were yielded (root through terminal
// spot) once the stream completes.
func (s *Supervisor) SolvePath(ctx context.Context, config []byte, actionSequence string, timeout time.Duration) (<-chan Update, <-chan error) {
	seq, err := actionpath.ParseSequence(actionSequence)
	if err != nil {
		errs := make(chan error, 1)
		errs <- newError("solve_path", KindSupervisorError, "invalid action sequence %q: %w", actionSequence, err)
		updates := make(chan Update)
		close(updates)
		return updates, errs
	}
	wantNodes := len(seq) + 1

	cmd := Command{Kind: CommandSolvePath, ConfigJSON: config, ActionSequence: actionSequence}
	rawUpdates, rawErrs := s.solveStream(ctx, cmd, timeout)

	updates := make(chan Update)
	errs := make(chan error, 1)
	go func() {
		defer close(updates)
		defer close(errs)
		got := 0
		for u := range rawUpdates {
			got++
			select {
			case updates <- u:
			case <-ctx.Done():
			}
		}
		if err := <-rawErrs; err != nil {
			errs <- err
			return
		}
		if got != wantNodes {
			errs <- newError("solve_path", KindSupervisorError, "expected %d nodes for path %q, got %d", wantNodes, actionSequence, got)
		}
	}()
	return updates, errs
}

// BuildTree consumes updates into a blobtree.Builder, returning the
// resulting tree once the channel closes (after any error on errs has
// already been observed by the caller).
func BuildTree(updates <-chan Update) *blobtree.Tree {
	b := blobtree.NewBuilder()
	for u := range updates {
		b.AddWireNode(u.Node)
	}
	return b.Build()
}

// Close requests the child shut down: it marks CLOSING, closes the command
// pipe, and reaps the process, escalating to a kill if it does not exit
// within processKillTimeout after a termination notice period.
func (s *Supervisor) Close(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateClosing
	s.mu.Unlock()

	if c, ok := s.writer.w.(io.Closer); ok {
		_ = c.Close()
	}

	time.Sleep(processTerminationNotice)
	return s.ensureProcessIsClosed()
}

func (s *Supervisor) ensureProcessIsClosed() error {
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case <-done:
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		return nil
	case <-time.After(processKillTimeout):
	}

	if s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil {
			return newError("close", KindSupervisorError, "killing child process: %w", err)
		}
	}
	<-done
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	return nil
}
