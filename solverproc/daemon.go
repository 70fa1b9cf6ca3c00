package solverproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Daemon is the child-process side of the protocol: it owns a
// SolverImplementation, reads Commands off reader, and writes Notifications
// to writer as it executes them. Run blocks until the connection closes or
// ctx is cancelled.
//
// Unlike the source's asyncio generator (which interleaves a mid-solve
// receive-poll inside the same coroutine), the Go daemon runs the active
// solve in its own goroutine and selects over its result channel alongside
// a dedicated command-reader goroutine, so an incoming CANCEL is observed
// as soon as it arrives rather than on a fixed poll tick.
type Daemon struct {
	impl   SolverImplementation
	reader *EnvelopeReader
	writer *EnvelopeWriter
	sink   FrameSink
	log    *slog.Logger

	state State
}

// NewDaemon builds a Daemon around impl, reading commands from r and
// writing notifications to w. Frames produced by solves are handed to sink.
func NewDaemon(impl SolverImplementation, r *EnvelopeReader, w *EnvelopeWriter, sink FrameSink, log *slog.Logger) *Daemon {
	if log == nil {
		log = slog.Default()
	}
	return &Daemon{impl: impl, reader: r, writer: w, sink: sink, log: log, state: StateUnknown}
}

func (d *Daemon) notify(state State, frameID string) error {
	d.state = state
	return d.writer.WriteNotification(Notification{State: state, FrameID: frameID})
}

// Run drives the command loop until the connection is closed (io.EOF from
// the reader) or ctx is done. It returns nil on a clean EOF shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.runInitialize(ctx); err != nil {
		return err
	}

	commands := make(chan Command)
	readErrs := make(chan error, 1)
	go func() {
		defer close(commands)
		for {
			cmd, err := d.reader.ReadCommand()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErrs <- err
				}
				return
			}
			select {
			case commands <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErrs:
			return fmt.Errorf("solverproc: daemon read loop: %w", err)
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			if err := d.execute(ctx, cmd, commands); err != nil {
				d.log.Error("command execution failed", "command", cmd.Kind, "error", err)
				return err
			}
		}
	}
}

func (d *Daemon) runInitialize(ctx context.Context) error {
	if d.state != StateUnknown {
		return newError("initialize", KindSupervisorError, "daemon already initialized, state=%s", d.state)
	}
	if err := d.notify(StateInitializing, ""); err != nil {
		return err
	}
	if err := d.impl.Initialize(ctx); err != nil {
		return fmt.Errorf("solverproc: daemon initialize: %w", err)
	}
	return d.notify(StateReady, "")
}

// execute runs a single top-level command to completion, emitting
// notifications as state changes. For SOLVE_PATH/SOLVE_SUBTREE it also
// watches commands for an interleaved CANCEL while the solve is running.
func (d *Daemon) execute(ctx context.Context, cmd Command, commands <-chan Command) error {
	switch cmd.Kind {
	case CommandPing:
		return d.notify(d.state, "")

	case CommandSolvePath:
		if d.state != StateReady {
			return newError("execute", KindSupervisorError, "SOLVE_PATH requires READY state, got %s", d.state)
		}
		frames, errs := d.impl.SolvePath(ctx, cmd.ConfigJSON, cmd.ActionSequence, d.sink)
		return d.runSolve(ctx, frames, errs, commands)

	case CommandSolveSubtree:
		if d.state != StateReady {
			return newError("execute", KindSupervisorError, "SOLVE_SUBTREE requires READY state, got %s", d.state)
		}
		frames, errs := d.impl.SolveSubtree(ctx, cmd.ConfigJSON, cmd.ActionSequence, cmd.SolveDepth, d.sink)
		return d.runSolve(ctx, frames, errs, commands)

	case CommandCancel:
		return newError("execute", KindSupervisorError, "CANCEL received outside an active solve")

	default:
		return newError("execute", KindSupervisorError, "unknown command kind %d", cmd.Kind)
	}
}

func (d *Daemon) runSolve(ctx context.Context, frames <-chan string, errs <-chan error, commands <-chan Command) error {
	if err := d.notify(StateSolving, ""); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			if cmd.Kind != CommandCancel {
				continue
			}
			if err := d.notify(StateCancelling, ""); err != nil {
				return err
			}
			if err := d.impl.Cancel(ctx); err != nil {
				return fmt.Errorf("solverproc: cancel: %w", err)
			}
			d.drainSolve(frames, errs)
			return d.notify(StateReady, "")

		case frameID, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			if err := d.notify(StateSolving, frameID); err != nil {
				return err
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return fmt.Errorf("solverproc: solve failed: %w", err)
			}
			return d.notify(StateReady, "")
		}
	}
}

func (d *Daemon) drainSolve(frames <-chan string, errs <-chan error) {
	for frames != nil || errs != nil {
		select {
		case _, ok := <-frames:
			if !ok {
				frames = nil
			}
		case _, ok := <-errs:
			// The implementation sends at most one value on errs before
			// closing or going silent, so any receipt — closed or not —
			// means there is nothing further to drain from it.
			errs = nil
			_ = ok
		}
	}
}

// Shutdown closes the underlying implementation. Call after Run returns.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.state = StateClosing
	err := d.impl.Close(ctx)
	d.state = StateClosed
	if err != nil {
		return fmt.Errorf("solverproc: daemon shutdown: %w", err)
	}
	return nil
}
