// Command dummysolver is a reference solverproc.SolverImplementation driven
// entirely by the standard SOLVE_PATH/SOLVE_SUBTREE/CANCEL/PING wire
// protocol over its own stdin/stdout: a parent spawns it exactly the way
// it would spawn any real solver binary, so a supervisor (or anyone
// exploring the protocol by hand) has something real to talk to.
//
// Its behavior is controlled by environment variables so a single binary
// can play every role the supervisor's failure-handling needs to cover:
//
//	DUMMY_SOLVER_MODE         normal (default) | segfault | exception |
//	                          hang | never-finishing | no-result
//	DUMMY_SOLVER_FRAME_COUNT  number of frames a normal solve yields (default 5)
//	DUMMY_SOLVER_SEED         rng seed for frame contents (default 42)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/WillCodeCo/solver-util/ipc"
	"github.com/WillCodeCo/solver-util/solverproc"
	"github.com/WillCodeCo/solver-util/wire"
)

type mode string

const (
	modeNormal         mode = "normal"
	modeSegfault       mode = "segfault"
	modeException      mode = "exception"
	modeHang           mode = "hang"
	modeNeverFinishing mode = "never-finishing"
	modeNoResult       mode = "no-result"
)

const (
	simulateComputeTime = 10 * time.Millisecond
	simulateIOTime      = time.Millisecond
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	m := mode(envOr("DUMMY_SOLVER_MODE", string(modeNormal)))
	frameCount := envIntOr("DUMMY_SOLVER_FRAME_COUNT", 5)
	seed := envIntOr("DUMMY_SOLVER_SEED", 42)

	store := ipc.NewStore()
	solver := &dummySolver{
		mode:       m,
		frameCount: frameCount,
		rng:        rand.New(rand.NewSource(int64(seed))),
		sink:       &ipcSink{store: store},
	}

	daemon := solverproc.NewDaemon(
		solver,
		solverproc.NewEnvelopeReader(os.Stdin),
		solverproc.NewEnvelopeWriter(os.Stdout),
		solver.sink,
		logger,
	)

	ctx := context.Background()
	if err := daemon.Run(ctx); err != nil {
		logger.Error("daemon exited", "error", err)
		os.Exit(1)
	}
	if err := daemon.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// ipcSink adapts an ipc.Store into a solverproc.FrameSink: it allocates a
// frame sized to the payload, copies the payload in, and saves it.
type ipcSink struct {
	store ipc.Store
}

func (s *ipcSink) Put(payload []byte) (string, error) {
	frame, err := s.store.CreateEmpty(len(payload))
	if err != nil {
		return "", fmt.Errorf("dummysolver: allocating frame: %w", err)
	}
	copy(frame.Buf, payload)
	if err := s.store.Save(frame); err != nil {
		return "", fmt.Errorf("dummysolver: saving frame: %w", err)
	}
	return frame.ID, nil
}

// dummySolver generates deterministic pseudo-random solved-spot payloads,
// or misbehaves on purpose, according to mode.
type dummySolver struct {
	mode       mode
	frameCount int
	rng        *rand.Rand
	sink       *ipcSink
}

func (d *dummySolver) Initialize(ctx context.Context) error {
	return sleepRespectingContext(ctx, simulateComputeTime)
}

func (d *dummySolver) Cancel(ctx context.Context) error {
	return sleepRespectingContext(ctx, simulateComputeTime)
}

func (d *dummySolver) Close(ctx context.Context) error {
	return sleepRespectingContext(ctx, simulateIOTime)
}

func (d *dummySolver) SolvePath(ctx context.Context, config []byte, actionSequence string, sink solverproc.FrameSink) (<-chan string, <-chan error) {
	return d.simulateSolve(ctx)
}

func (d *dummySolver) SolveSubtree(ctx context.Context, config []byte, actionSequence string, depth int, sink solverproc.FrameSink) (<-chan string, <-chan error) {
	return d.simulateSolve(ctx)
}

func (d *dummySolver) simulateSolve(ctx context.Context) (<-chan string, <-chan error) {
	switch d.mode {
	case modeSegfault:
		// Dies before ever producing a channel; the parent observes this
		// as the process disappearing mid-command.
		syscall.Kill(os.Getpid(), syscall.SIGKILL)
		panic("unreachable")

	case modeHang:
		// Deliberately ignores ctx: a true hang does not respond to
		// cancellation either.
		for {
			time.Sleep(simulateIOTime)
		}

	case modeException:
		frames := make(chan string)
		errs := make(chan error, 1)
		close(frames)
		errs <- fmt.Errorf("dummysolver: something went wrong")
		return frames, errs

	case modeNoResult:
		frames := make(chan string)
		errs := make(chan error, 1)
		close(frames)
		errs <- nil
		return frames, errs

	case modeNeverFinishing:
		frames := make(chan string)
		errs := make(chan error, 1)
		go func() {
			defer close(frames)
			for {
				for i := 0; i < d.frameCount; i++ {
					payload, err := d.randomSolvedSpotPayload()
					if err != nil {
						errs <- err
						return
					}
					id, err := d.sink.Put(payload)
					if err != nil {
						errs <- err
						return
					}
					select {
					case frames <- id:
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
					if sleepRespectingContext(ctx, simulateIOTime) != nil {
						errs <- ctx.Err()
						return
					}
				}
			}
		}()
		return frames, errs

	default:
		frames := make(chan string)
		errs := make(chan error, 1)
		go func() {
			defer close(frames)
			if err := sleepRespectingContext(ctx, simulateComputeTime); err != nil {
				errs <- err
				return
			}
			for i := 0; i < d.frameCount; i++ {
				payload, err := d.randomSolvedSpotPayload()
				if err != nil {
					errs <- err
					return
				}
				id, err := d.sink.Put(payload)
				if err != nil {
					errs <- err
					return
				}
				select {
				case frames <- id:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
				if err := sleepRespectingContext(ctx, simulateIOTime); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}()
		return frames, errs
	}
}

// randomSolvedSpotPayload builds a tiny two-option (check/call) solved spot
// with a deterministic pseudo-random strategy/EV matrix, wrapped in a
// wire.Node the way a real solver's result would be.
func (d *dummySolver) randomSolvedSpotPayload() ([]byte, error) {
	options := []wire.StrategyOption{
		{Kind: wire.OptionCheck},
		{Kind: wire.OptionCall},
	}
	rows := 1
	cols := len(options)
	strategy := make([]int32, rows*cols)
	ev := make([]int32, rows*cols)
	for i := range strategy {
		strategy[i] = int32(d.rng.Intn(10000))
		ev[i] = int32(d.rng.Intn(200000) - 100000)
	}
	spot := wire.SolvedSpot{
		Options:        options,
		StrategyMatrix: wire.IntMatrix{Rows: rows, Cols: cols, Data: strategy},
		EVMatrix:       wire.IntMatrix{Rows: rows, Cols: cols, Data: ev},
	}

	spotBuf := make([]byte, wire.SizeOfSolvedSpot(spot))
	if _, err := wire.PutSolvedSpot(spotBuf, spot); err != nil {
		return nil, fmt.Errorf("dummysolver: encoding solved spot: %w", err)
	}

	node := wire.Node{
		NodeID:       uint32(d.rng.Intn(1 << 30)),
		ParentNodeID: 0,
		ChildID:      "x",
		Payload:      spotBuf,
	}
	nodeBuf := make([]byte, wire.SizeOfNode(node))
	if _, err := wire.PutNode(nodeBuf, node); err != nil {
		return nil, fmt.Errorf("dummysolver: encoding node: %w", err)
	}
	return nodeBuf, nil
}

func sleepRespectingContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
