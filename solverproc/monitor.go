package solverproc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Monitor owns a per-run temp directory holding the child process's
// textual log, a JSONL event log, and redirected stdout/stderr. Each run
// gets its own directory so a crashed child's artifacts survive for
// postmortem inspection instead of being overwritten by the next run.
type Monitor struct {
	dir        string
	logger     *slog.Logger
	eventFile  *os.File
	textFile   *os.File
	stdoutFile *os.File
	stderrFile *os.File
}

// NewMonitor creates a fresh run directory under baseDir (os.TempDir() if
// empty) and opens its log files. Call Close when the run is finished.
func NewMonitor(baseDir string) (*Monitor, error) {
	dir, err := os.MkdirTemp(baseDir, "solverproc-run-*")
	if err != nil {
		return nil, newError("new_monitor", KindSupervisorError, "creating run directory: %w", err)
	}

	m := &Monitor{dir: dir}
	if m.textFile, err = os.Create(filepath.Join(dir, "solver.log")); err != nil {
		return nil, m.failAndCleanup(err)
	}
	if m.eventFile, err = os.Create(filepath.Join(dir, "solver.events.jsonl")); err != nil {
		return nil, m.failAndCleanup(err)
	}
	if m.stdoutFile, err = os.Create(filepath.Join(dir, "solver.stdout.log")); err != nil {
		return nil, m.failAndCleanup(err)
	}
	if m.stderrFile, err = os.Create(filepath.Join(dir, "solver.stderr.log")); err != nil {
		return nil, m.failAndCleanup(err)
	}

	m.logger = slog.New(slog.NewTextHandler(m.textFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return m, nil
}

func (m *Monitor) failAndCleanup(err error) error {
	os.RemoveAll(m.dir)
	return newError("new_monitor", KindSupervisorError, "opening log files: %w", err)
}

// Dir returns the run's log directory.
func (m *Monitor) Dir() string { return m.dir }

// Logger returns the textual logger child processes and the supervisor
// itself should log through for this run.
func (m *Monitor) Logger() *slog.Logger { return m.logger }

// StdoutFile and StderrFile are where a spawned child's Stdout/Stderr
// should be redirected.
func (m *Monitor) StdoutFile() *os.File { return m.stdoutFile }
func (m *Monitor) StderrFile() *os.File { return m.stderrFile }

// RecordEvent appends a structured event to the JSONL event log, e.g. every
// Notification the supervisor observes.
func (m *Monitor) RecordEvent(event map[string]any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("solverproc: marshaling event: %w", err)
	}
	if _, err := m.eventFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("solverproc: writing event: %w", err)
	}
	return nil
}

// GenLogLines returns every line of the textual solver log written so far.
func (m *Monitor) GenLogLines() ([]string, error) {
	return readLines(filepath.Join(m.dir, "solver.log"))
}

// GenOutputLines returns every line of the child's redirected stdout.
func (m *Monitor) GenOutputLines() ([]string, error) {
	return readLines(filepath.Join(m.dir, "solver.stdout.log"))
}

// GenErrorLines returns every line of the child's redirected stderr.
func (m *Monitor) GenErrorLines() ([]string, error) {
	return readLines(filepath.Join(m.dir, "solver.stderr.log"))
}

// GenEventDicts decodes every JSONL record written via RecordEvent.
func (m *Monitor) GenEventDicts() ([]map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, "solver.events.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("solverproc: reading event log: %w", err)
	}
	var events []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event map[string]any
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("solverproc: decoding event line: %w", err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("solverproc: scanning event log: %w", err)
	}
	return events, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("solverproc: reading %s: %w", path, err)
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("solverproc: scanning %s: %w", path, err)
	}
	return lines, nil
}

// Close flushes and closes every file this Monitor opened. The run
// directory itself is left on disk for postmortem inspection.
func (m *Monitor) Close() error {
	for _, f := range []*os.File{m.textFile, m.eventFile, m.stdoutFile, m.stderrFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("solverproc: closing monitor file %s: %w", f.Name(), err)
		}
	}
	return nil
}

// Cleanup removes the entire run directory, including its log files.
func (m *Monitor) Cleanup() error {
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("solverproc: removing run directory: %w", err)
	}
	return nil
}
