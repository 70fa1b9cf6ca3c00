package solverproc

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// wireCommand and wireNotification are the self-describing CBOR shapes
// actually put on the wire; Command/Notification are the public Go types
// consumers build and receive. Keeping them separate lets the public types
// stay idiomatic Go (no cbor struct tags leaking into call sites) while the
// wire shape stays a stable, explicitly-tagged structure.
type wireCommand struct {
	Kind           string `cbor:"kind"`
	ConfigJSON     []byte `cbor:"config_json,omitempty"`
	ActionSequence string `cbor:"action_sequence,omitempty"`
	SolveDepth     int    `cbor:"solve_depth,omitempty"`
}

type wireNotification struct {
	State   string `cbor:"state"`
	FrameID string `cbor:"frame_id,omitempty"`
}

func commandKindToWire(k CommandKind) (string, error) {
	switch k {
	case CommandSolvePath:
		return "SOLVE_PATH", nil
	case CommandSolveSubtree:
		return "SOLVE_SUBTREE", nil
	case CommandCancel:
		return "CANCEL", nil
	case CommandPing:
		return "PING", nil
	default:
		return "", fmt.Errorf("unknown command kind %d", k)
	}
}

func commandKindFromWire(s string) (CommandKind, error) {
	switch s {
	case "SOLVE_PATH":
		return CommandSolvePath, nil
	case "SOLVE_SUBTREE":
		return CommandSolveSubtree, nil
	case "CANCEL":
		return CommandCancel, nil
	case "PING":
		return CommandPing, nil
	default:
		return 0, fmt.Errorf("unknown command tag %q", s)
	}
}

func stateToWire(s State) string {
	return s.String()
}

func stateFromWire(s string) (State, error) {
	switch s {
	case "UNKNOWN":
		return StateUnknown, nil
	case "INITIALIZING":
		return StateInitializing, nil
	case "READY":
		return StateReady, nil
	case "SOLVING":
		return StateSolving, nil
	case "CANCELLING":
		return StateCancelling, nil
	case "CLOSING":
		return StateClosing, nil
	case "CLOSED":
		return StateClosed, nil
	default:
		return StateUnknown, fmt.Errorf("unknown state tag %q", s)
	}
}

// EnvelopeWriter writes length-delimited CBOR envelopes to an underlying
// writer. CBOR items are self-describing but not inherently
// stream-delimited, so each item is length-prefixed the same way the rest
// of this module's wire formats are.
type EnvelopeWriter struct {
	w io.Writer
}

// NewEnvelopeWriter wraps w.
func NewEnvelopeWriter(w io.Writer) *EnvelopeWriter {
	return &EnvelopeWriter{w: w}
}

func writeFrame(w io.Writer, payload []byte) error {
	length := uint32(len(payload))
	header := []byte{byte(length >> 24), byte(length >> 16), byte(length >> 8), byte(length)}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing frame payload: %w", err)
	}
	return nil
}

// WriteCommand encodes and writes cmd.
func (e *EnvelopeWriter) WriteCommand(cmd Command) error {
	kindTag, err := commandKindToWire(cmd.Kind)
	if err != nil {
		return fmt.Errorf("solverproc: encoding command: %w", err)
	}
	payload, err := cbor.Marshal(wireCommand{
		Kind:           kindTag,
		ConfigJSON:     cmd.ConfigJSON,
		ActionSequence: cmd.ActionSequence,
		SolveDepth:     cmd.SolveDepth,
	})
	if err != nil {
		return fmt.Errorf("solverproc: marshaling command: %w", err)
	}
	return writeFrame(e.w, payload)
}

// WriteNotification encodes and writes n.
func (e *EnvelopeWriter) WriteNotification(n Notification) error {
	payload, err := cbor.Marshal(wireNotification{
		State:   stateToWire(n.State),
		FrameID: n.FrameID,
	})
	if err != nil {
		return fmt.Errorf("solverproc: marshaling notification: %w", err)
	}
	return writeFrame(e.w, payload)
}

// EnvelopeReader reads length-delimited CBOR envelopes from an underlying
// reader.
type EnvelopeReader struct {
	r *bufio.Reader
}

// NewEnvelopeReader wraps r.
func NewEnvelopeReader(r io.Reader) *EnvelopeReader {
	return &EnvelopeReader{r: bufio.NewReader(r)}
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := uint32(header[0])<<24 | uint32(header[1])<<16 | uint32(header[2])<<8 | uint32(header[3])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return payload, nil
}

// ReadCommand reads and decodes a single Command. Returns io.EOF when the
// peer has closed the connection, matching the source's recv-loop EOF
// handling.
func (e *EnvelopeReader) ReadCommand() (Command, error) {
	payload, err := readFrame(e.r)
	if err != nil {
		return Command{}, err
	}
	var wc wireCommand
	if err := cbor.Unmarshal(payload, &wc); err != nil {
		return Command{}, fmt.Errorf("solverproc: unmarshaling command: %w", err)
	}
	kind, err := commandKindFromWire(wc.Kind)
	if err != nil {
		return Command{}, fmt.Errorf("solverproc: decoding command: %w", err)
	}
	return Command{
		Kind:           kind,
		ConfigJSON:     wc.ConfigJSON,
		ActionSequence: wc.ActionSequence,
		SolveDepth:     wc.SolveDepth,
	}, nil
}

// ReadNotification reads and decodes a single Notification. Returns io.EOF
// when the peer has closed the connection.
func (e *EnvelopeReader) ReadNotification() (Notification, error) {
	payload, err := readFrame(e.r)
	if err != nil {
		return Notification{}, err
	}
	var wn wireNotification
	if err := cbor.Unmarshal(payload, &wn); err != nil {
		return Notification{}, fmt.Errorf("solverproc: unmarshaling notification: %w", err)
	}
	state, err := stateFromWire(wn.State)
	if err != nil {
		return Notification{}, fmt.Errorf("solverproc: decoding notification: %w", err)
	}
	return Notification{State: state, FrameID: wn.FrameID}, nil
}
