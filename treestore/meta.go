package treestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/WillCodeCo/solver-util/actionpath"
	"github.com/WillCodeCo/solver-util/solverconfig"
)

// Meta records enough about a stored tree to make the store self-describing
// and to rebuild its index from scratch (§3 "Solution-tree meta").
type Meta struct {
	SolverType      solverconfig.SolverType `json:"solver_type"`
	SolveMode       solverconfig.SolveMode  `json:"solve_mode"`
	ActionSequence  string                  `json:"action_sequence"`
	SolverConfigKey string                  `json:"solver_config_key"`
	SolutionTreeKey string                  `json:"solution_tree_key"`
}

// NewMeta builds a Meta record for a just-stored tree.
func NewMeta(solverType solverconfig.SolverType, isPathSolve bool, seq actionpath.Sequence, solverConfigKey, solutionTreeKey string) Meta {
	return Meta{
		SolverType:      solverType,
		SolveMode:       solverconfig.ModeFor(isPathSolve),
		ActionSequence:  seq.String(),
		SolverConfigKey: solverConfigKey,
		SolutionTreeKey: solutionTreeKey,
	}
}

// CanonicalJSON returns m's canonical JSON encoding, used both as the
// on-disk form and as the input to Key.
func (m Meta) CanonicalJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Key returns the SHA-256 hex digest of m's canonical JSON, used as the
// meta blob's storage key.
func (m Meta) Key() (string, error) {
	data, err := m.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// DecodeMeta parses a Meta record from its canonical JSON form.
func DecodeMeta(data []byte) (Meta, error) {
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// IsPathSolve reports whether m describes a path solve.
func (m Meta) IsPathSolve() bool {
	return m.SolveMode == solverconfig.Path
}

// ActionPath parses m's ActionSequence back into an actionpath.Sequence.
func (m Meta) ActionPath() (actionpath.Sequence, error) {
	return actionpath.ParseSequence(m.ActionSequence)
}
