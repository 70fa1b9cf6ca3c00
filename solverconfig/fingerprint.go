// Package solverconfig handles the solver-config dict: canonical-JSON
// fingerprinting, JSON-Schema validation, and the index-key computation
// that lets the tree store find previously solved spots by configuration.
//
// Solver-config dicts are opaque poker-domain data to this package — it
// never interprets their fields except to special-case the postflop
// solving_time entry when computing an index key.
package solverconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/WillCodeCo/solver-util/actionpath"
)

// SolverType distinguishes a preflop solve from a postflop solve.
type SolverType string

const (
	Preflop  SolverType = "PREFLOP"
	Postflop SolverType = "POSTFLOP"
)

// SolveMode distinguishes a path solve (one solved spot per action-sequence
// prefix) from a subtree solve (a whole BFS-emitted tree).
type SolveMode string

const (
	Path    SolveMode = "PATH"
	Subtree SolveMode = "SUBTREE"
)

// ModeFor returns Path or Subtree depending on isPathSolve, mirroring the
// source's SolutionTreeMeta.create constructor convention.
func ModeFor(isPathSolve bool) SolveMode {
	if isPathSolve {
		return Path
	}
	return Subtree
}

// Config is an opaque solver-config dict, decoded from JSON as-is. Field
// access beyond what this package needs (the postflop solving_time key) is
// left to callers.
type Config map[string]any

// CanonicalJSON marshals v with sorted object keys. Go's encoding/json
// already sorts map[string]any keys when marshaling, which is exactly the
// canonical form the source produces via json.dumps(sort_keys=True); no
// extra canonicalization pass is required.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("solverconfig: canonical marshal: %w", err)
	}
	return data, nil
}

// ConsistentHash returns the hex SHA-256 digest of v's canonical JSON
// encoding.
func ConsistentHash(v any) (string, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Fingerprint returns the SHA-256 fingerprint of a Config on its own,
// independent of any index key — used as the solver_config_key stored
// alongside a solved tree.
func (c Config) Fingerprint() (string, error) {
	return ConsistentHash(map[string]any(c))
}

// blankedForIndex returns a copy of c with solving_time replaced by nil, so
// postflop configs differing only in wall-clock solving budget share an
// index key.
func (c Config) blankedForIndex() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	out["solving_time"] = nil
	return out
}

// PreflopIndexKey computes the index key for a preflop solve: the SHA-256
// of a canonical envelope of solver type, solve mode, action sequence, and
// the config verbatim.
func PreflopIndexKey(isPathSolve bool, seq actionpath.Sequence, config Config) (string, error) {
	return indexKey(Preflop, ModeFor(isPathSolve), seq, map[string]any(config))
}

// PostflopIndexKey computes the index key for a postflop solve the same
// way, except solving_time is blanked out first.
func PostflopIndexKey(isPathSolve bool, seq actionpath.Sequence, config Config) (string, error) {
	return indexKey(Postflop, ModeFor(isPathSolve), seq, map[string]any(config.blankedForIndex()))
}

func indexKey(solverType SolverType, mode SolveMode, seq actionpath.Sequence, config map[string]any) (string, error) {
	envelope := map[string]any{
		"solver_type":     string(solverType),
		"solve_mode":      string(mode),
		"action_sequence": seq.String(),
		"solver_config":   config,
	}
	return ConsistentHash(envelope)
}

// IndexKey dispatches to PreflopIndexKey or PostflopIndexKey based on
// solverType.
func IndexKey(solverType SolverType, isPathSolve bool, seq actionpath.Sequence, config Config) (string, error) {
	switch solverType {
	case Preflop:
		return PreflopIndexKey(isPathSolve, seq, config)
	case Postflop:
		return PostflopIndexKey(isPathSolve, seq, config)
	default:
		return "", fmt.Errorf("solverconfig: unknown solver type %q", solverType)
	}
}

// sortedKeys is a small helper retained for callers that want a
// deterministic key listing without re-marshaling (e.g. diagnostics / CLI
// inspection output).
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
