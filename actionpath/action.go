// Package actionpath implements the action-path key: an ordered sequence of
// action tokens (check, call, fold, raise) used throughout solverproc and
// treestore as an opaque tree-path identifier. It replaces the source's
// per-action subclasses with a single tagged-variant struct, per the
// dynamic-dispatch design note: every "is this kind?" branch becomes a
// switch over Kind instead of a type assertion.
package actionpath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags which action variant an Action holds.
type Kind byte

const (
	Check Kind = 'x'
	Call  Kind = 'c'
	Fold  Kind = 'f'
	Raise Kind = 'r'
)

func (k Kind) String() string {
	switch k {
	case Check:
		return "check"
	case Call:
		return "call"
	case Fold:
		return "fold"
	case Raise:
		return "raise"
	default:
		return "unknown"
	}
}

// Action is a single action token in a Sequence. Amount is only meaningful
// when Kind is Raise.
type Action struct {
	Kind   Kind
	Amount int
}

// NewCheck returns a check Action.
func NewCheck() Action { return Action{Kind: Check} }

// NewCall returns a call Action.
func NewCall() Action { return Action{Kind: Call} }

// NewFold returns a fold Action.
func NewFold() Action { return Action{Kind: Fold} }

// NewRaise returns a raise Action for the given amount.
func NewRaise(amount int) Action { return Action{Kind: Raise, Amount: amount} }

// String renders a single action token the way it appears inside an encoded
// Sequence: "x", "c", "f", or "r<amount>".
func (a Action) String() string {
	switch a.Kind {
	case Check:
		return "x"
	case Call:
		return "c"
	case Fold:
		return "f"
	case Raise:
		return "r" + strconv.Itoa(a.Amount)
	default:
		return fmt.Sprintf("?%c", byte(a.Kind))
	}
}

var (
	sequencePattern = regexp.MustCompile(`^(c|f|x|r\d+)*$`)
	tokenPattern    = regexp.MustCompile(`c|f|x|r\d+`)
)

// Sequence is an ordered list of action tokens, used as a path key into a
// solution tree. The empty Sequence is the tree root key.
type Sequence []Action

// Empty returns the empty Sequence (the tree root key).
func Empty() Sequence {
	return Sequence{}
}

// ParseSequence parses a Sequence from its encoded string form, e.g.
// "xr300c". An empty string yields the empty Sequence.
func ParseSequence(s string) (Sequence, error) {
	if !sequencePattern.MatchString(s) {
		return nil, fmt.Errorf("actionpath: invalid action sequence %q", s)
	}
	tokens := tokenPattern.FindAllString(s, -1)
	seq := make(Sequence, 0, len(tokens))
	for _, tok := range tokens {
		switch tok[0] {
		case 'c':
			seq = append(seq, NewCall())
		case 'x':
			seq = append(seq, NewCheck())
		case 'f':
			seq = append(seq, NewFold())
		case 'r':
			amount, err := strconv.Atoi(tok[1:])
			if err != nil {
				return nil, fmt.Errorf("actionpath: invalid raise token %q: %w", tok, err)
			}
			seq = append(seq, NewRaise(amount))
		default:
			return nil, fmt.Errorf("actionpath: invalid token %q", tok)
		}
	}
	return seq, nil
}

// String encodes the Sequence back to its string form.
func (s Sequence) String() string {
	var b strings.Builder
	for _, a := range s {
		b.WriteString(a.String())
	}
	return b.String()
}

// Append returns a new Sequence with a appended, leaving s unmodified.
func (s Sequence) Append(a Action) Sequence {
	out := make(Sequence, len(s)+1)
	copy(out, s)
	out[len(s)] = a
	return out
}

// Parent returns s with its final action removed. Calling Parent on the
// empty Sequence returns the empty Sequence.
func (s Sequence) Parent() Sequence {
	if len(s) == 0 {
		return Sequence{}
	}
	return s[:len(s)-1]
}

// Prefixes returns every prefix of s, including the empty Sequence and s
// itself, in order from shortest to longest.
func (s Sequence) Prefixes() []Sequence {
	out := make([]Sequence, 0, len(s)+1)
	for i := 0; i <= len(s); i++ {
		out = append(out, s[:i])
	}
	return out
}

// Equal reports whether s and other hold the same actions in the same
// order.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
