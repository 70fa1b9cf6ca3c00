// Package treestore implements the action-sequence-aware solution tree
// (the in-memory structure a solver result decodes into) plus the
// content-addressed store that persists complete trees, their solver
// configs, and the lookup index across them.
package treestore

import (
	"fmt"
	"sort"

	"github.com/WillCodeCo/solver-util/actionpath"
	"github.com/WillCodeCo/solver-util/wire"
)

// Kind classifies a treestore failure.
type Kind string

const (
	KindNotFound      Kind = "not-found"
	KindAlreadyExists Kind = "already-exists"
	KindInvalid       Kind = "invalid"
)

// Error is returned by every treestore operation that can fail.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("treestore: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, kind Kind, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Node is a single solved spot in a solution tree, reachable by the action
// sequence leading to it from the root. Unlike blobtree.Tree (which is
// keyed by opaque integer node ids, as it would arrive off the wire), Node
// is keyed by the action path itself, which is what every consumer of a
// finished tree actually wants to navigate by.
type Node struct {
	parent         *Node
	actionSequence actionpath.Sequence
	solvedSpot     wire.SolvedSpot
	children       map[string]*Node
}

func newRootNode(solvedSpot wire.SolvedSpot) *Node {
	return &Node{
		actionSequence: actionpath.Empty(),
		solvedSpot:     solvedSpot,
		children:       make(map[string]*Node),
	}
}

// ActionSequence returns the path from the root to this node.
func (n *Node) ActionSequence() actionpath.Sequence {
	return n.actionSequence
}

// Depth returns the number of actions taken to reach this node.
func (n *Node) Depth() int {
	return len(n.actionSequence)
}

// SolvedSpot returns the solver result at this node.
func (n *Node) SolvedSpot() wire.SolvedSpot {
	return n.solvedSpot
}

// IsLeaf reports whether this spot has no further strategy options, i.e.
// the street (or hand) is finished here.
func (n *Node) IsLeaf() bool {
	return len(n.solvedSpot.Options) == 0
}

// Parent returns this node's parent, or an error if called on the root.
func (n *Node) Parent() (*Node, error) {
	if n.parent == nil {
		return nil, newError("parent", KindNotFound, "root node has no parent")
	}
	return n.parent, nil
}

// HasChild reports whether a child exists for the given action token.
func (n *Node) HasChild(actionString string) bool {
	_, ok := n.children[actionString]
	return ok
}

// GetChild resolves a single action token into the matching child node.
func (n *Node) GetChild(actionString string) (*Node, error) {
	child, ok := n.children[actionString]
	if !ok {
		return nil, newError("get_child", KindNotFound, "no child of %q for action %q", n.actionSequence, actionString)
	}
	return child, nil
}

// Children returns this node's children sorted by their edge action token,
// so repeated BFS traversals of the same tree (e.g. once to encode, once
// to compare with Equal) always visit them in the same order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].actionSequence.String() < out[j].actionSequence.String()
	})
	return out
}

// HasChildren reports whether this node has any children.
func (n *Node) HasChildren() bool {
	return len(n.children) > 0
}

// createChildNode attaches a new child reached by actionString, carrying
// solvedSpot. actionString must parse as a single action token.
func (n *Node) createChildNode(actionString string, solvedSpot wire.SolvedSpot) (*Node, error) {
	if _, ok := n.children[actionString]; ok {
		return nil, newError("create_child_node", KindAlreadyExists, "already a child for action %q under %q", actionString, n.actionSequence)
	}
	action, err := actionpath.ParseSequence(actionString)
	if err != nil || len(action) != 1 {
		return nil, newError("create_child_node", KindInvalid, "action_string %q is not a single action token", actionString)
	}
	child := &Node{
		parent:         n,
		actionSequence: n.actionSequence.Append(action[0]),
		solvedSpot:     solvedSpot,
		children:       make(map[string]*Node),
	}
	n.children[actionString] = child
	return child, nil
}

// BFSTraversal returns every node in this node's subtree (including itself)
// in breadth-first order, optionally bounded by maxDepth (a negative
// maxDepth means unbounded).
func (n *Node) BFSTraversal(maxDepth int) []*Node {
	var out []*Node
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDepth < 0 || cur.Depth() < maxDepth {
			queue = append(queue, cur.Children()...)
		}
		out = append(out, cur)
	}
	return out
}

// nodeIndex resolves nodes by their action sequence in O(1).
type nodeIndex struct {
	nodes map[string]*Node
}

func newNodeIndex() *nodeIndex {
	return &nodeIndex{nodes: make(map[string]*Node)}
}

func (idx *nodeIndex) add(n *Node) {
	idx.nodes[n.actionSequence.String()] = n
}

func (idx *nodeIndex) get(seq actionpath.Sequence) (*Node, error) {
	n, ok := idx.nodes[seq.String()]
	if !ok {
		return nil, newError("get_node", KindNotFound, "no node for action sequence %q", seq)
	}
	return n, nil
}

func (idx *nodeIndex) has(seq actionpath.Sequence) bool {
	_, ok := idx.nodes[seq.String()]
	return ok
}

func (idx *nodeIndex) size() int {
	return len(idx.nodes)
}

func (idx *nodeIndex) leaves() []*Node {
	var out []*Node
	for _, n := range idx.nodes {
		if n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out
}

// Tree is the principal data structure for navigating the results of a
// solve: every spot the solver visited, addressable by the action sequence
// leading to it.
type Tree struct {
	index *nodeIndex
}

// NewTree returns a single-node Tree whose root carries rootSpot.
func NewTree(rootSpot wire.SolvedSpot) *Tree {
	root := newRootNode(rootSpot)
	idx := newNodeIndex()
	idx.add(root)
	return &Tree{index: idx}
}

// AddChild attaches a new node reached by actionString from the node at
// parentSeq, carrying solvedSpot, and returns the new node's full action
// sequence.
func (t *Tree) AddChild(parentSeq actionpath.Sequence, actionString string, solvedSpot wire.SolvedSpot) (actionpath.Sequence, error) {
	parent, err := t.GetNode(parentSeq)
	if err != nil {
		return nil, newError("AddChild", KindNotFound, "resolving parent %q: %w", parentSeq, err)
	}
	child, err := parent.createChildNode(actionString, solvedSpot)
	if err != nil {
		return nil, err
	}
	t.index.add(child)
	return child.actionSequence, nil
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int {
	return t.index.size()
}

// GetNode resolves seq into its Node.
func (t *Tree) GetNode(seq actionpath.Sequence) (*Node, error) {
	return t.index.get(seq)
}

// HasNode reports whether seq names a node in this tree.
func (t *Tree) HasNode(seq actionpath.Sequence) bool {
	return t.index.has(seq)
}

// RootNode returns the tree's root node.
func (t *Tree) RootNode() (*Node, error) {
	return t.GetNode(actionpath.Empty())
}

// NodesOnPath traverses every prefix of seq (including the root and seq
// itself), returning the matching nodes in order.
func (t *Tree) NodesOnPath(seq actionpath.Sequence) ([]*Node, error) {
	prefixes := seq.Prefixes()
	out := make([]*Node, 0, len(prefixes))
	for _, prefix := range prefixes {
		n, err := t.GetNode(prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// BFSTraversal returns every node in the tree in breadth-first order from
// the root, optionally bounded by maxDepth (negative means unbounded).
func (t *Tree) BFSTraversal(maxDepth int) ([]*Node, error) {
	root, err := t.RootNode()
	if err != nil {
		return nil, err
	}
	return root.BFSTraversal(maxDepth), nil
}

// LeafNodes returns every node with no strategy options.
func (t *Tree) LeafNodes() []*Node {
	return t.index.leaves()
}

// Equal reports whether t and other have the same solved spots at every
// position in a shared breadth-first traversal.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	selfBFS, err := t.BFSTraversal(-1)
	if err != nil {
		return false
	}
	otherBFS, err := other.BFSTraversal(-1)
	if err != nil {
		return false
	}
	if len(selfBFS) != len(otherBFS) {
		return false
	}
	for i := range selfBFS {
		if !solvedSpotsEqual(selfBFS[i].SolvedSpot(), otherBFS[i].SolvedSpot()) {
			return false
		}
	}
	return true
}

func solvedSpotsEqual(a, b wire.SolvedSpot) bool {
	if len(a.Options) != len(b.Options) {
		return false
	}
	for i := range a.Options {
		if a.Options[i] != b.Options[i] {
			return false
		}
	}
	return intMatrixEqual(a.StrategyMatrix, b.StrategyMatrix) && intMatrixEqual(a.EVMatrix, b.EVMatrix)
}

func intMatrixEqual(a, b wire.IntMatrix) bool {
	if a.Rows != b.Rows || a.Cols != b.Cols || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}
