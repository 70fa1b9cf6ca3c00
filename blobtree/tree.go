// Package blobtree implements the node-addressed arena tree used to
// represent a hierarchy of blob-tree nodes decoded off the wire. Nodes are
// stored in a flat map keyed by node id rather than linked through parent/
// child pointers, so a partially-streamed tree (nodes arriving out of order
// over IPC) never needs back-patching.
package blobtree

import (
	"fmt"
	"sort"

	"github.com/WillCodeCo/solver-util/wire"
)

// RootNodeID is the node id that always identifies a tree's root.
const RootNodeID uint32 = 0

// Error reports a failure to resolve or insert a node in a Tree.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("blobtree: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, format string, args ...any) error {
	return &Error{Op: op, Err: fmt.Errorf(format, args...)}
}

// Tree is an arena of wire.Node values keyed by node id, with a secondary
// index from (parentNodeID, childID) to node id for child lookup.
type Tree struct {
	nodes          map[uint32]wire.Node
	childrenByNode map[uint32]map[string]uint32
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{
		nodes:          make(map[uint32]wire.Node),
		childrenByNode: make(map[uint32]map[string]uint32),
	}
}

// GetNode resolves a node id into its wire.Node.
func (t *Tree) GetNode(nodeID uint32) (wire.Node, error) {
	n, ok := t.nodes[nodeID]
	if !ok {
		return wire.Node{}, newError("GetNode", "failed to resolve node with node_id %d", nodeID)
	}
	return n, nil
}

// RootNode returns the tree's root node.
func (t *Tree) RootNode() (wire.Node, error) {
	return t.GetNode(RootNodeID)
}

// Len returns the number of nodes currently in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// AddNode inserts n into the tree, indexing it under its parent unless n is
// its own parent (the root's convention).
func (t *Tree) AddNode(n wire.Node) {
	t.nodes[n.NodeID] = n
	if n.NodeID == n.ParentNodeID {
		return
	}
	children, ok := t.childrenByNode[n.ParentNodeID]
	if !ok {
		children = make(map[string]uint32)
		t.childrenByNode[n.ParentNodeID] = children
	}
	children[n.ChildID] = n.NodeID
}

// ChildNodes returns the direct children of nodeID, sorted by edge child id
// so repeated traversals (encode, then compare with Equal) agree on order.
func (t *Tree) ChildNodes(nodeID uint32) ([]wire.Node, error) {
	childIDs := make([]string, 0, len(t.childrenByNode[nodeID]))
	for childID := range t.childrenByNode[nodeID] {
		childIDs = append(childIDs, childID)
	}
	sort.Strings(childIDs)

	out := make([]wire.Node, 0, len(childIDs))
	for _, childID := range childIDs {
		n, err := t.GetNode(t.childrenByNode[nodeID][childID])
		if err != nil {
			return nil, newError("ChildNodes", "resolving child of %d: %w", nodeID, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// BFSTraversal returns every node reachable from nodeID in breadth-first
// order. It is the canonical ordering used for tree equality and for
// serializing a tree back out over the wire.
func (t *Tree) BFSTraversal(nodeID uint32) ([]wire.Node, error) {
	start, err := t.GetNode(nodeID)
	if err != nil {
		return nil, newError("BFSTraversal", "resolving start node: %w", err)
	}
	var result []wire.Node
	toVisit := []wire.Node{start}
	for len(toVisit) > 0 {
		n := toVisit[0]
		toVisit = toVisit[1:]
		children, err := t.ChildNodes(n.NodeID)
		if err != nil {
			return nil, newError("BFSTraversal", "%w", err)
		}
		toVisit = append(toVisit, children...)
		result = append(result, n)
	}
	return result, nil
}

// Equal reports whether t and other contain the same nodes, compared by
// their root-to-leaf BFS ordering rather than map iteration order.
func (t *Tree) Equal(other *Tree) bool {
	if other == nil {
		return false
	}
	selfBFS, err := t.BFSTraversal(RootNodeID)
	if err != nil {
		return false
	}
	otherBFS, err := other.BFSTraversal(RootNodeID)
	if err != nil {
		return false
	}
	if len(selfBFS) != len(otherBFS) {
		return false
	}
	for i := range selfBFS {
		a, b := selfBFS[i], otherBFS[i]
		if a.NodeID != b.NodeID || a.ParentNodeID != b.ParentNodeID || a.ChildID != b.ChildID || string(a.Payload) != string(b.Payload) {
			return false
		}
	}
	return true
}
