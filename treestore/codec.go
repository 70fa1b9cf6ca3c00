package treestore

import (
	"github.com/WillCodeCo/solver-util/blobtree"
	"github.com/WillCodeCo/solver-util/wire"
)

// EncodeTree serializes t into the on-disk solution-tree byte format: a
// concatenation, with no outer framing, of wire.Node records in BFS order
// (§6 "Blob-tree wire format on disk"). Node ids are assigned by BFS
// position, matching the invariant that a path solve's tree has exactly
// len(action_sequence)+1 nodes numbered 0..N-1.
func EncodeTree(t *Tree) ([]byte, error) {
	nodes, err := t.BFSTraversal(-1)
	if err != nil {
		return nil, newError("EncodeTree", KindInvalid, "%w", err)
	}

	idByPath := make(map[string]uint32, len(nodes))
	for i, n := range nodes {
		idByPath[n.actionSequence.String()] = uint32(i)
	}

	var buf []byte
	for i, n := range nodes {
		payload, err := encodeSolvedSpot(n.solvedSpot)
		if err != nil {
			return nil, newError("EncodeTree", KindInvalid, "encoding node %d payload: %w", i, err)
		}
		parentID := uint32(i)
		childID := ""
		if n.parent != nil {
			parentID = idByPath[n.parent.actionSequence.String()]
			childID = n.actionSequence[len(n.actionSequence)-1].String()
		}
		wireNode := wire.Node{
			NodeID:       uint32(i),
			ParentNodeID: parentID,
			ChildID:      childID,
			Payload:      payload,
		}
		dst := make([]byte, wire.SizeOfNode(wireNode))
		if _, err := wire.PutNode(dst, wireNode); err != nil {
			return nil, newError("EncodeTree", KindInvalid, "encoding node %d: %w", i, err)
		}
		buf = append(buf, dst...)
	}
	return buf, nil
}

// DecodeTree decodes the on-disk solution-tree byte format back into a Tree,
// iterating one wire.Node record at a time until data is exhausted.
func DecodeTree(data []byte) (*Tree, error) {
	bt := blobtree.New()
	for len(data) > 0 {
		n, consumed, err := wire.DecodeNode(data)
		if err != nil {
			return nil, newError("DecodeTree", KindInvalid, "decoding node record: %w", err)
		}
		bt.AddNode(n)
		data = data[consumed:]
	}
	return FromBlobTree(bt)
}

// FromBlobTree decodes every node's payload in bt as a wire.SolvedSpot and
// rebuilds the action-sequence-addressed Tree, the shape the store and its
// callers actually navigate by rather than bt's opaque node ids.
func FromBlobTree(bt *blobtree.Tree) (*Tree, error) {
	root, err := bt.RootNode()
	if err != nil {
		return nil, newError("FromBlobTree", KindInvalid, "resolving root: %w", err)
	}
	rootSpot, _, err := wire.DecodeSolvedSpot(root.Payload)
	if err != nil {
		return nil, newError("FromBlobTree", KindInvalid, "decoding root payload: %w", err)
	}

	rootNode := newRootNode(rootSpot)
	idx := newNodeIndex()
	idx.add(rootNode)
	tree := &Tree{index: idx}

	byWireID := map[uint32]*Node{root.NodeID: rootNode}
	queue := []uint32{root.NodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := bt.ChildNodes(id)
		if err != nil {
			return nil, newError("FromBlobTree", KindInvalid, "resolving children of node %d: %w", id, err)
		}
		for _, c := range children {
			spot, _, err := wire.DecodeSolvedSpot(c.Payload)
			if err != nil {
				return nil, newError("FromBlobTree", KindInvalid, "decoding node %d payload: %w", c.NodeID, err)
			}
			parent := byWireID[id]
			child, err := parent.createChildNode(c.ChildID, spot)
			if err != nil {
				return nil, newError("FromBlobTree", KindInvalid, "attaching node %d: %w", c.NodeID, err)
			}
			idx.add(child)
			byWireID[c.NodeID] = child
			queue = append(queue, c.NodeID)
		}
	}
	return tree, nil
}

func encodeSolvedSpot(s wire.SolvedSpot) ([]byte, error) {
	dst := make([]byte, wire.SizeOfSolvedSpot(s))
	if _, err := wire.PutSolvedSpot(dst, s); err != nil {
		return nil, err
	}
	return dst, nil
}
