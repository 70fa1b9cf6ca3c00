package wire

// Node is the on-wire record for a single blob-tree node: a link to its
// parent plus the raw bytes of whatever payload that node carries (a
// solved-spot blob, or nothing for interior routing nodes).
//
// NodeID 0 is always the tree root; ParentNodeID is meaningless for it and
// is encoded as 0 by convention.
type Node struct {
	NodeID       uint32
	ParentNodeID uint32
	ChildID      string
	Payload      []byte
}

// SizeOfNode returns the encoded size of n.
func SizeOfNode(n Node) int {
	return Int32Size + Int32Size + SizeOfASCIIString(n.ChildID) + SizeOfBytes(n.Payload)
}

// PutNode writes n to dst and returns the number of bytes written.
func PutNode(dst []byte, n Node) (int, error) {
	need := SizeOfNode(n)
	if len(dst) < need {
		return 0, newError("PutNode", "destination buffer too small: need %d, have %d", need, len(dst))
	}
	offset, err := PutUint32(dst, n.NodeID)
	if err != nil {
		return 0, err
	}
	step, err := PutUint32(dst[offset:], n.ParentNodeID)
	if err != nil {
		return 0, err
	}
	offset += step
	step, err = PutASCIIString(dst[offset:], n.ChildID)
	if err != nil {
		return 0, newError("PutNode", "writing child id: %w", err)
	}
	offset += step
	step, err = PutBytes(dst[offset:], n.Payload)
	if err != nil {
		return 0, newError("PutNode", "writing payload: %w", err)
	}
	return offset + step, nil
}

// DecodeNode decodes a Node from src. The returned Payload aliases src.
func DecodeNode(src []byte) (Node, int, error) {
	nodeID, offset, err := Uint32(src)
	if err != nil {
		return Node{}, 0, newError("DecodeNode", "reading node id: %w", err)
	}
	parentNodeID, n, err := Uint32(src[offset:])
	if err != nil {
		return Node{}, 0, newError("DecodeNode", "reading parent node id: %w", err)
	}
	offset += n
	childID, n, err := ASCIIString(src[offset:])
	if err != nil {
		return Node{}, 0, newError("DecodeNode", "reading child id: %w", err)
	}
	offset += n
	payload, n, err := Bytes(src[offset:])
	if err != nil {
		return Node{}, 0, newError("DecodeNode", "reading payload: %w", err)
	}
	offset += n
	return Node{
		NodeID:       nodeID,
		ParentNodeID: parentNodeID,
		ChildID:      childID,
		Payload:      payload,
	}, offset, nil
}

// IsRoot reports whether n is the tree root.
func (n Node) IsRoot() bool {
	return n.NodeID == 0
}
