package wire

// IntMatrix is a dense row-major 2-D array of signed 32-bit integers, used
// for both the strategy matrix and the EV matrix of a solved spot. Its
// elements are encoded as signed values, as are a raise option's amount and
// pot_ratio_bps; lengths and counts elsewhere in this package are unsigned.
type IntMatrix struct {
	Rows int
	Cols int
	Data []int32
}

// shapeLen is the element count of every IntMatrix shape sequence: (rows, cols).
const shapeLen = 2

// SizeOfIntMatrix returns the encoded size of m: its shape, encoded as a
// length-prefixed int sequence of (rows, cols), followed by Rows*Cols
// signed elements.
func SizeOfIntMatrix(m IntMatrix) int {
	return SizeOfUint32Sequence(make([]uint32, shapeLen)) + (len(m.Data) * Int32Size)
}

// PutIntMatrix writes m to dst and returns the number of bytes written.
func PutIntMatrix(dst []byte, m IntMatrix) (int, error) {
	if len(m.Data) != m.Rows*m.Cols {
		return 0, newError("PutIntMatrix", "data length %d does not match rows*cols (%d*%d=%d)", len(m.Data), m.Rows, m.Cols, m.Rows*m.Cols)
	}
	need := SizeOfIntMatrix(m)
	if len(dst) < need {
		return 0, newError("PutIntMatrix", "destination buffer too small: need %d, have %d", need, len(dst))
	}
	offset, err := PutUint32Sequence(dst, []uint32{uint32(m.Rows), uint32(m.Cols)})
	if err != nil {
		return 0, newError("PutIntMatrix", "writing shape: %w", err)
	}
	for i, v := range m.Data {
		n, err := PutUint32(dst[offset:], uint32(v))
		if err != nil {
			return 0, newError("PutIntMatrix", "writing element %d: %w", i, err)
		}
		offset += n
	}
	return offset, nil
}

// DecodeIntMatrix decodes an IntMatrix from src.
func DecodeIntMatrix(src []byte) (IntMatrix, int, error) {
	shape, offset, err := Uint32Sequence(src)
	if err != nil {
		return IntMatrix{}, 0, newError("DecodeIntMatrix", "reading shape: %w", err)
	}
	if len(shape) != 2 {
		return IntMatrix{}, 0, newError("DecodeIntMatrix", "shape must have 2 elements (rows, cols), got %d", len(shape))
	}
	rows, cols := shape[0], shape[1]

	count := int(rows) * int(cols)
	data := make([]int32, count)
	for i := range data {
		v, n, err := Uint32(src[offset:])
		if err != nil {
			return IntMatrix{}, 0, newError("DecodeIntMatrix", "reading element %d: %w", i, err)
		}
		data[i] = int32(v)
		offset += n
	}
	return IntMatrix{Rows: int(rows), Cols: int(cols), Data: data}, offset, nil
}

// At returns the element at (row, col).
func (m IntMatrix) At(row, col int) int32 {
	return m.Data[row*m.Cols+col]
}
