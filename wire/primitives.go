package wire

import "encoding/binary"

// Int32Size is the fixed width of every scalar integer field on the wire.
const Int32Size = 4

// SizeOfUint32 returns the encoded size of a single unsigned 32-bit field.
func SizeOfUint32() int {
	return Int32Size
}

// PutUint32 writes v to dst in big-endian order and returns the number of
// bytes written. dst must be at least SizeOfUint32() bytes long.
func PutUint32(dst []byte, v uint32) (int, error) {
	if len(dst) < Int32Size {
		return 0, newError("PutUint32", "destination buffer too small: need %d, have %d", Int32Size, len(dst))
	}
	binary.BigEndian.PutUint32(dst, v)
	return Int32Size, nil
}

// Uint32 decodes a big-endian unsigned 32-bit value from src and returns the
// value along with the number of bytes consumed.
func Uint32(src []byte) (uint32, int, error) {
	if len(src) < Int32Size {
		return 0, 0, newError("Uint32", "source buffer too small: need %d, have %d", Int32Size, len(src))
	}
	return binary.BigEndian.Uint32(src), Int32Size, nil
}

// SizeOfBytes returns the encoded size of a length-prefixed byte string.
func SizeOfBytes(b []byte) int {
	return Int32Size + len(b)
}

// PutBytes writes a length-prefixed byte string to dst.
func PutBytes(dst []byte, b []byte) (int, error) {
	need := SizeOfBytes(b)
	if len(dst) < need {
		return 0, newError("PutBytes", "destination buffer too small: need %d, have %d", need, len(dst))
	}
	offset, err := PutUint32(dst, uint32(len(b)))
	if err != nil {
		return 0, err
	}
	copy(dst[offset:], b)
	return offset + len(b), nil
}

// Bytes decodes a length-prefixed byte string from src. The returned slice
// aliases src; callers that retain it beyond the lifetime of src must copy.
func Bytes(src []byte) ([]byte, int, error) {
	length, offset, err := Uint32(src)
	if err != nil {
		return nil, 0, newError("Bytes", "reading length prefix: %w", err)
	}
	end := offset + int(length)
	if end > len(src) || end < offset {
		return nil, 0, newError("Bytes", "length %d exceeds remaining buffer of %d bytes", length, len(src)-offset)
	}
	return src[offset:end], end, nil
}

// SizeOfASCIIString returns the encoded size of a length-prefixed string.
func SizeOfASCIIString(s string) int {
	return Int32Size + len(s)
}

// PutASCIIString writes a length-prefixed ASCII string to dst.
func PutASCIIString(dst []byte, s string) (int, error) {
	return PutBytes(dst, []byte(s))
}

// ASCIIString decodes a length-prefixed string from src, rejecting bytes
// outside the 7-bit ASCII range.
func ASCIIString(src []byte) (string, int, error) {
	raw, n, err := Bytes(src)
	if err != nil {
		return "", 0, newError("ASCIIString", "reading bytes: %w", err)
	}
	for i, b := range raw {
		if b > 0x7f {
			return "", 0, newError("ASCIIString", "byte %d (0x%02x) at index %d is not valid ASCII", b, b, i)
		}
	}
	return string(raw), n, nil
}

// SizeOfUint32Sequence returns the encoded size of a length-prefixed
// sequence of unsigned 32-bit values.
func SizeOfUint32Sequence(vals []uint32) int {
	return Int32Size + (len(vals) * Int32Size)
}

// PutUint32Sequence writes a length-prefixed sequence of unsigned 32-bit
// values to dst.
func PutUint32Sequence(dst []byte, vals []uint32) (int, error) {
	need := SizeOfUint32Sequence(vals)
	if len(dst) < need {
		return 0, newError("PutUint32Sequence", "destination buffer too small: need %d, have %d", need, len(dst))
	}
	offset, err := PutUint32(dst, uint32(len(vals)))
	if err != nil {
		return 0, err
	}
	for _, v := range vals {
		n, err := PutUint32(dst[offset:], v)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	return offset, nil
}

// Uint32Sequence decodes a length-prefixed sequence of unsigned 32-bit
// values from src.
func Uint32Sequence(src []byte) ([]uint32, int, error) {
	count, offset, err := Uint32(src)
	if err != nil {
		return nil, 0, newError("Uint32Sequence", "reading count: %w", err)
	}
	result := make([]uint32, count)
	for i := range result {
		v, n, err := Uint32(src[offset:])
		if err != nil {
			return nil, 0, newError("Uint32Sequence", "reading element %d: %w", i, err)
		}
		result[i] = v
		offset += n
	}
	return result, offset, nil
}
