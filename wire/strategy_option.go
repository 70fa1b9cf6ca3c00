package wire

// OptionKind tags the variant of a StrategyOption the way the original
// serializer's single-byte discriminant does: one byte on the wire, never a
// string, never a Python subclass name.
type OptionKind byte

const (
	OptionFold  OptionKind = 'f'
	OptionCheck OptionKind = 'x'
	OptionCall  OptionKind = 'c'
	OptionRaise OptionKind = 'r'
)

func (k OptionKind) String() string {
	switch k {
	case OptionFold:
		return "fold"
	case OptionCheck:
		return "check"
	case OptionCall:
		return "call"
	case OptionRaise:
		return "raise"
	default:
		return "unknown"
	}
}

// StrategyOption is one action available at a solved spot. Amount and
// PotRatioBps are only meaningful, and only ever put on the wire, when Kind
// is OptionRaise: fold/check/call encode as a bare tag byte.
type StrategyOption struct {
	Kind        OptionKind
	Amount      int32
	PotRatioBps int32
}

// SizeOfStrategyOption returns the encoded size of o: one tag byte for
// fold/check/call, or the tag byte plus two signed 32-bit fields for raise.
func SizeOfStrategyOption(o StrategyOption) int {
	if o.Kind == OptionRaise {
		return 1 + Int32Size + Int32Size
	}
	return 1
}

// PutStrategyOption writes o to dst.
func PutStrategyOption(dst []byte, o StrategyOption) (int, error) {
	need := SizeOfStrategyOption(o)
	if len(dst) < need {
		return 0, newError("PutStrategyOption", "destination buffer too small: need %d, have %d", need, len(dst))
	}
	dst[0] = byte(o.Kind)
	if o.Kind != OptionRaise {
		return 1, nil
	}
	offset := 1
	n, err := PutUint32(dst[offset:], uint32(o.Amount))
	if err != nil {
		return 0, newError("PutStrategyOption", "writing amount: %w", err)
	}
	offset += n
	n, err = PutUint32(dst[offset:], uint32(o.PotRatioBps))
	if err != nil {
		return 0, newError("PutStrategyOption", "writing pot_ratio_bps: %w", err)
	}
	return offset + n, nil
}

// DecodeStrategyOption decodes a StrategyOption from src.
func DecodeStrategyOption(src []byte) (StrategyOption, int, error) {
	if len(src) < 1 {
		return StrategyOption{}, 0, newError("DecodeStrategyOption", "source buffer too small for kind tag")
	}
	kind := OptionKind(src[0])
	switch kind {
	case OptionFold, OptionCheck, OptionCall:
		return StrategyOption{Kind: kind}, 1, nil
	case OptionRaise:
	default:
		return StrategyOption{}, 0, newError("DecodeStrategyOption", "unrecognized option kind tag 0x%02x", src[0])
	}
	offset := 1
	amount, n, err := Uint32(src[offset:])
	if err != nil {
		return StrategyOption{}, 0, newError("DecodeStrategyOption", "reading amount: %w", err)
	}
	offset += n
	potRatioBps, n, err := Uint32(src[offset:])
	if err != nil {
		return StrategyOption{}, 0, newError("DecodeStrategyOption", "reading pot_ratio_bps: %w", err)
	}
	offset += n
	return StrategyOption{
		Kind:        kind,
		Amount:      int32(amount),
		PotRatioBps: int32(potRatioBps),
	}, offset, nil
}

// SizeOfStrategyOptionSequence returns the encoded size of a length-prefixed
// sequence of strategy options.
func SizeOfStrategyOptionSequence(opts []StrategyOption) int {
	size := Int32Size
	for _, o := range opts {
		size += SizeOfStrategyOption(o)
	}
	return size
}

// PutStrategyOptionSequence writes a length-prefixed sequence of strategy
// options to dst.
func PutStrategyOptionSequence(dst []byte, opts []StrategyOption) (int, error) {
	need := SizeOfStrategyOptionSequence(opts)
	if len(dst) < need {
		return 0, newError("PutStrategyOptionSequence", "destination buffer too small: need %d, have %d", need, len(dst))
	}
	offset, err := PutUint32(dst, uint32(len(opts)))
	if err != nil {
		return 0, err
	}
	for i, o := range opts {
		n, err := PutStrategyOption(dst[offset:], o)
		if err != nil {
			return 0, newError("PutStrategyOptionSequence", "writing option %d: %w", i, err)
		}
		offset += n
	}
	return offset, nil
}

// DecodeStrategyOptionSequence decodes a length-prefixed sequence of
// strategy options from src.
func DecodeStrategyOptionSequence(src []byte) ([]StrategyOption, int, error) {
	count, offset, err := Uint32(src)
	if err != nil {
		return nil, 0, newError("DecodeStrategyOptionSequence", "reading count: %w", err)
	}
	opts := make([]StrategyOption, count)
	for i := range opts {
		o, n, err := DecodeStrategyOption(src[offset:])
		if err != nil {
			return nil, 0, newError("DecodeStrategyOptionSequence", "reading option %d: %w", i, err)
		}
		opts[i] = o
		offset += n
	}
	return opts, offset, nil
}
