package wire

// SolvedSpot is the payload carried by a blob-tree node at a point the
// solver actually reached a decision: the options available there, and the
// matching strategy/EV matrices. StrategyMatrix and EVMatrix always share
// shape: one row per hand in the solver's range, one column per option.
type SolvedSpot struct {
	Options       []StrategyOption
	StrategyMatrix IntMatrix
	EVMatrix       IntMatrix
}

// SizeOfSolvedSpot returns the encoded size of s.
func SizeOfSolvedSpot(s SolvedSpot) int {
	return SizeOfStrategyOptionSequence(s.Options) + SizeOfIntMatrix(s.StrategyMatrix) + SizeOfIntMatrix(s.EVMatrix)
}

// PutSolvedSpot writes s to dst.
func PutSolvedSpot(dst []byte, s SolvedSpot) (int, error) {
	if s.StrategyMatrix.Cols != len(s.Options) || s.EVMatrix.Cols != len(s.Options) {
		return 0, newError("PutSolvedSpot", "matrix column count must equal option count (%d): strategy has %d, ev has %d", len(s.Options), s.StrategyMatrix.Cols, s.EVMatrix.Cols)
	}
	if s.StrategyMatrix.Rows != s.EVMatrix.Rows {
		return 0, newError("PutSolvedSpot", "strategy matrix rows (%d) must equal ev matrix rows (%d)", s.StrategyMatrix.Rows, s.EVMatrix.Rows)
	}
	need := SizeOfSolvedSpot(s)
	if len(dst) < need {
		return 0, newError("PutSolvedSpot", "destination buffer too small: need %d, have %d", need, len(dst))
	}
	offset, err := PutStrategyOptionSequence(dst, s.Options)
	if err != nil {
		return 0, newError("PutSolvedSpot", "writing options: %w", err)
	}
	n, err := PutIntMatrix(dst[offset:], s.StrategyMatrix)
	if err != nil {
		return 0, newError("PutSolvedSpot", "writing strategy matrix: %w", err)
	}
	offset += n
	n, err = PutIntMatrix(dst[offset:], s.EVMatrix)
	if err != nil {
		return 0, newError("PutSolvedSpot", "writing ev matrix: %w", err)
	}
	return offset + n, nil
}

// DecodeSolvedSpot decodes a SolvedSpot from src.
func DecodeSolvedSpot(src []byte) (SolvedSpot, int, error) {
	options, offset, err := DecodeStrategyOptionSequence(src)
	if err != nil {
		return SolvedSpot{}, 0, newError("DecodeSolvedSpot", "reading options: %w", err)
	}
	strategyMatrix, n, err := DecodeIntMatrix(src[offset:])
	if err != nil {
		return SolvedSpot{}, 0, newError("DecodeSolvedSpot", "reading strategy matrix: %w", err)
	}
	offset += n
	evMatrix, n, err := DecodeIntMatrix(src[offset:])
	if err != nil {
		return SolvedSpot{}, 0, newError("DecodeSolvedSpot", "reading ev matrix: %w", err)
	}
	offset += n

	if strategyMatrix.Cols != len(options) || evMatrix.Cols != len(options) {
		return SolvedSpot{}, 0, newError("DecodeSolvedSpot", "matrix column count %d/%d does not match option count %d", strategyMatrix.Cols, evMatrix.Cols, len(options))
	}

	return SolvedSpot{
		Options:        options,
		StrategyMatrix: strategyMatrix,
		EVMatrix:       evMatrix,
	}, offset, nil
}
