package cabac

import (
	"fmt"

	"github.com/go-heic/heic/bitstream"
	"github.com/go-heic/heic/heicerr"
)

// ErrInvalidInit is returned when the 9-bit ivlOffset read at engine
// construction is 510 or 511, a value the spec forbids (§9.3.2.5). It
// wraps heicerr.ErrMalformed.
var ErrInvalidInit = fmt.Errorf("%w: cabac: invalid ivlOffset at initialization", heicerr.ErrMalformed)

// Engine implements the CABAC arithmetic decoding engine of H.265 §9.3.4.3:
// it tracks ivlCurrRange/ivlOffset and a table of per-context state, and
// decodes one bin at a time from an underlying bit reader.
type Engine struct {
	ivlCurrRange uint16
	ivlOffset    uint16
	ctx          *contextStore
	r            *bitstream.BitReader
}

// NewEngine reads the initial 9-bit ivlOffset and returns an Engine ready
// for InitContexts followed by DecodeBin calls. r must already be
// positioned at the start of slice_segment_data(), i.e. immediately after
// the slice header's byte_alignment().
func NewEngine(r *bitstream.BitReader) (*Engine, error) {
	offset, err := r.ReadBits(9)
	if err != nil {
		return nil, err
	}
	if offset == 510 || offset == 511 {
		return nil, ErrInvalidInit
	}
	return &Engine{
		ivlCurrRange: 510,
		ivlOffset:    uint16(offset),
		ctx:          newContextStore(),
		r:            r,
	}, nil
}

// InitContexts initializes every I-slice context variable from the
// per-syntax-element init value tables, using sliceQp (slice_qp_delta +
// 26 + pps.init_qp_minus26) as required by H.265 §9.3.2.2.
func (e *Engine) InitContexts(sliceQp int32) {
	for _, se := range iSliceSyntaxElements {
		for idx, initValue := range se.initValuesISlice {
			e.ctx.initContext(se.ctxTable, idx, sliceQp, initValue)
		}
	}
}

// DecodeBin decodes one bin. bypass selects the bypass arithmetic coding
// path; when not bypass, ctxTable==0 && ctxIdx==0 selects the terminate
// path (used for end_of_slice_segment_flag and the CTU-skip terminate
// bin), otherwise the regular context-adaptive decision path.
func (e *Engine) DecodeBin(ctxTable, ctxIdx int, bypass bool) (bool, error) {
	if bypass {
		return e.decodeBypass()
	}
	if ctxTable == 0 && ctxIdx == 0 {
		return e.decodeTerminate()
	}
	return e.decodeDecision(ctxTable, ctxIdx)
}

func (e *Engine) decodeDecision(ctxTable, ctxIdx int) (bool, error) {
	qRangeIdx := (e.ivlCurrRange >> 6) & 3

	st := e.ctx.get(ctxTable, ctxIdx)
	ivlLpsRange := uint16(rangeTabLPS[st.pStateIdx][qRangeIdx])

	e.ivlCurrRange -= ivlLpsRange

	var binVal bool
	if e.ivlOffset >= e.ivlCurrRange {
		binVal = !st.valMps
		e.ivlOffset -= e.ivlCurrRange
		e.ivlCurrRange = ivlLpsRange

		if st.pStateIdx == 0 {
			st.valMps = !st.valMps
		}
		st.pStateIdx = transIdxLPS[st.pStateIdx]
	} else {
		binVal = st.valMps
		st.pStateIdx = transIdxMPS[st.pStateIdx]
	}
	e.ctx.set(ctxTable, ctxIdx, st)

	if err := e.renormalize(); err != nil {
		return false, err
	}
	return binVal, nil
}

func (e *Engine) renormalize() error {
	for e.ivlCurrRange < 256 {
		e.ivlCurrRange <<= 1
		bit, err := e.r.ReadBits(1)
		if err != nil {
			return fmt.Errorf("%w: cabac renormalization: %v", heicerr.ErrTruncated, err)
		}
		e.ivlOffset = (e.ivlOffset << 1) | uint16(bit)
	}
	return nil
}

func (e *Engine) decodeBypass() (bool, error) {
	bit, err := e.r.ReadBits(1)
	if err != nil {
		return false, err
	}
	e.ivlOffset = (e.ivlOffset << 1) | uint16(bit)

	if e.ivlOffset >= e.ivlCurrRange {
		e.ivlOffset -= e.ivlCurrRange
		return true, nil
	}
	return false, nil
}

func (e *Engine) decodeTerminate() (bool, error) {
	e.ivlCurrRange -= 2

	if e.ivlOffset >= e.ivlCurrRange {
		return true, nil
	}
	if err := e.renormalize(); err != nil {
		return false, err
	}
	return false, nil
}
