package cabac

import "github.com/go-heic/heic/bitstream"

// Decoder wraps an Engine with the per-syntax-element binarization schemes
// of H.265 §9.3.3, each expressed as a sequence of bin decode calls with
// the context/bypass selection the spec's tables assign to each bin index.
type Decoder struct {
	engine *Engine
}

// NewDecoder constructs a CABAC engine positioned at the start of
// slice_segment_data() and initializes every I-slice context from sliceQp,
// which the caller derives as 26 + pps.init_qp_minus26 + slice_qp_delta.
func NewDecoder(r *bitstream.BitReader, sliceQp int32) (*Decoder, error) {
	engine, err := NewEngine(r)
	if err != nil {
		return nil, err
	}
	engine.InitContexts(sliceQp)
	return &Decoder{engine: engine}, nil
}

// DecodeBinContext decodes a single context-coded bin (FL binarization,
// cMax=1): used for split_cu_flag, cu_transquant_bypass_flag, cbf_luma,
// cbf_cb/cr, prev_intra_luma_pred_flag, and similar one-bin flags.
func (d *Decoder) DecodeBinContext(ctxTable, ctxIdx int) (bool, error) {
	return d.engine.DecodeBin(ctxTable, ctxIdx, false)
}

// DecodeBypass decodes a single bypass-coded bin.
func (d *Decoder) DecodeBypass() (bool, error) {
	return d.engine.DecodeBin(0, 0, true)
}

// DecodeTerminate decodes end_of_slice_segment_flag / end_of_sub_stream_one_bit.
func (d *Decoder) DecodeTerminate() (bool, error) {
	return d.engine.DecodeBin(0, 0, false)
}

// decodeFixedLength reads numBits(cMax) bypass/context bins MSB-first,
// where numBits(cMax) = ceil(log2(cMax+1)), per H.265 §9.3.3.3.
func decodeFixedLength(cMax uint16, getBin func() (bool, error)) (uint16, error) {
	numBits := bitLength(cMax)
	var out uint16
	for i := 0; i < numBits; i++ {
		b, err := getBin()
		if err != nil {
			return 0, err
		}
		out <<= 1
		if b {
			out |= 1
		}
	}
	return out, nil
}

func bitLength(v uint16) int {
	n := 0
	for x := v; x > 0; x >>= 1 {
		n++
	}
	if n == 0 {
		return 1
	}
	return n
}

// decodeTruncatedRice implements TR binarization per H.265 §9.3.3.2: a
// unary prefix up to cMax>>cRiceParam, followed by a cRiceParam-bit fixed
// length suffix when the prefix didn't saturate.
func decodeTruncatedRice(cMax uint16, cRiceParam uint8, getBin func() (bool, error)) (uint16, error) {
	prefixMax := cMax >> cRiceParam

	var prefixVal uint16
	for prefixVal < prefixMax {
		bin, err := getBin()
		if err != nil {
			return 0, err
		}
		if !bin {
			break
		}
		prefixVal++
	}

	var suffixVal uint16
	if cRiceParam > 0 && prefixVal < prefixMax {
		var err error
		suffixVal, err = decodeFixedLength((1<<cRiceParam)-1, getBin)
		if err != nil {
			return 0, err
		}
	}

	return (prefixVal << cRiceParam) + suffixVal, nil
}

// decodeEGk implements k-th order Exp-Golomb binarization per H.265
// §9.3.3.5: a unary prefix of numOnes 1-bits terminated by a 0, followed by
// a (numOnes+k)-bit suffix.
func decodeEGk(k uint8, getBin func() (bool, error)) (uint16, error) {
	var numOnes uint8
	for {
		b, err := getBin()
		if err != nil {
			return 0, err
		}
		if !b {
			break
		}
		numOnes++
	}

	suffixLen := numOnes + k
	var suffix uint16
	for i := uint8(0); i < suffixLen; i++ {
		b, err := getBin()
		if err != nil {
			return 0, err
		}
		suffix <<= 1
		if b {
			suffix |= 1
		}
	}

	return (((uint16(1)<<numOnes)-1)<<k)+suffix, nil
}

// decodeIntraChromaPredModeBins implements Table 9-41's binarization: bin 0
// is context-coded; a 0 first bin means value 4 (DM_CHROMA), a 1 first bin
// is followed by a 2-bit bypass-coded suffix (FL, cMax=3) giving values 0-3.
func decodeIntraChromaPredModeBins(getBin func() (bool, error)) (uint16, error) {
	first, err := getBin()
	if err != nil {
		return 0, err
	}
	if !first {
		return 4, nil
	}
	return decodeFixedLength(3, getBin)
}

// DecodeIntraChromaPredMode decodes intra_chroma_pred_mode: bin 0 is
// context-coded (ctxIdx 0), the optional 2-bit suffix is bypass-coded.
func (d *Decoder) DecodeIntraChromaPredMode() (uint16, error) {
	binIdx := 0
	return decodeIntraChromaPredModeBins(func() (bool, error) {
		bypass := binIdx > 0
		binIdx++
		return d.engine.DecodeBin(CtxIntraChromaPredMode, 0, bypass)
	})
}

// DecodeSaoTypeIdx implements sao_type_idx_luma/chroma's TR(cMax=2,
// cRiceParam=0) binarization: bin 0 is context-coded, bins 1-2 are bypass.
func (d *Decoder) DecodeSaoTypeIdx(ctxIdx int) (uint16, error) {
	binIdx := 0
	return decodeTruncatedRice(2, 0, func() (bool, error) {
		bypass := binIdx > 0
		binIdx++
		return d.engine.DecodeBin(CtxSaoTypeIdx, ctxIdx, bypass)
	})
}

// DecodeCuQpDeltaAbs implements Table 9-43's cu_qp_delta_abs binarization:
// a TU prefix with cMax=5 (ctxIdx 0 for bin 0, ctxIdx 1 for bins 1-4), and
// when the prefix saturates at 5, an EG0 bypass-coded suffix.
func (d *Decoder) DecodeCuQpDeltaAbs() (uint16, error) {
	binIdx := 0
	var prefixVal uint16
	for prefixVal < 5 {
		ctxIdx := 0
		if binIdx >= 1 {
			ctxIdx = 1
		}
		bin, err := d.engine.DecodeBin(CtxCuQpDeltaAbs, ctxIdx, false)
		if err != nil {
			return 0, err
		}
		binIdx++
		if !bin {
			return prefixVal, nil
		}
		prefixVal++
	}
	suffix, err := decodeEGk(0, func() (bool, error) { return d.engine.DecodeBin(0, 0, true) })
	if err != nil {
		return 0, err
	}
	return 5 + suffix, nil
}

// DecodeLastSigCoeffPrefix implements last_sig_coeff_x/y_prefix's TR
// (cRiceParam=0) binarization with the context increment formula of
// §9.3.4.2.3: ctxInc = (binIdx >> ctxShift) + ctxOffset, where luma and
// chroma transform blocks use different offset/shift derivations.
func (d *Decoder) DecodeLastSigCoeffPrefix(cMax uint16, ctxTable int, cIdx uint8, log2TrafoSize uint8) (uint16, error) {
	var ctxOffset, ctxShift int
	if cIdx == 0 {
		ctxOffset = 3*(int(log2TrafoSize)-2) + ((int(log2TrafoSize) - 1) >> 2)
		ctxShift = (int(log2TrafoSize) + 1) >> 2
	} else {
		ctxOffset = 15
		ctxShift = int(log2TrafoSize) - 2
	}

	binIdx := 0
	return decodeTruncatedRice(cMax, 0, func() (bool, error) {
		ctxInc := (binIdx >> uint(ctxShift)) + ctxOffset
		binIdx++
		return d.engine.DecodeBin(ctxTable, ctxInc, false)
	})
}

// DecodePartModeIntra implements Table 9-40's part_mode binarization for
// MODE_INTRA coding units: when the CU can still split into four PUs
// (log2CbSize == MinCbLog2SizeY), a single context-coded bin distinguishes
// PART_2Nx2N (bin=1) from PART_NxN (bin=0); otherwise PART_2Nx2N is
// implied with no bin read.
func (d *Decoder) DecodePartModeIntra(log2CbSize, minCbLog2SizeY uint8) (PartMode, error) {
	if log2CbSize > minCbLog2SizeY {
		return Part2Nx2N, nil
	}
	bin, err := d.engine.DecodeBin(CtxPartMode, 0, false)
	if err != nil {
		return 0, err
	}
	if bin {
		return Part2Nx2N, nil
	}
	return PartNxN, nil
}

// PartMode is the coding unit's partition mode (a subset of Table 7-10
// restricted to the intra-only PART_2Nx2N / PART_NxN values this decoder
// needs).
type PartMode uint8

const (
	Part2Nx2N PartMode = 0
	PartNxN   PartMode = 3
)

// CoeffAbsLevelState carries the cLastAbsLevel/cLastRiceParam state that
// coeff_abs_level_remaining's adaptive Rice parameter derivation (§9.3.3.13)
// carries across successive coefficients within a 4x4 sub-block; the
// caller resets a fresh CoeffAbsLevelState at the start of every sub-block.
type CoeffAbsLevelState struct {
	CLastAbsLevel  uint16
	CLastRiceParam uint8
}

// DecodeCoeffAbsLevelRemaining implements coeff_abs_level_remaining's
// binarization: a TR(cMax=4<<cRiceParam, cRiceParam) prefix, followed by an
// EGk(cRiceParam+1) bypass suffix when the prefix saturates. cRiceParam
// adapts per coefficient from the previous coefficient's decoded level
// within the same sub-block, per §9.3.3.13.
func (d *Decoder) DecodeCoeffAbsLevelRemaining(state *CoeffAbsLevelState, baseLevel uint16) (uint16, error) {
	return decodeCoeffAbsLevelRemainingBins(state, baseLevel, func() (bool, error) {
		return d.engine.DecodeBin(0, 0, true)
	})
}

func decodeCoeffAbsLevelRemainingBins(state *CoeffAbsLevelState, baseLevel uint16, getBin func() (bool, error)) (uint16, error) {
	threshold := uint16(3) << state.CLastRiceParam
	cRiceParam := state.CLastRiceParam
	if state.CLastAbsLevel > threshold {
		cRiceParam = state.CLastRiceParam + 1
		if cRiceParam > 4 {
			cRiceParam = 4
		}
	}

	cMax := uint16(4) << cRiceParam

	prefixVal, err := decodeTruncatedRice(cMax, cRiceParam, getBin)
	if err != nil {
		return 0, err
	}

	var coeffAbsLevelRemaining uint16
	if prefixVal == cMax {
		suffixVal, err := decodeEGk(cRiceParam+1, getBin)
		if err != nil {
			return 0, err
		}
		coeffAbsLevelRemaining = cMax + suffixVal
	} else {
		coeffAbsLevelRemaining = prefixVal
	}

	state.CLastAbsLevel = baseLevel + coeffAbsLevelRemaining
	state.CLastRiceParam = cRiceParam

	return coeffAbsLevelRemaining, nil
}
