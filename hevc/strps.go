package hevc

import "github.com/go-heic/heic/bitstream"

// readShortTermRefPicSet walks st_ref_pic_set(stRpsIdx) per HEVC spec
// §7.3.7, consuming the correct number of bits whether the set is coded
// directly or predicted from an earlier set. numDeltaPocs accumulates
// NumDeltaPocs[i] for every set read so far (including this one, appended
// by the caller), since a later predicted set needs the referenced set's
// count to know how many used/delta flags to read.
func readShortTermRefPicSet(r *bitstream.BitReader, stRpsIdx int, numDeltaPocs []uint32) (uint32, error) {
	var interPredict bool
	var err error
	if stRpsIdx != 0 {
		interPredict, err = r.ReadFlag()
		if err != nil {
			return 0, err
		}
	}

	if interPredict {
		deltaIdxMinus1 := uint32(0)
		// The delta_idx_minus1 field only appears when this set is being
		// read from a slice header rather than from the SPS's own list;
		// this decoder only calls st_ref_pic_set() from the SPS loop, so
		// delta_idx_minus1 is inferred as 0 and RefRpsIdx is stRpsIdx-1.
		refRpsIdx := stRpsIdx - int(deltaIdxMinus1) - 1
		if refRpsIdx < 0 || refRpsIdx >= len(numDeltaPocs) {
			return 0, errRefRpsIdxOutOfRange
		}

		if _, err := r.ReadFlag(); err != nil { // delta_rps_sign
			return 0, err
		}
		if _, err := r.ReadUE(); err != nil { // abs_delta_rps_minus1
			return 0, err
		}

		refCount := numDeltaPocs[refRpsIdx]
		for j := uint32(0); j <= refCount; j++ {
			used, err := r.ReadFlag()
			if err != nil {
				return 0, err
			}
			if !used {
				if _, err := r.ReadFlag(); err != nil { // use_delta_flag
					return 0, err
				}
			}
		}
		return numDeltaPocs[refRpsIdx], nil
	}

	numNeg, err := r.ReadUE()
	if err != nil {
		return 0, err
	}
	numPos, err := r.ReadUE()
	if err != nil {
		return 0, err
	}
	for i := uint32(0); i < numNeg; i++ {
		if _, err := r.ReadUE(); err != nil { // delta_poc_s0_minus1
			return 0, err
		}
		if _, err := r.ReadFlag(); err != nil { // used_by_curr_pic_s0_flag
			return 0, err
		}
	}
	for i := uint32(0); i < numPos; i++ {
		if _, err := r.ReadUE(); err != nil { // delta_poc_s1_minus1
			return 0, err
		}
		if _, err := r.ReadFlag(); err != nil { // used_by_curr_pic_s1_flag
			return 0, err
		}
	}
	return numNeg + numPos, nil
}
