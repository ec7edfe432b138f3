package hevc

import "github.com/go-heic/heic/bitstream"

// readVUI consumes vui_parameters() per HEVC spec §E.2.1. Only the colour
// description fields are retained; aspect ratio, overscan, timing, and HRD
// fields are walked for side effects so the reader ends at the correct bit
// position, matching the boundary this decoder draws around VUI (timing/HRD
// is out of this decoder's scope per its Non-goals).
func readVUI(r *bitstream.BitReader, spsMaxSubLayersMinus1 uint8) (VUIColorDescription, error) {
	var color VUIColorDescription

	aspectRatioInfoPresent, err := r.ReadFlag()
	if err != nil {
		return color, err
	}
	if aspectRatioInfoPresent {
		idc, err := r.ReadU8(8)
		if err != nil {
			return color, err
		}
		if idc == 255 { // EXTENDED_SAR
			if err := r.SkipBits(32); err != nil {
				return color, err
			}
		}
	}

	overscanInfoPresent, err := r.ReadFlag()
	if err != nil {
		return color, err
	}
	if overscanInfoPresent {
		if err := r.SkipBits(1); err != nil {
			return color, err
		}
	}

	videoSignalTypePresent, err := r.ReadFlag()
	if err != nil {
		return color, err
	}
	if videoSignalTypePresent {
		if err := r.SkipBits(3); err != nil { // video_format
			return color, err
		}
		if err := r.SkipBits(1); err != nil { // video_full_range_flag
			return color, err
		}
		colorDescPresent, err := r.ReadFlag()
		if err != nil {
			return color, err
		}
		if colorDescPresent {
			primaries, err := r.ReadU8(8)
			if err != nil {
				return color, err
			}
			transfer, err := r.ReadU8(8)
			if err != nil {
				return color, err
			}
			matrix, err := r.ReadU8(8)
			if err != nil {
				return color, err
			}
			color.Present = true
			color.ColorPrimaries = newColorPrimaries(primaries)
			color.TransferCharacteristics = newTransferCharacteristics(transfer)
			color.MatrixCoefficients = newMatrixCoefficients(matrix)
		}
	}

	chromaLocInfoPresent, err := r.ReadFlag()
	if err != nil {
		return color, err
	}
	if chromaLocInfoPresent {
		if _, err := r.ReadUE(); err != nil {
			return color, err
		}
		if _, err := r.ReadUE(); err != nil {
			return color, err
		}
	}

	if err := r.SkipBits(1); err != nil { // neutral_chroma_indication_flag
		return color, err
	}
	if err := r.SkipBits(1); err != nil { // field_seq_flag
		return color, err
	}
	if err := r.SkipBits(1); err != nil { // frame_field_info_present_flag
		return color, err
	}

	defaultDisplayWindowFlag, err := r.ReadFlag()
	if err != nil {
		return color, err
	}
	if defaultDisplayWindowFlag {
		for i := 0; i < 4; i++ {
			if _, err := r.ReadUE(); err != nil {
				return color, err
			}
		}
	}

	timingInfoPresent, err := r.ReadFlag()
	if err != nil {
		return color, err
	}
	if timingInfoPresent {
		if err := r.SkipBits(32); err != nil { // num_units_in_tick
			return color, err
		}
		if err := r.SkipBits(32); err != nil { // time_scale
			return color, err
		}
		pocProportional, err := r.ReadFlag()
		if err != nil {
			return color, err
		}
		if pocProportional {
			if _, err := r.ReadUE(); err != nil {
				return color, err
			}
		}
		hrdParametersPresent, err := r.ReadFlag()
		if err != nil {
			return color, err
		}
		if hrdParametersPresent {
			if err := skipHRDParameters(r, true, spsMaxSubLayersMinus1); err != nil {
				return color, err
			}
		}
	}

	bitstreamRestrictionFlag, err := r.ReadFlag()
	if err != nil {
		return color, err
	}
	if bitstreamRestrictionFlag {
		if err := r.SkipBits(3); err != nil { // tiles/wpp/strict motion vectors flags
			return color, err
		}
		for i := 0; i < 5; i++ {
			if _, err := r.ReadUE(); err != nil {
				return color, err
			}
		}
	}

	return color, nil
}

// skipHRDParameters walks hrd_parameters() for side effects only; HRD
// timing is out of scope per this decoder's Non-goals.
func skipHRDParameters(r *bitstream.BitReader, commonInfPresent bool, maxSubLayersMinus1 uint8) error {
	nalHRDParamPresent := false
	vclHRDParamPresent := false
	subPicHRDParamPresent := false

	if commonInfPresent {
		var err error
		nalHRDParamPresent, err = r.ReadFlag()
		if err != nil {
			return err
		}
		vclHRDParamPresent, err = r.ReadFlag()
		if err != nil {
			return err
		}
		if nalHRDParamPresent || vclHRDParamPresent {
			subPicHRDParamPresent, err = r.ReadFlag()
			if err != nil {
				return err
			}
			if subPicHRDParamPresent {
				if err := r.SkipBits(19); err != nil {
					return err
				}
			}
			if err := r.SkipBits(8); err != nil {
				return err
			}
			if subPicHRDParamPresent {
				if err := r.SkipBits(4); err != nil {
					return err
				}
			}
			if err := r.SkipBits(15); err != nil {
				return err
			}
		}
	}

	for i := uint8(0); i <= maxSubLayersMinus1; i++ {
		fixedPicRate, err := r.ReadFlag()
		if err != nil {
			return err
		}
		fixedPicRateWithinCVS := fixedPicRate
		if !fixedPicRate {
			fixedPicRateWithinCVS, err = r.ReadFlag()
			if err != nil {
				return err
			}
		}
		lowDelay := false
		if fixedPicRateWithinCVS {
			if _, err := r.ReadUE(); err != nil { // elemental_duration_in_tc_minus1
				return err
			}
		} else {
			lowDelay, err = r.ReadFlag()
			if err != nil {
				return err
			}
		}
		cpbCntMinus1 := uint32(0)
		if !lowDelay {
			cpbCntMinus1, err = r.ReadUE()
			if err != nil {
				return err
			}
		}
		if nalHRDParamPresent {
			if err := skipSubLayerHRD(r, cpbCntMinus1, subPicHRDParamPresent); err != nil {
				return err
			}
		}
		if vclHRDParamPresent {
			if err := skipSubLayerHRD(r, cpbCntMinus1, subPicHRDParamPresent); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipSubLayerHRD(r *bitstream.BitReader, cpbCntMinus1 uint32, subPicHRDParamPresent bool) error {
	for i := uint32(0); i <= cpbCntMinus1; i++ {
		if _, err := r.ReadUE(); err != nil { // bit_rate_value_minus1
			return err
		}
		if _, err := r.ReadUE(); err != nil { // cpb_size_value_minus1
			return err
		}
		if subPicHRDParamPresent {
			if _, err := r.ReadUE(); err != nil {
				return err
			}
			if _, err := r.ReadUE(); err != nil {
				return err
			}
		}
		if err := r.SkipBits(1); err != nil { // cbr_flag
			return err
		}
	}
	return nil
}
