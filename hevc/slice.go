package hevc

import (
	"fmt"

	"github.com/go-heic/heic/bitstream"
	"github.com/go-heic/heic/heicerr"
)

// SliceType enumerates slice_type values. Only SliceTypeI is supported for
// decode; B and P slices are rejected with ErrNonIFrame.
type SliceType uint8

const (
	SliceTypeB SliceType = 0
	SliceTypeP SliceType = 1
	SliceTypeI SliceType = 2
)

// SliceSegmentHeader holds the fields of an HEVC slice segment header needed
// to initialize CABAC and walk the coding tree for a single I-slice.
type SliceSegmentHeader struct {
	FirstSliceSegmentInPicFlag   bool
	NoOutputOfPriorPicsFlag      bool
	PicParameterSetID            uint32
	SliceType                    SliceType
	PicOutputFlag                bool
	ColourPlaneID                uint8
	SliceSaoLumaFlag             bool
	SliceSaoChromaFlag           bool
	SliceQpDelta                 int32
	SliceCbQpOffset              int32
	SliceCrQpOffset              int32
	DeblockingFilterOverrideFlag bool
	SliceDeblockingFilterDisabled bool
	SliceBetaOffsetDiv2          int32
	SliceTcOffsetDiv2            int32
	SliceLoopFilterAcrossSlicesEnabledFlag bool
	EntryPointOffsetMinus1       []uint32

	// HeaderByteLength is the number of whole bytes consumed through
	// byte_alignment(), i.e. where slice_segment_data() begins.
	HeaderByteLength int
}

// ReadSliceSegmentHeader parses a slice segment header from an RBSP (NAL
// header already stripped), given the NAL unit kind (to determine IRAP
// status) and the already-parsed SPS/PPS it references.
func ReadSliceSegmentHeader(rbsp []byte, nalKind NalUnitKind, sps SequenceParameterSet, pps PictureParameterSet) (SliceSegmentHeader, error) {
	r := bitstream.NewBitReader(rbsp)
	var sh SliceSegmentHeader

	first, err := r.ReadFlag()
	if err != nil {
		return sh, err
	}
	sh.FirstSliceSegmentInPicFlag = first
	if !first {
		return sh, fmt.Errorf("%w: dependent/non-first slice segments are not supported", heicerr.ErrUnsupported)
	}

	if nalKind.IsIRAP() {
		noOutput, err := r.ReadFlag()
		if err != nil {
			return sh, err
		}
		sh.NoOutputOfPriorPicsFlag = noOutput
	}

	ppsID, err := r.ReadUE()
	if err != nil {
		return sh, err
	}
	sh.PicParameterSetID = ppsID

	// first_slice_segment_in_pic_flag is always true above, so the
	// slice_segment_address field that would otherwise follow is absent.

	for i := uint8(0); i < pps.NumExtraSliceHeaderBits; i++ {
		if _, err := r.ReadFlag(); err != nil { // slice_reserved_flag[i]
			return sh, err
		}
	}

	sliceType, err := r.ReadUE()
	if err != nil {
		return sh, err
	}
	sh.SliceType = SliceType(sliceType)
	if sh.SliceType != SliceTypeI {
		return sh, ErrNonIFrame
	}

	if pps.OutputFlagPresentFlag {
		flag, err := r.ReadFlag()
		if err != nil {
			return sh, err
		}
		sh.PicOutputFlag = flag
	}

	if sps.SeparateColourPlaneFlag {
		plane, err := r.ReadU8(2)
		if err != nil {
			return sh, err
		}
		sh.ColourPlaneID = plane
	}

	// IDR slices have no POC or reference-picture-set syntax to read; every
	// decodable HEIC tile NAL is an IRAP, so that entire branch is absent.

	if sps.SampleAdaptiveOffsetEnabled {
		luma, err := r.ReadFlag()
		if err != nil {
			return sh, err
		}
		sh.SliceSaoLumaFlag = luma

		hasChroma := sps.ChromaFormat != ChromaMonochrome
		if hasChroma {
			chroma, err := r.ReadFlag()
			if err != nil {
				return sh, err
			}
			sh.SliceSaoChromaFlag = chroma
		}
	}

	// slice_type == I, so num_ref_idx_active_override_flag and the
	// reference-list-modification / weighted-prediction / collocated /
	// five_minus_max_num_merge_cand syntax that only apply to P/B slices
	// are all absent.

	qpDelta, err := r.ReadSE()
	if err != nil {
		return sh, err
	}
	sh.SliceQpDelta = qpDelta

	if pps.PpsSliceChromaQpOffsetsPresentFlag {
		cb, err := r.ReadSE()
		if err != nil {
			return sh, err
		}
		sh.SliceCbQpOffset = cb
		cr, err := r.ReadSE()
		if err != nil {
			return sh, err
		}
		sh.SliceCrQpOffset = cr
	}

	// chroma_qp_offset_list, cu_chroma_qp_offset_enabled_flag belong to the
	// range extension (pps_range_extension_flag), not parsed here.

	if pps.DeblockingFilterControlPresentFlag {
		if pps.DeblockingFilterOverrideEnabledFlag {
			override, err := r.ReadFlag()
			if err != nil {
				return sh, err
			}
			sh.DeblockingFilterOverrideFlag = override
		}
		if sh.DeblockingFilterOverrideFlag {
			disabled, err := r.ReadFlag()
			if err != nil {
				return sh, err
			}
			sh.SliceDeblockingFilterDisabled = disabled
			if !disabled {
				beta, err := r.ReadSE()
				if err != nil {
					return sh, err
				}
				sh.SliceBetaOffsetDiv2 = beta
				tc, err := r.ReadSE()
				if err != nil {
					return sh, err
				}
				sh.SliceTcOffsetDiv2 = tc
			}
		} else {
			sh.SliceDeblockingFilterDisabled = pps.PpsDeblockingFilterDisabledFlag
			sh.SliceBetaOffsetDiv2 = pps.PpsBetaOffsetDiv2
			sh.SliceTcOffsetDiv2 = pps.PpsTcOffsetDiv2
		}
	}

	loopFilterAcross := pps.PpsLoopFilterAcrossSlicesEnabledFlag
	if pps.PpsLoopFilterAcrossSlicesEnabledFlag && (sh.SliceSaoLumaFlag || sh.SliceSaoChromaFlag || !sh.SliceDeblockingFilterDisabled) {
		flag, err := r.ReadFlag()
		if err != nil {
			return sh, err
		}
		loopFilterAcross = flag
	}
	sh.SliceLoopFilterAcrossSlicesEnabledFlag = loopFilterAcross

	if pps.TilesEnabledFlag || pps.EntropyCodingSyncEnabledFlag {
		numEntryPoints, err := r.ReadUE()
		if err != nil {
			return sh, err
		}
		if numEntryPoints > 0 {
			lenMinus1, err := r.ReadUE()
			if err != nil {
				return sh, err
			}
			bits := int(lenMinus1) + 1
			sh.EntryPointOffsetMinus1 = make([]uint32, numEntryPoints)
			for i := uint32(0); i < numEntryPoints; i++ {
				v, err := r.ReadBits(bits)
				if err != nil {
					return sh, err
				}
				sh.EntryPointOffsetMinus1[i] = v
			}
		}
	}

	if pps.SliceSegmentHeaderExtensionPresentFlag {
		length, err := r.ReadUE()
		if err != nil {
			return sh, err
		}
		if err := r.SkipBits(int(length) * 8); err != nil {
			return sh, err
		}
	}

	if err := r.ByteAlign(); err != nil {
		return sh, err
	}
	sh.HeaderByteLength = r.BytePos()

	return sh, nil
}
