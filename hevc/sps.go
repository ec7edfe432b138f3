package hevc

import (
	"fmt"

	"github.com/go-heic/heic/bitstream"
	"github.com/go-heic/heic/heicerr"
)

// SequenceParameterSet holds the fields of an HEVC SPS needed to decode an
// I-slice picture, plus the derived coding-tree-block quantities consumers
// need (MinCbLog2SizeY, CtbLog2SizeY, CtbSizeY, PicWidth/HeightInCtbsY).
type SequenceParameterSet struct {
	VpsID                         uint8
	MaxSubLayersMinus1            uint8
	TemporalIDNestingFlag         bool
	ProfileTierLevel              ProfileTierLevel
	SpsID                         uint32
	ChromaFormat                  ChromaFormat
	SeparateColourPlaneFlag       bool
	PicWidthInLumaSamples         uint32
	PicHeightInLumaSamples        uint32
	ConformanceWindow             ConformanceWindow
	BitDepthLumaMinus8            uint32
	BitDepthChromaMinus8          uint32
	Log2MaxPicOrderCntLsbMinus4   uint32
	Log2MinLumaCodingBlockSize3   uint32
	Log2DiffMaxMinLumaCodingBlock uint32
	Log2MinLumaTransformBlock2    uint32
	Log2DiffMaxMinLumaTransform   uint32
	MaxTransformHierarchyInter    uint32
	MaxTransformHierarchyIntra    uint32
	ScalingListEnabledFlag        bool
	AmpEnabledFlag                bool
	SampleAdaptiveOffsetEnabled   bool
	PcmEnabledFlag                bool
	PcmBitDepthLumaMinus1         uint8
	PcmBitDepthChromaMinus1       uint8
	PcmLoopFilterDisabledFlag     bool
	LongTermRefPicsPresent        bool
	TemporalMvpEnabledFlag        bool
	StrongIntraSmoothingEnabled   bool
	VUI                           VUIColorDescription

	// Derived, per spec §7.4.3.2.1.
	MinCbLog2SizeY    uint32
	CtbLog2SizeY      uint32
	CtbSizeY          uint32
	PicWidthInCtbsY   uint32
	PicHeightInCtbsY  uint32
}

// ConformanceWindow is the optional cropping rectangle, holding the
// conf_win_*_offset values as coded (not scaled by SubWidthC/SubHeightC).
type ConformanceWindow struct {
	Present bool
	Left    uint32
	Right   uint32
	Top     uint32
	Bottom  uint32
}

// ReadSequenceParameterSet parses an SPS from its RBSP.
func ReadSequenceParameterSet(rbsp []byte) (SequenceParameterSet, error) {
	r := bitstream.NewBitReader(rbsp)
	var sps SequenceParameterSet

	vpsID, err := r.ReadU8(4)
	if err != nil {
		return sps, err
	}
	sps.VpsID = vpsID

	maxSubLayers, err := r.ReadU8(3)
	if err != nil {
		return sps, err
	}
	sps.MaxSubLayersMinus1 = maxSubLayers

	nesting, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	sps.TemporalIDNestingFlag = nesting

	ptl, err := readProfileTierLevel(r, sps.MaxSubLayersMinus1)
	if err != nil {
		return sps, err
	}
	sps.ProfileTierLevel = ptl

	spsID, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.SpsID = spsID

	chromaIdc, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.ChromaFormat = ChromaFormat(chromaIdc)

	if sps.ChromaFormat == Chroma444 {
		sep, err := r.ReadFlag()
		if err != nil {
			return sps, err
		}
		sps.SeparateColourPlaneFlag = sep
	}

	width, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.PicWidthInLumaSamples = width

	height, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.PicHeightInLumaSamples = height

	confWinFlag, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	if confWinFlag {
		left, err := r.ReadUE()
		if err != nil {
			return sps, err
		}
		right, err := r.ReadUE()
		if err != nil {
			return sps, err
		}
		top, err := r.ReadUE()
		if err != nil {
			return sps, err
		}
		bottom, err := r.ReadUE()
		if err != nil {
			return sps, err
		}
		sps.ConformanceWindow = ConformanceWindow{Present: true, Left: left, Right: right, Top: top, Bottom: bottom}
	}

	bdLuma, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.BitDepthLumaMinus8 = bdLuma

	bdChroma, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.BitDepthChromaMinus8 = bdChroma

	log2MaxPoc, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.Log2MaxPicOrderCntLsbMinus4 = log2MaxPoc

	subLayerOrderingPresent, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	start := sps.MaxSubLayersMinus1
	if subLayerOrderingPresent {
		start = 0
	}
	for i := start; i <= sps.MaxSubLayersMinus1; i++ {
		if _, err := r.ReadUE(); err != nil { // sps_max_dec_pic_buffering_minus1
			return sps, err
		}
		if _, err := r.ReadUE(); err != nil { // sps_max_num_reorder_pics
			return sps, err
		}
		if _, err := r.ReadUE(); err != nil { // sps_max_latency_increase_plus1
			return sps, err
		}
	}

	minCb, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.Log2MinLumaCodingBlockSize3 = minCb

	diffCb, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.Log2DiffMaxMinLumaCodingBlock = diffCb

	minTb, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.Log2MinLumaTransformBlock2 = minTb

	diffTb, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.Log2DiffMaxMinLumaTransform = diffTb

	maxInter, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.MaxTransformHierarchyInter = maxInter

	maxIntra, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	sps.MaxTransformHierarchyIntra = maxIntra

	scalingListEnabled, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	sps.ScalingListEnabledFlag = scalingListEnabled
	if scalingListEnabled {
		spsScalingListPresent, err := r.ReadFlag()
		if err != nil {
			return sps, err
		}
		if spsScalingListPresent {
			if err := skipScalingListData(r); err != nil {
				return sps, err
			}
		}
	}

	amp, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	sps.AmpEnabledFlag = amp

	sao, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	sps.SampleAdaptiveOffsetEnabled = sao

	pcm, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	sps.PcmEnabledFlag = pcm
	if pcm {
		lumaBD, err := r.ReadU8(4)
		if err != nil {
			return sps, err
		}
		sps.PcmBitDepthLumaMinus1 = lumaBD
		chromaBD, err := r.ReadU8(4)
		if err != nil {
			return sps, err
		}
		sps.PcmBitDepthChromaMinus1 = chromaBD
		if _, err := r.ReadUE(); err != nil { // log2_min_pcm_luma_coding_block_size_minus3
			return sps, err
		}
		if _, err := r.ReadUE(); err != nil { // log2_diff_max_min_pcm_luma_coding_block_size
			return sps, err
		}
		loopFilter, err := r.ReadFlag()
		if err != nil {
			return sps, err
		}
		sps.PcmLoopFilterDisabledFlag = loopFilter
	}

	numShortTerm, err := r.ReadUE()
	if err != nil {
		return sps, err
	}
	numDeltaPocs := make([]uint32, 0, numShortTerm)
	for i := uint32(0); i < numShortTerm; i++ {
		n, err := readShortTermRefPicSet(r, int(i), numDeltaPocs)
		if err != nil {
			return sps, err
		}
		numDeltaPocs = append(numDeltaPocs, n)
	}

	longTerm, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	sps.LongTermRefPicsPresent = longTerm
	if longTerm {
		numLongTerm, err := r.ReadUE()
		if err != nil {
			return sps, err
		}
		pocLsbBits := int(sps.Log2MaxPicOrderCntLsbMinus4) + 4
		for i := uint32(0); i < numLongTerm; i++ {
			if err := r.SkipBits(pocLsbBits); err != nil { // lt_ref_pic_poc_lsb_sps
				return sps, err
			}
			if _, err := r.ReadFlag(); err != nil { // used_by_curr_pic_lt_sps_flag
				return sps, err
			}
		}
	}

	temporalMvp, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	sps.TemporalMvpEnabledFlag = temporalMvp

	strongSmoothing, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	sps.StrongIntraSmoothingEnabled = strongSmoothing

	vuiPresent, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	if vuiPresent {
		vui, err := readVUI(r, sps.MaxSubLayersMinus1)
		if err != nil {
			return sps, err
		}
		sps.VUI = vui
	}

	extPresent, err := r.ReadFlag()
	if err != nil {
		return sps, err
	}
	if extPresent {
		return sps, fmt.Errorf("%w: sps_extension_present_flag is set", heicerr.ErrUnsupported)
	}

	sps.MinCbLog2SizeY = sps.Log2MinLumaCodingBlockSize3 + 3
	sps.CtbLog2SizeY = sps.MinCbLog2SizeY + sps.Log2DiffMaxMinLumaCodingBlock
	sps.CtbSizeY = 1 << sps.CtbLog2SizeY
	sps.PicWidthInCtbsY = ceilDiv(sps.PicWidthInLumaSamples, sps.CtbSizeY)
	sps.PicHeightInCtbsY = ceilDiv(sps.PicHeightInLumaSamples, sps.CtbSizeY)

	return sps, nil
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// skipScalingListData walks scaling_list_data() for side effects, mirroring
// the delta-coded run-length scheme the H.264 scaling list skip in the
// corpus uses, generalized to HEVC's 4 size classes x 6 (or 2 for 32x32)
// matrix ids.
func skipScalingListData(r *bitstream.BitReader) error {
	for sizeID := 0; sizeID < 4; sizeID++ {
		step := 1
		if sizeID == 3 {
			step = 3
		}
		for matrixID := 0; matrixID < 6; matrixID += step {
			predModeFlag, err := r.ReadFlag()
			if err != nil {
				return err
			}
			if !predModeFlag {
				if _, err := r.ReadUE(); err != nil { // scaling_list_pred_matrix_id_delta
					return err
				}
				continue
			}
			coefNum := 64
			if sizeID == 0 {
				coefNum = 16
			}
			if sizeID > 1 {
				if _, err := r.ReadSE(); err != nil { // scaling_list_dc_coef_minus8
					return err
				}
			}
			for i := 0; i < coefNum; i++ {
				if _, err := r.ReadSE(); err != nil { // scaling_list_delta_coef
					return err
				}
			}
		}
	}
	return nil
}
