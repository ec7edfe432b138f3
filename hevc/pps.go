package hevc

import "github.com/go-heic/heic/bitstream"

// PictureParameterSet holds the fields of an HEVC PPS needed to decode an
// I-slice picture.
type PictureParameterSet struct {
	PpsID                                   uint32
	SpsID                                    uint32
	DependentSliceSegmentsEnabledFlag        bool
	OutputFlagPresentFlag                    bool
	NumExtraSliceHeaderBits                  uint8
	SignDataHidingEnabledFlag                bool
	CabacInitPresentFlag                     bool
	NumRefIdxL0DefaultActiveMinus1           uint32
	NumRefIdxL1DefaultActiveMinus1           uint32
	InitQpMinus26                            int32
	ConstrainedIntraPredFlag                 bool
	TransformSkipEnabledFlag                 bool
	CuQpDeltaEnabledFlag                     bool
	DiffCuQpDeltaDepth                       uint32
	PpsCbQpOffset                            int32
	PpsCrQpOffset                            int32
	PpsSliceChromaQpOffsetsPresentFlag       bool
	WeightedPredFlag                         bool
	WeightedBipredFlag                       bool
	TransquantBypassEnabledFlag              bool
	TilesEnabledFlag                         bool
	EntropyCodingSyncEnabledFlag             bool
	NumTileColumnsMinus1                     uint32
	NumTileRowsMinus1                        uint32
	UniformSpacingFlag                       bool
	ColumnWidthMinus1                        []uint32
	RowHeightMinus1                          []uint32
	LoopFilterAcrossTilesEnabledFlag         bool
	PpsLoopFilterAcrossSlicesEnabledFlag     bool
	DeblockingFilterControlPresentFlag       bool
	DeblockingFilterOverrideEnabledFlag      bool
	PpsDeblockingFilterDisabledFlag          bool
	PpsBetaOffsetDiv2                        int32
	PpsTcOffsetDiv2                          int32
	PpsScalingListDataPresentFlag            bool
	ListsModificationPresentFlag             bool
	Log2ParallelMergeLevelMinus2             uint32
	SliceSegmentHeaderExtensionPresentFlag   bool
}

// ReadPictureParameterSet parses a PPS from its RBSP.
func ReadPictureParameterSet(rbsp []byte) (PictureParameterSet, error) {
	r := bitstream.NewBitReader(rbsp)
	var pps PictureParameterSet

	id, err := r.ReadUE()
	if err != nil {
		return pps, err
	}
	pps.PpsID = id

	spsID, err := r.ReadUE()
	if err != nil {
		return pps, err
	}
	pps.SpsID = spsID

	dep, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.DependentSliceSegmentsEnabledFlag = dep

	output, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.OutputFlagPresentFlag = output

	extraBits, err := r.ReadU8(3)
	if err != nil {
		return pps, err
	}
	pps.NumExtraSliceHeaderBits = extraBits

	signHiding, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.SignDataHidingEnabledFlag = signHiding

	cabacInit, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.CabacInitPresentFlag = cabacInit

	refL0, err := r.ReadUE()
	if err != nil {
		return pps, err
	}
	pps.NumRefIdxL0DefaultActiveMinus1 = refL0

	refL1, err := r.ReadUE()
	if err != nil {
		return pps, err
	}
	pps.NumRefIdxL1DefaultActiveMinus1 = refL1

	initQp, err := r.ReadSE()
	if err != nil {
		return pps, err
	}
	pps.InitQpMinus26 = initQp

	constrainedIntra, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.ConstrainedIntraPredFlag = constrainedIntra

	transformSkip, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.TransformSkipEnabledFlag = transformSkip

	cuQpDelta, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.CuQpDeltaEnabledFlag = cuQpDelta
	if cuQpDelta {
		depth, err := r.ReadUE()
		if err != nil {
			return pps, err
		}
		pps.DiffCuQpDeltaDepth = depth
	}

	cbOffset, err := r.ReadSE()
	if err != nil {
		return pps, err
	}
	pps.PpsCbQpOffset = cbOffset

	crOffset, err := r.ReadSE()
	if err != nil {
		return pps, err
	}
	pps.PpsCrQpOffset = crOffset

	sliceChromaQp, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.PpsSliceChromaQpOffsetsPresentFlag = sliceChromaQp

	weightedPred, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.WeightedPredFlag = weightedPred

	weightedBipred, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.WeightedBipredFlag = weightedBipred

	transquantBypass, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.TransquantBypassEnabledFlag = transquantBypass

	tilesEnabled, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.TilesEnabledFlag = tilesEnabled

	entropySync, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.EntropyCodingSyncEnabledFlag = entropySync

	if tilesEnabled {
		numCols, err := r.ReadUE()
		if err != nil {
			return pps, err
		}
		pps.NumTileColumnsMinus1 = numCols

		numRows, err := r.ReadUE()
		if err != nil {
			return pps, err
		}
		pps.NumTileRowsMinus1 = numRows

		uniform, err := r.ReadFlag()
		if err != nil {
			return pps, err
		}
		pps.UniformSpacingFlag = uniform
		if !uniform {
			for i := uint32(0); i < numCols; i++ {
				w, err := r.ReadUE()
				if err != nil {
					return pps, err
				}
				pps.ColumnWidthMinus1 = append(pps.ColumnWidthMinus1, w)
			}
			for i := uint32(0); i < numRows; i++ {
				h, err := r.ReadUE()
				if err != nil {
					return pps, err
				}
				pps.RowHeightMinus1 = append(pps.RowHeightMinus1, h)
			}
		}

		loopFilterTiles, err := r.ReadFlag()
		if err != nil {
			return pps, err
		}
		pps.LoopFilterAcrossTilesEnabledFlag = loopFilterTiles
	}

	loopFilterSlices, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.PpsLoopFilterAcrossSlicesEnabledFlag = loopFilterSlices

	deblockingControl, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.DeblockingFilterControlPresentFlag = deblockingControl
	if deblockingControl {
		override, err := r.ReadFlag()
		if err != nil {
			return pps, err
		}
		pps.DeblockingFilterOverrideEnabledFlag = override

		disabled, err := r.ReadFlag()
		if err != nil {
			return pps, err
		}
		pps.PpsDeblockingFilterDisabledFlag = disabled
		if !disabled {
			beta, err := r.ReadSE()
			if err != nil {
				return pps, err
			}
			pps.PpsBetaOffsetDiv2 = beta
			tc, err := r.ReadSE()
			if err != nil {
				return pps, err
			}
			pps.PpsTcOffsetDiv2 = tc
		}
	}

	scalingListPresent, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.PpsScalingListDataPresentFlag = scalingListPresent
	if scalingListPresent {
		if err := skipScalingListData(r); err != nil {
			return pps, err
		}
	}

	listsModification, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.ListsModificationPresentFlag = listsModification

	parallelMerge, err := r.ReadUE()
	if err != nil {
		return pps, err
	}
	pps.Log2ParallelMergeLevelMinus2 = parallelMerge

	extHeader, err := r.ReadFlag()
	if err != nil {
		return pps, err
	}
	pps.SliceSegmentHeaderExtensionPresentFlag = extHeader

	// pps_extension_present_flag and any range/multilayer/3D/SCC extension
	// data that may follow are not needed by this decoder: nothing after
	// this point affects slice header or CABAC initialization for an
	// I-slice HEIC tile, so parsing stops here rather than walking fields
	// this decoder has no use for.
	return pps, nil
}
