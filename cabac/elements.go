package cabac

// Context table indices per H.265 Table 9-4, restricted to the syntax
// elements an I-slice CTU actually walks (the tables for inter-prediction
// elements like merge_flag or ref_idx_l0 are never consulted by an I-slice
// decode and are omitted).
const (
	CtxSaoMerge               = 5  // Table 9-5
	CtxSaoTypeIdx             = 6  // Table 9-6
	CtxSplitCuFlag            = 7  // Table 9-7
	CtxCuTransquantBypassFlag = 8  // Table 9-8
	CtxPartMode               = 11 // Table 9-11
	CtxPrevIntraLumaPredFlag  = 12 // Table 9-12
	CtxIntraChromaPredMode    = 13 // Table 9-13
	CtxSplitTransformFlag     = 20 // Table 9-20
	CtxCbfLuma                = 21 // Table 9-21
	CtxCbfChroma              = 22 // Table 9-22
	CtxCuQpDeltaAbs           = 24 // Table 9-24
	CtxTransformSkipFlag      = 25 // Table 9-25
	CtxLastSigCoeffXPrefix    = 26 // Table 9-26
	CtxLastSigCoeffYPrefix    = 27 // Table 9-27
	CtxCodedSubBlockFlag      = 28 // Table 9-28
	CtxSigCoeffFlag           = 29 // Table 9-29
	CtxCoeffAbsLevelGreater1  = 30 // Table 9-30
	CtxCoeffAbsLevelGreater2  = 31 // Table 9-31
)

type syntaxElementInit struct {
	ctxTable         int
	initValuesISlice []uint8
}

// iSliceSyntaxElements lists, for every context-coded I-slice syntax
// element, its context table and the initType-0 (I-slice) init values of
// H.265 Tables 9-5 through 9-31. Engine.InitContexts walks this list once
// per slice.
var iSliceSyntaxElements = []syntaxElementInit{
	{CtxSaoMerge, []uint8{153}},
	{CtxSaoTypeIdx, []uint8{200}},
	{CtxSplitCuFlag, []uint8{139, 141, 157}},
	{CtxCuTransquantBypassFlag, []uint8{154}},
	{CtxPartMode, []uint8{184}},
	{CtxPrevIntraLumaPredFlag, []uint8{184}},
	{CtxIntraChromaPredMode, []uint8{63}},
	{CtxSplitTransformFlag, []uint8{153, 138, 138}},
	{CtxCbfLuma, []uint8{111, 141}},
	{CtxCbfChroma, []uint8{94, 138, 182, 149}},
	{CtxCuQpDeltaAbs, []uint8{154, 154}},
	{CtxTransformSkipFlag, []uint8{139}},
	{CtxLastSigCoeffXPrefix, []uint8{
		110, 110, 124, 125, 140, 153, 125, 127, 140, 109, 111, 143, 127, 111, 79, 108, 123, 63,
	}},
	{CtxLastSigCoeffYPrefix, []uint8{
		110, 110, 124, 125, 140, 153, 125, 127, 140, 109, 111, 143, 127, 111, 79, 108, 123, 63,
	}},
	{CtxCodedSubBlockFlag, []uint8{91, 171, 134, 141}},
	{CtxSigCoeffFlag, []uint8{
		111, 111, 125, 110, 110, 94, 124, 108, 124, 107, 125, 141, 179, 153, 125, 107, 125,
		141, 179, 153, 125, 107, 125, 141, 179, 153, 125, 140, 139, 182, 182, 152, 136,
		152, 136, 153, 136, 139, 111, 136, 139, 111,
		111, 111,
	}},
	{CtxCoeffAbsLevelGreater1, []uint8{
		140, 92, 137, 138, 140, 152, 138, 139, 153, 74, 149, 92, 139, 107, 122, 152, 140,
		179, 166, 182, 140, 227, 122, 197,
	}},
	{CtxCoeffAbsLevelGreater2, []uint8{138, 153, 136, 167, 152, 152}},
}
