package hevc

// ColorPrimaries is the VUI colour_primaries code (ITU-T H.273 Table 2).
// Unrecognized values are preserved as OtherColorPrimaries rather than
// rejected, since the grammar only constrains the field to a byte.
type ColorPrimaries struct {
	Code  uint8
	Known bool
}

const (
	ColorPrimariesBT709       = 1
	ColorPrimariesUnspecified = 2
	ColorPrimariesBT470M      = 4
	ColorPrimariesBT470BG     = 5
	ColorPrimariesBT601       = 6
	ColorPrimariesSMPTE240M   = 7
	ColorPrimariesFilm        = 8
	ColorPrimariesBT2020      = 9
	ColorPrimariesSMPTE428    = 10
	ColorPrimariesP3DCI       = 11
	ColorPrimariesP3D65       = 12
)

func newColorPrimaries(code uint8) ColorPrimaries {
	switch code {
	case ColorPrimariesBT709, ColorPrimariesUnspecified, ColorPrimariesBT470M,
		ColorPrimariesBT470BG, ColorPrimariesBT601, ColorPrimariesSMPTE240M,
		ColorPrimariesFilm, ColorPrimariesBT2020, ColorPrimariesSMPTE428,
		ColorPrimariesP3DCI, ColorPrimariesP3D65:
		return ColorPrimaries{Code: code, Known: true}
	default:
		return ColorPrimaries{Code: code}
	}
}

// TransferCharacteristics is the VUI transfer_characteristics code
// (ITU-T H.273 Table 3).
type TransferCharacteristics struct {
	Code  uint8
	Known bool
}

const (
	TransferBT709        = 1
	TransferUnspecified  = 2
	TransferGamma22      = 4
	TransferGamma28      = 5
	TransferBT601        = 6
	TransferSMPTE240M    = 7
	TransferLinear       = 8
	TransferLog100       = 9
	TransferLog316       = 10
	TransferIEC61966     = 11
	TransferBT1361       = 12
	TransferSRGB         = 13
	TransferBT2020Ten    = 14
	TransferBT2020Twelve = 15
	TransferSMPTE2084    = 16
	TransferSTD428       = 17
	TransferHLG          = 18
)

func newTransferCharacteristics(code uint8) TransferCharacteristics {
	switch code {
	case TransferBT709, TransferUnspecified, TransferGamma22, TransferGamma28,
		TransferBT601, TransferSMPTE240M, TransferLinear, TransferLog100,
		TransferLog316, TransferIEC61966, TransferBT1361, TransferSRGB,
		TransferBT2020Ten, TransferBT2020Twelve, TransferSMPTE2084,
		TransferSTD428, TransferHLG:
		return TransferCharacteristics{Code: code, Known: true}
	default:
		return TransferCharacteristics{Code: code}
	}
}

// MatrixCoefficients is the VUI matrix_coeffs code (ITU-T H.273 Table 4).
type MatrixCoefficients struct {
	Code  uint8
	Known bool
}

const (
	MatrixIdentity       = 0
	MatrixBT709          = 1
	MatrixUnspecified    = 2
	MatrixFCC            = 4
	MatrixBT470BG        = 5
	MatrixBT601          = 6
	MatrixSMPTE240M      = 7
	MatrixYCgCo          = 8
	MatrixBT2020NonConst = 9
	MatrixBT2020Const    = 10
)

func newMatrixCoefficients(code uint8) MatrixCoefficients {
	switch code {
	case MatrixIdentity, MatrixBT709, MatrixUnspecified, MatrixFCC, MatrixBT470BG,
		MatrixBT601, MatrixSMPTE240M, MatrixYCgCo, MatrixBT2020NonConst, MatrixBT2020Const:
		return MatrixCoefficients{Code: code, Known: true}
	default:
		return MatrixCoefficients{Code: code}
	}
}

// ChromaFormat is the SPS chroma_format_idc value.
type ChromaFormat uint8

const (
	ChromaMonochrome ChromaFormat = 0
	Chroma420        ChromaFormat = 1
	Chroma422        ChromaFormat = 2
	Chroma444        ChromaFormat = 3
)

// VUIColorDescription is the optional colour_description block of the video
// signal type section of vui_parameters().
type VUIColorDescription struct {
	Present                 bool
	ColorPrimaries          ColorPrimaries
	TransferCharacteristics TransferCharacteristics
	MatrixCoefficients      MatrixCoefficients
}
