package hevc

// NalUnitKind is the nal_unit_type field of an HEVC NAL unit header
// (ITU-T H.265 Table 7-1). Values without a named constant are kept as
// their numeric value rather than rejected.
type NalUnitKind uint8

const (
	NalTrailN    NalUnitKind = 0
	NalTrailR    NalUnitKind = 1
	NalTsaN      NalUnitKind = 2
	NalTsaR      NalUnitKind = 3
	NalStsaN     NalUnitKind = 4
	NalStsaR     NalUnitKind = 5
	NalRadlN     NalUnitKind = 6
	NalRadlR     NalUnitKind = 7
	NalRaslN     NalUnitKind = 8
	NalRaslR     NalUnitKind = 9
	NalBlaWLp    NalUnitKind = 16
	NalBlaWRadl  NalUnitKind = 17
	NalBlaNLp    NalUnitKind = 18
	NalIdrWRadl  NalUnitKind = 19
	NalIdrNLp    NalUnitKind = 20
	NalCraNut    NalUnitKind = 21
	NalVps       NalUnitKind = 32
	NalSps       NalUnitKind = 33
	NalPps       NalUnitKind = 34
	NalAud       NalUnitKind = 35
	NalEos       NalUnitKind = 36
	NalEob       NalUnitKind = 37
	NalFd        NalUnitKind = 38
	NalSeiPrefix NalUnitKind = 39
	NalSeiSuffix NalUnitKind = 40
)

// IsIRAP reports whether kind is an Intra Random Access Point type.
// Reserved(22) and Reserved(23)
// are IRAP per the spec's reserved-IRAP range (RSV_IRAP_VCL22/23).
func (k NalUnitKind) IsIRAP() bool {
	switch k {
	case NalBlaWLp, NalBlaWRadl, NalBlaNLp, NalIdrWRadl, NalIdrNLp, NalCraNut, 22, 23:
		return true
	default:
		return false
	}
}

// IsVCL reports whether kind carries coded slice data (nal_unit_type <= 31).
func (k NalUnitKind) IsVCL() bool { return k <= 31 }

// NalUnitHeader is the 2-byte HEVC NAL unit header.
type NalUnitHeader struct {
	ForbiddenZeroBit   bool
	Type               NalUnitKind
	LayerID            uint8
	TemporalIDPlus1    uint8
}

// ParseNalUnitHeader decodes the 2-byte header at the start of a NAL unit.
func ParseNalUnitHeader(b0, b1 byte) NalUnitHeader {
	word := uint16(b0)<<8 | uint16(b1)
	return NalUnitHeader{
		ForbiddenZeroBit: word&0x8000 != 0,
		Type:             NalUnitKind((word >> 9) & 0x3F),
		LayerID:          uint8((word >> 3) & 0x3F),
		TemporalIDPlus1:  uint8(word & 0x07),
	}
}
