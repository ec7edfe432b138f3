package hevc

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/go-heic/heic/bitstream"
	"github.com/go-heic/heic/heicerr"
)

// DecoderConfigurationRecord is the parsed HEVCDecoderConfigurationRecord
// carried in an isobmff hvcC item property, per ISO/IEC 14496-15 §8.3.3.
type DecoderConfigurationRecord struct {
	ConfigurationVersion        uint8
	GeneralProfileSpace         uint8
	GeneralTierFlag             bool
	GeneralProfileIdc           uint8
	GeneralProfileCompatibility uint32
	GeneralConstraintIndicator  uint64 // low 48 bits
	GeneralLevelIdc             uint8
	MinSpatialSegmentationIdc   uint16
	ParallelismType             uint8
	ChromaFormat                ChromaFormat
	BitDepthLumaMinus8          uint8
	BitDepthChromaMinus8        uint8
	AvgFrameRate                uint16
	ConstantFrameRate           uint8
	NumTemporalLayers           uint8
	TemporalIDNested            bool
	LengthSizeMinusOne          uint8
	Arrays                      []NalUnitArray
}

// NalUnitArray is one of hvcC's arrays of NAL units, grouped by NAL unit
// type (VPS, SPS, PPS, or SEI).
type NalUnitArray struct {
	ArrayCompleteness bool
	NalUnitType       NalUnitKind
	Nalus             [][]byte
}

// ParseDecoderConfigurationRecord parses the HEVCDecoderConfigurationRecord
// payload of an hvcC item property: the fixed-length header followed by its
// NAL unit arrays.
func ParseDecoderConfigurationRecord(data []byte) (DecoderConfigurationRecord, error) {
	var rec DecoderConfigurationRecord
	c := bitstream.NewCursor(data)

	version, err := c.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.ConfigurationVersion = version

	b, err := c.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.GeneralProfileSpace = b >> 6
	rec.GeneralTierFlag = (b>>5)&1 == 1
	rec.GeneralProfileIdc = b & 0x1f

	compat, err := c.ReadU32()
	if err != nil {
		return rec, err
	}
	rec.GeneralProfileCompatibility = compat

	constraintHi, err := c.ReadU32()
	if err != nil {
		return rec, err
	}
	constraintLo, err := c.ReadU16()
	if err != nil {
		return rec, err
	}
	rec.GeneralConstraintIndicator = uint64(constraintHi)<<16 | uint64(constraintLo)

	level, err := c.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.GeneralLevelIdc = level

	minSeg, err := c.ReadU16()
	if err != nil {
		return rec, err
	}
	rec.MinSpatialSegmentationIdc = minSeg & 0x0fff

	parallelism, err := c.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.ParallelismType = parallelism & 0x03

	chroma, err := c.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.ChromaFormat = ChromaFormat(chroma & 0x03)

	bdLuma, err := c.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.BitDepthLumaMinus8 = bdLuma & 0x07

	bdChroma, err := c.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.BitDepthChromaMinus8 = bdChroma & 0x07

	avgFrameRate, err := c.ReadU16()
	if err != nil {
		return rec, err
	}
	rec.AvgFrameRate = avgFrameRate

	b, err = c.ReadU8()
	if err != nil {
		return rec, err
	}
	rec.ConstantFrameRate = b >> 6
	rec.NumTemporalLayers = (b >> 3) & 0x07
	rec.TemporalIDNested = (b>>2)&1 == 1
	rec.LengthSizeMinusOne = b & 0x03

	numArrays, err := c.ReadU8()
	if err != nil {
		return rec, err
	}

	for i := uint8(0); i < numArrays; i++ {
		arrayByte, err := c.ReadU8()
		if err != nil {
			return rec, err
		}
		arr := NalUnitArray{
			ArrayCompleteness: arrayByte>>7 == 1,
			NalUnitType:       NalUnitKind(arrayByte & 0x3f),
		}

		numNalus, err := c.ReadU16()
		if err != nil {
			return rec, err
		}
		for j := uint16(0); j < numNalus; j++ {
			length, err := c.ReadU16()
			if err != nil {
				return rec, err
			}
			nalu, err := c.ReadSlice(int(length))
			if err != nil {
				return rec, err
			}
			arr.Nalus = append(arr.Nalus, nalu)
		}
		rec.Arrays = append(rec.Arrays, arr)
	}

	return rec, nil
}

// NalusOfType returns the raw NAL units of the given kind from all arrays,
// one slice element per NAL unit, in array order.
func (rec DecoderConfigurationRecord) NalusOfType(kind NalUnitKind) [][]byte {
	var out [][]byte
	for _, arr := range rec.Arrays {
		if arr.NalUnitType == kind {
			out = append(out, arr.Nalus...)
		}
	}
	return out
}

// CodecString renders the RFC 6381 "hvc1.*"-style codec parameter string,
// e.g. "hvc1.1.6.L93.B0", using the same bit-reversal encoding of the
// 32-bit compatibility flags that the corpus's AVC/HEVC codec string
// builders use for their own constraint-flag fields.
func (rec DecoderConfigurationRecord) CodecString() (string, error) {
	if rec.ConfigurationVersion != 1 {
		return "", fmt.Errorf("%w: unsupported hvcC configurationVersion %d", heicerr.ErrUnsupported, rec.ConfigurationVersion)
	}

	var profileSpace string
	switch rec.GeneralProfileSpace {
	case 1:
		profileSpace = "A"
	case 2:
		profileSpace = "B"
	case 3:
		profileSpace = "C"
	}

	tier := "L"
	if rec.GeneralTierFlag {
		tier = "H"
	}

	compatReversed := bits.Reverse32(rec.GeneralProfileCompatibility)

	var constraintBytes [6]byte
	constraintBytes[0] = byte(rec.GeneralConstraintIndicator >> 40)
	constraintBytes[1] = byte(rec.GeneralConstraintIndicator >> 32)
	constraintBytes[2] = byte(rec.GeneralConstraintIndicator >> 24)
	constraintBytes[3] = byte(rec.GeneralConstraintIndicator >> 16)
	constraintBytes[4] = byte(rec.GeneralConstraintIndicator >> 8)
	constraintBytes[5] = byte(rec.GeneralConstraintIndicator)

	var sb strings.Builder
	sb.WriteString("hvc1.")
	sb.WriteString(profileSpace)
	fmt.Fprintf(&sb, "%d.%x.%s%d", rec.GeneralProfileIdc, compatReversed, tier, rec.GeneralLevelIdc)
	for i := 0; i < len(constraintBytes); i++ {
		if !constraintBytesNonZeroFrom(constraintBytes, i) {
			break
		}
		fmt.Fprintf(&sb, ".%02X", constraintBytes[i])
	}

	return sb.String(), nil
}

func constraintBytesNonZeroFrom(b [6]byte, from int) bool {
	for i := from; i < len(b); i++ {
		if b[i] != 0 {
			return true
		}
	}
	return false
}
