package hevc

import (
	"strings"
	"testing"
)

func buildMinimalHvcC() []byte {
	var b []byte
	b = append(b, 1)                // configurationVersion
	b = append(b, 0b00_0_00001)     // profile_space(2)=0, tier(1)=0, profile_idc(5)=1
	b = append(b, 0, 0, 0, 0x60)    // general_profile_compatibility_flags
	b = append(b, 0, 0, 0, 0)       // constraint indicator hi 32 bits
	b = append(b, 0, 0)             // constraint indicator lo 16 bits
	b = append(b, 93)               // general_level_idc
	b = append(b, 0xF0, 0x00)       // min_spatial_segmentation_idc (reserved bits set)
	b = append(b, 0xFC)             // parallelismType, reserved bits set
	b = append(b, 0xFC|0x01)        // chroma_format_idc = 1, reserved bits set
	b = append(b, 0xF8)             // bit_depth_luma_minus8 = 0
	b = append(b, 0xF8)             // bit_depth_chroma_minus8 = 0
	b = append(b, 0, 0)             // avg_frame_rate
	b = append(b, 0b00_000_0_11)    // constant_frame_rate(2)=0, num_temporal_layers(3)=0, nested(1)=0, length_size_minus_one(2)=3
	b = append(b, 0)                // numOfArrays
	return b
}

func TestParseDecoderConfigurationRecordMinimal(t *testing.T) {
	t.Parallel()
	rec, err := ParseDecoderConfigurationRecord(buildMinimalHvcC())
	if err != nil {
		t.Fatalf("ParseDecoderConfigurationRecord() error = %v", err)
	}
	if rec.ConfigurationVersion != 1 {
		t.Errorf("ConfigurationVersion = %d, want 1", rec.ConfigurationVersion)
	}
	if rec.GeneralProfileIdc != 1 {
		t.Errorf("GeneralProfileIdc = %d, want 1", rec.GeneralProfileIdc)
	}
	if rec.GeneralLevelIdc != 93 {
		t.Errorf("GeneralLevelIdc = %d, want 93", rec.GeneralLevelIdc)
	}
	if rec.ChromaFormat != Chroma420 {
		t.Errorf("ChromaFormat = %v, want Chroma420", rec.ChromaFormat)
	}
	if rec.LengthSizeMinusOne != 3 {
		t.Errorf("LengthSizeMinusOne = %d, want 3", rec.LengthSizeMinusOne)
	}
	if len(rec.Arrays) != 0 {
		t.Errorf("len(Arrays) = %d, want 0", len(rec.Arrays))
	}
}

func TestParseDecoderConfigurationRecordWithArrays(t *testing.T) {
	t.Parallel()
	b := buildMinimalHvcC()
	b[len(b)-1] = 1 // numOfArrays = 1
	b = append(b, 0x80|byte(NalSps)) // array_completeness=1, nal_unit_type=SPS
	b = append(b, 0, 1)              // numNalus = 1
	spsPayload := []byte{0xAA, 0xBB, 0xCC}
	b = append(b, 0, byte(len(spsPayload)))
	b = append(b, spsPayload...)

	rec, err := ParseDecoderConfigurationRecord(b)
	if err != nil {
		t.Fatalf("ParseDecoderConfigurationRecord() error = %v", err)
	}
	if len(rec.Arrays) != 1 {
		t.Fatalf("len(Arrays) = %d, want 1", len(rec.Arrays))
	}
	spsNalus := rec.NalusOfType(NalSps)
	if len(spsNalus) != 1 {
		t.Fatalf("len(NalusOfType(NalSps)) = %d, want 1", len(spsNalus))
	}
	if string(spsNalus[0]) != string(spsPayload) {
		t.Errorf("sps nalu = %v, want %v", spsNalus[0], spsPayload)
	}
}

func TestCodecString(t *testing.T) {
	t.Parallel()
	rec := DecoderConfigurationRecord{
		ConfigurationVersion:        1,
		GeneralProfileSpace:         0,
		GeneralTierFlag:             false,
		GeneralProfileIdc:           1,
		GeneralProfileCompatibility: 0x60000000,
		GeneralLevelIdc:             93,
	}
	got, err := rec.CodecString()
	if err != nil {
		t.Fatalf("CodecString() error = %v", err)
	}
	if !strings.HasPrefix(got, "hvc1.1.") {
		t.Errorf("CodecString() = %q, want prefix %q", got, "hvc1.1.")
	}
	if !strings.Contains(got, ".L93") {
		t.Errorf("CodecString() = %q, want tier/level %q", got, "L93")
	}
}

func TestCodecStringRejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()
	rec := DecoderConfigurationRecord{ConfigurationVersion: 2}
	if _, err := rec.CodecString(); err == nil {
		t.Fatal("expected error for unsupported configurationVersion")
	}
}
