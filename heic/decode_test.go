package heic

import (
	"context"
	"encoding/binary"
	"math/bits"
	"testing"
)

// bitWriter builds MSB-first bit sequences for hand-built HEVC parameter-set
// and slice-header fixtures, mirroring the equivalent helper in the hevc
// package's own tests.
type bitWriter struct {
	bits []byte
}

func (w *bitWriter) u(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bits = append(w.bits, byte((v>>uint(i))&1))
	}
}

func (w *bitWriter) flag(b bool) {
	if b {
		w.u(1, 1)
	} else {
		w.u(0, 1)
	}
}

func (w *bitWriter) ue(v uint32) {
	x := v + 1
	nbits := bits.Len32(x)
	for i := 0; i < nbits-1; i++ {
		w.u(0, 1)
	}
	w.u(uint64(x), nbits)
}

func (w *bitWriter) se(v int32) {
	var code uint32
	if v > 0 {
		code = uint32(2*v - 1)
	} else {
		code = uint32(-2 * v)
	}
	w.ue(code)
}

func (w *bitWriter) bytes() []byte {
	out := make([]byte, (len(w.bits)+7)/8)
	for i, b := range w.bits {
		if b == 1 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func writeMinimalPTL(w *bitWriter, profileIdc, levelIdc uint8) {
	w.u(0, 2)
	w.flag(false)
	w.u(uint64(profileIdc), 5)
	w.u(0, 32)
	w.u(0, 48)
	w.u(uint64(levelIdc), 8)
}

func buildMinimalVPSRBSP() []byte {
	w := &bitWriter{}
	w.u(0, 4)
	w.flag(true)
	w.flag(true)
	w.u(0, 6)
	w.u(0, 3)
	w.flag(false)
	w.u(0xFFFF, 16)
	writeMinimalPTL(w, 1, 93)
	return w.bytes()
}

func buildMinimalSPSRBSP() []byte {
	w := &bitWriter{}
	w.u(0, 4)
	w.u(0, 3)
	w.flag(true)
	writeMinimalPTL(w, 1, 93)
	w.ue(0)
	w.ue(1) // chroma_format_idc = 4:2:0
	w.ue(8) // pic_width_in_luma_samples
	w.ue(8) // pic_height_in_luma_samples
	w.flag(false)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.flag(true)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.ue(0)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	return w.bytes()
}

func buildMinimalPPSRBSP() []byte {
	w := &bitWriter{}
	w.ue(0)
	w.ue(0)
	w.flag(false)
	w.flag(false)
	w.u(0, 3)
	w.flag(false)
	w.flag(false)
	w.ue(0)
	w.ue(0)
	w.se(2) // init_qp_minus26
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.se(0)
	w.se(0)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.ue(0)
	w.flag(false)
	w.flag(false)
	return w.bytes()
}

func nalUnit(nalType uint16, rbsp []byte) []byte {
	word := nalType<<9 | 1 // layer_id=0, temporal_id_plus1=1
	out := make([]byte, 2+len(rbsp))
	out[0] = byte(word >> 8)
	out[1] = byte(word)
	copy(out[2:], rbsp)
	return out
}

func buildMinimalHvcC() []byte {
	var out []byte
	out = append(out, 1) // configurationVersion
	out = append(out, 0x01)
	out = append(out, 0, 0, 0, 0) // general_profile_compatibility_flags
	out = append(out, 0, 0, 0, 0, 0, 0) // general_constraint_indicator_flags
	out = append(out, 93) // general_level_idc
	out = append(out, 0, 0) // min_spatial_segmentation_idc
	out = append(out, 0)   // parallelismType
	out = append(out, 1)   // chromaFormat = 4:2:0
	out = append(out, 0)   // bitDepthLumaMinus8
	out = append(out, 0)   // bitDepthChromaMinus8
	out = append(out, 0, 0) // avgFrameRate
	out = append(out, 0x0B) // constantFrameRate=0, numTemporalLayers=1, nested=0, lengthSizeMinusOne=3

	addArray := func(nalType byte, nalu []byte) {
		out = append(out, nalType&0x3F) // array_completeness=0, reserved=0
		out = binary.BigEndian.AppendUint16(out, 1)
		out = binary.BigEndian.AppendUint16(out, uint16(len(nalu)))
		out = append(out, nalu...)
	}

	out = append(out, 3) // numOfArrays
	addArray(32, nalUnit(32, buildMinimalVPSRBSP()))
	addArray(33, nalUnit(33, buildMinimalSPSRBSP()))
	addArray(34, nalUnit(34, buildMinimalPPSRBSP()))
	return out
}

// buildMinimalSliceNalu builds a length-prefixed I-slice NAL unit (the item
// data format SPEC_FULL.md §6 specifies), with enough trailing bytes past
// the byte-aligned header for a CABAC engine to initialize without
// truncating.
func buildMinimalSliceNalu() []byte {
	w := &bitWriter{}
	w.flag(true)  // first_slice_segment_in_pic_flag
	w.flag(false) // no_output_of_prior_pics_flag
	w.ue(0)       // slice_pic_parameter_set_id
	w.ue(2)       // slice_type = I
	w.se(-2)      // slice_qp_delta
	w.flag(true)  // byte_alignment(): alignment_bit_equal_to_one
	rbsp := w.bytes()
	rbsp = append(rbsp, 0x00, 0x00) // slice_segment_data: a safe initial ivl_offset

	nalu := nalUnit(19, rbsp) // IDR_W_RADL

	out := make([]byte, 4+len(nalu))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(nalu)))
	copy(out[4:], nalu)
	return out
}

func box(kind string, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(out[0:4], uint32(8+len(payload)))
	copy(out[4:8], kind)
	copy(out[8:], payload)
	return out
}

func fullBoxPayload(version uint8, flags uint32, rest []byte) []byte {
	word := uint32(version)<<24 | flags&0x00FFFFFF
	out := make([]byte, 4+len(rest))
	binary.BigEndian.PutUint32(out[0:4], word)
	copy(out[4:], rest)
	return out
}

func u16(v uint16) []byte { b := make([]byte, 2); binary.BigEndian.PutUint16(b, v); return b }
func u32(v uint32) []byte { b := make([]byte, 4); binary.BigEndian.PutUint32(b, v); return b }

// buildSingleTileHeic constructs a well-formed single-item (non-grid) HEIC
// buffer whose one hvc1 item carries a minimal VPS/SPS/PPS configuration and
// a minimal I-slice NAL as its item data, stored in a trailing mdat box.
func buildSingleTileHeic(t *testing.T) []byte {
	t.Helper()

	ftyp := box("ftyp", append(append([]byte("heic"), u32(0)...), []byte("heicmif1")...))

	hdlrPayload := fullBoxPayload(0, 0, append(append(u32(0), []byte("pict")...), make([]byte, 12)...))
	hdlr := box("hdlr", hdlrPayload)

	pitm := box("pitm", fullBoxPayload(0, 0, u16(1)))

	infePayload := fullBoxPayload(2, 0, append(append(u16(1), u16(0)...), append([]byte("hvc1"), 0)...))
	infe := box("infe", infePayload)
	iinf := box("iinf", fullBoxPayload(0, 0, append(u16(1), infe...)))

	hvcC := box("hvcC", buildMinimalHvcC())
	ipco := box("ipco", hvcC)
	ipmaPayload := fullBoxPayload(0, 0, append(u32(1), append(u16(1), byte(1), byte(1))...))
	ipma := box("ipma", ipmaPayload)
	iprp := box("iprp", append(append([]byte{}, ipco...), ipma...))

	itemData := buildMinimalSliceNalu()

	buildIloc := func(extentOffset uint32) []byte {
		p := fullBoxPayload(0, 0, nil)
		p = append(p, 0x44, 0x00)
		p = append(p, u16(1)...)
		p = append(p, u16(1)...)
		p = append(p, u16(0)...)
		p = append(p, u16(1)...)
		p = append(p, u32(extentOffset)...)
		p = append(p, u32(uint32(len(itemData)))...)
		return box("iloc", p)
	}

	buildMeta := func(iloc []byte) []byte {
		p := fullBoxPayload(0, 0, nil)
		p = append(p, hdlr...)
		p = append(p, pitm...)
		p = append(p, iinf...)
		p = append(p, iloc...)
		p = append(p, iprp...)
		return box("meta", p)
	}

	// The item's bytes start after ftyp, meta and the 8-byte mdat header.
	prefixLen := len(ftyp) + len(buildMeta(buildIloc(0))) + 8
	data := append(append([]byte{}, ftyp...), buildMeta(buildIloc(uint32(prefixLen)))...)
	data = append(data, box("mdat", itemData)...)
	return data
}

func TestDecodeSingleTile(t *testing.T) {
	t.Parallel()
	data := buildSingleTileHeic(t)

	pic, err := Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(pic.Tiles) != 1 {
		t.Fatalf("len(Tiles) = %d, want 1", len(pic.Tiles))
	}
	tile := pic.Tiles[0]
	if tile.SPS.PicWidthInLumaSamples != 8 || tile.SPS.PicHeightInLumaSamples != 8 {
		t.Errorf("tile dimensions = %dx%d, want 8x8", tile.SPS.PicWidthInLumaSamples, tile.SPS.PicHeightInLumaSamples)
	}
	// slice_qp = 26 + init_qp_minus26(2) + slice_qp_delta(-2) = 26.
	if tile.SliceQP != 26 {
		t.Errorf("SliceQP = %d, want 26", tile.SliceQP)
	}
	if tile.Decoder == nil {
		t.Error("Decoder is nil, want an initialized CABAC decoder")
	}
	if codec, err := tile.Config.CodecString(); err != nil || codec == "" {
		t.Errorf("CodecString() = %q, %v", codec, err)
	}
}

func TestDecodeRejectsNonHvc1NonGridPrimary(t *testing.T) {
	t.Parallel()
	ftyp := box("ftyp", append(append([]byte("heic"), u32(0)...), []byte("mif1")...))

	hdlrPayload := fullBoxPayload(0, 0, append(append(u32(0), []byte("pict")...), make([]byte, 12)...))
	hdlr := box("hdlr", hdlrPayload)
	pitm := box("pitm", fullBoxPayload(0, 0, u16(1)))
	infePayload := fullBoxPayload(2, 0, append(append(u16(1), u16(0)...), append([]byte("Exif"), 0)...))
	infe := box("infe", infePayload)
	iinf := box("iinf", fullBoxPayload(0, 0, append(u16(1), infe...)))
	ilocPayload := fullBoxPayload(0, 0, nil)
	ilocPayload = append(ilocPayload, 0x44, 0x00)
	ilocPayload = append(ilocPayload, u16(1)...)
	ilocPayload = append(ilocPayload, u16(1)...)
	ilocPayload = append(ilocPayload, u16(0)...)
	ilocPayload = append(ilocPayload, u16(1)...)
	ilocPayload = append(ilocPayload, u32(0)...)
	ilocPayload = append(ilocPayload, u32(4)...)
	iloc := box("iloc", ilocPayload)

	metaPayload := fullBoxPayload(0, 0, nil)
	metaPayload = append(metaPayload, hdlr...)
	metaPayload = append(metaPayload, pitm...)
	metaPayload = append(metaPayload, iinf...)
	metaPayload = append(metaPayload, iloc...)
	meta := box("meta", metaPayload)

	data := append(append([]byte{}, ftyp...), meta...)
	data = append(data, box("mdat", []byte{1, 2, 3, 4})...)

	if _, err := Decode(context.Background(), data); err == nil {
		t.Fatal("expected error for a non-hvc1/grid primary item")
	}
}
