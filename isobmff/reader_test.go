package isobmff

import (
	"encoding/binary"
	"testing"
)

// box builds a raw box: 4-byte size, 4-byte kind, payload.
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

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// buildMinimalHeic constructs a minimal, well-formed single-item HEIC-shaped
// buffer: ftyp + meta{hdlr,pitm,iinf{infe},iloc} + mdat.
func buildMinimalHeic(t *testing.T) []byte {
	t.Helper()

	ftyp := box("ftyp", append(append([]byte("heic"), u32(0)...), []byte("heicmif1")...))

	hdlrPayload := fullBoxPayload(0, 0, append(append(u32(0), []byte("pict")...), make([]byte, 12)...))
	hdlr := box("hdlr", hdlrPayload)

	pitm := box("pitm", fullBoxPayload(0, 0, u16(1)))

	infePayload := fullBoxPayload(2, 0, append(append(u16(1), u16(0)...), append([]byte("hvc1"), 0)...))
	infe := box("infe", infePayload)
	iinf := box("iinf", fullBoxPayload(0, 0, append(u16(1), infe...)))

	buildIloc := func(extentOffset uint32) []byte {
		p := fullBoxPayload(0, 0, nil)
		p = append(p, 0x44, 0x00) // offset_size=4 length_size=4; base_offset_size=0 index_size=0
		p = append(p, u16(1)...)  // item_count
		p = append(p, u16(1)...)  // item_id
		p = append(p, u16(0)...)  // data_reference_index
		p = append(p, u16(1)...)  // extent_count
		p = append(p, u32(extentOffset)...)
		p = append(p, u32(4)...) // extent_length
		return box("iloc", p)
	}

	buildMeta := func(iloc []byte) []byte {
		p := fullBoxPayload(0, 0, nil)
		p = append(p, hdlr...)
		p = append(p, pitm...)
		p = append(p, iinf...)
		p = append(p, iloc...)
		return box("meta", p)
	}

	// iloc's encoded size does not depend on the offset value, so a
	// placeholder pass determines the prefix length (ftyp, meta and the
	// 8-byte mdat header) that precedes the item's actual bytes.
	prefixLen := len(ftyp) + len(buildMeta(buildIloc(0))) + 8
	data := append(append([]byte{}, ftyp...), buildMeta(buildIloc(uint32(prefixLen)))...)
	data = append(data, box("mdat", []byte{0xDE, 0xAD, 0xBE, 0xEF})...) // the item's 4 bytes of "payload"
	return data
}

func TestParseMinimalHeic(t *testing.T) {
	t.Parallel()
	data := buildMinimalHeic(t)

	heif, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if heif.FileType.MajorBrand != "heic" {
		t.Errorf("MajorBrand = %q, want heic", heif.FileType.MajorBrand)
	}
	if heif.PrimaryItemID() != 1 {
		t.Errorf("PrimaryItemID() = %d, want 1", heif.PrimaryItemID())
	}
	entry, ok := heif.ItemInfoByID(1)
	if !ok {
		t.Fatalf("ItemInfoByID(1) not found")
	}
	if entry.ItemType != ItemTypeHVC1 {
		t.Errorf("ItemType = %v, want hvc1", entry.ItemType)
	}

	got, err := heif.ItemData(data, 1)
	if err != nil {
		t.Fatalf("ItemData() error = %v", err)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if len(got) != len(want) {
		t.Fatalf("ItemData() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ItemData()[%d] = %02x, want %02x", i, got[i], want[i])
		}
	}
}

func TestParseMissingMetaIsMalformed(t *testing.T) {
	t.Parallel()
	ftyp := box("ftyp", append(append([]byte("heic"), u32(0)...), []byte("mif1")...))
	if _, err := Parse(ftyp); err == nil {
		t.Fatalf("expected error for missing meta box")
	}
}

func TestParseTruncatedBoxHeader(t *testing.T) {
	t.Parallel()
	if _, err := Parse([]byte{0, 0, 0}); err == nil {
		t.Fatalf("expected truncation error")
	}
}
