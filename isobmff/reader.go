package isobmff

import (
	"fmt"
	"log/slog"

	"github.com/go-heic/heic/heicerr"
)

// Parse reads a complete HEIC container from data and returns the typed
// Heif tree. data must remain valid for the lifetime of the returned tree;
// string and byte fields may alias it.
func Parse(data []byte) (*Heif, error) {
	r := newReader(data)

	var heif Heif
	sawFtyp := false
	sawMeta := false

	for r.c.Remaining() > 0 {
		hdr, payloadStart, err := r.readBoxHeader()
		if err != nil {
			return nil, err
		}
		end := hdr.boxEnd(len(data))
		if end > len(data) || end < payloadStart {
			return nil, r.parseErr(hdr.kind, fmt.Errorf("%w: box extends past buffer", heicerr.ErrMalformed))
		}

		r.push(hdr.kind)
		switch hdr.kind {
		case "ftyp":
			heif.FileType, err = r.readFileTypeBox(end)
			sawFtyp = true
		case "meta":
			heif.Meta, err = r.readMetaBox(end)
			sawMeta = true
		default:
			slog.Debug("isobmff: skipping unrecognized top-level box", "kind", hdr.kind, "stack", r.stackString())
			err = r.skipToEnd(end)
		}
		r.pop()
		if err != nil {
			return nil, err
		}
		if err := r.expectEnd(hdr.kind, end); err != nil {
			return nil, err
		}
	}

	if !sawFtyp {
		return nil, &heicerr.ParseError{Context: "root", Field: "ftyp", Err: fmt.Errorf("%w: missing required file type box", heicerr.ErrMalformed)}
	}
	if !sawMeta {
		return nil, &heicerr.ParseError{Context: "root", Field: "meta", Err: fmt.Errorf("%w: missing required meta box", heicerr.ErrMalformed)}
	}

	if err := validateHeif(&heif); err != nil {
		return nil, err
	}
	return &heif, nil
}

func (r *reader) readFileTypeBox(end int) (FileTypeBox, error) {
	major, err := r.c.ReadSlice(4)
	if err != nil {
		return FileTypeBox{}, r.parseErr("major_brand", err)
	}
	minor, err := r.c.ReadU32()
	if err != nil {
		return FileTypeBox{}, r.parseErr("minor_version", err)
	}
	var compat []string
	for r.c.Pos()+4 <= end {
		b, err := r.c.ReadSlice(4)
		if err != nil {
			return FileTypeBox{}, r.parseErr("compatible_brands", err)
		}
		compat = append(compat, string(b))
	}
	return FileTypeBox{MajorBrand: string(major), MinorVersion: minor, CompatibleBrands: compat}, nil
}

func (r *reader) readMetaBox(end int) (MetaBox, error) {
	_, _, err := r.readFullBoxHeader()
	if err != nil {
		return MetaBox{}, err
	}

	var m MetaBox
	var sawHdlr, sawPitm, sawIinf, sawIloc bool

	for r.c.Pos() < end {
		hdr, _, err := r.readBoxHeader()
		if err != nil {
			return MetaBox{}, err
		}
		childEnd := hdr.boxEnd(len(r.root))
		if childEnd > end {
			return MetaBox{}, r.parseErr(hdr.kind, fmt.Errorf("%w: child box extends past parent", heicerr.ErrMalformed))
		}

		r.push(hdr.kind)
		switch hdr.kind {
		case "hdlr":
			m.Handler, err = r.readHandlerBox(childEnd)
			sawHdlr = true
		case "pitm":
			m.PrimaryItem, err = r.readPrimaryItemBox()
			sawPitm = true
		case "iinf":
			m.ItemInfo, err = r.readItemInfoBox(childEnd)
			sawIinf = true
		case "iloc":
			m.ItemLocation, err = r.readItemLocationBox()
			sawIloc = true
		case "iprp":
			m.ItemProps, err = r.readItemPropertiesBox(childEnd)
			m.HasItemProps = true
		case "iref":
			m.ItemReference, err = r.readItemReferenceBox(childEnd)
			m.HasItemRef = true
		case "dinf":
			m.DataInfo, err = r.readDataInformationBox(childEnd)
			m.HasDataInfo = true
		default:
			slog.Debug("isobmff: skipping unrecognized meta child", "kind", hdr.kind, "stack", r.stackString())
			err = r.skipToEnd(childEnd)
		}
		r.pop()
		if err != nil {
			return MetaBox{}, err
		}
		if err := r.expectEnd(hdr.kind, childEnd); err != nil {
			return MetaBox{}, err
		}
	}

	if !sawHdlr {
		return MetaBox{}, r.parseErr("hdlr", fmt.Errorf("%w: meta box missing required hdlr", heicerr.ErrMalformed))
	}
	if !sawPitm {
		return MetaBox{}, r.parseErr("pitm", fmt.Errorf("%w: meta box missing required pitm", heicerr.ErrMalformed))
	}
	if !sawIinf {
		return MetaBox{}, r.parseErr("iinf", fmt.Errorf("%w: meta box missing required iinf", heicerr.ErrMalformed))
	}
	if !sawIloc {
		return MetaBox{}, r.parseErr("iloc", fmt.Errorf("%w: meta box missing required iloc", heicerr.ErrMalformed))
	}
	return m, nil
}

func (r *reader) readHandlerBox(end int) (HandlerBox, error) {
	version, _, err := r.readFullBoxHeader()
	if err != nil {
		return HandlerBox{}, err
	}
	if version != 0 {
		return HandlerBox{}, r.parseErr("hdlr version", fmt.Errorf("%w: version %d", heicerr.ErrUnsupported, version))
	}
	if err := r.c.Skip(4); err != nil { // pre_defined
		return HandlerBox{}, r.parseErr("hdlr pre_defined", err)
	}
	kind, err := r.c.ReadSlice(4)
	if err != nil {
		return HandlerBox{}, r.parseErr("handler_type", err)
	}
	if string(kind) != "pict" {
		return HandlerBox{}, r.parseErr("handler_type", fmt.Errorf("%w: expected \"pict\", got %q", heicerr.ErrMalformed, kind))
	}
	if err := r.c.Skip(12); err != nil { // reserved[3]
		return HandlerBox{}, r.parseErr("hdlr reserved", err)
	}
	var name string
	if r.c.Pos() < end {
		nameBytes, err := r.c.ReadSlice(end - r.c.Pos())
		if err != nil {
			return HandlerBox{}, r.parseErr("name", err)
		}
		name = string(nameBytes)
	}
	return HandlerBox{HandlerType: string(kind), Name: name}, nil
}

func (r *reader) readPrimaryItemBox() (PrimaryItemBox, error) {
	version, _, err := r.readFullBoxHeader()
	if err != nil {
		return PrimaryItemBox{}, err
	}
	if version == 0 {
		v, err := r.c.ReadU16()
		if err != nil {
			return PrimaryItemBox{}, r.parseErr("item_id", err)
		}
		return PrimaryItemBox{ItemID: uint32(v)}, nil
	}
	v, err := r.c.ReadU32()
	if err != nil {
		return PrimaryItemBox{}, r.parseErr("item_id", err)
	}
	return PrimaryItemBox{ItemID: v}, nil
}

func (r *reader) readVersionedCount(version uint8) (uint32, error) {
	if version == 0 {
		v, err := r.c.ReadU16()
		return uint32(v), err
	}
	return r.c.ReadU32()
}

func (r *reader) readItemInfoBox(end int) (ItemInfoBox, error) {
	version, _, err := r.readFullBoxHeader()
	if err != nil {
		return ItemInfoBox{}, err
	}
	count, err := r.readVersionedCount(version)
	if err != nil {
		return ItemInfoBox{}, r.parseErr("entry_count", err)
	}

	var box ItemInfoBox
	for i := uint32(0); i < count && r.c.Pos() < end; i++ {
		hdr, _, err := r.readBoxHeader()
		if err != nil {
			return ItemInfoBox{}, err
		}
		childEnd := hdr.boxEnd(len(r.root))
		if hdr.kind != "infe" {
			if err := r.skipToEnd(childEnd); err != nil {
				return ItemInfoBox{}, err
			}
			continue
		}
		entry, err := r.readItemInfoEntry(childEnd)
		if err != nil {
			return ItemInfoBox{}, err
		}
		box.Entries = append(box.Entries, entry)
		if err := r.expectEnd("infe", childEnd); err != nil {
			return ItemInfoBox{}, err
		}
	}
	return box, nil
}

func (r *reader) readItemInfoEntry(end int) (ItemInfoEntry, error) {
	version, _, err := r.readFullBoxHeader()
	if err != nil {
		return ItemInfoEntry{}, err
	}
	if version < 2 {
		return ItemInfoEntry{}, r.parseErr("infe version", fmt.Errorf("%w: version %d", heicerr.ErrUnsupported, version))
	}
	var itemID uint32
	if version == 2 {
		v, err := r.c.ReadU16()
		if err != nil {
			return ItemInfoEntry{}, r.parseErr("item_id", err)
		}
		itemID = uint32(v)
	} else {
		itemID, err = r.c.ReadU32()
		if err != nil {
			return ItemInfoEntry{}, r.parseErr("item_id", err)
		}
	}
	protIdx, err := r.c.ReadU16()
	if err != nil {
		return ItemInfoEntry{}, r.parseErr("item_protection_index", err)
	}
	typeBytes, err := r.c.ReadSlice(4)
	if err != nil {
		return ItemInfoEntry{}, r.parseErr("item_type", err)
	}
	typeStr := string(typeBytes)
	name, err := r.c.ReadNullTerminatedString()
	if err != nil {
		return ItemInfoEntry{}, r.parseErr("item_name", err)
	}

	entry := ItemInfoEntry{ItemID: itemID, ItemProtectionIdx: protIdx, ItemName: name}
	switch typeStr {
	case "hvc1":
		entry.ItemType = ItemTypeHVC1
	case "grid":
		entry.ItemType = ItemTypeGrid
	case "Exif":
		entry.ItemType = ItemTypeExif
	case "mime":
		entry.ItemType = ItemTypeMime
		ct, err := r.c.ReadNullTerminatedString()
		if err != nil {
			return ItemInfoEntry{}, r.parseErr("content_type", err)
		}
		entry.ContentType = ct
		if r.c.Pos() < end {
			ce, err := r.c.ReadNullTerminatedString()
			if err != nil {
				return ItemInfoEntry{}, r.parseErr("content_encoding", err)
			}
			entry.ContentEncoding = ce
		}
	case "uri ":
		entry.ItemType = ItemTypeURI
		u, err := r.c.ReadNullTerminatedString()
		if err != nil {
			return ItemInfoEntry{}, r.parseErr("item_uri_type", err)
		}
		entry.ItemURIType = u
	default:
		entry.ItemType = ItemTypeUnknown
	}

	// Trailing bytes (unrecognized extension fields) are skipped rather
	// than treated as malformed: the box's own size is authoritative.
	if r.c.Pos() < end {
		if err := r.skipToEnd(end); err != nil {
			return ItemInfoEntry{}, err
		}
	}
	return entry, nil
}

func (r *reader) readItemLocationBox() (ItemLocationBox, error) {
	version, _, err := r.readFullBoxHeader()
	if err != nil {
		return ItemLocationBox{}, err
	}
	if version > 2 {
		return ItemLocationBox{}, r.parseErr("iloc version", fmt.Errorf("%w: version %d", heicerr.ErrUnsupported, version))
	}

	sizesByte, err := r.c.ReadU8()
	if err != nil {
		return ItemLocationBox{}, r.parseErr("offset_size/length_size", err)
	}
	offsetSize := nibbleWidth(sizesByte >> 4)
	lengthSize := nibbleWidth(sizesByte & 0x0F)

	sizesByte2, err := r.c.ReadU8()
	if err != nil {
		return ItemLocationBox{}, r.parseErr("base_offset_size/index_size", err)
	}
	baseOffsetSize := nibbleWidth(sizesByte2 >> 4)
	indexSize := 0
	if version == 1 || version == 2 {
		indexSize = nibbleWidth(sizesByte2 & 0x0F)
	}

	itemCount, err := r.readVersionedCount(version)
	if err != nil {
		return ItemLocationBox{}, r.parseErr("item_count", err)
	}

	var box ItemLocationBox
	for i := uint32(0); i < itemCount; i++ {
		var itemID uint32
		if version < 2 {
			v, err := r.c.ReadU16()
			if err != nil {
				return ItemLocationBox{}, r.parseErr("item_id", err)
			}
			itemID = uint32(v)
		} else {
			itemID, err = r.c.ReadU32()
			if err != nil {
				return ItemLocationBox{}, r.parseErr("item_id", err)
			}
		}

		var constructionMethod uint8
		if version == 1 || version == 2 {
			v, err := r.c.ReadU16()
			if err != nil {
				return ItemLocationBox{}, r.parseErr("construction_method", err)
			}
			constructionMethod = uint8(v & 0x0F)
		}

		dataRefIdx, err := r.c.ReadU16()
		if err != nil {
			return ItemLocationBox{}, r.parseErr("data_reference_index", err)
		}
		baseOffset, err := r.c.ReadUint(baseOffsetSize)
		if err != nil {
			return ItemLocationBox{}, r.parseErr("base_offset", err)
		}
		extentCount, err := r.c.ReadU16()
		if err != nil {
			return ItemLocationBox{}, r.parseErr("extent_count", err)
		}

		entry := ItemLocationEntry{
			ItemID:             itemID,
			ConstructionMethod: constructionMethod,
			DataReferenceIndex: dataRefIdx,
			BaseOffset:         baseOffset,
		}
		for e := uint16(0); e < extentCount; e++ {
			var ext ItemLocationExtent
			if (version == 1 || version == 2) && indexSize > 0 {
				v, err := r.c.ReadUint(indexSize)
				if err != nil {
					return ItemLocationBox{}, r.parseErr("item_reference_index", err)
				}
				ext.ItemReferenceIndex = v
			}
			off, err := r.c.ReadUint(offsetSize)
			if err != nil {
				return ItemLocationBox{}, r.parseErr("extent_offset", err)
			}
			length, err := r.c.ReadUint(lengthSize)
			if err != nil {
				return ItemLocationBox{}, r.parseErr("extent_length", err)
			}
			ext.Offset = off
			ext.Length = length
			entry.Extents = append(entry.Extents, ext)
		}
		box.Items = append(box.Items, entry)
	}
	return box, nil
}

// nibbleWidth maps an iloc size nibble to the same byte width; a width
// other than 0, 2, 4 or 8 is rejected by Cursor.ReadUint at the point of use.
func nibbleWidth(n uint8) int { return int(n) }

func (r *reader) readItemReferenceBox(end int) (ItemReferenceBox, error) {
	version, _, err := r.readFullBoxHeader()
	if err != nil {
		return ItemReferenceBox{}, err
	}
	idWidth := 2
	if version != 0 {
		idWidth = 4
	}

	var box ItemReferenceBox
	for r.c.Pos() < end {
		hdr, _, err := r.readBoxHeader()
		if err != nil {
			return ItemReferenceBox{}, err
		}
		childEnd := hdr.boxEnd(len(r.root))
		entry, err := r.readSingleItemReference(hdr.kind, idWidth)
		if err != nil {
			return ItemReferenceBox{}, err
		}
		box.References = append(box.References, entry)
		if err := r.expectEnd(hdr.kind, childEnd); err != nil {
			return ItemReferenceBox{}, err
		}
	}
	return box, nil
}

func (r *reader) readSingleItemReference(kind string, idWidth int) (ItemReferenceEntry, error) {
	from, err := r.c.ReadUint(idWidth)
	if err != nil {
		return ItemReferenceEntry{}, r.parseErr("from_item_id", err)
	}
	count, err := r.c.ReadU16()
	if err != nil {
		return ItemReferenceEntry{}, r.parseErr("reference_count", err)
	}
	entry := ItemReferenceEntry{ReferenceType: kind, FromItemID: uint32(from)}
	for i := uint16(0); i < count; i++ {
		to, err := r.c.ReadUint(idWidth)
		if err != nil {
			return ItemReferenceEntry{}, r.parseErr("to_item_id", err)
		}
		entry.ToItemIDs = append(entry.ToItemIDs, uint32(to))
	}
	return entry, nil
}

func (r *reader) readDataInformationBox(end int) (DataInformationBox, error) {
	hdr, _, err := r.readBoxHeader()
	if err != nil {
		return DataInformationBox{}, err
	}
	if hdr.kind != "dref" {
		if err := r.skipToEnd(end); err != nil {
			return DataInformationBox{}, err
		}
		return DataInformationBox{}, nil
	}
	drefEnd := hdr.boxEnd(len(r.root))
	_, _, err = r.readFullBoxHeader()
	if err != nil {
		return DataInformationBox{}, err
	}
	count, err := r.c.ReadU32()
	if err != nil {
		return DataInformationBox{}, r.parseErr("entry_count", err)
	}
	var box DataInformationBox
	for i := uint32(0); i < count && r.c.Pos() < drefEnd; i++ {
		entryHdr, _, err := r.readBoxHeader()
		if err != nil {
			return DataInformationBox{}, err
		}
		entryEnd := entryHdr.boxEnd(len(r.root))
		version, flags, err := r.readFullBoxHeader()
		if err != nil {
			return DataInformationBox{}, err
		}
		entry := DataEntry{Kind: entryHdr.kind}
		if flags&1 == 0 && r.c.Pos() < entryEnd {
			// Not the "same file" flag: a location string follows for
			// url/urn entries.
			if s, err := r.c.ReadNullTerminatedString(); err == nil {
				entry.Location = s
			}
		}
		_ = version
		if err := r.skipToEnd(entryEnd); err != nil {
			return DataInformationBox{}, err
		}
		box.DataReferences = append(box.DataReferences, entry)
	}
	if err := r.skipToEnd(end); err != nil {
		return DataInformationBox{}, err
	}
	return box, nil
}

func validateHeif(h *Heif) error {
	seen := make(map[uint32]bool, len(h.Meta.ItemInfo.Entries))
	for _, e := range h.Meta.ItemInfo.Entries {
		if seen[e.ItemID] {
			return &heicerr.ParseError{Context: "meta/iinf", Field: "item_id", Err: fmt.Errorf("%w: duplicate item id %d", heicerr.ErrMalformed, e.ItemID)}
		}
		seen[e.ItemID] = true
	}
	if _, ok := h.ItemInfoByID(h.PrimaryItemID()); !ok {
		return &heicerr.ParseError{Context: "meta/pitm", Field: "item_id", Err: fmt.Errorf("%w: primary item %d has no info entry", heicerr.ErrMalformed, h.PrimaryItemID())}
	}
	if h.Meta.HasItemProps {
		for _, a := range h.Meta.ItemProps.Associations {
			if !seen[a.ItemID] {
				return &heicerr.ParseError{Context: "meta/iprp/ipma", Field: "item_id", Err: fmt.Errorf("%w: association references unknown item %d", heicerr.ErrMalformed, a.ItemID)}
			}
		}
	}
	return nil
}
