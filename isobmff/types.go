package isobmff

// Heif is the root of a parsed HEIC container.
type Heif struct {
	FileType FileTypeBox
	Meta     MetaBox
}

// PrimaryItemID returns the item id named by the primary item box.
func (h *Heif) PrimaryItemID() uint32 {
	return h.Meta.PrimaryItem.ItemID
}

// ItemInfoByID returns the info entry for id and whether it was found.
func (h *Heif) ItemInfoByID(id uint32) (ItemInfoEntry, bool) {
	for _, e := range h.Meta.ItemInfo.Entries {
		if e.ItemID == id {
			return e, true
		}
	}
	return ItemInfoEntry{}, false
}

// ItemLocationByID returns the location entry for id and whether it was found.
func (h *Heif) ItemLocationByID(id uint32) (ItemLocationEntry, bool) {
	for _, e := range h.Meta.ItemLocation.Items {
		if e.ItemID == id {
			return e, true
		}
	}
	return ItemLocationEntry{}, false
}

// TileItemIDs returns the "to" item ids of the iref entry whose from-id
// equals the primary item id and whose reference type is "dimg" (grid
// tile membership), in the order they appear in the box.
func (h *Heif) TileItemIDs() []uint32 {
	primary := h.PrimaryItemID()
	for _, ref := range h.Meta.ItemReference.References {
		if ref.ReferenceType == "dimg" && ref.FromItemID == primary {
			return ref.ToItemIDs
		}
	}
	return nil
}

// HEVCConfigurationRecord returns the raw hvcC payload associated with id,
// and whether the item carries one.
func (h *Heif) HEVCConfigurationRecord(id uint32) ([]byte, bool) {
	for _, prop := range h.Meta.ItemProps.PropertiesForItem(id) {
		if prop.Kind == PropertyHEVCConfiguration {
			return prop.HEVCConfig, true
		}
	}
	return nil, false
}

// ItemData concatenates the bytes of every extent of item id, in order,
// into a freshly allocated buffer, resolving offsets against root.
func (h *Heif) ItemData(root []byte, id uint32) ([]byte, error) {
	loc, ok := h.ItemLocationByID(id)
	if !ok {
		return nil, &NotFoundError{Kind: "item location", ID: id}
	}
	var out []byte
	for _, ext := range loc.Extents {
		start := loc.BaseOffset + ext.Offset
		end := start + ext.Length
		if start > uint64(len(root)) || end > uint64(len(root)) || end < start {
			return nil, &NotFoundError{Kind: "item extent", ID: id}
		}
		out = append(out, root[start:end]...)
	}
	return out, nil
}

// FileTypeBox is the ftyp box: major/compatible brands.
type FileTypeBox struct {
	MajorBrand       string
	MinorVersion     uint32
	CompatibleBrands []string
}

// MetaBox is the meta box: handler, primary item, item info, item location,
// plus the optional item properties, item reference, and data information
// boxes.
type MetaBox struct {
	Handler       HandlerBox
	PrimaryItem   PrimaryItemBox
	ItemInfo      ItemInfoBox
	ItemLocation  ItemLocationBox
	ItemProps     ItemPropertiesBox
	ItemReference ItemReferenceBox
	DataInfo      DataInformationBox
	HasItemProps  bool
	HasItemRef    bool
	HasDataInfo   bool
}

// HandlerBox is the hdlr box: the handler type, which must equal "pict" for
// a HEIF meta box, and the handler name.
type HandlerBox struct {
	HandlerType string
	Name        string
}

// PrimaryItemBox is the pitm box.
type PrimaryItemBox struct {
	ItemID uint32
}

// ItemInfoBox is the iinf box: one entry per item in the file.
type ItemInfoBox struct {
	Entries []ItemInfoEntry
}

// ItemType enumerates the recognized infe item_type values.
type ItemType int

const (
	ItemTypeUnknown ItemType = iota
	ItemTypeHVC1
	ItemTypeGrid
	ItemTypeExif
	ItemTypeMime
	ItemTypeURI
)

func (t ItemType) String() string {
	switch t {
	case ItemTypeHVC1:
		return "hvc1"
	case ItemTypeGrid:
		return "grid"
	case ItemTypeExif:
		return "Exif"
	case ItemTypeMime:
		return "mime"
	case ItemTypeURI:
		return "uri "
	default:
		return "unknown"
	}
}

// ItemInfoEntry is one infe entry.
type ItemInfoEntry struct {
	ItemID            uint32
	ItemProtectionIdx uint16
	ItemType          ItemType
	ItemName          string
	ContentType       string // mime only
	ContentEncoding   string // mime only
	ItemURIType       string // uri only
}

// ItemLocationBox is the iloc box.
type ItemLocationBox struct {
	Items []ItemLocationEntry
}

// ItemLocationExtent is one (offset, length) range of an item's data,
// relative to the owning entry's BaseOffset.
type ItemLocationExtent struct {
	ItemReferenceIndex uint64
	Offset             uint64
	Length             uint64
}

// ItemLocationEntry is one iloc item entry.
type ItemLocationEntry struct {
	ItemID             uint32
	ConstructionMethod uint8
	DataReferenceIndex uint16
	BaseOffset         uint64
	Extents            []ItemLocationExtent
}

// ItemPropertiesBox is the iprp box: a container of properties plus the
// associations linking them to items.
type ItemPropertiesBox struct {
	Properties   []ItemProperty
	Associations []ItemPropertyAssociationEntry
}

// PropertiesForItem returns the properties associated with itemID, in
// association order; an index of 0 or past the end of Properties is skipped.
func (b *ItemPropertiesBox) PropertiesForItem(itemID uint32) []ItemProperty {
	var out []ItemProperty
	for _, a := range b.Associations {
		if a.ItemID != itemID {
			continue
		}
		for _, idx := range a.PropertyIndices {
			if idx == 0 || int(idx) > len(b.Properties) {
				continue
			}
			out = append(out, b.Properties[idx-1])
		}
	}
	return out
}

// ItemPropertyAssociationEntry links an item to an ordered list of 1-based
// property indices, stored as read (0 means "no property").
type ItemPropertyAssociationEntry struct {
	ItemID          uint32
	PropertyIndices []uint16
}

// ItemProperty is a tagged union over the property box kinds this decoder
// understands; exactly one field is meaningful per the Kind tag.
type ItemProperty struct {
	Kind            ItemPropertyKind
	ColorInfo       ColorInformationBox
	HEVCConfig      []byte // raw hvcC payload, parsed by the hevc package
	SpatialExtents  ImageSpatialExtentsBox
	Rotation        ImageRotationBox
	PixelInfo       PixelInformationBox
}

// ItemPropertyKind tags the variant held by an ItemProperty.
type ItemPropertyKind int

const (
	PropertyUnknown ItemPropertyKind = iota
	PropertyColorInformation
	PropertyHEVCConfiguration
	PropertySpatialExtents
	PropertyRotation
	PropertyPixelInformation
)

// ColorInformationBox is the colr box; only the "nclx"/"prof"/"rICC" header
// is retained, full ICC profile parsing is out of scope.
type ColorInformationBox struct {
	ColorType string
	ICCData   []byte // present only for "prof"/"rICC"
	// nclx fields, present only for ColorType == "nclx"
	ColorPrimaries          uint16
	TransferCharacteristics uint16
	MatrixCoefficients      uint16
	FullRangeFlag           bool
}

// ImageSpatialExtentsBox is the ispe box.
type ImageSpatialExtentsBox struct {
	Width  uint32
	Height uint32
}

// ImageRotationBox is the irot box; Angle is the clockwise rotation in units
// of 90 degrees, in [0,3].
type ImageRotationBox struct {
	Angle uint8
}

// PixelInformationBox is the pixi box.
type PixelInformationBox struct {
	BitsPerChannel []uint8
}

// ItemReferenceBox is the iref box.
type ItemReferenceBox struct {
	References []ItemReferenceEntry
}

// ItemReferenceEntry is one SingleItemTypeReferenceBox.
type ItemReferenceEntry struct {
	ReferenceType string
	FromItemID    uint32
	ToItemIDs     []uint32
}

// DataInformationBox is the dinf box.
type DataInformationBox struct {
	DataReferences []DataEntry
}

// DataEntry is one dref child box: its kind and, for url /urn entries that
// carry one, its location string.
type DataEntry struct {
	Kind     string
	Location string
}

// NotFoundError reports a referenced item id that has no corresponding
// entry of the stated kind.
type NotFoundError struct {
	Kind string
	ID   uint32
}

func (e *NotFoundError) Error() string {
	return "isobmff: no " + e.Kind + " for item id " + itoa(e.ID)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
