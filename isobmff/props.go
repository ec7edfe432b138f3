package isobmff

import (
	"fmt"
	"log/slog"

	"github.com/go-heic/heic/heicerr"
)

func (r *reader) readItemPropertiesBox(end int) (ItemPropertiesBox, error) {
	var box ItemPropertiesBox

	hdr, _, err := r.readBoxHeader()
	if err != nil {
		return ItemPropertiesBox{}, err
	}
	ipcoEnd := hdr.boxEnd(len(r.root))
	if hdr.kind != "ipco" {
		return ItemPropertiesBox{}, r.parseErr("ipco", fmt.Errorf("%w: expected ipco, got %q", heicerr.ErrMalformed, hdr.kind))
	}
	r.push("ipco")
	box.Properties, err = r.readItemPropertyContainer(ipcoEnd)
	r.pop()
	if err != nil {
		return ItemPropertiesBox{}, err
	}
	if err := r.expectEnd("ipco", ipcoEnd); err != nil {
		return ItemPropertiesBox{}, err
	}

	for r.c.Pos() < end {
		assocHdr, _, err := r.readBoxHeader()
		if err != nil {
			return ItemPropertiesBox{}, err
		}
		assocEnd := assocHdr.boxEnd(len(r.root))
		if assocHdr.kind != "ipma" {
			if err := r.skipToEnd(assocEnd); err != nil {
				return ItemPropertiesBox{}, err
			}
			continue
		}
		assocs, err := r.readItemPropertyAssociationBox()
		if err != nil {
			return ItemPropertiesBox{}, err
		}
		box.Associations = append(box.Associations, assocs...)
		if err := r.expectEnd("ipma", assocEnd); err != nil {
			return ItemPropertiesBox{}, err
		}
	}
	return box, nil
}

func (r *reader) readItemPropertyContainer(end int) ([]ItemProperty, error) {
	var props []ItemProperty
	for r.c.Pos() < end {
		hdr, _, err := r.readBoxHeader()
		if err != nil {
			return nil, err
		}
		childEnd := hdr.boxEnd(len(r.root))
		if childEnd > end {
			return nil, r.parseErr(hdr.kind, fmt.Errorf("%w: property extends past ipco", heicerr.ErrMalformed))
		}

		r.push(hdr.kind)
		var prop ItemProperty
		switch hdr.kind {
		case "colr":
			prop.Kind = PropertyColorInformation
			prop.ColorInfo, err = r.readColorInformationBox(childEnd)
		case "hvcC":
			prop.Kind = PropertyHEVCConfiguration
			prop.HEVCConfig, err = r.c.ReadSlice(childEnd - r.c.Pos())
		case "ispe":
			prop.Kind = PropertySpatialExtents
			prop.SpatialExtents, err = r.readImageSpatialExtentsBox()
		case "irot":
			prop.Kind = PropertyRotation
			prop.Rotation, err = r.readImageRotationBox()
		case "pixi":
			prop.Kind = PropertyPixelInformation
			prop.PixelInfo, err = r.readPixelInformationBox()
		default:
			prop.Kind = PropertyUnknown
			slog.Debug("isobmff: skipping unrecognized item property", "kind", hdr.kind)
			err = r.skipToEnd(childEnd)
		}
		r.pop()
		if err != nil {
			return nil, err
		}
		if err := r.expectEnd(hdr.kind, childEnd); err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

func (r *reader) readColorInformationBox(end int) (ColorInformationBox, error) {
	typeBytes, err := r.c.ReadSlice(4)
	if err != nil {
		return ColorInformationBox{}, r.parseErr("colour_type", err)
	}
	box := ColorInformationBox{ColorType: string(typeBytes)}
	switch box.ColorType {
	case "nclx":
		primaries, err := r.c.ReadU16()
		if err != nil {
			return ColorInformationBox{}, r.parseErr("colour_primaries", err)
		}
		transfer, err := r.c.ReadU16()
		if err != nil {
			return ColorInformationBox{}, r.parseErr("transfer_characteristics", err)
		}
		matrix, err := r.c.ReadU16()
		if err != nil {
			return ColorInformationBox{}, r.parseErr("matrix_coefficients", err)
		}
		flagsByte, err := r.c.ReadU8()
		if err != nil {
			return ColorInformationBox{}, r.parseErr("full_range_flag", err)
		}
		box.ColorPrimaries = primaries
		box.TransferCharacteristics = transfer
		box.MatrixCoefficients = matrix
		box.FullRangeFlag = flagsByte&0x80 != 0
	case "prof", "rICC":
		// Full ICC profile parsing is out of scope: the raw bytes are
		// retained for diagnostic use only.
		icc, err := r.c.ReadSlice(end - r.c.Pos())
		if err != nil {
			return ColorInformationBox{}, r.parseErr("ICC_profile", err)
		}
		box.ICCData = icc
	default:
		if err := r.skipToEnd(end); err != nil {
			return ColorInformationBox{}, err
		}
	}
	return box, nil
}

func (r *reader) readImageSpatialExtentsBox() (ImageSpatialExtentsBox, error) {
	_, _, err := r.readFullBoxHeader()
	if err != nil {
		return ImageSpatialExtentsBox{}, err
	}
	w, err := r.c.ReadU32()
	if err != nil {
		return ImageSpatialExtentsBox{}, r.parseErr("image_width", err)
	}
	h, err := r.c.ReadU32()
	if err != nil {
		return ImageSpatialExtentsBox{}, r.parseErr("image_height", err)
	}
	return ImageSpatialExtentsBox{Width: w, Height: h}, nil
}

func (r *reader) readImageRotationBox() (ImageRotationBox, error) {
	b, err := r.c.ReadU8()
	if err != nil {
		return ImageRotationBox{}, r.parseErr("angle", err)
	}
	return ImageRotationBox{Angle: b & 0b11}, nil
}

func (r *reader) readPixelInformationBox() (PixelInformationBox, error) {
	_, _, err := r.readFullBoxHeader()
	if err != nil {
		return PixelInformationBox{}, err
	}
	count, err := r.c.ReadU8()
	if err != nil {
		return PixelInformationBox{}, r.parseErr("num_channels", err)
	}
	bits := make([]uint8, count)
	for i := range bits {
		b, err := r.c.ReadU8()
		if err != nil {
			return PixelInformationBox{}, r.parseErr("bits_per_channel", err)
		}
		bits[i] = b
	}
	return PixelInformationBox{BitsPerChannel: bits}, nil
}

func (r *reader) readItemPropertyAssociationBox() ([]ItemPropertyAssociationEntry, error) {
	version, flags, err := r.readFullBoxHeader()
	if err != nil {
		return nil, err
	}
	entryCount, err := r.c.ReadU32()
	if err != nil {
		return nil, r.parseErr("entry_count", err)
	}

	wideIndex := flags&1 != 0
	var entries []ItemPropertyAssociationEntry
	for i := uint32(0); i < entryCount; i++ {
		var itemID uint32
		if version < 1 {
			v, err := r.c.ReadU16()
			if err != nil {
				return nil, r.parseErr("item_id", err)
			}
			itemID = uint32(v)
		} else {
			itemID, err = r.c.ReadU32()
			if err != nil {
				return nil, r.parseErr("item_id", err)
			}
		}
		assocCount, err := r.c.ReadU8()
		if err != nil {
			return nil, r.parseErr("association_count", err)
		}
		entry := ItemPropertyAssociationEntry{ItemID: itemID}
		for a := uint8(0); a < assocCount; a++ {
			var idx uint16
			if wideIndex {
				raw, err := r.c.ReadU16()
				if err != nil {
					return nil, r.parseErr("property_index", err)
				}
				idx = raw & 0x7FFF
			} else {
				raw, err := r.c.ReadU8()
				if err != nil {
					return nil, r.parseErr("property_index", err)
				}
				idx = uint16(raw & 0x7F)
			}
			entry.PropertyIndices = append(entry.PropertyIndices, idx)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
