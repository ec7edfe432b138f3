package heic

import (
	"fmt"

	"github.com/go-heic/heic/bitstream"
	"github.com/go-heic/heic/cabac"
	"github.com/go-heic/heic/heicerr"
	"github.com/go-heic/heic/hevc"
)

// TileResult is one tile's decode outcome: the parsed parameter sets, the
// slice segment header, and the CABAC decoder positioned at the start of
// slice_segment_data(), ready for a coding-tree walk. Reconstructing pixel
// samples from the CABAC-decoded syntax elements is out of scope.
type TileResult struct {
	ItemID  uint32
	Config  hevc.DecoderConfigurationRecord
	VPS     hevc.VideoParameterSet
	SPS     hevc.SequenceParameterSet
	PPS     hevc.PictureParameterSet
	Slice   hevc.SliceSegmentHeader
	SliceQP int32
	Decoder *cabac.Decoder
}

// decodeTile parses one grid tile (or a standalone hvc1 primary item)'s
// item data: a single length-prefixed HEVC NAL unit, per SPEC_FULL.md §6.
func decodeTile(itemID uint32, data []byte, params parameterSets) (*TileResult, error) {
	c := bitstream.NewCursor(data)
	length, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("item %d: nal length: %w", itemID, err)
	}
	naluBytes, err := c.ReadSlice(int(length))
	if err != nil {
		return nil, fmt.Errorf("item %d: nal payload: %w", itemID, err)
	}
	if len(naluBytes) < 2 {
		return nil, fmt.Errorf("%w: item %d: nal unit shorter than its header", heicerr.ErrMalformed, itemID)
	}

	header := hevc.ParseNalUnitHeader(naluBytes[0], naluBytes[1])
	if !header.Type.IsVCL() {
		return nil, fmt.Errorf("%w: item %d: nal unit type %d is not a coded slice", heicerr.ErrUnsupported, itemID, header.Type)
	}

	rbsp := bitstream.RemoveEmulationPrevention(naluBytes[2:])

	slice, err := hevc.ReadSliceSegmentHeader(rbsp, header.Type, params.sps, params.pps)
	if err != nil {
		return nil, fmt.Errorf("item %d: slice segment header: %w", itemID, err)
	}

	sliceQP := 26 + params.pps.InitQpMinus26 + slice.SliceQpDelta

	r := bitstream.NewBitReader(rbsp)
	if err := r.SkipBits(slice.HeaderByteLength * 8); err != nil {
		return nil, fmt.Errorf("item %d: seeking to slice_segment_data: %w", itemID, err)
	}

	decoder, err := cabac.NewDecoder(r, sliceQP)
	if err != nil {
		return nil, fmt.Errorf("item %d: cabac init: %w", itemID, err)
	}

	return &TileResult{
		ItemID:  itemID,
		Config:  params.config,
		VPS:     params.vps,
		SPS:     params.sps,
		PPS:     params.pps,
		Slice:   slice,
		SliceQP: sliceQP,
		Decoder: decoder,
	}, nil
}
