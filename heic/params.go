package heic

import (
	"fmt"

	"github.com/go-heic/heic/bitstream"
	"github.com/go-heic/heic/heicerr"
	"github.com/go-heic/heic/hevc"
	"github.com/go-heic/heic/isobmff"
)

// parameterSets holds the single VPS/SPS/PPS this decoder requires per
// SPEC_FULL.md §3: "Exactly one VPS, one SPS, one PPS are expected in the
// hvcC property."
type parameterSets struct {
	config hevc.DecoderConfigurationRecord
	vps    hevc.VideoParameterSet
	sps    hevc.SequenceParameterSet
	pps    hevc.PictureParameterSet
}

// hvcCForItem returns the raw hvcC payload associated with itemID, falling
// back to the primary item's own hvcC when itemID carries none of its own
// (the common grid layout, where tiles share one configuration record).
func hvcCForItem(h *isobmff.Heif, itemID uint32) ([]byte, error) {
	if data, ok := h.HEVCConfigurationRecord(itemID); ok {
		return data, nil
	}
	if data, ok := h.HEVCConfigurationRecord(h.PrimaryItemID()); ok {
		return data, nil
	}
	return nil, fmt.Errorf("%w: no hvcC property for item %d or primary item", heicerr.ErrProfileMismatch, itemID)
}

// parseParameterSets decodes the VPS/SPS/PPS carried in an hvcC payload.
func parseParameterSets(hvcCData []byte) (parameterSets, error) {
	var out parameterSets

	config, err := hevc.ParseDecoderConfigurationRecord(hvcCData)
	if err != nil {
		return out, fmt.Errorf("hvcC: %w", err)
	}
	out.config = config

	vpsNalus := config.NalusOfType(hevc.NalVps)
	if len(vpsNalus) == 0 {
		return out, fmt.Errorf("%w: hvcC has no VPS", heicerr.ErrProfileMismatch)
	}
	vps, err := hevc.ReadVideoParameterSet(rbspOfNalu(vpsNalus[0]))
	if err != nil {
		return out, fmt.Errorf("vps: %w", err)
	}
	out.vps = vps

	spsNalus := config.NalusOfType(hevc.NalSps)
	if len(spsNalus) == 0 {
		return out, fmt.Errorf("%w: hvcC has no SPS", heicerr.ErrProfileMismatch)
	}
	sps, err := hevc.ReadSequenceParameterSet(rbspOfNalu(spsNalus[0]))
	if err != nil {
		return out, fmt.Errorf("sps: %w", err)
	}
	out.sps = sps

	ppsNalus := config.NalusOfType(hevc.NalPps)
	if len(ppsNalus) == 0 {
		return out, fmt.Errorf("%w: hvcC has no PPS", heicerr.ErrProfileMismatch)
	}
	pps, err := hevc.ReadPictureParameterSet(rbspOfNalu(ppsNalus[0]))
	if err != nil {
		return out, fmt.Errorf("pps: %w", err)
	}
	out.pps = pps

	return out, nil
}

// rbspOfNalu strips the 2-byte NAL unit header and removes emulation
// prevention bytes from a parameter-set NAL unit as stored in hvcC, which
// carries no length prefix of its own (the array's numNalus/length fields
// already bound it, per SPEC_FULL.md §6).
func rbspOfNalu(nalu []byte) []byte {
	if len(nalu) < 2 {
		return nil
	}
	return bitstream.RemoveEmulationPrevention(nalu[2:])
}
