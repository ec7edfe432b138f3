package hevc

import (
	"fmt"

	"github.com/go-heic/heic/bitstream"
	"github.com/go-heic/heic/heicerr"
)

// VideoParameterSet holds the leading fields of an HEVC VPS and its general
// profile/tier/level. ReadVideoParameterSet rejects a multi-layer VPS; the
// sub-layer count is recorded but not checked.
type VideoParameterSet struct {
	VpsID                     uint8
	BaseLayerInternalFlag     bool
	BaseLayerAvailableFlag    bool
	MaxLayersMinus1           uint8
	MaxSubLayersMinus1        uint8
	TemporalIDNestingFlag     bool
	ProfileTierLevel          ProfileTierLevel
}

// ReadVideoParameterSet parses a VPS from an RBSP (emulation prevention
// already removed, NAL header already stripped).
func ReadVideoParameterSet(rbsp []byte) (VideoParameterSet, error) {
	r := bitstream.NewBitReader(rbsp)
	var vps VideoParameterSet

	id, err := r.ReadU8(4)
	if err != nil {
		return vps, err
	}
	vps.VpsID = id

	base, err := r.ReadFlag()
	if err != nil {
		return vps, err
	}
	vps.BaseLayerInternalFlag = base

	avail, err := r.ReadFlag()
	if err != nil {
		return vps, err
	}
	vps.BaseLayerAvailableFlag = avail

	maxLayers, err := r.ReadU8(6)
	if err != nil {
		return vps, err
	}
	vps.MaxLayersMinus1 = maxLayers
	if maxLayers != 0 {
		return vps, fmt.Errorf("%w: multi-layer VPS (vps_max_layers_minus1 = %d)", heicerr.ErrUnsupported, maxLayers)
	}

	maxSubLayers, err := r.ReadU8(3)
	if err != nil {
		return vps, err
	}
	vps.MaxSubLayersMinus1 = maxSubLayers

	nesting, err := r.ReadFlag()
	if err != nil {
		return vps, err
	}
	vps.TemporalIDNestingFlag = nesting

	if err := r.SkipBits(16); err != nil { // vps_reserved_0xffff_16bits
		return vps, err
	}

	ptl, err := readProfileTierLevel(r, vps.MaxSubLayersMinus1)
	if err != nil {
		return vps, err
	}
	vps.ProfileTierLevel = ptl

	// vps_sub_layer_ordering_info and the remaining layer-set/extension
	// fields only matter for multi-layer or HRD-timed streams, both out of
	// scope for HEIC still images; this decoder stops once profile/tier/
	// level has been captured.
	return vps, nil
}
