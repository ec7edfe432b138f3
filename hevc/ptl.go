package hevc

import "github.com/go-heic/heic/bitstream"

// ProfileTierLevel is the general profile/tier/level part of
// profile_tier_level(), read by both VPS and SPS; the sub-layer fields are
// consumed but not stored.
type ProfileTierLevel struct {
	GeneralProfileSpace              uint8
	GeneralTierFlag                  bool
	GeneralProfileIdc                uint8
	GeneralProfileCompatibilityFlags uint32
	GeneralConstraintIndicatorFlags  uint64
	GeneralLevelIdc                  uint8
}

// readProfileTierLevel consumes profile_tier_level() per HEVC spec §7.3.3,
// including the per-sub-layer presence flags, reserved alignment bits, and
// conditional sub-layer profile/level blocks. profilePresentFlag is always
// true for the general profile_tier_level call made from VPS/SPS.
func readProfileTierLevel(r *bitstream.BitReader, maxSubLayersMinus1 uint8) (ProfileTierLevel, error) {
	var ptl ProfileTierLevel

	space, err := r.ReadU8(2)
	if err != nil {
		return ptl, err
	}
	ptl.GeneralProfileSpace = space

	tier, err := r.ReadFlag()
	if err != nil {
		return ptl, err
	}
	ptl.GeneralTierFlag = tier

	idc, err := r.ReadU8(5)
	if err != nil {
		return ptl, err
	}
	ptl.GeneralProfileIdc = idc

	hi, err := r.ReadU32(16)
	if err != nil {
		return ptl, err
	}
	lo, err := r.ReadU32(16)
	if err != nil {
		return ptl, err
	}
	ptl.GeneralProfileCompatibilityFlags = hi<<16 | lo

	var cif uint64
	for i := 0; i < 6; i++ {
		b, err := r.ReadU32(8)
		if err != nil {
			return ptl, err
		}
		cif = cif<<8 | uint64(b)
	}
	ptl.GeneralConstraintIndicatorFlags = cif

	level, err := r.ReadU8(8)
	if err != nil {
		return ptl, err
	}
	ptl.GeneralLevelIdc = level

	if maxSubLayersMinus1 == 0 {
		return ptl, nil
	}

	subLayerProfilePresent := make([]bool, maxSubLayersMinus1)
	subLayerLevelPresent := make([]bool, maxSubLayersMinus1)
	for i := uint8(0); i < maxSubLayersMinus1; i++ {
		pp, err := r.ReadFlag()
		if err != nil {
			return ptl, err
		}
		subLayerProfilePresent[i] = pp
		lp, err := r.ReadFlag()
		if err != nil {
			return ptl, err
		}
		subLayerLevelPresent[i] = lp
	}
	if maxSubLayersMinus1 < 8 {
		for i := maxSubLayersMinus1; i < 8; i++ {
			if err := r.SkipBits(2); err != nil {
				return ptl, err
			}
		}
	}
	for i := uint8(0); i < maxSubLayersMinus1; i++ {
		if subLayerProfilePresent[i] {
			if err := r.SkipBits(32); err != nil {
				return ptl, err
			}
			if err := r.SkipBits(32); err != nil {
				return ptl, err
			}
			if err := r.SkipBits(24); err != nil {
				return ptl, err
			}
		}
		if subLayerLevelPresent[i] {
			if err := r.SkipBits(8); err != nil {
				return ptl, err
			}
		}
	}
	return ptl, nil
}
