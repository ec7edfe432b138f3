package hevc

import "testing"

func TestReadVideoParameterSetMinimal(t *testing.T) {
	t.Parallel()
	w := &bitWriter{}
	w.u(0, 4)     // vps_video_parameter_set_id
	w.flag(true)  // vps_base_layer_internal_flag
	w.flag(true)  // vps_base_layer_available_flag
	w.u(0, 6)     // vps_max_layers_minus1
	w.u(0, 3)     // vps_max_sub_layers_minus1
	w.flag(false) // vps_temporal_id_nesting_flag
	w.u(0xFFFF, 16)
	writeMinimalPTL(w, 1, 120)

	vps, err := ReadVideoParameterSet(w.bytes())
	if err != nil {
		t.Fatalf("ReadVideoParameterSet() error = %v", err)
	}
	if vps.ProfileTierLevel.GeneralProfileIdc != 1 {
		t.Errorf("GeneralProfileIdc = %d, want 1", vps.ProfileTierLevel.GeneralProfileIdc)
	}
	if vps.ProfileTierLevel.GeneralLevelIdc != 120 {
		t.Errorf("GeneralLevelIdc = %d, want 120", vps.ProfileTierLevel.GeneralLevelIdc)
	}
	if !vps.BaseLayerInternalFlag || !vps.BaseLayerAvailableFlag {
		t.Error("expected both base layer flags true")
	}
}
