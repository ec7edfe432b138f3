package hevc

import "testing"

func buildMinimalPPS() []byte {
	w := &bitWriter{}
	w.ue(0)       // pps_pic_parameter_set_id
	w.ue(0)       // pps_seq_parameter_set_id
	w.flag(false) // dependent_slice_segments_enabled_flag
	w.flag(false) // output_flag_present_flag
	w.u(0, 3)     // num_extra_slice_header_bits
	w.flag(false) // sign_data_hiding_enabled_flag
	w.flag(false) // cabac_init_present_flag
	w.ue(0)       // num_ref_idx_l0_default_active_minus1
	w.ue(0)       // num_ref_idx_l1_default_active_minus1
	w.se(0)       // init_qp_minus26
	w.flag(false) // constrained_intra_pred_flag
	w.flag(false) // transform_skip_enabled_flag
	w.flag(false) // cu_qp_delta_enabled_flag
	w.se(0)       // pps_cb_qp_offset
	w.se(0)       // pps_cr_qp_offset
	w.flag(false) // pps_slice_chroma_qp_offsets_present_flag
	w.flag(false) // weighted_pred_flag
	w.flag(false) // weighted_bipred_flag
	w.flag(false) // transquant_bypass_enabled_flag
	w.flag(false) // tiles_enabled_flag
	w.flag(false) // entropy_coding_sync_enabled_flag
	w.flag(false) // pps_loop_filter_across_slices_enabled_flag
	w.flag(false) // deblocking_filter_control_present_flag
	w.flag(false) // pps_scaling_list_data_present_flag
	w.flag(false) // lists_modification_present_flag
	w.ue(0)       // log2_parallel_merge_level_minus2
	w.flag(false) // slice_segment_header_extension_present_flag
	w.flag(false) // pps_extension_present_flag
	return w.bytes()
}

func TestReadPictureParameterSetMinimal(t *testing.T) {
	t.Parallel()
	pps, err := ReadPictureParameterSet(buildMinimalPPS())
	if err != nil {
		t.Fatalf("ReadPictureParameterSet() error = %v", err)
	}
	if pps.TilesEnabledFlag {
		t.Error("TilesEnabledFlag = true, want false")
	}
	if pps.CuQpDeltaEnabledFlag {
		t.Error("CuQpDeltaEnabledFlag = true, want false")
	}
}

func TestReadPictureParameterSetTiles(t *testing.T) {
	t.Parallel()
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
	w.flag(true) // cu_qp_delta_enabled_flag
	w.ue(1)      // diff_cu_qp_delta_depth
	w.se(0)
	w.se(0)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(true) // tiles_enabled_flag
	w.flag(false)
	w.ue(1) // num_tile_columns_minus1 = 1 -> 2 columns
	w.ue(0) // num_tile_rows_minus1 = 0 -> 1 row
	w.flag(true) // uniform_spacing_flag
	w.flag(true) // loop_filter_across_tiles_enabled_flag
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.flag(false)
	w.ue(0)
	w.flag(false)
	w.flag(false)

	pps, err := ReadPictureParameterSet(w.bytes())
	if err != nil {
		t.Fatalf("ReadPictureParameterSet() error = %v", err)
	}
	if !pps.TilesEnabledFlag {
		t.Fatal("expected TilesEnabledFlag = true")
	}
	if pps.NumTileColumnsMinus1 != 1 || pps.NumTileRowsMinus1 != 0 {
		t.Errorf("tile grid = %d/%d, want 1/0", pps.NumTileColumnsMinus1, pps.NumTileRowsMinus1)
	}
	if !pps.CuQpDeltaEnabledFlag || pps.DiffCuQpDeltaDepth != 1 {
		t.Errorf("cu qp delta = %v/%d, want true/1", pps.CuQpDeltaEnabledFlag, pps.DiffCuQpDeltaDepth)
	}
	if pps.InitQpMinus26 != 2 {
		t.Errorf("InitQpMinus26 = %d, want 2", pps.InitQpMinus26)
	}
}
