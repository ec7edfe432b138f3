package cabac

import "testing"

func binIter(bins []bool) func() (bool, error) {
	idx := 0
	return func() (bool, error) {
		b := bins[idx]
		idx++
		return b, nil
	}
}

// Table 9-39 truncated-rice binarization with cRiceParam=0 reduces to pure
// unary: prefixVal consecutive 1-bins terminated by a 0 (or saturating at
// cMax).
func TestDecodeTruncatedRiceUnary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		bins []bool
		want uint16
	}{
		{"0", []bool{false}, 0},
		{"1", []bool{true, false}, 1},
		{"2", []bool{true, true, false}, 2},
		{"3", []bool{true, true, true, false}, 3},
		{"4", []bool{true, true, true, true, false}, 4},
		{"5 (saturates at cMax, no terminating 0)", []bool{true, true, true, true, true}, 5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeTruncatedRice(5, 0, binIter(tt.bins))
			if err != nil {
				t.Fatalf("decodeTruncatedRice() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decodeTruncatedRice() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Table 9-41: intra_chroma_pred_mode binarization.
func TestDecodeIntraChromaPredModeBins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		bins []bool
		want uint16
	}{
		{"value 4", []bool{false}, 4},
		{"value 0", []bool{true, false, false}, 0},
		{"value 1", []bool{true, false, true}, 1},
		{"value 2", []bool{true, true, false}, 2},
		{"value 3", []bool{true, true, true}, 3},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeIntraChromaPredModeBins(binIter(tt.bins))
			if err != nil {
				t.Fatalf("decodeIntraChromaPredModeBins() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decodeIntraChromaPredModeBins() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecodeEGk(t *testing.T) {
	t.Parallel()
	// EG0: value v encodes as num_ones 1-bits, then a 0, then num_ones
	// suffix bits, so 0 is "0", 1 is "100" and 2 is "101". For k=0,
	// value 0 is prefix "0" (num_ones=0, suffix_len=0).
	got, err := decodeEGk(0, binIter([]bool{false}))
	if err != nil {
		t.Fatalf("decodeEGk() error = %v", err)
	}
	if got != 0 {
		t.Errorf("decodeEGk(k=0) = %d, want 0", got)
	}

	// num_ones=1, suffix_len=1, suffix bit = 1: value = ((1<<1)-1)<<0 + 1 = 2
	got, err = decodeEGk(0, binIter([]bool{true, false, true}))
	if err != nil {
		t.Fatalf("decodeEGk() error = %v", err)
	}
	if got != 2 {
		t.Errorf("decodeEGk(k=0) = %d, want 2", got)
	}
}

func TestDecodeCoeffAbsLevelRemainingRiceEscalation(t *testing.T) {
	t.Parallel()
	var state CoeffAbsLevelState
	state.CLastAbsLevel = 100
	state.CLastRiceParam = 0

	// threshold = 3<<0 = 3; 100 > 3, so cRiceParam escalates to 1.
	// cMax = 4<<1 = 8, TR(cMax=8, cRiceParam=1): a 0 prefix bin gives
	// prefixVal=0 (below prefixMax=4), followed by a 1-bit suffix, so
	// decodeTruncatedRice returns (0<<1)+1 = 1, below cMax, and no EGk
	// suffix is read.
	bins := []bool{false, true}
	got, err := decodeCoeffAbsLevelRemainingBins(&state, 0, binIter(bins))
	if err != nil {
		t.Fatalf("decodeCoeffAbsLevelRemainingBins() error = %v", err)
	}
	if state.CLastRiceParam != 1 {
		t.Errorf("CLastRiceParam = %d, want 1 (escalated)", state.CLastRiceParam)
	}
	_ = got
}
