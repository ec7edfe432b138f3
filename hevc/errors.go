package hevc

import (
	"fmt"

	"github.com/go-heic/heic/heicerr"
)

var errRefRpsIdxOutOfRange = fmt.Errorf("%w: short-term ref pic set prediction index out of range", heicerr.ErrMalformed)

// ErrNonIFrame indicates a slice segment header declared a slice_type other
// than I. It wraps heicerr.ErrUnsupported.
var ErrNonIFrame = fmt.Errorf("%w: hevc: non-I-slice bitstreams are not supported", heicerr.ErrUnsupported)
