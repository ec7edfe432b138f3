package bitstream

import "github.com/go-heic/heic/heicerr"

// ErrTruncated indicates a read requested more bits or bytes than remain in
// the underlying buffer. It is heicerr.ErrTruncated itself, not a distinct
// sentinel, so callers anywhere in the decoder can match truncation with a
// single errors.Is(err, heicerr.ErrTruncated) regardless of which layer
// detected it.
var ErrTruncated = heicerr.ErrTruncated

// ErrMalformed indicates a value read from the stream violates a structural
// constraint (an Exp-Golomb code with an implausible prefix length, an
// emulation-prevention sequence that cannot be removed cleanly). See
// ErrTruncated: this is heicerr.ErrMalformed, not a separate sentinel.
var ErrMalformed = heicerr.ErrMalformed
