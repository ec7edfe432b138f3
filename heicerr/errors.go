// Package heicerr defines the error taxonomy shared by the container,
// bitstream, and entropy-coding layers: Truncated, Malformed, Unsupported,
// and ProfileMismatch. Callers distinguish failure modes with errors.Is.
package heicerr

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates a read ran past the end of the available data.
	ErrTruncated = errors.New("heic: truncated")
	// ErrMalformed indicates a structural violation of the container or
	// bitstream grammar (box size mismatch, missing required child, value
	// out of the grammar's legal range).
	ErrMalformed = errors.New("heic: malformed")
	// ErrUnsupported indicates well-formed input the decoder deliberately
	// refuses: inter-predicted slices, extension flags, unrecognized item
	// types, and other features outside this decoder's scope.
	ErrUnsupported = errors.New("heic: unsupported")
	// ErrProfileMismatch indicates the file lacks data this decoder
	// requires to proceed, such as a missing parameter set or a primary
	// item of a type this decoder cannot produce pixels for.
	ErrProfileMismatch = errors.New("heic: profile mismatch")
)

// ParseError reports a failure to parse a named field, carrying enough
// context (a box-kind stack or a bitstream position) to diagnose it without
// exposing the parsed byte range to the caller.
type ParseError struct {
	Context string // e.g. "meta/iprp/ipco/hvcC" or "sps@bit 142"
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("heic: %s: parse %s: %v", e.Context, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
