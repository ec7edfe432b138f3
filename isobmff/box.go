package isobmff

import (
	"fmt"

	"github.com/go-heic/heic/bitstream"
	"github.com/go-heic/heic/heicerr"
)

// boxHeader is the common prefix of every ISO BMFF box.
type boxHeader struct {
	kind     string
	size     uint64 // total size including the header, 0 means "to end of file"
	start    int    // cursor offset at which the header began
	fullBox  bool
	version  uint8
	flags    uint32
}

// reader drives a recursive descent over a single root buffer, tracking a
// diagnostic stack of box kinds for error messages.
type reader struct {
	c        *bitstream.Cursor
	root     []byte
	boxStack []string
}

func newReader(data []byte) *reader {
	return &reader{c: bitstream.NewCursor(data), root: data}
}

func (r *reader) push(kind string) { r.boxStack = append(r.boxStack, kind) }
func (r *reader) pop()             { r.boxStack = r.boxStack[:len(r.boxStack)-1] }

func (r *reader) stackString() string {
	out := ""
	for i, k := range r.boxStack {
		if i > 0 {
			out += "/"
		}
		out += k
	}
	return out
}

func (r *reader) parseErr(field string, err error) error {
	return &heicerr.ParseError{Context: r.stackString(), Field: field, Err: err}
}

// readBoxHeader reads size/kind, expanding the largesize and uuid-extended
// type cases, and returns the byte offset at which the payload begins.
func (r *reader) readBoxHeader() (boxHeader, int, error) {
	start := r.c.Pos()
	size32, err := r.c.ReadU32()
	if err != nil {
		return boxHeader{}, 0, r.parseErr("box size", err)
	}
	kindBytes, err := r.c.ReadSlice(4)
	if err != nil {
		return boxHeader{}, 0, r.parseErr("box kind", err)
	}
	kind := string(kindBytes)

	size := uint64(size32)
	if size32 == 1 {
		size, err = r.c.ReadU64()
		if err != nil {
			return boxHeader{}, 0, r.parseErr("box largesize", err)
		}
	}
	if kind == "uuid" {
		if err := r.c.Skip(16); err != nil {
			return boxHeader{}, 0, r.parseErr("box extended type", err)
		}
	}
	return boxHeader{kind: kind, size: size, start: start}, r.c.Pos(), nil
}

// boxEnd returns the absolute offset one past this box's payload, resolving
// a size of 0 ("to end of file") against the root buffer length.
func (h boxHeader) boxEnd(rootLen int) int {
	if h.size == 0 {
		return rootLen
	}
	return h.start + int(h.size)
}

// readFullBoxHeader consumes the version+flags word that prefixes a "full
// box".
func (r *reader) readFullBoxHeader() (uint8, uint32, error) {
	word, err := r.c.ReadU32()
	if err != nil {
		return 0, 0, r.parseErr("full box header", err)
	}
	return uint8(word >> 24), word & 0x00FFFFFF, nil
}

// expectEnd verifies the cursor sits exactly at end after a box's payload
// reader has run, per the box parser's exit contract.
func (r *reader) expectEnd(kind string, end int) error {
	if r.c.Pos() != end {
		return r.parseErr(kind, fmt.Errorf("%w: expected to end at offset %d, ended at %d", heicerr.ErrMalformed, end, r.c.Pos()))
	}
	return nil
}

// skipToEnd advances the cursor to end without inspecting the payload, used
// for box kinds this decoder does not understand.
func (r *reader) skipToEnd(end int) error {
	if err := r.c.SeekTo(end); err != nil {
		return r.parseErr("skip", err)
	}
	return nil
}

// peekKind reads the kind field of the box starting at the cursor's current
// position without consuming it, used by loops that read boxes until a
// terminating condition rather than a fixed count.
func (r *reader) peekKind() (string, error) {
	b, err := r.c.Peek(8)
	if err != nil {
		return "", err
	}
	return string(b[4:8]), nil
}
