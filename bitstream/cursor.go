package bitstream

import "fmt"

// Cursor is a byte-granular reader over a single immutable buffer, used for
// ISO BMFF box headers and other byte-aligned structures.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a Cursor positioned at the start of data. The returned
// Cursor borrows data; it does not copy it.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the total length of the underlying buffer.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

func (c *Cursor) need(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, c.pos, c.Remaining())
	}
	return nil
}

// ReadU8 reads one big-endian byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// ReadU16 reads a big-endian uint16.
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := uint16(c.data[c.pos])<<8 | uint16(c.data[c.pos+1])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := uint32(c.data[c.pos])<<24 | uint32(c.data[c.pos+1])<<16 | uint32(c.data[c.pos+2])<<8 | uint32(c.data[c.pos+3])
	c.pos += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64.
func (c *Cursor) ReadU64() (uint64, error) {
	hi, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	lo, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// ReadUint reads a big-endian unsigned integer of the given byte width,
// one of 0, 2, 4, or 8 (0 always yields 0 with no bytes consumed), used for
// iloc's variably-sized offset/length fields.
func (c *Cursor) ReadUint(width int) (uint64, error) {
	switch width {
	case 0:
		return 0, nil
	case 2:
		v, err := c.ReadU16()
		return uint64(v), err
	case 4:
		v, err := c.ReadU32()
		return uint64(v), err
	case 8:
		return c.ReadU64()
	default:
		return 0, fmt.Errorf("%w: unsupported field width %d", ErrMalformed, width)
	}
}

// ReadSlice returns the next n bytes without copying; the slice aliases the
// underlying buffer.
func (c *Cursor) ReadSlice(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	v := c.data[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// Peek returns the next n bytes without advancing the cursor.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	return c.data[c.pos : c.pos+n], nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// SeekTo repositions the cursor to an absolute offset; used after a box has
// been consumed only partially (unknown sub-fields, skip-to-end).
func (c *Cursor) SeekTo(pos int) error {
	if pos < 0 || pos > len(c.data) {
		return fmt.Errorf("%w: seek to %d exceeds buffer length %d", ErrMalformed, pos, len(c.data))
	}
	c.pos = pos
	return nil
}

// ReadNullTerminatedString reads bytes up to and including a trailing NUL,
// returning the string without the NUL.
func (c *Cursor) ReadNullTerminatedString() (string, error) {
	start := c.pos
	for {
		b, err := c.ReadU8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(c.data[start : c.pos-1]), nil
		}
	}
}
