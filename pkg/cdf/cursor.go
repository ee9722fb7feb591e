package cdf

import (
	"encoding/binary"
	"fmt"

	"github.com/heliolib/gocdf/pkg/codec"
)

// cursor walks one record's bytes. Record bookkeeping fields are always
// big-endian regardless of the file's data encoding. The first out-of-range
// read latches an error; callers check once at the end.
type cursor struct {
	buf []byte
	pos int
	err error
}

func (c *cursor) fail() {
	if c.err == nil {
		c.err = fmt.Errorf("%w: record truncated at byte %d of %d", ErrFormat, c.pos, len(c.buf))
	}
}

func (c *cursor) i32() int32 {
	if c.err != nil || c.pos+4 > len(c.buf) {
		c.fail()
		return 0
	}
	v := int32(binary.BigEndian.Uint32(c.buf[c.pos:]))
	c.pos += 4
	return v
}

func (c *cursor) i64() int64 {
	if c.err != nil || c.pos+8 > len(c.buf) {
		c.fail()
		return 0
	}
	v := int64(binary.BigEndian.Uint64(c.buf[c.pos:]))
	c.pos += 8
	return v
}

// off reads a file offset: 8 bytes in v3 records, 4 in v2.
func (c *cursor) off(wide bool) int64 {
	if wide {
		return c.i64()
	}
	return int64(c.i32())
}

func (c *cursor) skip(n int) {
	if c.err != nil || c.pos+n > len(c.buf) {
		c.fail()
		return
	}
	c.pos += n
}

func (c *cursor) bytesN(n int) []byte {
	if c.err != nil || n < 0 || c.pos+n > len(c.buf) {
		c.fail()
		return nil
	}
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v
}

// str reads a fixed-width NUL-padded name field.
func (c *cursor) str(n int) string {
	return codec.TrimNulls(c.bytesN(n))
}

func (c *cursor) rest() []byte {
	if c.err != nil {
		return nil
	}
	v := c.buf[c.pos:]
	c.pos = len(c.buf)
	return v
}
