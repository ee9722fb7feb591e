package cdf

import (
	"encoding/binary"
)

// builder assembles one record's payload, everything after the 12-byte
// size and type header. Bookkeeping fields are big-endian.
type builder struct {
	buf []byte
}

func (b *builder) i32(v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	b.buf = append(b.buf, tmp[:]...)
}

func (b *builder) i64(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	b.buf = append(b.buf, tmp[:]...)
}

// strN appends s as a fixed-width NUL-padded field, truncating if needed.
func (b *builder) strN(s string, n int) {
	field := make([]byte, n)
	copy(field, s)
	b.buf = append(b.buf, field...)
}

func (b *builder) raw(p []byte) {
	b.buf = append(b.buf, p...)
}

// record prepends the v3 record header to the assembled payload.
func (b *builder) record(typ int32) []byte {
	out := make([]byte, 12+len(b.buf))
	binary.BigEndian.PutUint64(out[:8], uint64(12+len(b.buf)))
	binary.BigEndian.PutUint32(out[8:12], uint32(typ))
	copy(out[12:], b.buf)
	return out
}
