// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"encoding/binary"
)

// Canonical builds a deterministic byte encoding from a fixed-order list
// of fields, so two implementations signing the same logical fields
// produce the same bytes (spec.md §4.3: "fixed field order, integer
// encoding, UTF-8"). Each field is length-prefixed so no delimiter
// collision is possible between adjacent string fields.
type Canonical struct {
	buf []byte
}

// NewCanonical starts a new canonical encoding.
func NewCanonical() *Canonical {
	return &Canonical{buf: make([]byte, 0, 128)}
}

// String appends a length-prefixed UTF-8 string field.
func (c *Canonical) String(s string) *Canonical {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(s)))
	c.buf = append(c.buf, lenBuf[:]...)
	c.buf = append(c.buf, s...)
	return c
}

// Int64 appends a fixed-width big-endian signed integer field.
func (c *Canonical) Int64(v int64) *Canonical {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	c.buf = append(c.buf, b[:]...)
	return c
}

// Uint64 appends a fixed-width big-endian unsigned integer field.
func (c *Canonical) Uint64(v uint64) *Canonical {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	c.buf = append(c.buf, b[:]...)
	return c
}

// Bytes returns the accumulated canonical encoding.
func (c *Canonical) Bytes() []byte {
	return c.buf
}
