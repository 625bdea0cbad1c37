// Package reader implements the bounds-checked byte cursor shared by every
// section checker: plain and LEB128 integer reads, DWARF "initial length"
// and address-size decoding, and zero-padding detection.
package reader

import (
	"encoding/binary"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
)

// Reader is a read cursor over a byte slice. It never panics. A read
// that runs out of bytes fails and leaves the cursor untouched; an
// overflowing LEB128 value, a reserved initial length, or an invalid
// address size fails after consuming the bytes it examined.
type Reader struct {
	section locus.Section
	data    []byte
	pos     int
	base    int64
	order   binary.ByteOrder
	d       *diag.Diagnostics
}

// New builds a Reader over data, whose first byte sits at absolute offset
// base within section. d may be nil for reads that should not emit
// diagnostics (e.g. speculative lookahead).
func New(section locus.Section, data []byte, base int64, order binary.ByteOrder, d *diag.Diagnostics) *Reader {
	return &Reader{section: section, data: data, base: base, order: order, d: d}
}

// Offset returns the absolute section offset of the cursor.
func (r *Reader) Offset() int64 {
	return r.base + int64(r.pos)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// AtEnd reports whether the cursor has consumed the whole buffer.
func (r *Reader) AtEnd() bool {
	return r.pos >= len(r.data)
}

// Locus builds a Locus for the current cursor position.
func (r *Reader) Locus() locus.Locus {
	return locus.Offset(r.section, r.Offset())
}

// LocusAt builds a Locus for an arbitrary position (pos is relative to the
// start of this Reader's buffer, as stored in r.pos).
func (r *Reader) LocusAt(pos int) locus.Locus {
	return locus.Offset(r.section, r.base+int64(pos))
}

// Need reports whether n more bytes are available without consuming them.
func (r *Reader) Need(n int) bool {
	return n >= 0 && r.pos+n <= len(r.data)
}

// Peek returns the next n bytes without advancing the cursor. ok is false
// if fewer than n bytes remain.
func (r *Reader) Peek(n int) (b []byte, ok bool) {
	if !r.Need(n) {
		return nil, false
	}
	return r.data[r.pos : r.pos+n], true
}

// Skip advances the cursor by n bytes. It fails (and does not advance) if
// fewer than n bytes remain.
func (r *Reader) Skip(n int) bool {
	if !r.Need(n) {
		return false
	}
	r.pos += n
	return true
}

// Bytes consumes and returns the next n bytes.
func (r *Reader) Bytes(n int) (b []byte, ok bool) {
	b, ok = r.Peek(n)
	if !ok {
		return nil, false
	}
	r.pos += n
	return b, true
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, bool) {
	b, ok := r.Bytes(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// U16 reads a two-byte unsigned integer, respecting endianness.
func (r *Reader) U16() (uint16, bool) {
	b, ok := r.Bytes(2)
	if !ok {
		return 0, false
	}
	return r.order.Uint16(b), true
}

// U32 reads a four-byte unsigned integer, respecting endianness.
func (r *Reader) U32() (uint32, bool) {
	b, ok := r.Bytes(4)
	if !ok {
		return 0, false
	}
	return r.order.Uint32(b), true
}

// U64 reads an eight-byte unsigned integer, respecting endianness.
func (r *Reader) U64() (uint64, bool) {
	b, ok := r.Bytes(8)
	if !ok {
		return 0, false
	}
	return r.order.Uint64(b), true
}

// Uint reads an unsigned integer of the given width (1, 2, 4, or 8 bytes).
// An unsupported width is a programmer error and returns ok == false.
func (r *Reader) Uint(width int) (uint64, bool) {
	switch width {
	case 1:
		v, ok := r.U8()
		return uint64(v), ok
	case 2:
		v, ok := r.U16()
		return uint64(v), ok
	case 4:
		v, ok := r.U32()
		return uint64(v), ok
	case 8:
		return r.U64()
	default:
		return 0, false
	}
}

// CString reads a NUL-terminated string, consuming the terminator.
func (r *Reader) CString() (string, bool) {
	start := r.pos
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[start:i])
			r.pos = i + 1
			return s, true
		}
	}
	return "", false
}

// AllZero reports whether every remaining byte is zero. Used by callers
// doing zero-padding detection: when a read fails with all-zero bytes
// left, the caller should emit a bloat diagnostic and terminate the
// scan cleanly rather than treat it as a structural error.
func (r *Reader) AllZero() bool {
	for _, b := range r.data[r.pos:] {
		if b != 0 {
			return false
		}
	}
	return true
}
