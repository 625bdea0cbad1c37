package reader

import "github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"

// maxLEB128Bytes bounds how many continuation bytes a 64-bit value can
// need: ceil(64/7) = 10.
const maxLEB128Bytes = 10

// ULEB128 reads an unsigned LEB128 value (DWARF4 figure 46). Decoding
// fails if the value overflows 64 bits. A value encoded with more bytes
// than strictly necessary still decodes successfully but emits a
// wasteful-encoding diagnostic. These diagnostics are always tagged
// diag.AreaLEB128; cat does not change them.
func (r *Reader) ULEB128(cat diag.Category) (uint64, bool) {
	start := r.pos
	var result uint64
	var shift uint
	n := 0

	for {
		if r.AtEnd() {
			r.pos = start
			return 0, false
		}
		b := r.data[r.pos]
		r.pos++
		n++

		// Only the low bit of a tenth byte (shift 63) still fits.
		if shift < 64 && (shift < 63 || b&0x7e == 0) {
			result |= uint64(b&0x7f) << shift
		} else if b&0x7f != 0 {
			// Overflow: bits set beyond the 64th.
			if r.d != nil {
				r.d.Emit(r.LocusAt(start), diag.Impact4|diag.AreaLEB128|diag.Error,
					"ULEB128 value at offset 0x%x overflows 64 bits", r.base+int64(start))
			}
			return 0, false
		}

		if b&0x80 == 0 {
			break
		}
		shift += 7
		if n > maxLEB128Bytes {
			if r.d != nil {
				r.d.Emit(r.LocusAt(start), diag.Impact4|diag.AreaLEB128|diag.Error,
					"ULEB128 value at offset 0x%x is not terminated within 64 bits", r.base+int64(start))
			}
			return 0, false
		}
	}

	if isLongULEB128(result, n) && r.d != nil {
		r.d.Emit(r.LocusAt(start), diag.Suboptimal|diag.AreaLEB128,
			"ULEB128 value at offset 0x%x encoded with superfluous bytes", r.base+int64(start))
	}

	return result, true
}

// SLEB128 reads a signed LEB128 value (DWARF4 figure 47), with the same
// overflow/wasteful-encoding diagnostics as ULEB128, also always tagged
// diag.AreaLEB128.
func (r *Reader) SLEB128(cat diag.Category) (int64, bool) {
	start := r.pos
	var result int64
	var shift uint
	n := 0
	var last byte

	for {
		if r.AtEnd() {
			r.pos = start
			return 0, false
		}
		b := r.data[r.pos]
		r.pos++
		n++
		last = b

		// From bit 63 on, every payload bit must repeat the sign.
		if shift >= 63 && b&0x7f != 0 && b&0x7f != 0x7f {
			if r.d != nil {
				r.d.Emit(r.LocusAt(start), diag.Impact4|diag.AreaLEB128|diag.Error,
					"SLEB128 value at offset 0x%x overflows 64 bits", r.base+int64(start))
			}
			return 0, false
		}
		if shift < 64 {
			result |= int64(b&0x7f) << shift
		}

		if b&0x80 == 0 {
			break
		}
		shift += 7
		if n > maxLEB128Bytes {
			if r.d != nil {
				r.d.Emit(r.LocusAt(start), diag.Impact4|diag.AreaLEB128|diag.Error,
					"SLEB128 value at offset 0x%x is not terminated within 64 bits", r.base+int64(start))
			}
			return 0, false
		}
	}

	if shift < 64 && last&0x40 != 0 {
		result |= -int64(1) << shift
	}

	if isLongSLEB128(result, n) && r.d != nil {
		r.d.Emit(r.LocusAt(start), diag.Suboptimal|diag.AreaLEB128,
			"SLEB128 value at offset 0x%x encoded with superfluous bytes", r.base+int64(start))
	}

	return result, true
}

// minimalULEB128Len returns the number of bytes the minimal ULEB128
// encoding of v requires.
func minimalULEB128Len(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

func isLongULEB128(v uint64, actualLen int) bool {
	return actualLen > minimalULEB128Len(v)
}

// minimalSLEB128Len returns the number of bytes the minimal SLEB128
// encoding of v requires.
func minimalSLEB128Len(v int64) int {
	n := 1
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			n++
		}
	}
	return n
}

func isLongSLEB128(v int64, actualLen int) bool {
	return actualLen > minimalSLEB128Len(v)
}
