package reader

import "github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"

// reservedLengthLow and reservedLengthHigh bound the initial-length escape
// values DWARF reserves for future use.
const (
	reservedLengthLow  = 0xffff_fff0
	reservedLengthHigh = 0xffff_fffe
	length64Escape     = 0xffff_ffff
)

// InitialLength reads a DWARF "initial length" field. A plain 32-bit value
// selects 4-byte offsets; the escape value 0xffffffff selects an 8-byte
// length (and 8-byte offsets); the reserved range 0xfffffff0..0xfffffffe
// is a fatal malformation.
func (r *Reader) InitialLength(cat diag.Category) (length uint64, offsetSize int, ok bool) {
	start := r.pos
	v, ok := r.U32()
	if !ok {
		return 0, 0, false
	}

	switch {
	case v == length64Escape:
		length, ok = r.U64()
		if !ok {
			r.pos = start
			return 0, 0, false
		}
		return length, 8, true
	case v >= reservedLengthLow && v <= reservedLengthHigh:
		if r.d != nil {
			r.d.Emit(r.LocusAt(start), diag.Impact4|cat|diag.Error,
				"initial length at offset 0x%x uses reserved escape value 0x%x", r.base+int64(start), v)
		}
		return 0, 0, false
	default:
		return uint64(v), 4, true
	}
}

// AddressSize reads and validates a one-byte address size. DWARF only
// defines 4- and 8-byte addresses; any other value is reported as fatal
// for the enclosing CU but coerced to elfClass so the caller may keep
// scanning the rest of the section.
func (r *Reader) AddressSize(cat diag.Category, elfClass int) (size int, ok bool) {
	start := r.pos
	v, ok := r.U8()
	if !ok {
		return 0, false
	}

	switch v {
	case 4, 8:
		return int(v), true
	default:
		if r.d != nil {
			r.d.Emit(r.LocusAt(start), diag.Impact4|cat|diag.Error,
				"invalid address size %d at offset 0x%x, coercing to %d", v, r.base+int64(start), elfClass)
		}
		return elfClass, false
	}
}
