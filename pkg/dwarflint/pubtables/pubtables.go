// Package pubtables validates .debug_pubnames and .debug_pubtypes: per-CU lookup tables mapping a global name to the DIE that
// defines it, used by consumers doing name-based lookup without walking
// the whole DIE tree.
package pubtables

import (
	"encoding/binary"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reader"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
)

// supportedVersion is the only value a pubnames/pubtypes set's own
// version field may carry, independent of the referenced CU's DWARF
// version.
const supportedVersion = 2

// Entry is one (die_offset, name) pair, die_offset relative to the set's
// CU.
type Entry struct {
	Offset int64
	DIE    uint64
	Name   string
}

// Set is one decoded pubnames/pubtypes table, covering a single CU.
type Set struct {
	Offset     int64
	Locus      locus.Locus
	Version    int
	CUOffset   uint64
	CULength   uint64
	Entries    []Entry
}

// CUInfo is what ParseAll needs from .debug_info to cross-check a set
// against its CU: whether the CU exists, its total encoded length, and
// whether a given DIE offset (relative to the CU) names a real DIE.
type CUInfo interface {
	Exists(cuOffset uint64) bool
	TotalSize(cuOffset uint64) (uint64, bool)
	HasDIE(cuOffset, dieOffset uint64) bool
}

// ParseAll walks every set in data until the section is exhausted.
// section selects .debug_pubnames vs .debug_pubtypes for area tagging
// and relocation bookkeeping; cus may be nil to skip all CU
// cross-checks. alreadyCovered, keyed by CU offset, is mutated to flag
// CUs that already have a set in this section: a second set for the
// same CU is accuracy-penalized rather than treated as fatal.
func ParseAll(data []byte, order binary.ByteOrder, relocs []reloc.Record, applier *reloc.Applier, section locus.Section, cus CUInfo, alreadyCovered map[uint64]bool, d *diag.Diagnostics) []*Set {
	cur := reloc.NewCursor(section, relocs, d, nil)
	if alreadyCovered == nil {
		alreadyCovered = make(map[uint64]bool)
	}

	var sets []*Set
	pos := int64(0)
	for pos < int64(len(data)) {
		s, next, ok := parseSet(data, pos, order, section, cur, applier, cus, alreadyCovered, d)
		if !ok {
			return sets
		}
		if s != nil {
			sets = append(sets, s)
		}
		pos = next
	}
	return sets
}

func parseSet(data []byte, offset int64, order binary.ByteOrder, section locus.Section, cur *reloc.Cursor, applier *reloc.Applier, cus CUInfo, alreadyCovered map[uint64]bool, d *diag.Diagnostics) (s *Set, next int64, ok bool) {
	r := reader.New(section, data[offset:], offset, order, d)
	l := locus.Offset(section, offset)

	length, offsetSize, ok := r.InitialLength(diag.AreaPubtables)
	if !ok {
		return nil, int64(len(data)), false
	}
	setEnd := r.Offset() + int64(length)

	version, ok := r.U16()
	if !ok {
		d.Emit(l, diag.Impact4|diag.AreaPubtables|diag.Error, "can't read set version")
		return nil, setEnd, true
	}
	if version != supportedVersion {
		d.Emit(l, diag.Impact4|diag.AreaPubtables|diag.Error,
			"set declares unsupported version %d, expected %d", version, supportedVersion)
		return nil, setEnd, true
	}

	s = &Set{Offset: offset, Locus: l, Version: int(version)}

	cuOffOff := r.Offset()
	cuOffset, ok := r.Uint(offsetSize)
	if !ok {
		d.Emit(l, diag.Impact4|diag.AreaPubtables|diag.Error, "can't read debug info offset")
		return nil, setEnd, true
	}
	if rec, found := cur.Next(cuOffOff, l, reloc.ModeOK); found {
		if applier != nil {
			applier.Apply(rec, offsetSize, l, reloc.TargetSection, locus.SectionInfo, &cuOffset)
		}
	}
	s.CUOffset = cuOffset

	var cuKnown bool
	var cuTotalSize uint64
	if cus != nil {
		if !cus.Exists(cuOffset) {
			d.Emit(l, diag.Impact4|diag.AreaPubtables|diag.Error,
				"unresolved reference to CU at offset 0x%x", cuOffset)
		} else {
			cuKnown = true
			cuTotalSize, _ = cus.TotalSize(cuOffset)
			if alreadyCovered[cuOffset] {
				d.Emit(l, diag.Impact2|diag.AreaPubtables,
					"there has already been a %s set for CU at offset 0x%x", section, cuOffset)
			} else {
				alreadyCovered[cuOffset] = true
			}
		}
	}

	cuLen, ok := r.Uint(offsetSize)
	if !ok {
		d.Emit(l, diag.Impact4|diag.AreaPubtables|diag.Error, "can't read covered length")
		return nil, setEnd, true
	}
	s.CULength = cuLen
	if cuKnown && cuLen != cuTotalSize {
		d.Emit(l, diag.Impact4|diag.AreaPubtables|diag.Error,
			"the table covers length %d but CU has length %d", cuLen, cuTotalSize)
		return s, setEnd, true
	}

	for r.Offset() < setEnd {
		recOff := r.Offset()
		dieOffset, ok := r.Uint(offsetSize)
		if !ok {
			d.Emit(locus.Offset(section, recOff), diag.Impact4|diag.AreaPubtables|diag.Error,
				"can't read offset field")
			return s, setEnd, true
		}
		if dieOffset == 0 {
			break
		}

		if cuKnown && !cus.HasDIE(s.CUOffset, dieOffset) {
			d.Emit(locus.Offset(section, recOff), diag.Impact4|diag.AreaPubtables|diag.Error,
				"unresolved reference to DIE at offset 0x%x", dieOffset)
			return s, setEnd, true
		}

		name, ok := r.CString()
		if !ok {
			d.Emit(locus.Offset(section, recOff), diag.Impact4|diag.AreaPubtables|diag.Error,
				"can't read symbol name")
			return s, setEnd, true
		}

		s.Entries = append(s.Entries, Entry{Offset: recOff, DIE: dieOffset, Name: name})
	}

	if pos := r.Offset(); pos < setEnd {
		pad, ok := r.Bytes(int(setEnd - pos))
		if ok {
			allZero := true
			for _, b := range pad {
				if b != 0 {
					allZero = false
					break
				}
			}
			if allZero {
				d.Emit(l, diag.Bloat|diag.AreaPubtables, "set at 0x%x has trailing zero padding", offset)
			} else {
				d.Emit(l, diag.Impact4|diag.AreaPubtables|diag.Error, "set at 0x%x has non-zero trailing padding", offset)
			}
		}
	}

	return s, setEnd, true
}
