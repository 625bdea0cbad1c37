// Package aranges validates .debug_aranges address-range tables
//: one table per compile unit, mapping the CU's code
// ranges back to its .debug_info offset, used by consumers doing
// lookup-by-address without walking the whole DIE tree.
package aranges

import (
	"encoding/binary"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/coverage"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reader"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
)

// supportedVersion is the only value .debug_aranges' own version field
// may carry, independent of the referenced CU's DWARF version.
const supportedVersion = 2

// Range is one (address, length) tuple.
type Range struct {
	Address uint64
	Length  uint64
}

// Table is one decoded arange set.
type Table struct {
	Offset   int64
	Locus    locus.Locus
	Version  int
	CUOffset uint64
	Ranges   []Range
}

// ParseAll walks every arange table in data, in sequence, until the
// section is exhausted. cuExists receives each table's CU offset
// and reports whether some CU in .debug_info exists at that offset;
// pass a function that always returns true to skip the check.
func ParseAll(data []byte, order binary.ByteOrder, relocs []reloc.Record, applier *reloc.Applier, cuExists func(offset uint64) bool, d *diag.Diagnostics) []*Table {
	cur := reloc.NewCursor(locus.SectionAranges, relocs, d, nil)
	seenCU := make(map[uint64]bool)

	var tables []*Table
	pos := int64(0)
	for pos < int64(len(data)) {
		t, next, ok := parseTable(data, pos, order, cur, applier, d)
		if !ok {
			return tables
		}
		if t != nil {
			if seenCU[t.CUOffset] {
				d.Emit(t.Locus, diag.Impact3|diag.AreaAranges|diag.Error,
					"CU at offset 0x%x already has an arange table", t.CUOffset)
			} else {
				seenCU[t.CUOffset] = true
			}
			if cuExists != nil && !cuExists(t.CUOffset) {
				d.Emit(t.Locus, diag.Impact4|diag.AreaAranges|diag.Error,
					"arange table references CU at offset 0x%x, but no such CU exists", t.CUOffset)
			}
			tables = append(tables, t)
		}
		pos = next
	}
	return tables
}

func parseTable(data []byte, offset int64, order binary.ByteOrder, cur *reloc.Cursor, applier *reloc.Applier, d *diag.Diagnostics) (t *Table, next int64, ok bool) {
	r := reader.New(locus.SectionAranges, data[offset:], offset, order, d)
	l := locus.Offset(locus.SectionAranges, offset)

	length, offsetSize, ok := r.InitialLength(diag.AreaAranges)
	if !ok {
		return nil, int64(len(data)), false
	}
	tableEnd := r.Offset() + int64(length)

	version, ok := r.U16()
	if !ok {
		d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error, "truncated arange table version")
		return nil, tableEnd, true
	}
	if version != supportedVersion {
		d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error,
			"arange table declares unsupported version %d, expected %d", version, supportedVersion)
		return nil, tableEnd, true
	}

	t = &Table{Offset: offset, Locus: l, Version: int(version)}

	cuOffOff := r.Offset()
	cuOffset, ok := r.Uint(offsetSize)
	if !ok {
		d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error, "truncated CU offset")
		return nil, tableEnd, true
	}
	if rec, found := cur.Next(cuOffOff, l, reloc.ModeOK); found && applier != nil {
		applier.Apply(rec, offsetSize, l, reloc.TargetSection, locus.SectionInfo, &cuOffset)
	}
	t.CUOffset = cuOffset

	addrSize, ok := r.AddressSize(diag.AreaAranges, 8)
	if !ok && addrSize == 0 {
		d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error, "truncated address size")
		return nil, tableEnd, true
	}

	segSize, ok := r.U8()
	if !ok {
		d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error, "truncated segment size")
		return nil, tableEnd, true
	}
	if segSize != 0 {
		d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error, "non-zero segment_size %d is not supported", segSize)
		return nil, tableEnd, true
	}

	tupleSize := int64(2 * addrSize)
	if off := r.Offset() % tupleSize; off != 0 {
		padLen := tupleSize - off
		pad, ok := r.Bytes(int(padLen))
		if !ok {
			d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error, "section ends in the middle of the tuple-alignment padding")
			return nil, tableEnd, true
		}
		for _, b := range pad {
			if b != 0 {
				d.Emit(l, diag.Suboptimal|diag.AreaAranges, "non-zero byte in tuple-alignment padding before the first entry")
				break
			}
		}
	}

	for r.Offset() < tableEnd {
		entryOff := r.Offset()
		address, ok := r.Uint(addrSize)
		if !ok {
			d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error, "truncated address field at 0x%x", entryOff)
			return t, tableEnd, true
		}
		relocated := false
		if rec, found := cur.Next(entryOff, l, reloc.ModeOK); found {
			relocated = true
			if applier != nil {
				applier.Apply(rec, addrSize, l, reloc.TargetAddress, locus.SectionUnknown, &address)
			}
		}

		length, ok := r.Uint(addrSize)
		if !ok {
			d.Emit(l, diag.Impact4|diag.AreaAranges|diag.Error, "truncated length field at 0x%x", entryOff)
			return t, tableEnd, true
		}

		if address == 0 && length == 0 && !relocated {
			break
		}
		if length == 0 {
			d.Emit(locus.Offset(locus.SectionAranges, entryOff), diag.Impact4|diag.AreaAranges|diag.Error,
				"zero-length address range at 0x%x", entryOff)
			continue
		}
		if relocated && applier != nil && address == 0 {
			d.Emit(locus.Offset(locus.SectionAranges, entryOff), diag.Bloat|diag.AreaAranges,
				"arange at 0x%x relocated to zero address", entryOff)
		}
		t.Ranges = append(t.Ranges, Range{Address: address, Length: length})
	}

	if pos := r.Offset(); pos < tableEnd {
		pad, ok := r.Bytes(int(tableEnd - pos))
		if ok {
			allZero := true
			for _, b := range pad {
				if b != 0 {
					allZero = false
					break
				}
			}
			if allZero {
				d.Emit(l, diag.Bloat|diag.AreaAranges, "arange table at 0x%x has trailing zero padding", offset)
			} else {
				d.Emit(l, diag.Impact2|diag.AreaAranges|diag.Error, "arange table at 0x%x has non-zero trailing padding", offset)
			}
		}
	}

	return t, tableEnd, true
}

// Coverage folds every table's ranges into a single coverage.Coverage,
// flagging (and still recording) overlaps between ranges.
func Coverage(tables []*Table, d *diag.Diagnostics) coverage.Coverage {
	var cov coverage.Coverage
	for _, t := range tables {
		for _, rg := range t.Ranges {
			if cov.Overlaps(int64(rg.Address), int64(rg.Length)) {
				d.Emit(t.Locus, diag.Impact2|diag.AreaAranges|diag.Error,
					"range [0x%x, 0x%x) overlaps with another arange entry", rg.Address, rg.Address+rg.Length)
			}
			cov.Add(int64(rg.Address), int64(rg.Length))
		}
	}
	return cov
}

// CompareCoverage flags, in both directions, address ranges covered by
// one of arangesCov/cuCov but not the other, skipping holes whose span is
// pure alignment slack (i.e. shorter than align bytes).
func CompareCoverage(arangesCov, cuCov *coverage.Coverage, align int64, d *diag.Diagnostics) {
	reportHoles(arangesCov.Difference(cuCov), align, "aranges", d)
	reportHoles(cuCov.Difference(arangesCov), align, "CU DIEs", d)
}

func reportHoles(missing coverage.Coverage, align int64, coveredBy string, d *diag.Diagnostics) {
	for _, h := range missing.Ranges() {
		if align > 0 && h.Length < align {
			continue
		}
		d.Emit(locus.Offset(locus.SectionAranges, h.Start), diag.Impact3|diag.AreaAranges,
			"addresses [0x%x, 0x%x) are covered with %s, but not with the other side", h.Start, h.End(), coveredBy)
	}
}
