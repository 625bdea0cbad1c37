// Package locrange validates the .debug_loc location-list and
// .debug_ranges non-contiguous-range tables: both
// sections share the same terminator/base-address-selection wire shape,
// differing only in what the entries carry.
package locrange

import (
	"encoding/binary"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/coverage"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locexpr"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reader"
)

// Entry is one decoded list entry: either a normal [low, high) span
// (with, for .debug_loc, an attached location expression), or a
// base-address selection (Base == true, in which case Low is the new
// base and High/Expr are unused).
type Entry struct {
	Offset int64
	Low    uint64
	High   uint64
	Base   bool
	Expr   []byte
}

// addressMask marks every bit set for the object's address size, the
// sentinel value DWARF reserves for "base address selection".
func addressMask(addressSize int) uint64 {
	if addressSize >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (8 * addressSize)) - 1
}

// ParseRanges decodes one .debug_ranges list starting at offset,
// stopping at the (0, 0) terminator.
func ParseRanges(data []byte, offset int64, addressSize int, order binary.ByteOrder, d *diag.Diagnostics) ([]Entry, bool) {
	entries, _, ok := parseList(data, offset, addressSize, order, d, locus.SectionRanges, false)
	return entries, ok
}

// ParseLoc decodes one .debug_loc list starting at offset, stopping at
// the (0, 0) terminator. Each non-base-selection entry's location
// expression is validated with locexpr.Validate.
func ParseLoc(data []byte, offset int64, addressSize int, order binary.ByteOrder, d *diag.Diagnostics) ([]Entry, bool) {
	entries, _, ok := parseList(data, offset, addressSize, order, d, locus.SectionLoc, true)
	return entries, ok
}

// ParseRangesSpan is ParseRanges, additionally reporting the offset one
// past the list's terminator, so a caller folding lists into a
// section-wide coverage map knows exactly which bytes this list
// consumed.
func ParseRangesSpan(data []byte, offset int64, addressSize int, order binary.ByteOrder, d *diag.Diagnostics) ([]Entry, int64, bool) {
	return parseList(data, offset, addressSize, order, d, locus.SectionRanges, false)
}

// ParseLocSpan is ParseLoc, additionally reporting the offset one past
// the list's terminator.
func ParseLocSpan(data []byte, offset int64, addressSize int, order binary.ByteOrder, d *diag.Diagnostics) ([]Entry, int64, bool) {
	return parseList(data, offset, addressSize, order, d, locus.SectionLoc, true)
}

func parseList(data []byte, offset int64, addressSize int, order binary.ByteOrder, d *diag.Diagnostics, section locus.Section, hasExpr bool) ([]Entry, int64, bool) {
	if offset < 0 || offset >= int64(len(data)) {
		if d != nil {
			d.Emit(locus.Offset(section, offset), diag.Impact4|areaFor(section)|diag.Error,
				"list offset 0x%x is outside %s", offset, section)
		}
		return nil, offset, false
	}

	r := reader.New(section, data[offset:], offset, order, d)
	mask := addressMask(addressSize)

	var entries []Entry
	haveBase := false
	var lastBase uint64
	for {
		entryOff := r.Offset()
		low, ok := r.Uint(addressSize)
		if !ok {
			d.Emit(r.Locus(), diag.Impact4|areaFor(section)|diag.Error,
				"truncated list entry at 0x%x", entryOff)
			return entries, r.Offset(), false
		}
		high, ok := r.Uint(addressSize)
		if !ok {
			d.Emit(r.Locus(), diag.Impact4|areaFor(section)|diag.Error,
				"truncated list entry at 0x%x", entryOff)
			return entries, r.Offset(), false
		}

		if low == 0 && high == 0 {
			break
		}

		if low == mask {
			if haveBase && high == lastBase {
				d.Emit(locus.Offset(section, entryOff), diag.Bloat|areaFor(section),
					"list entry at 0x%x re-selects the already active base address", entryOff)
			}
			haveBase = true
			lastBase = high
			entries = append(entries, Entry{Offset: entryOff, Low: high, Base: true})
			continue
		}

		e := Entry{Offset: entryOff, Low: low, High: high}

		if !haveBase {
			d.Emit(locus.Offset(section, entryOff), diag.Suboptimal|areaFor(section),
				"list entry at 0x%x uses the implicit zero base, no base address was selected", entryOff)
		}

		if high < low {
			d.Emit(locus.Offset(section, entryOff), diag.Impact4|areaFor(section)|diag.Error,
				"list entry at 0x%x has high address 0x%x below low address 0x%x", entryOff, high, low)
		} else if high == low {
			d.Emit(locus.Offset(section, entryOff), diag.Bloat|areaFor(section),
				"list entry at 0x%x covers no range", entryOff)
		}

		if hasExpr {
			length, ok := r.U16()
			if !ok {
				d.Emit(r.Locus(), diag.Impact4|diag.AreaLoc|diag.Error, "truncated expression length at entry 0x%x", entryOff)
				return entries, r.Offset(), false
			}
			expr, ok := r.Bytes(int(length))
			if !ok {
				d.Emit(r.Locus(), diag.Impact4|diag.AreaLoc|diag.Error, "location expression at 0x%x overruns the section", entryOff)
				return entries, r.Offset(), false
			}
			e.Expr = expr
			locexpr.Validate(expr, locus.Offset(locus.SectionLoc, entryOff), addressSize, order, d)
		}

		entries = append(entries, e)
	}

	return entries, r.Offset(), true
}

func areaFor(section locus.Section) diag.Category {
	if section == locus.SectionLoc {
		return diag.AreaLoc
	}
	return diag.AreaRanges
}

// Coverage folds a decoded .debug_ranges/.debug_loc entry list into a
// coverage.Coverage set, resolving base-address selections against
// cuLowPC.
func Coverage(entries []Entry, cuLowPC uint64) coverage.Coverage {
	var cov coverage.Coverage
	base := cuLowPC
	for _, e := range entries {
		if e.Base {
			base = e.Low
			continue
		}
		start := int64(base + e.Low)
		end := int64(base + e.High)
		cov.Add(start, end-start)
	}
	return cov
}
