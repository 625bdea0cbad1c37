package info

import (
	"encoding/binary"

	"golang.org/x/exp/slices"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/check"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/coverage"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locrange"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
)

func init() {
	check.Register(check.TopLevel{
		Descriptor: check.Descriptor{
			Name:        "locrange",
			Groups:      []string{"loc", "ranges"},
			Schedule:    true,
			Description: "resolves every CU's .debug_loc/.debug_ranges reference once, in offset order, flagging references that land inside another list as errors and unreferenced bytes as bloat",
		},
		Run: func(s *check.Scheduler) error {
			idx, err := check.Request(s, "cus", BuildCUIndex)
			if err != nil {
				return err
			}
			checkLocRangeCoverage(idx, s)
			return nil
		},
	})
}

// locRef is one CU's reference into .debug_loc or .debug_ranges,
// collected before any list is parsed so two DIEs sharing the same list
// offset resolve it once instead of once per referencing attribute.
type locRef struct {
	offset int64
	cu     *CU
	locus  locus.Locus
}

// collectLocRangeReferences walks every CU's DIE tree, gathering every
// DW_AT_location/DW_AT_* reference that resolves through a section
// offset. Inline exprlocs carry no section offset and are validated
// directly in validateLocationAttributes instead.
func collectLocRangeReferences(idx *CUIndex) (locRefs, rangeRefs []locRef) {
	for _, cu := range idx.cus {
		if cu.Root == nil {
			continue
		}
		walk(cu.Root, func(d *DIE) {
			for _, a := range d.Attributes {
				switch a.Class {
				case dwver.ClassLocListPtr:
					locRefs = append(locRefs, locRef{offset: int64(a.Uint), cu: cu, locus: a.Locus})
				case dwver.ClassRangeListPtr:
					if a.Name == dwver.AttrRanges {
						rangeRefs = append(rangeRefs, locRef{offset: int64(a.Uint), cu: cu, locus: a.Locus})
					}
				}
			}
		})
	}
	return locRefs, rangeRefs
}

func checkLocRangeCoverage(idx *CUIndex, s *check.Scheduler) {
	locRefs, rangeRefs := collectLocRangeReferences(idx)

	if view, ok := s.File.View(locus.SectionLoc); ok {
		sweepLocRangeSection(view.Data, view.Order, locRefs, locus.SectionLoc, s.Diag)
	}
	if view, ok := s.File.View(locus.SectionRanges); ok {
		sweepLocRangeSection(view.Data, view.Order, rangeRefs, locus.SectionRanges, s.Diag)
	}
}

// sweepLocRangeSection resolves refs in offset order, parsing each
// distinct offset's list exactly once, folding the bytes each list
// consumes into a section-wide coverage.Coverage. A reference landing
// inside a list already parsed is an overlap error; bytes no reference
// ever reaches are reported as bloat once every reference is resolved.
func sweepLocRangeSection(data []byte, order binary.ByteOrder, refs []locRef, section locus.Section, d *diag.Diagnostics) {
	if len(refs) == 0 {
		return
	}

	slices.SortFunc(refs, func(a, b locRef) int {
		switch {
		case a.offset < b.offset:
			return -1
		case a.offset > b.offset:
			return 1
		default:
			return 0
		}
	})

	var cov coverage.Coverage
	lastOffset := int64(-1)
	for _, ref := range refs {
		if ref.offset == lastOffset {
			continue
		}
		lastOffset = ref.offset

		if cov.Contains(ref.offset) {
			d.Emit(ref.locus, diag.Impact4|areaForSection(section)|diag.Error,
				"reference to 0x%x points into the middle of another %s list", ref.offset, section)
			continue
		}

		var end int64
		var ok bool
		if section == locus.SectionLoc {
			_, end, ok = locrange.ParseLocSpan(data, ref.offset, ref.cu.AddressSize, order, d)
		} else {
			_, end, ok = locrange.ParseRangesSpan(data, ref.offset, ref.cu.AddressSize, order, d)
		}
		if !ok {
			continue
		}
		cov.Add(ref.offset, end-ref.offset)
	}

	for _, hole := range cov.Holes(0, int64(len(data))) {
		if hole.Empty() {
			continue
		}
		d.Emit(locus.Offset(section, hole.Start), diag.Bloat|areaForSection(section),
			"%s bytes [0x%x, 0x%x) are never referenced by any compile unit", section, hole.Start, hole.End())
	}
}

func areaForSection(section locus.Section) diag.Category {
	if section == locus.SectionLoc {
		return diag.AreaLoc
	}
	return diag.AreaRanges
}
