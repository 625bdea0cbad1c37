package info

import (
	"fmt"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/abbrev"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/check"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locexpr"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
)

func init() {
	check.Register(check.TopLevel{
		Descriptor: check.Descriptor{
			Name:        "cus",
			Groups:      []string{"info", "abbrev"},
			Schedule:    true,
			Description: "parses .debug_abbrev and .debug_info, validating the DIE tree and its inline location expressions",
		},
		Run: func(s *check.Scheduler) error {
			_, err := check.Request(s, "cus", BuildCUIndex)
			return err
		},
	})
}

// CUIndex is what the other section checkers (aranges, pubtables) need
// from a completed .debug_info pass: CU existence, a CU's total encoded
// length, and DIE-offset resolution.
type CUIndex struct {
	cus      []*CU
	parser   *Parser
	byOffset map[int64]*CU
}

func newCUIndex(parser *Parser, cus []*CU) *CUIndex {
	idx := &CUIndex{cus: cus, parser: parser, byOffset: make(map[int64]*CU, len(cus))}
	for _, cu := range cus {
		idx.byOffset[cu.Offset] = cu
	}
	return idx
}

// CUs returns the parsed compile-unit chain, in section order.
func (x *CUIndex) CUs() []*CU { return x.cus }

// Exists implements pubtables.CUInfo and aranges.ParseAll's cuExists.
func (x *CUIndex) Exists(cuOffset uint64) bool {
	_, ok := x.byOffset[int64(cuOffset)]
	return ok
}

// TotalSize implements pubtables.CUInfo.
func (x *CUIndex) TotalSize(cuOffset uint64) (uint64, bool) {
	cu, ok := x.byOffset[int64(cuOffset)]
	if !ok {
		return 0, false
	}
	return uint64(cu.End() - cu.Offset), true
}

// HasDIE implements pubtables.CUInfo. dieOffset is relative to cuOffset,
// as .debug_pubnames/.debug_pubtypes encode it.
func (x *CUIndex) HasDIE(cuOffset, dieOffset uint64) bool {
	_, ok := x.parser.DIEAt(int64(cuOffset + dieOffset))
	return ok
}

// BuildCUIndex is the shared check other top-level checks request to
// avoid re-parsing .debug_info: it decodes the abbrev/info sections once
// and validates every DIE's inline location expressions.
func BuildCUIndex(s *check.Scheduler) (*CUIndex, error) {
	abbrevView, ok := s.File.View(locus.SectionAbbrev)
	if !ok {
		return nil, fmt.Errorf("no .debug_abbrev section present")
	}
	infoView, ok := s.File.View(locus.SectionInfo)
	if !ok {
		return nil, fmt.Errorf("no .debug_info section present")
	}
	var strData []byte
	if strView, ok := s.File.View(locus.SectionStr); ok {
		strData = strView.Data
	}

	abbrevs := abbrev.NewParser(abbrevView.Data, s.Diag)
	applier := reloc.NewApplier(s.Diag, s.File, nil, s.File.Executable())
	parser := NewParser(infoView.Data, s.Diag, abbrevs, strData, infoView.AddressSize, infoView.Order, applier, infoView.Relocs)
	cus := parser.ParseAll()

	for _, t := range abbrevs.ScanUnused() {
		s.Diag.Emit(locus.Offset(locus.SectionAbbrev, t.Offset), diag.Bloat|diag.AreaAbbrevs,
			"abbrev table at 0x%x is never referenced by any compile unit", t.Offset)
	}

	idx := newCUIndex(parser, cus)
	validateLocationAttributes(idx, s)
	return idx, nil
}

// validateLocationAttributes validates every DIE's inline location
// expression (DW_FORM_block* under DW_AT_location/DW_AT_frame_base/...).
// Section-offset attributes (DW_AT_location as a loclistptr, DW_AT_ranges)
// are not resolved here: they are collected and cross-checked once per
// section, reference-driven, by the "locrange" top-level check, so a
// list shared by several DIEs is parsed and diagnosed only once.
func validateLocationAttributes(idx *CUIndex, s *check.Scheduler) {
	for _, cu := range idx.cus {
		if cu.Root == nil {
			continue
		}
		walk(cu.Root, func(d *DIE) {
			for _, a := range d.Attributes {
				if a.Class == dwver.ClassExprLoc {
					locexpr.Validate(a.Bytes, a.Locus, cu.AddressSize, s.File.Order(), s.Diag)
				}
			}
		})
	}
}
