package aranges

import (
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/check"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/coverage"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/info"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
)

func init() {
	check.Register(check.TopLevel{
		Descriptor: check.Descriptor{
			Name:        "aranges",
			Groups:      []string{"aranges"},
			Schedule:    true,
			Description: "parses .debug_aranges and cross-checks its coverage against the CUs' own code ranges",
		},
		Run: func(s *check.Scheduler) error {
			_, err := check.Request(s, "aranges", BuildTables)
			return err
		},
	})
}

// BuildTables parses every arange table, folds their ranges into one
// coverage set, and compares it against the coverage implied by the
// compile units' own low_pc/high_pc attributes. A CU described only by
// DW_AT_ranges contributes no coverage to that comparison.
func BuildTables(s *check.Scheduler) ([]*Table, error) {
	idx, err := check.Request(s, "cus", info.BuildCUIndex)
	if err != nil {
		return nil, err
	}

	view, ok := s.File.View(locus.SectionAranges)
	if !ok {
		return nil, nil
	}

	applier := reloc.NewApplier(s.Diag, s.File, nil, s.File.Executable())
	tables := ParseAll(view.Data, view.Order, view.Relocs, applier, idx.Exists, s.Diag)

	arangesCov := Coverage(tables, s.Diag)
	cuCov := cuCodeCoverage(idx)
	CompareCoverage(&arangesCov, &cuCov, int64(s.File.AddressSize()), s.Diag)

	return tables, nil
}

// cuCodeCoverage folds every CU's own low_pc/high_pc span into a
// coverage set, the "other side" of the aranges cross-check.
func cuCodeCoverage(idx *info.CUIndex) coverage.Coverage {
	var cov coverage.Coverage
	for _, cu := range idx.CUs() {
		if cu.Root == nil {
			continue
		}
		low, ok := cu.Root.Attr(dwver.AttrLowPC)
		if !ok {
			continue
		}
		high, ok := cu.Root.Attr(dwver.AttrHighPC)
		if !ok {
			continue
		}
		var length uint64
		switch {
		case high.Class == dwver.ClassAddress && high.Uint > low.Uint:
			length = high.Uint - low.Uint
		case high.Class != dwver.ClassAddress:
			length = high.Uint
		}
		if length > 0 {
			cov.Add(int64(low.Uint), int64(length))
		}
	}
	return cov
}
