package pubtables

import (
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/check"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/info"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
)

func init() {
	check.Register(check.TopLevel{
		Descriptor: check.Descriptor{
			Name:        "pubtables",
			Groups:      []string{"pubnames", "pubtypes"},
			Schedule:    true,
			Description: "parses .debug_pubnames and .debug_pubtypes, cross-checking each set against its CU",
		},
		Run: func(s *check.Scheduler) error {
			_, err := check.Request(s, "pubtables", BuildSets)
			return err
		},
	})
}

// Sets bundles the decoded .debug_pubnames and .debug_pubtypes tables.
type Sets struct {
	Names []*Set
	Types []*Set
}

// BuildSets parses both publication-table sections against the already
// parsed CU index.
func BuildSets(s *check.Scheduler) (*Sets, error) {
	idx, err := check.Request(s, "cus", info.BuildCUIndex)
	if err != nil {
		return nil, err
	}

	applier := reloc.NewApplier(s.Diag, s.File, nil, s.File.Executable())
	result := &Sets{}

	if view, ok := s.File.View(locus.SectionPubnames); ok {
		result.Names = ParseAll(view.Data, view.Order, view.Relocs, applier, locus.SectionPubnames, idx, make(map[uint64]bool), s.Diag)
	}
	if view, ok := s.File.View(locus.SectionPubtypes); ok {
		result.Types = ParseAll(view.Data, view.Order, view.Relocs, applier, locus.SectionPubtypes, idx, make(map[uint64]bool), s.Diag)
	}

	return result, nil
}
