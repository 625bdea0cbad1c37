package line

import (
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/check"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/info"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
)

func init() {
	check.Register(check.TopLevel{
		Descriptor: check.Descriptor{
			Name:        "lines",
			Groups:      []string{"line"},
			Schedule:    true,
			Description: "parses .debug_line, validating every program its compile units' DW_AT_stmt_list attributes reach",
		},
		Run: func(s *check.Scheduler) error {
			_, err := check.Request(s, "lines", BuildTables)
			return err
		},
	})
}

// BuildTables parses one Table per distinct DW_AT_stmt_list offset
// reachable from the compile-unit chain, marks file/directory table
// entries referenced by DW_AT_decl_file, and reports unused entries.
func BuildTables(s *check.Scheduler) (map[int64]*Table, error) {
	idx, err := check.Request(s, "cus", info.BuildCUIndex)
	if err != nil {
		return nil, err
	}

	view, ok := s.File.View(locus.SectionLine)
	if !ok {
		return nil, nil
	}

	tables := make(map[int64]*Table)
	for _, cu := range idx.CUs() {
		if cu.Root == nil {
			continue
		}
		a, ok := cu.Root.Attr(dwver.AttrStmtList)
		if !ok {
			continue
		}
		offset := int64(a.Uint)
		t, ok := tables[offset]
		if !ok {
			t, ok = Parse(view.Data, offset, cu.AddressSize, view.Order, view.Relocs, nil, s.Diag)
			if !ok {
				continue
			}
			tables[offset] = t
		}
		t.Used = true
		markDeclFiles(cu.Root, t)
	}

	for _, t := range tables {
		ReportUnused(t, s.Diag)
	}
	return tables, nil
}

func markDeclFiles(d *info.DIE, t *Table) {
	if a, ok := d.Attr(dwver.AttrDeclFile); ok {
		t.MarkFileUsed(a.Uint)
	}
	for _, c := range d.Children {
		markDeclFiles(c, t)
	}
}
