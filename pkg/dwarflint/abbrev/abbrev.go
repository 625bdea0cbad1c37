// Package abbrev implements the .debug_abbrev parser: abbreviation
// tables keyed by their starting section offset, validated against the
// DWARF version of whichever compile unit first references them.
package abbrev

import (
	"encoding/binary"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reader"
)

// cmpOrdered is the three-way comparison slices.BinarySearchFunc and
// slices.SortFunc want, for any ordered key type the callers here sort
// or search on.
func cmpOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Attribute is one { name, form } pair in an abbrev's attribute list.
type Attribute struct {
	Name  dwver.AttrName
	Form  dwver.Form
	Locus locus.Locus
}

// Abbrev is one abbreviation template: a tag, a has-children flag, and
// an ordered attribute list.
type Abbrev struct {
	Code        uint64
	Tag         dwver.Tag
	HasChildren bool
	Attributes  []Attribute
	Locus       locus.Locus
	Used        bool
}

// Table is one abbreviation table, keyed by its starting offset within
// .debug_abbrev. Abbrevs within a table are stored sorted by code to
// allow binary lookup.
type Table struct {
	Offset  int64
	Abbrevs []*Abbrev
	Used    bool
	Length  int64
	Next    *Table
}

// Find performs a binary search for the abbrev with the given code. It
// returns the unique matching abbrev, or (nil, false) if none exists —
// duplicates were discarded at parse time.
func (t *Table) Find(code uint64) (*Abbrev, bool) {
	i, found := slices.BinarySearchFunc(t.Abbrevs, code, func(a *Abbrev, target uint64) int {
		return cmpOrdered(a.Code, target)
	})
	if !found {
		return nil, false
	}
	return t.Abbrevs[i], true
}

// Parser parses and memoizes abbreviation tables from one .debug_abbrev
// section buffer.
type Parser struct {
	data   []byte
	d      *diag.Diagnostics
	tables map[int64]*Table
	order  []int64 // encounter order, for the unused-table sweep
}

// NewParser builds a Parser over the raw .debug_abbrev bytes.
func NewParser(data []byte, d *diag.Diagnostics) *Parser {
	return &Parser{data: data, d: d, tables: make(map[int64]*Table)}
}

// Table returns the table starting at offset, parsing it the first time
// it is requested and validating its forms against version. Subsequent
// requests for the same offset return the cached result regardless of
// the version argument.
func (p *Parser) Table(offset int64, version dwver.Version) (*Table, bool) {
	if t, ok := p.tables[offset]; ok {
		return t, true
	}
	t, ok := p.parseTableAt(offset, version)
	p.tables[offset] = t // cache failures too: a malformed table stays malformed
	if ok {
		p.order = append(p.order, offset)
	}
	return t, ok
}

// ScanUnused walks the section sequentially, table after table,
// discovering any table never requested via Table (and so never
// attached to a used CU). Each newly discovered table is parsed and
// validated against dwver.Latest(): an orphaned table is still checked
// against the latest known DWARF encoding rather than skipped outright.
func (p *Parser) ScanUnused() []*Table {
	var discovered []*Table
	var offset int64
	for offset < int64(len(p.data)) {
		t, ok := p.tables[offset]
		if !ok {
			t, ok = p.parseTableAt(offset, dwver.Latest())
			p.tables[offset] = t
		}
		if !ok || t == nil || t.Length <= 0 {
			break
		}
		if !t.Used {
			discovered = append(discovered, t)
		}
		offset += t.Length
	}
	return discovered
}

func (p *Parser) parseTableAt(offset int64, version dwver.Version) (*Table, bool) {
	if offset < 0 || offset >= int64(len(p.data)) {
		return nil, false
	}
	r := reader.New(locus.SectionAbbrev, p.data[offset:], offset, binary.LittleEndian, p.d)

	var abbrevs []*Abbrev
	codesSeen := make(map[uint64]*Abbrev)

	for {
		entryStart := r.Offset()
		code, ok := r.ULEB128(diag.AreaAbbrevs)
		if !ok {
			if r.AllZero() {
				// Ran off the end of the section on trailing zero padding:
				// treat what we have as a (possibly empty) final table.
				break
			}
			p.emit(entryStart, diag.Impact4|diag.AreaAbbrevs|diag.Error,
				"unexpected end of .debug_abbrev while reading abbrev code")
			return p.freeze(offset, abbrevs, r.Offset()-offset), len(abbrevs) > 0
		}

		if code == 0 {
			if len(abbrevs) == 0 {
				p.emit(entryStart, diag.Bloat|diag.AreaAbbrevs,
					"abbreviation table at offset 0x%x contains no abbreviations", offset)
			}
			break
		}

		ab, ok := p.parseAbbrev(r, code, offset, version)
		if !ok {
			return p.freeze(offset, abbrevs, r.Offset()-offset), false
		}

		if prior, dup := codesSeen[code]; dup {
			p.emit(ab.Locus, diag.Impact4|diag.AreaAbbrevs|diag.Error,
				"duplicate abbreviation code %d at %s, first defined at %s; discarding the later definition",
				code, ab.Locus, prior.Locus)
			continue
		}
		codesSeen[code] = ab
		abbrevs = append(abbrevs, ab)
	}

	return p.freeze(offset, abbrevs, r.Offset()-offset), true
}

func (p *Parser) freeze(offset int64, abbrevs []*Abbrev, length int64) *Table {
	slices.SortFunc(abbrevs, func(a, b *Abbrev) int { return cmpOrdered(a.Code, b.Code) })
	return &Table{Offset: offset, Abbrevs: abbrevs, Length: length}
}

func (p *Parser) parseAbbrev(r *reader.Reader, code uint64, tableOffset int64, version dwver.Version) (*Abbrev, bool) {
	l := locus.Abbrev(tableOffset, code)

	tagVal, ok := r.ULEB128(diag.AreaAbbrevs)
	if !ok {
		p.emit(l, diag.Impact4|diag.AreaAbbrevs|diag.Error, "truncated abbrev %d: missing tag", code)
		return nil, false
	}
	tag := dwver.Tag(tagVal)
	if tag > dwver.TagHiUser {
		p.emit(l, diag.Impact3|diag.AreaAbbrevs, "abbrev %d uses tag 0x%x beyond DW_TAG_hi_user", code, tagVal)
	}

	childrenByte, ok := r.U8()
	if !ok {
		p.emit(l, diag.Impact4|diag.AreaAbbrevs|diag.Error, "truncated abbrev %d: missing has_children flag", code)
		return nil, false
	}
	if childrenByte != 0 && childrenByte != 1 {
		p.emit(l, diag.Impact3|diag.AreaAbbrevs, "abbrev %d has_children byte is 0x%x, neither 0 nor 1", code, childrenByte)
	}
	hasChildren := childrenByte != 0

	ab := &Abbrev{Code: code, Tag: tag, HasChildren: hasChildren, Locus: l}

	var sawSibling *Attribute
	namesSeen := make(map[dwver.AttrName]bool)

	for {
		attrStart := r.Offset()
		nameVal, ok := r.ULEB128(diag.AreaAbbrevs)
		if !ok {
			p.emit(l, diag.Impact4|diag.AreaAbbrevs|diag.Error, "truncated abbrev %d: missing attribute name", code)
			return ab, false
		}
		formVal, ok := r.ULEB128(diag.AreaAbbrevs)
		if !ok {
			p.emit(l, diag.Impact4|diag.AreaAbbrevs|diag.Error, "truncated abbrev %d: missing attribute form", code)
			return ab, false
		}

		name := dwver.AttrName(nameVal)
		form := dwver.Form(formVal)
		attrLocus := locus.Offset(locus.SectionAbbrev, attrStart)

		if name == 0 && form == 0 {
			break
		}
		if name == 0 && form != 0 {
			p.emit(attrLocus, diag.Impact3|diag.AreaAbbrevs|diag.Error,
				"abbrev %d has attribute name 0 with non-zero form %s", code, form)
		}

		if !version.IsKnownForm(form) {
			p.emit(attrLocus, diag.Impact4|diag.AreaAbbrevs|diag.Error,
				"abbrev %d uses form %s unknown to DWARF version %d", code, form, version.Number)
			return ab, false
		}
		if !version.IsKnownAttribute(name) {
			p.emit(attrLocus, diag.Impact1|diag.AreaAbbrevs,
				"abbrev %d uses attribute name %s unknown to this checker", code, name)
		}

		attr := Attribute{Name: name, Form: form, Locus: attrLocus}

		if namesSeen[name] {
			cat := diag.Impact3 | diag.AreaAbbrevs
			if name == dwver.AttrSibling {
				cat = diag.Impact4 | diag.AreaAbbrevs | diag.Error
			}
			p.emit(attrLocus, cat, "abbrev %d has duplicate attribute %s", code, name)
		}
		namesSeen[name] = true

		if name == dwver.AttrSibling {
			sawSibling = &attr
			if form == dwver.FormRefAddr {
				p.emit(attrLocus, diag.Impact3|diag.AreaDieOther,
					"abbrev %d uses DW_FORM_ref_addr for DW_AT_sibling, which is unsuitable", code)
			} else if dwver.ClassOf(name, form, version.Number) != dwver.ClassReference {
				p.emit(attrLocus, diag.Impact4|diag.AreaAbbrevs|diag.Error,
					"abbrev %d's DW_AT_sibling attribute does not have a reference form", code)
			}
		}

		ab.Attributes = append(ab.Attributes, attr)
	}

	if sawSibling != nil && !hasChildren {
		p.emit(sawSibling.Locus, diag.Bloat|diag.AreaDieOther,
			"abbrev %d has a superfluous DW_AT_sibling attribute on a childless tag", code)
	}

	hasLow, hasHigh, hasRanges := false, false, false
	for _, a := range ab.Attributes {
		switch a.Name {
		case dwver.AttrLowPC:
			hasLow = true
		case dwver.AttrHighPC:
			hasHigh = true
		case dwver.AttrRanges:
			hasRanges = true
		}
	}
	if hasHigh && !hasLow {
		p.emit(l, diag.Impact4|diag.AreaDieOther|diag.Error,
			"abbrev %d defines DW_AT_high_pc without DW_AT_low_pc", code)
	}
	if hasLow && hasHigh && hasRanges {
		p.emit(l, diag.Impact4|diag.AreaDieOther|diag.Error,
			"abbrev %d defines DW_AT_low_pc, DW_AT_high_pc, and DW_AT_ranges simultaneously", code)
	}

	return ab, true
}

func (p *Parser) emit(l any, cat diag.Category, format string, args ...any) {
	if p.d == nil {
		return
	}
	switch v := l.(type) {
	case locus.Locus:
		p.d.Emit(v, cat, format, args...)
	case int64:
		p.d.Emit(locus.Offset(locus.SectionAbbrev, v), cat, format, args...)
	}
}
