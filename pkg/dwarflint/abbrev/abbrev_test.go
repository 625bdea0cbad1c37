package abbrev_test

import (
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/abbrev"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

// one compile_unit abbrev: code 1, DW_TAG_compile_unit, has children,
// attribute DW_AT_name/DW_FORM_string, terminated.
func compileUnitAbbrev() []byte {
	var b []byte
	b = append(b, uleb(1)...)                                   // code
	b = append(b, uleb(uint64(dwver.TagCompileUnit))...)         // tag
	b = append(b, 1)                                             // has_children
	b = append(b, uleb(uint64(dwver.AttrName_))...)               // DW_AT_name
	b = append(b, uleb(uint64(dwver.FormString))...)              // DW_FORM_string
	b = append(b, 0, 0)                                           // end of attribute list
	b = append(b, 0)                                              // end of table
	return b
}

func newDiag() *diag.Diagnostics {
	cfg := diag.DefaultConfig()
	cfg.Apply()
	return diag.New(cfg, nil)
}

func TestParsesSimpleTable(t *testing.T) {
	d := newDiag()
	p := abbrev.NewParser(compileUnitAbbrev(), d)

	table, ok := p.Table(0, dwver.V3)
	require.True(t, ok)
	require.Len(t, table.Abbrevs, 1)

	ab, found := table.Find(1)
	require.True(t, found)
	assert.Equal(t, dwver.TagCompileUnit, ab.Tag)
	assert.True(t, ab.HasChildren)
	require.Len(t, ab.Attributes, 1)
	assert.Equal(t, dwver.AttrName_, ab.Attributes[0].Name)
	assert.Equal(t, dwver.FormString, ab.Attributes[0].Form)

	_, found = table.Find(2)
	assert.False(t, found)
}

func TestEmptyTableIsBloatNotError(t *testing.T) {
	d := newDiag()
	p := abbrev.NewParser([]byte{0}, d)

	table, ok := p.Table(0, dwver.V3)
	require.True(t, ok)
	assert.Empty(t, table.Abbrevs)
	assert.False(t, d.HasErrors())

	var sawBloat bool
	for _, e := range d.All() {
		if e.Category&diag.Bloat != 0 {
			sawBloat = true
		}
	}
	assert.True(t, sawBloat)
}

func TestDuplicateCodeDiscardsLaterDefinition(t *testing.T) {
	d := newDiag()
	var data []byte
	// code 1 twice, both trivial (no children, no attrs), then terminator.
	entry := func(tag dwver.Tag) []byte {
		var b []byte
		b = append(b, uleb(1)...)
		b = append(b, uleb(uint64(tag))...)
		b = append(b, 0)    // no children
		b = append(b, 0, 0) // no attributes
		return b
	}
	data = append(data, entry(dwver.TagBaseType)...)
	data = append(data, entry(dwver.TagVariable)...)
	data = append(data, 0)

	p := abbrev.NewParser(data, d)
	table, ok := p.Table(0, dwver.V3)
	require.True(t, ok)
	require.Len(t, table.Abbrevs, 1)
	assert.Equal(t, dwver.TagBaseType, table.Abbrevs[0].Tag)
	assert.True(t, d.HasErrors())
}

func TestHighPcWithoutLowPcIsError(t *testing.T) {
	d := newDiag()
	var b []byte
	b = append(b, uleb(1)...)
	b = append(b, uleb(uint64(dwver.TagSubroutineType))...)
	b = append(b, 0)
	b = append(b, uleb(uint64(dwver.AttrHighPC))...)
	b = append(b, uleb(uint64(dwver.FormAddr))...)
	b = append(b, 0, 0, 0)

	p := abbrev.NewParser(b, d)
	_, ok := p.Table(0, dwver.V3)
	require.True(t, ok)
	assert.True(t, d.HasErrors())
}

func TestUnknownFormIsFatalToTheTable(t *testing.T) {
	d := newDiag()
	var b []byte
	b = append(b, uleb(1)...)
	b = append(b, uleb(uint64(dwver.TagBaseType))...)
	b = append(b, 0)
	b = append(b, uleb(uint64(dwver.AttrByteSize))...)
	b = append(b, uleb(0x1f)...) // not a DWARF2/3 form
	b = append(b, 0, 0, 0)

	p := abbrev.NewParser(b, d)
	_, ok := p.Table(0, dwver.V3)
	assert.False(t, ok)
	assert.True(t, d.HasErrors())
}

func TestScanUnusedFindsTableNeverRequested(t *testing.T) {
	d := newDiag()
	data := append(compileUnitAbbrev(), 0) // second table: empty
	p := abbrev.NewParser(data, d)

	// Nobody calls p.Table for either offset before the sweep.
	unused := p.ScanUnused()
	require.Len(t, unused, 2)
	assert.Equal(t, int64(0), unused[0].Offset)
}

func TestSiblingOnChildlessAbbrevIsBloat(t *testing.T) {
	d := newDiag()
	var b []byte
	b = append(b, uleb(1)...)
	b = append(b, uleb(uint64(dwver.TagMember))...)
	b = append(b, 0) // no children
	b = append(b, uleb(uint64(dwver.AttrSibling))...)
	b = append(b, uleb(uint64(dwver.FormRef4))...)
	b = append(b, 0, 0, 0)

	p := abbrev.NewParser(b, d)
	_, ok := p.Table(0, dwver.V3)
	require.True(t, ok)

	var sawBloat bool
	for _, e := range d.All() {
		if e.Category&diag.Bloat != 0 {
			sawBloat = true
		}
	}
	assert.True(t, sawBloat)
}
