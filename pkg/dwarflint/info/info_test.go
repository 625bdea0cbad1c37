package info_test

import (
	"encoding/binary"
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/abbrev"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/info"
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

func newDiag() *diag.Diagnostics {
	cfg := diag.DefaultConfig()
	cfg.Apply()
	return diag.New(cfg, nil)
}

// buildAbbrevTable returns a table with code 1 = DW_TAG_compile_unit
// (has children, one DW_AT_name/DW_FORM_string attribute) and code 2 =
// DW_TAG_base_type (childless, no attributes).
func buildAbbrevTable() []byte {
	var b []byte
	b = append(b, uleb(1)...)
	b = append(b, uleb(uint64(dwver.TagCompileUnit))...)
	b = append(b, 1)
	b = append(b, uleb(uint64(dwver.AttrName_))...)
	b = append(b, uleb(uint64(dwver.FormString))...)
	b = append(b, 0, 0)

	b = append(b, uleb(2)...)
	b = append(b, uleb(uint64(dwver.TagBaseType))...)
	b = append(b, 0)
	b = append(b, 0, 0)

	b = append(b, 0)
	return b
}

func buildCU(t *testing.T) []byte {
	t.Helper()
	var dies []byte
	dies = append(dies, uleb(1)...)
	dies = append(dies, []byte("hello\x00")...)
	dies = append(dies, uleb(2)...)
	dies = append(dies, 0) // end of root's children

	header := make([]byte, 0, 7)
	header = binary.LittleEndian.AppendUint16(header, 3) // version
	header = binary.LittleEndian.AppendUint32(header, 0) // abbrev_offset
	header = append(header, 8)                           // address_size

	length := uint32(len(header) + len(dies))
	var cu []byte
	cu = binary.LittleEndian.AppendUint32(cu, length)
	cu = append(cu, header...)
	cu = append(cu, dies...)

	require.Equal(t, int(length)+4, len(cu))
	return cu
}

func TestParseAllBuildsTreeAndDecodesAttributes(t *testing.T) {
	d := newDiag()
	ab := abbrev.NewParser(buildAbbrevTable(), d)

	p := info.NewParser(buildCU(t), d, ab, nil, 8, binary.LittleEndian, nil, nil)
	cus := p.ParseAll()

	require.Len(t, cus, 1)
	cu := cus[0]
	assert.Equal(t, 3, cu.Version)
	require.NotNil(t, cu.Root)
	assert.Equal(t, dwver.TagCompileUnit, cu.Root.Tag)

	nameAttr, ok := cu.Root.Attr(dwver.AttrName_)
	require.True(t, ok)
	assert.Equal(t, "hello", nameAttr.Str)

	require.Len(t, cu.Root.Children, 1)
	assert.Equal(t, dwver.TagBaseType, cu.Root.Children[0].Tag)

	assert.False(t, d.HasErrors())
}

func TestUnknownAbbrevCodeIsFatalToCU(t *testing.T) {
	d := newDiag()
	ab := abbrev.NewParser(buildAbbrevTable(), d)

	var dies []byte
	dies = append(dies, uleb(99)...) // no such abbrev code

	header := make([]byte, 0, 7)
	header = binary.LittleEndian.AppendUint16(header, 3)
	header = binary.LittleEndian.AppendUint32(header, 0)
	header = append(header, 8)

	length := uint32(len(header) + len(dies))
	var cu []byte
	cu = binary.LittleEndian.AppendUint32(cu, length)
	cu = append(cu, header...)
	cu = append(cu, dies...)

	p := info.NewParser(cu, d, ab, nil, 8, binary.LittleEndian, nil, nil)
	cus := p.ParseAll()
	require.Len(t, cus, 1)
	assert.Nil(t, cus[0].Root)
	assert.True(t, d.HasErrors())
}
