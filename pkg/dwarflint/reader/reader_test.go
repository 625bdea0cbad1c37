package reader_test

import (
	"encoding/binary"
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedReads(t *testing.T) {
	r := reader.New(locus.SectionInfo, []byte{0x01, 0x02}, 0, binary.LittleEndian, nil)

	v, ok := r.U16()
	require.True(t, ok)
	assert.Equal(t, uint16(0x0201), v)
	assert.True(t, r.AtEnd())

	_, ok = r.U8()
	assert.False(t, ok, "read past end of buffer must fail cleanly")
	assert.Equal(t, int64(2), r.Offset(), "failed read must not advance the cursor")
}

func TestULEB128Minimal(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	r := reader.New(locus.SectionAbbrev, []byte{0xE5, 0x8E, 0x26}, 0, binary.LittleEndian, d)

	v, ok := r.ULEB128(diag.AreaLEB128)
	require.True(t, ok)
	assert.Equal(t, uint64(624485), v)
	assert.Empty(t, d.All(), "minimal encoding must not produce a diagnostic")
}

func TestULEB128LongEncodingWarns(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	// 0 encoded with a superfluous continuation byte.
	r := reader.New(locus.SectionAbbrev, []byte{0x80, 0x00}, 0, binary.LittleEndian, d)

	v, ok := r.ULEB128(diag.AreaLEB128)
	require.True(t, ok)
	assert.Equal(t, uint64(0), v)
	require.Len(t, d.All(), 1)
	assert.Contains(t, d.All()[0].Message, "superfluous")
}

func TestSLEB128(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected int64
	}{
		{"zero", []byte{0x00}, 0},
		{"minus1", []byte{0x7f}, -1},
		{"minus128", []byte{0x80, 0x7f}, -128},
		{"63", []byte{0x3f}, 63},
		{"-64", []byte{0x40}, -64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := reader.New(locus.SectionInfo, tt.input, 0, binary.LittleEndian, nil)
			v, ok := r.SLEB128(diag.AreaLEB128)
			require.True(t, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestInitialLength32(t *testing.T) {
	buf := []byte{0x10, 0x00, 0x00, 0x00}
	r := reader.New(locus.SectionInfo, buf, 0, binary.LittleEndian, nil)

	length, offsetSize, ok := r.InitialLength(diag.AreaHeader)
	require.True(t, ok)
	assert.Equal(t, uint64(0x10), length)
	assert.Equal(t, 4, offsetSize)
}

func TestInitialLength64Escape(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0x20, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	r := reader.New(locus.SectionInfo, buf, 0, binary.LittleEndian, nil)

	length, offsetSize, ok := r.InitialLength(diag.AreaHeader)
	require.True(t, ok)
	assert.Equal(t, uint64(0x20), length)
	assert.Equal(t, 8, offsetSize)
}

func TestInitialLengthReservedIsFatal(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	buf := []byte{0xf0, 0xff, 0xff, 0xff}
	r := reader.New(locus.SectionInfo, buf, 0, binary.LittleEndian, d)

	_, _, ok := r.InitialLength(diag.AreaHeader)
	assert.False(t, ok)
	require.Len(t, d.All(), 1)
	assert.True(t, d.All()[0].Category&diag.Error != 0)
}

func TestAddressSizeCoercion(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	r := reader.New(locus.SectionInfo, []byte{0x05}, 0, binary.LittleEndian, d)

	size, ok := r.AddressSize(diag.AreaHeader, 8)
	assert.False(t, ok)
	assert.Equal(t, 8, size)
	require.Len(t, d.All(), 1)
}
