package line_test

import (
	"encoding/binary"
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/line"
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

// stdOpcodeLengths3 is the standard DWARF 2/3 argument-count table for
// opcodes 1..12 (opcode_base 13).
func stdOpcodeLengths3() []byte {
	return []byte{0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1}
}

// buildHeader assembles the bytes following the header_length field: the
// fixed prologue fields, one file with no include directories, and the
// file-table terminator.
func buildHeader() []byte {
	var h []byte
	h = append(h, 1)                    // minimum_instruction_length
	h = append(h, 1)                    // default_is_stmt
	h = append(h, 0xfb)                 // line_base = -5
	h = append(h, 14)                   // line_range
	h = append(h, 13)                   // opcode_base
	h = append(h, stdOpcodeLengths3()...)
	h = append(h, 0) // include_directories terminator (none declared)
	h = append(h, []byte("a.c\x00")...)
	h = append(h, uleb(0)...) // dir index
	h = append(h, uleb(0)...) // mtime
	h = append(h, uleb(0)...) // size
	h = append(h, 0)          // file_names terminator
	return h
}

// buildProgram assembles a DW_LNE_set_address, a DW_LNS_copy, and a
// DW_LNE_end_sequence.
func buildProgram(addressSize int) []byte {
	var p []byte
	addrOp := append([]byte{0x02}, make([]byte, addressSize)...) // subopcode + address
	p = append(p, 0x00)                                          // extended opcode marker
	p = append(p, uleb(uint64(len(addrOp)))...)
	p = append(p, addrOp...)
	p = append(p, 0x01) // DW_LNS_copy
	p = append(p, 0x00, 0x01, 0x01)
	return p
}

func buildUnit(t *testing.T, header, program []byte, version uint16) []byte {
	t.Helper()
	var body []byte
	body = binary.LittleEndian.AppendUint16(body, version)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(header)))
	body = append(body, header...)
	body = append(body, program...)

	var unit []byte
	unit = binary.LittleEndian.AppendUint32(unit, uint32(len(body)))
	unit = append(unit, body...)
	require.Equal(t, int(len(body))+4, len(unit))
	return unit
}

func TestParsesSimpleLineProgram(t *testing.T) {
	d := newDiag()
	data := buildUnit(t, buildHeader(), buildProgram(8), 3)

	tbl, ok := line.Parse(data, 0, 8, binary.LittleEndian, nil, nil, d)
	require.True(t, ok)
	assert.Equal(t, 3, tbl.Version)
	require.Len(t, tbl.Files, 1)
	assert.Equal(t, "a.c", tbl.Files[0].Name)
	assert.True(t, tbl.HasEndSequence)
	assert.False(t, d.HasErrors())
}

func TestMissingEndSequenceIsError(t *testing.T) {
	d := newDiag()
	header := buildHeader()
	// Program with just DW_LNS_copy, no DW_LNE_end_sequence.
	program := []byte{0x01}
	data := buildUnit(t, header, program, 3)

	_, ok := line.Parse(data, 0, 8, binary.LittleEndian, nil, nil, d)
	require.True(t, ok)
	assert.True(t, d.HasErrors())
}

func TestUnsupportedVersionIsError(t *testing.T) {
	d := newDiag()
	data := buildUnit(t, buildHeader(), buildProgram(8), 5)

	_, ok := line.Parse(data, 0, 8, binary.LittleEndian, nil, nil, d)
	require.True(t, ok)
	assert.True(t, d.HasErrors())
}

func TestSetFileBeyondTableIsError(t *testing.T) {
	d := newDiag()
	header := buildHeader()
	var program []byte
	program = append(program, 0x04)       // DW_LNS_set_file
	program = append(program, uleb(7)...) // no such file index
	program = append(program, 0x00, 0x01, 0x01)
	data := buildUnit(t, header, program, 3)

	_, ok := line.Parse(data, 0, 8, binary.LittleEndian, nil, nil, d)
	require.True(t, ok)
	assert.True(t, d.HasErrors())
}

func TestUnusedFileIsBloatNotError(t *testing.T) {
	d := newDiag()
	data := buildUnit(t, buildHeader(), buildProgram(8), 3)

	tbl, ok := line.Parse(data, 0, 8, binary.LittleEndian, nil, nil, d)
	require.True(t, ok)
	require.False(t, d.HasErrors())

	line.ReportUnused(tbl, d)
	assert.False(t, d.HasErrors())
	assert.NotEmpty(t, d.All())
}
