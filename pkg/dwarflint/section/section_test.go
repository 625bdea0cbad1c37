package section_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/section"
	"github.com/stretchr/testify/require"
)

// strtab builds a null-byte-delimited ELF string table, starting with a
// mandatory leading NUL (so offset 0 is always the empty string), and
// returns each name's offset.
func strtab(names ...string) (data []byte, offsets map[string]uint32) {
	data = []byte{0}
	offsets = make(map[string]uint32)
	for _, n := range names {
		offsets[n] = uint32(len(data))
		data = append(data, []byte(n)...)
		data = append(data, 0)
	}
	return data, offsets
}

type elf64Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// buildMinimalRelObject assembles a minimal little-endian ELF64 ET_REL
// x86-64 object with a .debug_info section, a matching .rela.debug_info
// relocation section, and a symbol table with one global symbol defined
// in .debug_info. It exercises exactly the shapes section.Open needs to
// parse: section data extraction, REL/RELA decoding, and symbol/section
// classification.
func buildMinimalRelObject(t *testing.T) []byte {
	t.Helper()

	debugInfo := make([]byte, 8)

	strData, strOff := strtab("target")

	shstrData, shstrOff := strtab(".debug_info", ".rela.debug_info", ".symtab", ".strtab", ".shstrtab")

	var buf bytes.Buffer

	// ELF64 header, e_shoff patched in after we know the layout.
	ident := [16]byte{0x7f, 'E', 'L', 'F', 2 /* ELFCLASS64 */, 1 /* ELFDATA2LSB */, 1 /* EV_CURRENT */}
	hdr := struct {
		Ident     [16]byte
		Type      uint16
		Machine   uint16
		Version   uint32
		Entry     uint64
		Phoff     uint64
		Shoff     uint64
		Flags     uint32
		Ehsize    uint16
		Phentsize uint16
		Phnum     uint16
		Shentsize uint16
		Shnum     uint16
		Shstrndx  uint16
	}{
		Ident:     ident,
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_X86_64),
		Version:   1,
		Ehsize:    64,
		Shentsize: 64,
		Shnum:     6,
		Shstrndx:  5,
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &hdr))
	require.Equal(t, 64, buf.Len())

	debugInfoOff := uint64(buf.Len())
	buf.Write(debugInfo)

	relaOff := uint64(buf.Len())
	type elf64Rela struct {
		Off    uint64
		Info   uint64
		Addend int64
	}
	rela := elf64Rela{Off: 0, Info: (uint64(1) << 32) | uint64(elf.R_X86_64_64), Addend: 5}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &rela))

	symtabOff := uint64(buf.Len())
	type elf64Sym struct {
		Name  uint32
		Info  uint8
		Other uint8
		Shndx uint16
		Value uint64
		Size  uint64
	}
	nullSym := elf64Sym{}
	targetSym := elf64Sym{Name: strOff["target"], Info: 0x10 /* GLOBAL, NOTYPE */, Shndx: 1, Value: 0, Size: 0}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &nullSym))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &targetSym))

	strtabOff := uint64(buf.Len())
	buf.Write(strData)

	shstrtabOff := uint64(buf.Len())
	buf.Write(shstrData)

	shoff := uint64(buf.Len())

	shdrs := []elf64Shdr{
		{}, // SHT_NULL
		{
			Name: shstrOff[".debug_info"], Type: uint32(elf.SHT_PROGBITS),
			Offset: debugInfoOff, Size: uint64(len(debugInfo)), Addralign: 1,
		},
		{
			Name: shstrOff[".rela.debug_info"], Type: uint32(elf.SHT_RELA),
			Offset: relaOff, Size: 24, Link: 3, Info: 1, Addralign: 8, Entsize: 24,
		},
		{
			Name: shstrOff[".symtab"], Type: uint32(elf.SHT_SYMTAB),
			Offset: symtabOff, Size: 48, Link: 4, Info: 1, Addralign: 8, Entsize: 24,
		},
		{
			Name: shstrOff[".strtab"], Type: uint32(elf.SHT_STRTAB),
			Offset: strtabOff, Size: uint64(len(strData)), Addralign: 1,
		},
		{
			Name: shstrOff[".shstrtab"], Type: uint32(elf.SHT_STRTAB),
			Offset: shstrtabOff, Size: uint64(len(shstrData)), Addralign: 1,
		},
	}
	for i := range shdrs {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, &shdrs[i]))
	}

	raw := buf.Bytes()
	// Patch e_shoff in place: it's the 8-byte field after the 16-byte
	// ident plus e_type/e_machine (2+2) and e_version (4), then e_entry
	// and e_phoff (8 each) — offset 16+2+2+4+8+8 = 40.
	binary.LittleEndian.PutUint64(raw[40:48], shoff)

	return raw
}

func TestOpenParsesSectionsAndRelocations(t *testing.T) {
	data := buildMinimalRelObject(t)

	path := writeTempFile(t, data)
	f, err := section.Open(path, nil)
	require.NoError(t, err)

	assert := require.New(t)
	assert.False(f.Executable())
	assert.Equal(8, f.AddressSize())

	v, ok := f.View(locus.SectionInfo)
	assert.True(ok)
	assert.Len(v.Data, 8)
	require.Len(t, v.Relocs, 1)
	assert.Equal(int64(0), v.Relocs[0].Offset)
	assert.Equal(1, v.Relocs[0].SymbolIndex)
	assert.Equal(int64(5), v.Relocs[0].Addend)

	sym, ok := f.Symbol(v.Relocs[0].SymbolIndex)
	assert.True(ok)
	assert.Equal(reloc.ShnNormal, sym.Shn)
	assert.Equal(locus.SectionInfo, sym.DebugSection)
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "dwarflint-section-*.o")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}
