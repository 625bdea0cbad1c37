// Package line validates .debug_line number programs: the
// prologue (header), the include-directory and file-name tables, and the
// line-number state machine's opcode stream.
package line

import (
	"encoding/binary"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reader"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
)

// Extended opcode numbers.
const (
	lneEndSequence      = 1
	lneSetAddress       = 2
	lneDefineFile       = 3
	lneSetDiscriminator = 4
)

// Standard opcode numbers. Only DW_LNS_advance_line (SLEB128) and
// DW_LNS_fixed_advance_pc (uhalf) take operands that aren't ULEB128
// values; every other standard opcode takes ULEB128 operands.
const (
	lnsCopy             = 1
	lnsAdvancePC        = 2
	lnsAdvanceLine      = 3
	lnsSetFile          = 4
	lnsSetColumn        = 5
	lnsNegateStmt       = 6
	lnsSetBasicBlock    = 7
	lnsConstAddPC       = 8
	lnsFixedAdvancePC   = 9
	lnsSetPrologueEnd   = 10
	lnsSetEpilogueBegin = 11
	lnsSetISA           = 12
)

// FileEntry is one row of the file-name table (the initial header table, or
// one appended by DW_LNE_define_file).
type FileEntry struct {
	Name     string
	DirIndex uint64
	Mtime    uint64
	Size     uint64
	Used     bool
	Locus    locus.Locus
}

// Table is one fully decoded .debug_line program: its prologue plus the
// outcome of walking its opcode stream.
type Table struct {
	Offset         int64
	Locus          locus.Locus
	Version        int
	MinInstLen     uint8
	DefaultIsStmt  bool
	LineBase       int8
	LineRange      uint8
	OpcodeBase     uint8
	StdOpcodeLens  []byte
	IncludeDirs    []string
	DirUsed        []bool
	Files          []*FileEntry
	HasEndSequence bool
	ProgramStart   int64
	End            int64
	Used           bool
}

// File returns the file-table entry for a 1-based DWARF file index (as
// used by DW_LNS_set_file and DW_AT_decl_file). Index 0 has no defined
// entry in DWARF 2/3.
func (t *Table) File(index uint64) (*FileEntry, bool) {
	if index == 0 || index > uint64(len(t.Files)) {
		return nil, false
	}
	return t.Files[index-1], true
}

// MarkFileUsed records that some CU's DW_AT_decl_file referenced index,
// for the unused-file-table-entry bloat check run after every CU using
// this table has been walked.
func (t *Table) MarkFileUsed(index uint64) {
	if f, ok := t.File(index); ok {
		f.Used = true
		if f.DirIndex > 0 && int(f.DirIndex) <= len(t.DirUsed) {
			t.DirUsed[f.DirIndex-1] = true
		}
	}
}

// ReportUnused emits bloat diagnostics for include directories and file
// entries nothing ever referenced, and for a table with no opcodes and no
// CU pointing at it. Call once all CUs sharing this table have been
// resolved.
func ReportUnused(t *Table, d *diag.Diagnostics) {
	if !t.Used && t.ProgramStart == t.End {
		d.Emit(t.Locus, diag.Bloat|diag.AreaLine, "line number table at 0x%x has no opcodes and no CU references it", t.Offset)
	}
	for i, used := range t.DirUsed {
		if !used {
			d.Emit(t.Locus, diag.Bloat|diag.AreaLine, "include directory %d is never referenced", i+1)
		}
	}
	for i, f := range t.Files {
		if !f.Used {
			d.Emit(f.Locus, diag.Bloat|diag.AreaLine, "file table entry %d (%q) is never referenced", i+1, f.Name)
		}
	}
}

// Parse decodes one line number program starting at offset. applier may be
// nil, in which case DW_LNE_set_address operands are read but not
// relocation-checked.
func Parse(data []byte, offset int64, addressSize int, order binary.ByteOrder, relocs []reloc.Record, applier *reloc.Applier, d *diag.Diagnostics) (*Table, bool) {
	if offset < 0 || offset >= int64(len(data)) {
		d.Emit(locus.Offset(locus.SectionLine, offset), diag.Impact4|diag.AreaLine|diag.Error,
			"line number program offset 0x%x is outside .debug_line", offset)
		return nil, false
	}
	r := reader.New(locus.SectionLine, data[offset:], offset, order, d)
	t := &Table{Offset: offset, Locus: locus.Offset(locus.SectionLine, offset)}

	length, offsetSize, ok := r.InitialLength(diag.AreaLine)
	if !ok {
		return nil, false
	}
	unitEnd := r.Offset() + int64(length)
	t.End = unitEnd

	versionRaw, ok := r.U16()
	if !ok {
		return nil, false
	}
	t.Version = int(versionRaw)
	if t.Version != 2 && t.Version != 3 {
		d.Emit(r.Locus(), diag.Impact4|diag.AreaLine|diag.Error,
			"line number program at 0x%x declares unsupported version %d", offset, t.Version)
	}

	var headerLength uint64
	if offsetSize == 8 {
		v, ok := r.U64()
		if !ok {
			return nil, false
		}
		headerLength = v
	} else {
		v, ok := r.U32()
		if !ok {
			return nil, false
		}
		headerLength = uint64(v)
	}
	prologueEnd := r.Offset() + int64(headerLength)

	minInst, ok := r.U8()
	if !ok {
		return nil, false
	}
	t.MinInstLen = minInst

	isStmt, ok := r.U8()
	if !ok {
		return nil, false
	}
	if isStmt > 1 {
		d.Emit(r.Locus(), diag.Suboptimal|diag.AreaLine, "default_is_stmt is %d, expected 0 or 1", isStmt)
	}
	t.DefaultIsStmt = isStmt != 0

	lineBase, ok := r.U8()
	if !ok {
		return nil, false
	}
	t.LineBase = int8(lineBase)

	lineRange, ok := r.U8()
	if !ok || lineRange == 0 {
		d.Emit(r.Locus(), diag.Impact4|diag.AreaLine|diag.Error, "line_range is zero, special opcodes cannot be decoded")
		return nil, false
	}
	t.LineRange = lineRange

	opcodeBase, ok := r.U8()
	if !ok {
		return nil, false
	}
	t.OpcodeBase = opcodeBase

	if opcodeBase > 0 {
		t.StdOpcodeLens = make([]byte, opcodeBase-1)
		for i := range t.StdOpcodeLens {
			b, ok := r.U8()
			if !ok {
				return nil, false
			}
			t.StdOpcodeLens[i] = b
		}
	}

	for {
		s, ok := r.CString()
		if !ok {
			d.Emit(r.Locus(), diag.Impact4|diag.AreaLine|diag.Error, "truncated include_directories table")
			return t, false
		}
		if s == "" {
			break
		}
		t.IncludeDirs = append(t.IncludeDirs, s)
	}
	t.DirUsed = make([]bool, len(t.IncludeDirs))

	for {
		fileStart := r.Offset()
		name, ok := r.CString()
		if !ok {
			d.Emit(r.Locus(), diag.Impact4|diag.AreaLine|diag.Error, "truncated file_names table")
			return t, false
		}
		if name == "" {
			break
		}
		dirIdx, ok1 := r.ULEB128(diag.AreaLine)
		mtime, ok2 := r.ULEB128(diag.AreaLine)
		size, ok3 := r.ULEB128(diag.AreaLine)
		if !ok1 || !ok2 || !ok3 {
			d.Emit(r.Locus(), diag.Impact4|diag.AreaLine|diag.Error, "truncated file_names entry %q", name)
			return t, false
		}
		if dirIdx > uint64(len(t.IncludeDirs)) {
			d.Emit(locus.Offset(locus.SectionLine, fileStart), diag.Impact4|diag.AreaLine|diag.Error,
				"file %q references directory index %d beyond the %d declared include directories",
				name, dirIdx, len(t.IncludeDirs))
		} else if dirIdx != 0 && len(name) > 0 && name[0] == '/' {
			d.Emit(locus.Offset(locus.SectionLine, fileStart), diag.Suboptimal|diag.AreaLine,
				"file %q is absolute but still names a non-zero directory index", name)
		}
		t.Files = append(t.Files, &FileEntry{
			Name: name, DirIndex: dirIdx, Mtime: mtime, Size: size,
			Locus: locus.Offset(locus.SectionLine, fileStart),
		})
	}

	if pos := r.Offset(); pos < prologueEnd {
		pad, ok := r.Bytes(int(prologueEnd - pos))
		if !ok {
			d.Emit(r.Locus(), diag.Impact4|diag.AreaLine|diag.Error, "header_length overruns the section")
			return t, false
		}
		if allZero(pad) {
			d.Emit(t.Locus, diag.Bloat|diag.AreaLine, "line program header at 0x%x has %d bytes of trailing zero padding", offset, len(pad))
		} else {
			d.Emit(t.Locus, diag.Impact4|diag.AreaLine|diag.Error,
				"line program header at 0x%x claims %d more bytes than it occupies, and the gap is not padding", offset, len(pad))
		}
	} else if pos > prologueEnd {
		d.Emit(t.Locus, diag.Impact4|diag.AreaLine|diag.Error,
			"line program header at 0x%x overruns its declared header_length by %d bytes", offset, pos-prologueEnd)
	}

	t.ProgramStart = r.Offset()
	cur := reloc.NewCursor(locus.SectionLine, relocs, d, func(uint32) (int, bool) { return addressSize, true })
	parseProgram(r, t, unitEnd, addressSize, cur, applier, d)

	if pos := r.Offset(); pos < unitEnd {
		rest, ok := r.Bytes(int(unitEnd - pos))
		if ok && allZero(rest) {
			d.Emit(t.Locus, diag.Bloat|diag.AreaLine, "line program at 0x%x has trailing zero padding before the next unit", offset)
		} else if ok {
			d.Emit(t.Locus, diag.Impact4|diag.AreaLine|diag.Error, "line program at 0x%x has undecoded trailing bytes", offset)
		}
	}

	if !t.HasEndSequence {
		d.Emit(t.Locus, diag.Impact4|diag.AreaLine|diag.Error, "line number program at 0x%x has no DW_LNE_end_sequence", offset)
	}

	return t, true
}

func parseProgram(r *reader.Reader, t *Table, unitEnd int64, addressSize int, cur *reloc.Cursor, applier *reloc.Applier, d *diag.Diagnostics) {
	for r.Offset() < unitEnd {
		opByte, ok := r.U8()
		if !ok {
			return
		}

		switch {
		case opByte == 0:
			parseExtended(r, t, addressSize, cur, applier, d)
		case int(opByte) >= int(t.OpcodeBase):
			// Special opcode: address/line advance is encoded entirely in
			// the opcode byte, no further operands.
		default:
			parseStandard(r, t, opByte, d)
		}
	}
}

func parseExtended(r *reader.Reader, t *Table, addressSize int, cur *reloc.Cursor, applier *reloc.Applier, d *diag.Diagnostics) {
	opLocus := r.Locus()
	length, ok := r.ULEB128(diag.AreaLine)
	if !ok {
		d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated extended opcode length")
		return
	}
	bodyStart := r.Offset()
	bodyEnd := bodyStart + int64(length)

	if length == 0 {
		d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "extended opcode has zero-length body")
		return
	}

	sub, ok := r.U8()
	if !ok {
		d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated extended opcode body")
		return
	}

	switch sub {
	case lneEndSequence:
		t.HasEndSequence = true
	case lneSetAddress:
		addrOff := r.Offset()
		addrLocus := locus.Offset(locus.SectionLine, addrOff)
		_, ok := r.Uint(addressSize)
		if !ok {
			d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated DW_LNE_set_address operand")
		} else if applier != nil {
			if rec, found := cur.Next(addrOff, addrLocus, reloc.ModeOK); found {
				var val uint64
				applier.Apply(rec, addressSize, addrLocus, reloc.TargetAddress, locus.SectionUnknown, &val)
			}
		}
	case lneDefineFile:
		fileStart := r.Offset()
		name, ok := r.CString()
		if !ok {
			d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated DW_LNE_define_file name")
			break
		}
		dirIdx, ok1 := r.ULEB128(diag.AreaLine)
		mtime, ok2 := r.ULEB128(diag.AreaLine)
		size, ok3 := r.ULEB128(diag.AreaLine)
		if !ok1 || !ok2 || !ok3 {
			d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated DW_LNE_define_file entry")
			break
		}
		t.Files = append(t.Files, &FileEntry{
			Name: name, DirIndex: dirIdx, Mtime: mtime, Size: size,
			Locus: locus.Offset(locus.SectionLine, fileStart),
		})
	case lneSetDiscriminator:
		v, ok := r.ULEB128(diag.AreaLine)
		if ok && v == 0 {
			d.Emit(opLocus, diag.Bloat|diag.AreaLine, "DW_LNE_set_discriminator with operand 0 is a no-op")
		}
	default:
		d.Emit(opLocus, diag.Suboptimal|diag.AreaLine, "unrecognized extended opcode 0x%x, skipping its declared body", sub)
	}

	if pos := r.Offset(); pos < bodyEnd {
		leftover, ok := r.Bytes(int(bodyEnd - pos))
		if ok && !allZero(leftover) {
			d.Emit(opLocus, diag.Suboptimal|diag.AreaLine, "extended opcode 0x%x has non-zero leftover bytes in its declared body", sub)
		}
	} else if pos > bodyEnd {
		d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "extended opcode 0x%x body overruns its declared length", sub)
		r.Skip(int(pos - bodyEnd)) // best-effort; caller keeps scanning from here
	}
}

func parseStandard(r *reader.Reader, t *Table, opByte byte, d *diag.Diagnostics) {
	opLocus := r.Locus()
	argCount := 0
	if idx := int(opByte) - 1; idx >= 0 && idx < len(t.StdOpcodeLens) {
		argCount = int(t.StdOpcodeLens[idx])
	}

	switch opByte {
	case lnsAdvanceLine:
		if _, ok := r.SLEB128(diag.AreaLine); !ok {
			d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated DW_LNS_advance_line operand")
		}
	case lnsFixedAdvancePC:
		if _, ok := r.U16(); !ok {
			d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated DW_LNS_fixed_advance_pc operand")
		}
	case lnsSetFile:
		idx, ok := r.ULEB128(diag.AreaLine)
		if !ok {
			d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated DW_LNS_set_file operand")
			break
		}
		if f, ok := t.File(idx); ok {
			f.Used = true
			if f.DirIndex > 0 && int(f.DirIndex) <= len(t.DirUsed) {
				t.DirUsed[f.DirIndex-1] = true
			}
		} else {
			d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error,
				"DW_LNS_set_file references undefined file index %d", idx)
		}
	case lnsCopy, lnsNegateStmt, lnsSetBasicBlock, lnsConstAddPC,
		lnsSetPrologueEnd, lnsSetEpilogueBegin:
		// No operands of their own; read as many ULEB128 values as the
		// header table (unusually) declares for them.
		for i := 0; i < argCount; i++ {
			if _, ok := r.ULEB128(diag.AreaLine); !ok {
				d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated standard opcode operand")
				return
			}
		}
	case lnsAdvancePC, lnsSetColumn, lnsSetISA:
		for i := 0; i < argCount; i++ {
			if _, ok := r.ULEB128(diag.AreaLine); !ok {
				d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated standard opcode operand")
				return
			}
		}
		if argCount == 0 {
			d.Emit(opLocus, diag.Suboptimal|diag.AreaLine, "standard opcode 0x%x has no declared operand count", opByte)
		}
	default:
		// Unknown/vendor standard opcode: consume the header-declared
		// operand count as ULEB128 values and move on.
		for i := 0; i < argCount; i++ {
			if _, ok := r.ULEB128(diag.AreaLine); !ok {
				d.Emit(opLocus, diag.Impact4|diag.AreaLine|diag.Error, "truncated standard opcode operand")
				return
			}
		}
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
