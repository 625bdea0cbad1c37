// Package info implements the .debug_info structural pass: compile-unit
// header validation and the DIE tree walk, including abbrev usage and
// cross-DIE reference resolution.
package info

import (
	"encoding/binary"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/abbrev"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reader"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
)

// AttrValue is one decoded attribute of one DIE.
type AttrValue struct {
	Name  dwver.AttrName
	Form  dwver.Form
	Class dwver.FormClass
	// Uint holds the decoded value for address/constant/flag/reference
	// and LEB128 forms. Block forms fill Bytes and string forms fill Str
	// instead, leaving Uint zero.
	Uint  uint64
	Bytes []byte
	Str   string
	Locus locus.Locus
}

// DIE is one Debugging Information Entry, linked into its compile
// unit's tree.
type DIE struct {
	Offset     int64
	Tag        dwver.Tag
	Attributes []AttrValue
	Parent     *DIE
	Children   []*DIE
	CU         *CU
}

// Attr returns the first attribute named n on d, if present.
func (d *DIE) Attr(n dwver.AttrName) (AttrValue, bool) {
	for _, a := range d.Attributes {
		if a.Name == n {
			return a, true
		}
	}
	return AttrValue{}, false
}

// CU is one parsed compile unit: its header fields plus the root DIE of
// its tree.
type CU struct {
	Offset       int64
	Length       int64 // length of the unit_length field's payload
	OffsetSize   int   // 4 or 8, from the initial-length escape
	Version      int
	AbbrevOffset int64
	AddressSize  int
	Root         *DIE
	Locus        locus.Locus
}

// End returns the section offset just past this CU (the offset the
// unit_length field's value measures to).
func (cu *CU) End() int64 {
	return cu.Offset + int64(headerLengthFieldWidth(cu.OffsetSize)) + cu.Length
}

func headerLengthFieldWidth(offsetSize int) int {
	if offsetSize == 8 {
		return 12 // 4-byte 0xffffffff escape + 8-byte length
	}
	return 4
}

// Parser decodes compile units from one .debug_info section buffer.
type Parser struct {
	data        []byte
	d           *diag.Diagnostics
	abbrevs     *abbrev.Parser
	strData     []byte
	addressSize int
	order       binary.ByteOrder
	applier     *reloc.Applier
	relocs      []reloc.Record

	byOffset map[int64]*DIE
}

// NewParser builds a Parser. strData is the .debug_str section's bytes
// (nil if absent); applier and relocs may be nil if the object carries
// no relocations for this section.
func NewParser(data []byte, d *diag.Diagnostics, abbrevs *abbrev.Parser, strData []byte, addressSize int, order binary.ByteOrder, applier *reloc.Applier, relocs []reloc.Record) *Parser {
	return &Parser{
		data: data, d: d, abbrevs: abbrevs, strData: strData,
		addressSize: addressSize, order: order, applier: applier, relocs: relocs,
		byOffset: make(map[int64]*DIE),
	}
}

// DIEAt returns the DIE at the given absolute .debug_info offset, if any
// compile unit parsed so far defined one there.
func (p *Parser) DIEAt(offset int64) (*DIE, bool) {
	d, ok := p.byOffset[offset]
	return d, ok
}

// ParseAll decodes every compile unit in the section, then resolves
// cross-DIE references.
func (p *Parser) ParseAll() []*CU {
	r := reader.New(locus.SectionInfo, p.data, 0, p.order, p.d)

	var cus []*CU
	for !r.AtEnd() {
		if r.AllZero() {
			p.d.Emit(r.Locus(), diag.Bloat|diag.AreaHeader,
				"trailing zero padding at end of .debug_info")
			break
		}
		cu, ok := p.parseCU(r)
		if !ok {
			break
		}
		cus = append(cus, cu)
	}

	p.resolveReferences(cus)
	return cus
}

func (p *Parser) parseCU(r *reader.Reader) (*CU, bool) {
	cuOffset := r.Offset()
	length, offsetSize, ok := r.InitialLength(diag.AreaHeader)
	if !ok {
		return nil, false
	}
	cu := &CU{Offset: cuOffset, Length: int64(length), OffsetSize: offsetSize, Locus: locus.CU(locus.SectionInfo, cuOffset)}

	versionU16, ok := r.U16()
	if !ok {
		p.d.Emit(cu.Locus, diag.Impact4|diag.AreaHeader|diag.Error, "truncated compile unit header: missing version")
		return nil, false
	}
	cu.Version = int(versionU16)
	if !dwver.Supported(cu.Version) {
		p.d.Emit(cu.Locus, diag.Impact4|diag.AreaHeader|diag.Error,
			"compile unit at 0x%x declares unsupported DWARF version %d", cuOffset, cu.Version)
	}

	abbrevOffset, ok := r.Uint(offsetSize)
	if !ok {
		p.d.Emit(cu.Locus, diag.Impact4|diag.AreaHeader|diag.Error, "truncated compile unit header: missing abbrev offset")
		return nil, false
	}
	cu.AbbrevOffset = int64(abbrevOffset)

	addrSize, validSize := r.AddressSize(diag.AreaHeader, p.addressSize)
	if addrSize == 0 {
		p.d.Emit(cu.Locus, diag.Impact4|diag.AreaHeader|diag.Error, "truncated compile unit header: missing address size")
		return nil, false
	}
	_ = validSize // AddressSize already emitted a diagnostic for an invalid (but coerced) value
	cu.AddressSize = addrSize

	version := dwver.Version{Number: cu.Version}
	if !dwver.Supported(cu.Version) {
		version = dwver.Latest()
	}

	table, tableOK := p.abbrevs.Table(cu.AbbrevOffset, version)
	if !tableOK {
		p.d.Emit(cu.Locus, diag.Impact4|diag.AreaDieRel|diag.Error,
			"compile unit at 0x%x references an unusable abbreviation table at 0x%x", cuOffset, cu.AbbrevOffset)
		r.Skip(int(cu.End() - r.Offset()))
		return cu, true
	}
	table.Used = true

	root, ok := p.parseDIETree(r, cu, table, version, nil)
	if !ok || root == nil {
		if end := cu.End(); r.Offset() < end {
			r.Skip(int(end - r.Offset()))
		}
		return cu, true
	}
	if root.Tag != dwver.TagCompileUnit && root.Tag != dwver.TagPartialUnit {
		p.d.Emit(root.Attr0Locus(cu), diag.Impact4|diag.AreaDieRel|diag.Error,
			"compile unit at 0x%x's root DIE has tag %s, expected DW_TAG_compile_unit", cuOffset, root.Tag)
	}
	cu.Root = root

	if end := cu.End(); r.Offset() < end {
		p.d.Emit(cu.Locus, diag.Bloat|diag.AreaDieRel, "compile unit at 0x%x has %d unused trailing bytes", cuOffset, end-r.Offset())
		r.Skip(int(end - r.Offset()))
	} else if r.Offset() > end {
		p.d.Emit(cu.Locus, diag.Impact4|diag.AreaHeader|diag.Error,
			"compile unit at 0x%x overruns its declared length by %d bytes", cuOffset, r.Offset()-end)
	}

	return cu, true
}

// Attr0Locus is a small helper so diagnostics about a root DIE's tag can
// cite a DIE-shaped locus without needing the caller to reconstruct one.
func (d *DIE) Attr0Locus(cu *CU) locus.Locus {
	return locus.DIE(locus.SectionInfo, cu.Offset, d.Offset)
}

func (p *Parser) parseDIETree(r *reader.Reader, cu *CU, table *abbrev.Table, version dwver.Version, parent *DIE) (*DIE, bool) {
	dieOffset := r.Offset()
	code, ok := r.ULEB128(diag.AreaDieOther)
	if !ok {
		return nil, false
	}
	if code == 0 {
		// Null entry: end of this sibling chain, not a DIE itself.
		return nil, true
	}

	ab, found := table.Find(code)
	if !found {
		p.d.Emit(locus.DIE(locus.SectionInfo, cu.Offset, dieOffset), diag.Impact4|diag.AreaDieRel|diag.Error,
			"DIE at 0x%x uses abbreviation code %d, absent from its table", dieOffset, code)
		return nil, false
	}
	ab.Used = true

	die := &DIE{Offset: dieOffset, Tag: ab.Tag, Parent: parent, CU: cu}
	p.byOffset[dieOffset] = die

	for _, attr := range ab.Attributes {
		val, ok := p.parseAttrValue(r, cu, version, attr, die.Offset)
		if !ok {
			return die, false
		}
		die.Attributes = append(die.Attributes, val)
	}

	if ab.HasChildren {
		for {
			child, ok := p.parseDIETree(r, cu, table, version, die)
			if !ok {
				return die, false
			}
			if child == nil {
				break
			}
			die.Children = append(die.Children, child)
		}
	}

	return die, true
}

func (p *Parser) parseAttrValue(r *reader.Reader, cu *CU, version dwver.Version, attr abbrev.Attribute, dieOffset int64) (AttrValue, bool) {
	valOffset := r.Offset()
	v := AttrValue{
		Name: attr.Name, Form: attr.Form,
		Class: dwver.ClassOf(attr.Name, attr.Form, cu.Version),
		Locus: locus.Attribute(locus.SectionInfo, cu.Offset, dieOffset, attr.Name.String()),
	}

	form := attr.Form
	if form == dwver.FormIndirect {
		fv, ok := r.ULEB128(diag.AreaDieOther)
		if !ok {
			return v, false
		}
		form = dwver.Form(fv)
		v.Form = form
		v.Class = dwver.ClassOf(attr.Name, form, cu.Version)
	}

	desc, known := dwver.Describe(form)
	if !known {
		p.d.Emit(v.Locus, diag.Impact4|diag.AreaDieOther|diag.Error, "attribute at 0x%x uses unrecognized form %s", valOffset, form)
		return v, false
	}

	switch desc.Storage {
	case dwver.StorageFixed:
		width := desc.Width
		if width == 0 {
			switch form {
			case dwver.FormAddr:
				width = cu.AddressSize
			case dwver.FormRefAddr:
				width = version.RefAddrWidth(cu.AddressSize, cu.OffsetSize)
			default:
				width = cu.OffsetSize
			}
		}
		val, ok := r.Uint(width)
		if !ok {
			p.d.Emit(v.Locus, diag.Impact4|diag.AreaDieOther|diag.Error, "truncated attribute value at 0x%x", valOffset)
			return v, false
		}
		v.Uint = val
		if rec, ok := cursorAt(p.relocs, valOffset); ok && p.applier != nil {
			p.applier.Apply(rec, width, v.Locus, targetKindFor(v.Class), wantSectionFor(attr.Name), &v.Uint)
		}
	case dwver.StorageLEB:
		if desc.Signed {
			val, ok := r.SLEB128(diag.AreaDieOther)
			if !ok {
				return v, false
			}
			v.Uint = uint64(val)
		} else {
			val, ok := r.ULEB128(diag.AreaDieOther)
			if !ok {
				return v, false
			}
			v.Uint = val
		}
	case dwver.StorageBlock:
		length, ok := blockLength(r, form)
		if !ok {
			p.d.Emit(v.Locus, diag.Impact4|diag.AreaDieOther|diag.Error, "truncated block length at 0x%x", valOffset)
			return v, false
		}
		b, ok := r.Bytes(int(length))
		if !ok {
			p.d.Emit(v.Locus, diag.Impact4|diag.AreaDieOther|diag.Error, "block attribute at 0x%x overruns the section", valOffset)
			return v, false
		}
		v.Bytes = b
	case dwver.StorageString:
		s, ok := r.CString()
		if !ok {
			p.d.Emit(v.Locus, diag.Impact4|diag.AreaDieOther|diag.Error, "unterminated inline string at 0x%x", valOffset)
			return v, false
		}
		v.Str = s
	case dwver.StorageStrp:
		off, ok := r.Uint(cu.OffsetSize)
		if !ok {
			return v, false
		}
		v.Str, ok = lookupStr(p.strData, off)
		if !ok {
			p.d.Emit(v.Locus, diag.Impact4|diag.AreaStrings|diag.Error,
				"DW_FORM_strp at 0x%x references offset 0x%x outside .debug_str", valOffset, off)
		}
	}

	return v, true
}

func blockLength(r *reader.Reader, form dwver.Form) (uint64, bool) {
	switch form {
	case dwver.FormBlock1:
		v, ok := r.U8()
		return uint64(v), ok
	case dwver.FormBlock2:
		v, ok := r.U16()
		return uint64(v), ok
	case dwver.FormBlock4:
		v, ok := r.U32()
		return uint64(v), ok
	case dwver.FormBlock:
		return r.ULEB128(diag.AreaDieOther)
	default:
		return 0, false
	}
}

func lookupStr(strData []byte, offset uint64) (string, bool) {
	if offset >= uint64(len(strData)) {
		return "", false
	}
	end := offset
	for end < uint64(len(strData)) && strData[end] != 0 {
		end++
	}
	return string(strData[offset:end]), true
}

func cursorAt(relocs []reloc.Record, offset int64) (reloc.Record, bool) {
	for _, r := range relocs {
		if r.Offset == offset {
			return r, true
		}
	}
	return reloc.Record{}, false
}

func targetKindFor(c dwver.FormClass) reloc.TargetKind {
	switch c {
	case dwver.ClassAddress:
		return reloc.TargetAddress
	case dwver.ClassLinePtr:
		return reloc.TargetSection
	case dwver.ClassLocListPtr:
		return reloc.TargetSection
	case dwver.ClassRangeListPtr:
		return reloc.TargetSection
	default:
		return reloc.TargetValue
	}
}

func wantSectionFor(attr dwver.AttrName) locus.Section {
	switch attr {
	case dwver.AttrStmtList:
		return locus.SectionLine
	case dwver.AttrMacroInfo:
		return locus.SectionMac
	case dwver.AttrRanges, dwver.AttrStartScope:
		return locus.SectionRanges
	case dwver.AttrLocation, dwver.AttrFrameBase, dwver.AttrDataMemberLocation,
		dwver.AttrStringLength, dwver.AttrReturnAddr, dwver.AttrUseLocation,
		dwver.AttrVtableElemLocation, dwver.AttrStaticLink, dwver.AttrSegment:
		return locus.SectionLoc
	default:
		return locus.SectionUnknown
	}
}

// resolveReferences walks every DIE's reference-class attributes and
// checks that the referenced offset lands on a real DIE.
func (p *Parser) resolveReferences(cus []*CU) {
	for _, cu := range cus {
		walk(cu.Root, func(d *DIE) {
			for _, a := range d.Attributes {
				if a.Class != dwver.ClassReference {
					continue
				}
				target := a.Uint
				if dwver.IsCULocalReference(a.Form) {
					target += uint64(cu.Offset)
				}
				if _, ok := p.byOffset[int64(target)]; !ok {
					p.d.Emit(a.Locus, diag.Impact4|diag.AreaDieRel|diag.Error,
						"attribute %s at DIE 0x%x references offset 0x%x, which is not a DIE", a.Name, d.Offset, target)
				}
			}
		})
	}
}

func walk(d *DIE, fn func(*DIE)) {
	if d == nil {
		return
	}
	fn(d)
	for _, c := range d.Children {
		walk(c, fn)
	}
}
