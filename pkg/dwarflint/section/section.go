// Package section adapts an ELF object file into the section views and
// relocation records the rest of dwarflint consumes. It is the one
// package allowed to import debug/elf; it never hands callers a parsed
// *dwarf.Data; the DWARF structures themselves are decoded by the
// abbrev/info/line/... packages.
package section

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
)

// View bundles one debug section's bytes with the metadata checks need
// to interpret them: its mapped address (for ET_REL files, which have
// none yet, a synthetic one: sections are laid out back to back from
// 0x10000, each aligned to its sh_addralign), the object's
// address size, byte order, and the sorted relocation list that
// applies to it.
type View struct {
	ID          locus.Section
	Name        string
	Data        []byte
	Addr        uint64
	AddressSize int
	Order       binary.ByteOrder
	Relocs      []reloc.Record
}

var recognizedSections = map[string]locus.Section{
	".debug_info":     locus.SectionInfo,
	".debug_abbrev":   locus.SectionAbbrev,
	".debug_aranges":  locus.SectionAranges,
	".debug_line":     locus.SectionLine,
	".debug_loc":      locus.SectionLoc,
	".debug_ranges":   locus.SectionRanges,
	".debug_pubnames": locus.SectionPubnames,
	".debug_pubtypes": locus.SectionPubtypes,
	".debug_str":      locus.SectionStr,
	".debug_mac":      locus.SectionMac,
}

// File is an opened ELF object, holding every recognized debug section
// view and the symbol table needed to resolve relocations.
type File struct {
	raw         *elf.File
	views       map[locus.Section]*View
	executable  bool
	addressSize int
	order       binary.ByteOrder
	symbols     []elf.Symbol
	sectionIdx  map[string]*elf.Section
}

// Open reads path as an ELF object and builds section Views for every
// recognized debug section present. Missing sections are simply absent
// from the resulting File's view map; each check decides for itself
// what an absent section it depends on means.
func Open(path string, d *diag.Diagnostics) (*File, error) {
	raw, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s as ELF: %w", path, err)
	}

	f := &File{
		raw:        raw,
		views:      make(map[locus.Section]*View),
		executable: raw.Type != elf.ET_REL,
		sectionIdx: make(map[string]*elf.Section),
	}

	switch raw.Class {
	case elf.ELFCLASS32:
		f.addressSize = 4
	case elf.ELFCLASS64:
		f.addressSize = 8
	default:
		return nil, fmt.Errorf("%s: unrecognized ELF class", path)
	}
	if raw.Data == elf.ELFDATA2MSB {
		f.order = binary.BigEndian
	} else {
		f.order = binary.LittleEndian
	}

	for _, s := range raw.Sections {
		f.sectionIdx[s.Name] = s
	}

	syms, err := raw.Symbols()
	if err != nil && d != nil {
		d.Emit(locus.Offset(locus.SectionELF, 0), diag.Impact2|diag.AreaELF,
			"failed reading symbol table: %v", err)
	}
	f.symbols = syms

	// Synthetic addresses for ET_REL files: the object carries no real
	// load address, but relocation engine math needs something monotonic
	// to lay sections out against.
	var nextSynthetic uint64 = 0x10000

	for name, id := range recognizedSections {
		s := f.sectionIdx[name]
		if s == nil {
			continue
		}
		data, err := s.Data()
		if err != nil {
			if d != nil {
				d.Emit(locus.Offset(id, 0), diag.Impact4|diag.AreaELF|diag.Error,
					"failed reading section %s: %v", name, err)
			}
			continue
		}

		addr := s.Addr
		if !f.executable {
			if s.Addralign > 1 {
				if rem := nextSynthetic % s.Addralign; rem != 0 {
					nextSynthetic += s.Addralign - rem
				}
			}
			addr = nextSynthetic
			nextSynthetic += uint64(len(data))
		}

		v := &View{
			ID:          id,
			Name:        name,
			Data:        data,
			Addr:        addr,
			AddressSize: f.addressSize,
			Order:       f.order,
		}
		v.Relocs = f.readRelocations(s, d)
		f.views[id] = v
	}

	return f, nil
}

// View returns the section view for id, or (nil, false) if that section
// was not present in the object.
func (f *File) View(id locus.Section) (*View, bool) {
	v, ok := f.views[id]
	return v, ok
}

// Executable reports whether the object is ET_EXEC/ET_DYN (relocations
// validate only) as opposed to ET_REL (relocations rewrite values).
func (f *File) Executable() bool {
	return f.executable
}

// AddressSize returns the object's pointer width in bytes (4 or 8).
func (f *File) AddressSize() int {
	return f.addressSize
}

// Order returns the object's byte order.
func (f *File) Order() binary.ByteOrder {
	return f.order
}

// Symbol implements reloc.SymbolTable by looking up one ELF symbol by
// table index and classifying its section.
func (f *File) Symbol(index int) (reloc.Symbol, bool) {
	// elf.File.Symbols omits the null symbol at index 0, so ELF symbol
	// index i is f.symbols[i-1].
	if index <= 0 || index > len(f.symbols) {
		return reloc.Symbol{}, false
	}
	es := f.symbols[index-1]

	sym := reloc.Symbol{Name: es.Name, Value: es.Value}

	switch es.Section {
	case elf.SHN_UNDEF:
		sym.Shn = reloc.ShnUndef
		return sym, true
	case elf.SHN_ABS:
		sym.Shn = reloc.ShnAbs
		return sym, true
	case elf.SHN_COMMON:
		sym.Shn = reloc.ShnCommon
		return sym, true
	case elf.SHN_XINDEX:
		sym.Shn = reloc.ShnXindex
		return sym, true
	}

	sym.Shn = reloc.ShnNormal
	if int(es.Section) >= 0 && int(es.Section) < len(f.raw.Sections) {
		target := f.raw.Sections[es.Section]
		sym.SectionAlloc = target.Flags&elf.SHF_ALLOC != 0
		sym.SectionExec = target.Flags&elf.SHF_EXECINSTR != 0
		if id, ok := recognizedSections[target.Name]; ok {
			sym.DebugSection = id
		} else {
			sym.DebugSection = locus.SectionUnknown
		}
	}
	return sym, true
}

// readRelocations finds the SHT_REL/SHT_RELA section targeting s (via
// sh_info) and decodes it into a sorted-by-offset reloc.Record list.
func (f *File) readRelocations(s *elf.Section, d *diag.Diagnostics) []reloc.Record {
	var relSec *elf.Section
	for _, cand := range f.raw.Sections {
		if (cand.Type == elf.SHT_REL || cand.Type == elf.SHT_RELA) && f.sectionInfoTargets(cand, s) {
			relSec = cand
			break
		}
	}
	if relSec == nil {
		return nil
	}

	data, err := relSec.Data()
	if err != nil {
		if d != nil {
			d.Emit(locus.Offset(locus.SectionELF, 0), diag.Impact3|diag.AreaELF,
				"failed reading relocation section %s: %v", relSec.Name, err)
		}
		return nil
	}

	var records []reloc.Record
	rd := bytes.NewReader(data)

	readOne := func() (off int64, symIdx int, relType uint32, addend int64, ok bool) {
		if f.addressSize == 8 {
			if relSec.Type == elf.SHT_RELA {
				var e elf.Rela64
				if binary.Read(rd, f.order, &e) != nil {
					return 0, 0, 0, 0, false
				}
				return int64(e.Off), int(e.Info >> 32), uint32(e.Info), e.Addend, true
			}
			var e elf.Rel64
			if binary.Read(rd, f.order, &e) != nil {
				return 0, 0, 0, 0, false
			}
			return int64(e.Off), int(e.Info >> 32), uint32(e.Info), 0, true
		}
		if relSec.Type == elf.SHT_RELA {
			var e elf.Rela32
			if binary.Read(rd, f.order, &e) != nil {
				return 0, 0, 0, 0, false
			}
			return int64(e.Off), int(e.Info >> 8), e.Info & 0xff, int64(e.Addend), true
		}
		var e elf.Rel32
		if binary.Read(rd, f.order, &e) != nil {
			return 0, 0, 0, 0, false
		}
		return int64(e.Off), int(e.Info >> 8), e.Info & 0xff, 0, true
	}

	for {
		off, symIdx, relType, addend, ok := readOne()
		if !ok {
			break
		}
		records = append(records, reloc.Record{
			Offset:      off,
			SymbolIndex: symIdx,
			Type:        relType,
			Addend:      addend,
		})
	}

	// The rest of dwarflint's relocation Cursor requires an ascending,
	// offset-sorted list.
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && records[j-1].Offset > records[j].Offset; j-- {
			records[j-1], records[j] = records[j], records[j-1]
		}
	}
	return records
}

func (f *File) sectionInfoTargets(relSec, target *elf.Section) bool {
	idx := int(relSec.Info)
	return idx >= 0 && idx < len(f.raw.Sections) && f.raw.Sections[idx] == target
}

// HasSection reports whether name is present in the underlying ELF file
// at all, independent of whether it is one of the recognized debug
// sections (used by the "no debug information" check).
func (f *File) HasSection(name string) bool {
	_, ok := f.sectionIdx[name]
	return ok
}

// AnyDebugSectionPresent reports whether the object carries at least one
// recognized debug section.
func (f *File) AnyDebugSectionPresent() bool {
	return len(f.views) > 0
}
