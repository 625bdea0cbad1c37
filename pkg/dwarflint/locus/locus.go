// Package locus implements the tagged source locations attached to every
// diagnostic emitted by dwarflint's checks.
//
// A Locus never owns the data it describes; it is a formatter closed over a
// section identity and a handful of integer coordinates. Loci are composable: a Locus may carry a reference to another
// Locus to express "relative to ...".
package locus

import "fmt"

// Section identifies one of the DWARF sections a Locus may point into.
type Section int

const (
	SectionUnknown Section = iota
	SectionInfo
	SectionAbbrev
	SectionAranges
	SectionLine
	SectionLoc
	SectionRanges
	SectionPubnames
	SectionPubtypes
	SectionStr
	SectionMac
	SectionELF
)

func (s Section) String() string {
	switch s {
	case SectionInfo:
		return ".debug_info"
	case SectionAbbrev:
		return ".debug_abbrev"
	case SectionAranges:
		return ".debug_aranges"
	case SectionLine:
		return ".debug_line"
	case SectionLoc:
		return ".debug_loc"
	case SectionRanges:
		return ".debug_ranges"
	case SectionPubnames:
		return ".debug_pubnames"
	case SectionPubtypes:
		return ".debug_pubtypes"
	case SectionStr:
		return ".debug_str"
	case SectionMac:
		return ".debug_mac"
	case SectionELF:
		return "<elf>"
	default:
		return "<unknown section>"
	}
}

// Kind selects which of the Locus' coordinates are meaningful, and how they
// are rendered.
type Kind int

const (
	// KindOffset formats a single byte offset into the section.
	KindOffset Kind = iota
	// KindCU formats a compile-unit-header offset.
	KindCU
	// KindDIE formats a CU offset plus a DIE offset.
	KindDIE
	// KindAttribute formats a CU offset, a DIE offset, and an attribute name.
	KindAttribute
	// KindTable formats an abbreviation-table offset.
	KindTable
	// KindAbbrev formats an abbreviation-table offset plus an abbrev code.
	KindAbbrev
	// KindOpcode formats a byte offset plus a short opcode name.
	KindOpcode
)

// Locus is an immutable, composable source location inside a DWARF section.
type Locus struct {
	Section Section
	Kind    Kind

	// A holds the first coordinate (CU offset, table offset, raw offset...).
	A int64
	// B holds the second coordinate (DIE offset, abbrev code...).
	B int64
	// Name holds the attribute/opcode name for KindAttribute and KindOpcode.
	Name string

	// Ref, when non-nil, is rendered as "relative to <Ref>".
	Ref *Locus
}

// Offset builds a Locus pointing at a raw byte offset within section.
func Offset(section Section, off int64) Locus {
	return Locus{Section: section, Kind: KindOffset, A: off}
}

// CU builds a Locus pointing at a compile-unit header.
func CU(section Section, cuOffset int64) Locus {
	return Locus{Section: section, Kind: KindCU, A: cuOffset}
}

// DIE builds a Locus pointing at a DIE within a compile unit.
func DIE(section Section, cuOffset, dieOffset int64) Locus {
	return Locus{Section: section, Kind: KindDIE, A: cuOffset, B: dieOffset}
}

// Attribute builds a Locus pointing at one attribute of one DIE.
func Attribute(section Section, cuOffset, dieOffset int64, name string) Locus {
	return Locus{Section: section, Kind: KindAttribute, A: cuOffset, B: dieOffset, Name: name}
}

// Table builds a Locus pointing at an abbreviation table.
func Table(tableOffset int64) Locus {
	return Locus{Section: SectionAbbrev, Kind: KindTable, A: tableOffset}
}

// Abbrev builds a Locus pointing at one abbrev definition within a table.
func Abbrev(tableOffset int64, code uint64) Locus {
	return Locus{Section: SectionAbbrev, Kind: KindAbbrev, A: tableOffset, B: int64(code)}
}

// Opcode builds a Locus pointing at an opcode byte, labeled by name.
func Opcode(section Section, off int64, name string) Locus {
	return Locus{Section: section, Kind: KindOpcode, A: off, Name: name}
}

// RelativeTo returns a copy of l carrying ref as its referrer.
func (l Locus) RelativeTo(ref Locus) Locus {
	l.Ref = &ref
	return l
}

// String renders the Locus as a short human string, e.g.
// ".debug_info: CU 0x0, DIE 0x2b, attribute DW_AT_name".
func (l Locus) String() string {
	s := l.format()
	if l.Ref != nil {
		s = fmt.Sprintf("%s (relative to %s)", s, l.Ref.String())
	}
	return s
}

func (l Locus) format() string {
	switch l.Kind {
	case KindOffset:
		return fmt.Sprintf("%s: 0x%x", l.Section, l.A)
	case KindCU:
		return fmt.Sprintf("%s: CU 0x%x", l.Section, l.A)
	case KindDIE:
		return fmt.Sprintf("%s: CU 0x%x, DIE 0x%x", l.Section, l.A, l.B)
	case KindAttribute:
		return fmt.Sprintf("%s: CU 0x%x, DIE 0x%x, attribute %s", l.Section, l.A, l.B, l.Name)
	case KindTable:
		return fmt.Sprintf("%s: abbreviation table 0x%x", l.Section, l.A)
	case KindAbbrev:
		return fmt.Sprintf("%s: abbreviation table 0x%x, abbrev code %d", l.Section, l.A, l.B)
	case KindOpcode:
		return fmt.Sprintf("%s: 0x%x (%s)", l.Section, l.A, l.Name)
	default:
		return fmt.Sprintf("%s: <malformed locus>", l.Section)
	}
}
