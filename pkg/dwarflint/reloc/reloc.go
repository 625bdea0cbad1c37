// Package reloc implements the relocation engine shared by every section
// checker: a cursor over a sorted per-section relocation list, and the
// logic for applying one relocation against a DWARF-decoded value.
package reloc

import (
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
)

// Record is one relocation entry: rewrite width bytes at Offset with
// Symbol's value plus Addend.
type Record struct {
	Offset      int64
	SymbolIndex int
	Type        uint32
	Addend      int64
	Invalid     bool
}

// ShnClass classifies the special section-index values a symbol may
// carry, independent of any particular ELF machine.
type ShnClass int

const (
	ShnNormal ShnClass = iota
	ShnAbs
	ShnUndef
	ShnCommon
	ShnXindex
)

// Symbol is the minimal view of an ELF symbol the relocation engine
// needs: its value, the special-section classification, and (for
// ordinary symbols) the flags and debug-section identity of the section
// it is defined in.
type Symbol struct {
	Name         string
	Value        uint64
	Shn          ShnClass
	SectionAlloc bool
	SectionExec  bool
	// DebugSection is the recognized debug-section identity of the
	// symbol's target section, or locus.SectionUnknown if the symbol's
	// section is not one of the recognized debug sections.
	DebugSection locus.Section
}

// SymbolTable resolves a relocation's symbol index to a Symbol. A nil
// SymbolTable is tolerated by Apply: checks continue without value
// rewriting.
type SymbolTable interface {
	Symbol(index int) (Symbol, bool)
}

// NaturalWidth reports the width in bytes a relocation of the given
// machine-specific type is defined to rewrite. Callers that cannot
// classify a relocation type should pass addressSize through unchanged
// and flag it themselves.
type NaturalWidth func(relType uint32) (width int, known bool)

// Mode selects the diagnostic wording used when Next/Skip must jump over
// an unconsumed relocation.
type Mode int

const (
	// ModeOK: a missing relocation here is expected and unremarkable.
	ModeOK Mode = iota
	// ModeMismatched: the field was expected to carry a relocation of a
	// different kind than what follows.
	ModeMismatched
	// ModeUnreferenced: the field reads a raw value that is not normally
	// relocated, so a pending relocation here indicates dead relocations.
	ModeUnreferenced
)

// Cursor walks a sorted-by-offset relocation list with a monotonically
// advancing position, consuming each record at most once.
type Cursor struct {
	section locus.Section
	records []Record
	pos     int
	d       *diag.Diagnostics
	width   NaturalWidth
}

// NewCursor builds a Cursor over records, which must already be sorted
// ascending by Offset.
func NewCursor(section locus.Section, records []Record, d *diag.Diagnostics, width NaturalWidth) *Cursor {
	return &Cursor{section: section, records: records, d: d, width: width}
}

// Next advances the cursor and returns the relocation at exactly offset,
// or (Record{}, false) if none applies there. Invalid relocations are
// silently skipped. A skipped, still-unconsumed relocation with an
// offset strictly less than offset produces a diagnostic selected by
// mode.
func (c *Cursor) Next(offset int64, at locus.Locus, mode Mode) (Record, bool) {
	for c.pos < len(c.records) {
		r := c.records[c.pos]
		if r.Offset > offset {
			return Record{}, false
		}
		if r.Offset < offset {
			c.pos++
			if r.Invalid {
				continue
			}
			c.emitSkipped(r, at, mode)
			continue
		}
		// r.Offset == offset
		c.pos++
		if r.Invalid {
			return Record{}, false
		}
		return r, true
	}
	return Record{}, false
}

// Skip fast-forwards the cursor to just before offset, as if scanning
// had reached offset-1, without reporting a match at offset itself. Used
// to jump to a new scan region.
func (c *Cursor) Skip(offset int64, at locus.Locus, mode Mode) {
	c.Next(offset-1, at, mode)
}

// SkipRest consumes every remaining relocation as mismatched.
func (c *Cursor) SkipRest(at locus.Locus) {
	for c.pos < len(c.records) {
		r := c.records[c.pos]
		c.pos++
		if r.Invalid {
			continue
		}
		c.emitSkipped(r, at, ModeMismatched)
	}
}

func (c *Cursor) emitSkipped(r Record, at locus.Locus, mode Mode) {
	if c.d == nil {
		return
	}
	switch mode {
	case ModeOK:
		// Expected gap: no diagnostic.
	case ModeMismatched:
		c.d.Emit(at, diag.Impact3|diag.AreaReloc,
			"relocation at offset 0x%x in %s does not correspond to a value that would normally be relocated", r.Offset, c.section)
	case ModeUnreferenced:
		c.d.Emit(at, diag.Impact2|diag.AreaReloc,
			"relocation at offset 0x%x in %s is unreferenced by any known field", r.Offset, c.section)
	}
}
