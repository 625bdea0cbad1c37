package reloc

import (
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
)

// TargetKind classifies what kind of value a relocated field holds, and
// therefore which symbol/section properties Apply must validate.
type TargetKind int

const (
	// TargetValue: a plain data value (e.g. DW_FORM_data4 read as a
	// constant). SHN_ABS/UNDEF/COMMON are accepted; otherwise the target
	// section should carry SHF_ALLOC.
	TargetValue TargetKind = iota
	// TargetAddress: a program address (e.g. DW_AT_low_pc). Same
	// acceptance rule as TargetValue.
	TargetAddress
	// TargetExecutable: a program address expected to fall inside code.
	// Additionally requires SHF_EXECINSTR on the target section.
	TargetExecutable
	// TargetSection: an offset into a specific other debug section (e.g.
	// DW_AT_stmt_list into .debug_line). The symbol's section must match
	// WantSection exactly.
	TargetSection
)

// Applier applies individual relocations against decoded values,
// checking relocation type width and symbol/section class consistency.
type Applier struct {
	d          *diag.Diagnostics
	symbols    SymbolTable
	width      NaturalWidth
	executable bool // true for ET_EXEC/ET_DYN: validate only, never rewrite
}

// NewApplier builds an Applier. executable should be true unless the
// input ELF is ET_REL, in which case relocations are actually added into
// the decoded value.
func NewApplier(d *diag.Diagnostics, symbols SymbolTable, width NaturalWidth, executable bool) *Applier {
	return &Applier{d: d, symbols: symbols, width: width, executable: executable}
}

// Apply validates rec against widthBytes and targetKind (optionally
// wantSection, meaningful only for TargetSection), and, for relocatable
// objects, adds the symbol's value and the addend into *value. It
// returns the resolved symbol (zero value if unresolved) and whether the
// relocation was usable at all.
func (a *Applier) Apply(rec Record, widthBytes int, at locus.Locus, target TargetKind, wantSection locus.Section, value *uint64) (sym Symbol, ok bool) {
	if a.width != nil {
		if natural, known := a.width(rec.Type); known && natural != widthBytes {
			a.d.Emit(at, diag.Impact3|diag.AreaReloc,
				"relocation type %d does not match field width %d bytes", rec.Type, widthBytes)
		}
	}

	if a.symbols == nil {
		return Symbol{}, true
	}

	sym, found := a.symbols.Symbol(rec.SymbolIndex)
	if !found {
		a.d.Emit(at, diag.Impact3|diag.AreaReloc|diag.Error,
			"relocation references unknown symbol index %d", rec.SymbolIndex)
		return Symbol{}, false
	}

	switch target {
	case TargetSection:
		if sym.DebugSection != wantSection {
			a.d.Emit(at, diag.Impact4|diag.AreaReloc|diag.Error,
				"relocation expected to reference %s, but symbol targets %s", wantSection, sym.DebugSection)
			return sym, false
		}
	case TargetExecutable:
		a.checkAllocLike(sym, at, true)
	case TargetAddress, TargetValue:
		a.checkAllocLike(sym, at, false)
	}

	if value != nil && !a.executable {
		*value += sym.Value + uint64(rec.Addend)
	}

	return sym, true
}

func (a *Applier) checkAllocLike(sym Symbol, at locus.Locus, needExec bool) {
	switch sym.Shn {
	case ShnAbs, ShnUndef, ShnCommon:
		return
	}
	if !sym.SectionAlloc {
		a.d.Emit(at, diag.Impact3|diag.AreaReloc,
			"relocation targets section %q which is not mapped into the program's address space", sym.Name)
		return
	}
	if needExec && !sym.SectionExec {
		a.d.Emit(at, diag.Impact2|diag.AreaReloc,
			"relocation in an executable-address field targets a non-executable section")
	}
}

// SameSection reports whether two symbols referenced by a matched pair
// of relocations (e.g. low_pc/high_pc) were defined in the same
// section, a precondition for treating them as one contiguous range.
func SameSection(a, b Symbol) bool {
	if a.Shn != ShnNormal || b.Shn != ShnNormal {
		return a.Shn == b.Shn
	}
	return a.DebugSection == b.DebugSection && a.DebugSection != locus.SectionUnknown
}
