package reloc_test

import (
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorMonotonicity(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	records := []reloc.Record{
		{Offset: 4, SymbolIndex: 1},
		{Offset: 8, SymbolIndex: 2},
		{Offset: 20, SymbolIndex: 3},
	}
	c := reloc.NewCursor(locus.SectionInfo, records, d, nil)

	r, ok := c.Next(4, locus.Offset(locus.SectionInfo, 4), reloc.ModeOK)
	require.True(t, ok)
	assert.Equal(t, 1, r.SymbolIndex)

	// Asking for offset 4 again must not return the same relocation.
	_, ok = c.Next(4, locus.Offset(locus.SectionInfo, 4), reloc.ModeOK)
	assert.False(t, ok)

	// Offset 8 still available.
	r, ok = c.Next(8, locus.Offset(locus.SectionInfo, 8), reloc.ModeOK)
	require.True(t, ok)
	assert.Equal(t, 2, r.SymbolIndex)

	// Jumping ahead to 20 must skip over nothing else and succeed.
	r, ok = c.Next(20, locus.Offset(locus.SectionInfo, 20), reloc.ModeOK)
	require.True(t, ok)
	assert.Equal(t, 3, r.SymbolIndex)
}

func TestCursorSkippedEmitsDiagnostic(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	records := []reloc.Record{{Offset: 4, SymbolIndex: 1}}
	c := reloc.NewCursor(locus.SectionInfo, records, d, nil)

	_, ok := c.Next(8, locus.Offset(locus.SectionInfo, 8), reloc.ModeMismatched)
	assert.False(t, ok)
	require.Len(t, d.All(), 1)
	assert.Contains(t, d.All()[0].Message, "does not correspond")
}

func TestCursorInvalidSkippedSilently(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	records := []reloc.Record{{Offset: 4, SymbolIndex: 1, Invalid: true}}
	c := reloc.NewCursor(locus.SectionInfo, records, d, nil)

	_, ok := c.Next(4, locus.Offset(locus.SectionInfo, 4), reloc.ModeMismatched)
	assert.False(t, ok)
	assert.Empty(t, d.All())
}

type fakeSymbols map[int]reloc.Symbol

func (f fakeSymbols) Symbol(index int) (reloc.Symbol, bool) {
	s, ok := f[index]
	return s, ok
}

func TestApplyAddsValueInRelocatableObjects(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	syms := fakeSymbols{1: {Value: 0x1000, Shn: reloc.ShnNormal, SectionAlloc: true}}
	applier := reloc.NewApplier(d, syms, nil, false)

	v := uint64(0x10)
	sym, ok := applier.Apply(reloc.Record{SymbolIndex: 1, Addend: 4}, 4, locus.Offset(locus.SectionInfo, 0), reloc.TargetAddress, locus.SectionUnknown, &v)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1000), sym.Value)
	assert.Equal(t, uint64(0x1014), v)
}

func TestApplyExecutableDoesNotRewrite(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	syms := fakeSymbols{1: {Value: 0x1000, Shn: reloc.ShnNormal, SectionAlloc: true, SectionExec: true}}
	applier := reloc.NewApplier(d, syms, nil, true)

	v := uint64(0x10)
	_, ok := applier.Apply(reloc.Record{SymbolIndex: 1}, 4, locus.Offset(locus.SectionInfo, 0), reloc.TargetExecutable, locus.SectionUnknown, &v)
	require.True(t, ok)
	assert.Equal(t, uint64(0x10), v, "ET_EXEC/ET_DYN must only validate, never rewrite")
}

func TestApplySectionMismatchIsError(t *testing.T) {
	d := diag.New(diag.DefaultConfig(), nil)
	syms := fakeSymbols{1: {DebugSection: locus.SectionLine, Shn: reloc.ShnNormal}}
	applier := reloc.NewApplier(d, syms, nil, false)

	_, ok := applier.Apply(reloc.Record{SymbolIndex: 1}, 4, locus.Offset(locus.SectionInfo, 0), reloc.TargetSection, locus.SectionRanges, nil)
	assert.False(t, ok)
	require.Len(t, d.All(), 1)
	assert.True(t, d.All()[0].Category&diag.Error != 0)
}

func TestSameSection(t *testing.T) {
	a := reloc.Symbol{DebugSection: locus.SectionInfo, Shn: reloc.ShnNormal}
	b := reloc.Symbol{DebugSection: locus.SectionInfo, Shn: reloc.ShnNormal}
	c := reloc.Symbol{DebugSection: locus.SectionLine, Shn: reloc.ShnNormal}

	assert.True(t, reloc.SameSection(a, b))
	assert.False(t, reloc.SameSection(a, c))
}
