package check

import (
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
)

// DebugSectionPresence is the minimal view of the input object the
// no-debug-info check needs; pkg/dwarflint/section.File satisfies it.
type DebugSectionPresence interface {
	AnyDebugSectionPresent() bool
}

// NoDebug implements the supplemented check_nodebug.cc check: an object
// that carries none of the recognized debug sections has nothing for
// the rest of dwarflint to validate. Ordinarily this is fatal; with
// --ignore-missing-debug it is downgraded to a warning and the run
// otherwise succeeds trivially.
func NoDebug(file DebugSectionPresence, ignoreMissingDebug bool, d *diag.Diagnostics) bool {
	if file.AnyDebugSectionPresent() {
		return true
	}
	if ignoreMissingDebug {
		d.Emit(locus.Offset(locus.SectionELF, 0), diag.Impact2|diag.AreaELF,
			"no DWARF debug information found, nothing to check")
		return true
	}
	d.Emit(locus.Offset(locus.SectionELF, 0), diag.Impact4|diag.AreaELF|diag.Error,
		"no DWARF debug information found")
	return false
}
