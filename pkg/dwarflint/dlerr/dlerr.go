// Package dlerr defines dwarflint's curated fatal errors: the handful
// of whole-program-terminating conditions, distinct from the non-fatal
// diagnostics every check reports through diag.Diagnostics. Diagnostics
// are never represented as error values; only these are.
package dlerr

import "fmt"

var (
	// ErrCycle is returned when a check transitively requests itself
	// while still initializing.
	ErrCycle = fmt.Errorf("cycle detected in check scheduler")

	// ErrReaderFatal covers a reader encountering a malformation it
	// cannot recover from mid-section.
	ErrReaderFatal = fmt.Errorf("unrecoverable reader error")

	// ErrOpenELF wraps failures opening or classifying the input object.
	ErrOpenELF = fmt.Errorf("failed to open ELF file")
)

// Wrap attaches detail, formatted with args, to a base sentinel error,
// preserving it for errors.Is.
func Wrap(base error, detail string, args ...any) error {
	return fmt.Errorf("%w: "+detail, append([]any{base}, args...)...)
}
