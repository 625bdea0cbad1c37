package diag

import (
	"fmt"
	"io"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
)

// Entry is one emitted diagnostic: a locus, a message, and the category
// mask it was emitted under.
type Entry struct {
	Locus    locus.Locus
	Message  string
	Category Category
}

// IsError reports whether e counts as an error under criteria.
func (e Entry) IsError(criteria Category) bool {
	if e.Category&Error != 0 {
		return true
	}
	return e.Category&criteria != 0
}

// Sink is an abstract reporter: checks never write to stdout/stderr
// directly, they call Sink.Emit.
type Sink interface {
	Emit(Entry)
}

// Diagnostics is the process-wide diagnostic collector. It owns the
// category filter, counts errors for the exit code, and forwards accepted
// entries to an underlying Sink.
type Diagnostics struct {
	cfg     Config
	sink    Sink
	all     []Entry
	nErrors int
}

// New builds a Diagnostics bound to cfg, forwarding accepted entries to
// sink. sink may be nil, in which case entries are only recorded for
// later retrieval via All().
func New(cfg Config, sink Sink) *Diagnostics {
	return &Diagnostics{cfg: cfg, sink: sink}
}

// Config returns the configuration this sink was built with.
func (d *Diagnostics) Config() Config {
	return d.cfg
}

// Emit records and, if it passes the accept/reject filter, forwards one
// diagnostic.
func (d *Diagnostics) Emit(l locus.Locus, cat Category, format string, args ...any) {
	e := Entry{Locus: l, Message: fmt.Sprintf(format, args...), Category: cat}
	d.all = append(d.all, e)

	if e.IsError(d.cfg.ErrorCriteria) {
		d.nErrors++
	}

	if cat&d.cfg.Accept == 0 || cat&d.cfg.Reject != 0 {
		return
	}
	if d.sink != nil {
		d.sink.Emit(e)
	}
}

// All returns every diagnostic recorded so far, including ones filtered
// from the sink.
func (d *Diagnostics) All() []Entry {
	return d.all
}

// ErrorCount returns the number of recorded diagnostics that count as
// errors under the configured ErrorCriteria.
func (d *Diagnostics) ErrorCount() int {
	return d.nErrors
}

// HasErrors reports whether any error-severity diagnostic has been
// recorded; used to compute the process exit code.
func (d *Diagnostics) HasErrors() bool {
	return d.nErrors > 0
}

// WriterSink is the simplest Sink: it writes "severity: locus: message"
// lines to an io.Writer, the default (non-colored) output shape.
type WriterSink struct {
	W        io.Writer
	Criteria Category
}

// Emit implements Sink.
func (w WriterSink) Emit(e Entry) {
	severity := "warning"
	if e.IsError(w.Criteria) {
		severity = "error"
	}
	fmt.Fprintf(w.W, "%s: %s: %s\n", severity, e.Locus, e.Message)
}
