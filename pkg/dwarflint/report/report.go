// Package report implements dwarflint's output sink: the external
// collaborator diag.Sink is built around. It never participates in
// validation, only formatting and coloring already-decided diagnostics.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
)

var (
	colorError   = color.New(color.FgRed, color.Bold)
	colorWarning = color.New(color.FgYellow)
	colorLocus   = color.New(color.FgHiBlack)
	colorSuccess = color.New(color.FgGreen, color.Bold)
)

// Reporter is a diag.Sink that writes colored "severity: locus: message"
// lines to W, following the same shape WriterSink uses for plain
// output.
type Reporter struct {
	W        io.Writer
	Criteria diag.Category
	Color    bool
	Quiet    bool

	// DumpOffsets, when set, appends a YAML-encoded offsetRecord after
	// every line, giving a caller something more structured than the
	// free-text locus to key a fixture or a follow-up tool off of.
	DumpOffsets bool
}

// New builds a Reporter. color enables fatih/color escape sequences;
// callers typically gate this on isatty(w) && !quiet.
func New(w io.Writer, criteria diag.Category, useColor, quiet bool) *Reporter {
	return &Reporter{W: w, Criteria: criteria, Color: useColor, Quiet: quiet}
}

// offsetRecord is the --dump-offsets trailer: a structured echo of the
// locus and severity just printed, so a captured run's output can be
// decoded back into records instead of re-parsing the free-text line.
type offsetRecord struct {
	Section string `yaml:"section"`
	A       int64  `yaml:"a"`
	B       int64  `yaml:"b,omitempty"`
	Error   bool   `yaml:"error"`
}

// Emit implements diag.Sink.
func (r *Reporter) Emit(e diag.Entry) {
	if r.Quiet && !e.IsError(r.Criteria) {
		return
	}

	isErr := e.IsError(r.Criteria)

	if !r.Color {
		severity := "warning"
		if isErr {
			severity = "error"
		}
		fmt.Fprintf(r.W, "%s: %s: %s\n", severity, e.Locus, e.Message)
	} else {
		sev := colorWarning
		label := "warning"
		if isErr {
			sev = colorError
			label = "error"
		}
		fmt.Fprintf(r.W, "%s: %s: %s\n", sev.Sprint(label), colorLocus.Sprint(e.Locus.String()), e.Message)
	}

	if r.DumpOffsets {
		rec := offsetRecord{Section: e.Locus.Section.String(), A: e.Locus.A, B: e.Locus.B, Error: isErr}
		if out, err := yaml.Marshal(rec); err == nil {
			fmt.Fprint(r.W, string(out))
		}
	}
}

// Summary prints a one-line run summary: "N error(s), M warning(s)" or a
// colored "no structural problems found" when the run is clean.
func (r *Reporter) Summary(d *diag.Diagnostics) {
	errCount := d.ErrorCount()
	total := len(d.All())
	warnCount := total - errCount

	if errCount == 0 && warnCount == 0 {
		if r.Color {
			colorSuccess.Fprintln(r.W, "no structural problems found")
		} else {
			fmt.Fprintln(r.W, "no structural problems found")
		}
		return
	}
	fmt.Fprintf(r.W, "%d error(s), %d warning(s)\n", errCount, warnCount)
}
