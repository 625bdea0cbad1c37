// Package dwarflint wires the section adapter, the check scheduler and
// registrar, and the output reporter into a single Run entry point.
package dwarflint

import (
	"fmt"
	"io"
	"os"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/check"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/info"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/logging"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/report"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/section"

	// Each of these registers its top-level check with the registrar via
	// init(); nothing in this file calls into them directly.
	_ "github.com/go-dwarf/dwarflint/pkg/dwarflint/aranges"
	_ "github.com/go-dwarf/dwarflint/pkg/dwarflint/line"
	_ "github.com/go-dwarf/dwarflint/pkg/dwarflint/pubtables"
)

// Session is one opened object plus the scheduler that has run (or will
// run) every registered check against it. cmd/check's --interactive
// path builds one with Open and RunChecks, then reads the DIE tree back
// through CUIndex without re-parsing anything (check.Request's cache
// makes that free).
type Session struct {
	Scheduler *check.Scheduler
	Diag      *diag.Diagnostics
}

// Open opens path as an ELF object and builds a Session ready to run
// checks against it, forwarding accepted diagnostics to sink as they
// are emitted. sink may be nil to only collect them for later retrieval
// (the interactive tree view, for instance, reads Session.Diag.All()
// instead of streaming to a sink).
func Open(path string, cfg diag.Config, logWriter io.Writer, sink diag.Sink) (*Session, error) {
	log := logging.New(logWriter, cfg.Verbose, 0)
	d := diag.New(cfg, sink)

	f, err := section.Open(path, d)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return &Session{Scheduler: check.NewScheduler(d, cfg, f, log.Logger), Diag: d}, nil
}

// RunChecks runs every registered top-level check if the object carries
// debug information, collecting diagnostics
// into the Session's Diagnostics.
func (s *Session) RunChecks() {
	if !check.NoDebug(s.Scheduler.File, s.Scheduler.Config.IgnoreMissingDebug, s.Diag) {
		return
	}
	for _, top := range check.All() {
		if !top.Descriptor.Schedule {
			continue
		}
		if err := top.Run(s.Scheduler); err != nil {
			s.Scheduler.Logger.Debug("top-level check failed", "check", top.Descriptor.Name, "error", err)
		}
	}
}

// CUIndex returns the already-cached .debug_info pass (or runs it now,
// if RunChecks was never called — e.g. a file with debug info present
// but the caller only wants the DIE tree).
func (s *Session) CUIndex() (*info.CUIndex, error) {
	return check.Request(s.Scheduler, "cus", info.BuildCUIndex)
}

// Run opens path as an ELF object, runs every registered top-level
// check against it, writes diagnostics to out, and returns the process
// exit code: 0 on a clean run, non-zero if any error-severity
// diagnostic was recorded.
func Run(path string, cfg diag.Config, out io.Writer, useColor bool) (int, error) {
	rep := report.New(out, cfg.ErrorCriteria, useColor, cfg.Quiet)
	rep.DumpOffsets = cfg.DumpOffsets
	sess, err := Open(path, cfg, os.Stderr, rep)
	if err != nil {
		return 1, err
	}
	sess.RunChecks()

	if !cfg.Quiet {
		rep.Summary(sess.Diag)
	}
	return exitCode(sess.Diag), nil
}

func exitCode(d *diag.Diagnostics) int {
	if d.HasErrors() {
		return 1
	}
	return 0
}
