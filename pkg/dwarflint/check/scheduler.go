// Package check implements the lazy, memoizing check scheduler and the
// process-wide registrar of top-level checks.
package check

import (
	"log/slog"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dlerr"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/section"
)

// outcome classifies a memoized result.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeFailed
)

type cacheEntry struct {
	outcome outcome
	value   any
	err     error
}

// Scheduler runs checks lazily, caching each by the name under which it
// was requested, and traps self-referential request cycles. Identity
// is the request name, not the Go result type: two unrelated checks
// may both return, say, a bool, and must not collide. It is not safe
// for concurrent use: checks run one at a time, by direct call.
type Scheduler struct {
	Diag   *diag.Diagnostics
	Logger *slog.Logger
	Config diag.Config

	// File is the opened object every check reads sections and symbols
	// from. It is the shared input the registrar's top-level checks close
	// over instead of each carrying its own copy of the section views.
	File *section.File

	cache map[string]*cacheEntry
	stack []string
}

// NewScheduler builds a Scheduler bound to d and reading from f. A nil
// logger falls back to slog.Default().
func NewScheduler(d *diag.Diagnostics, cfg diag.Config, f *section.File, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{Diag: d, Config: cfg, File: f, Logger: logger, cache: make(map[string]*cacheEntry)}
}

// Func builds one T, a check result, given access to the scheduler for
// requesting its own dependencies.
type Func[T any] func(s *Scheduler) (T, error)

// Request runs fn at most once per Scheduler under name, caching either
// the built value or the failure. A transitive self-request (fn,
// directly or indirectly, requesting the same name again before
// returning) is trapped as dlerr.ErrCycle rather than recursing
// forever. Nested request sites see the cached failure propagated as an
// error, so a dependent check fails the same way its dependency did
// rather than re-running and re-reporting the underlying cause.
func Request[T any](s *Scheduler, name string, fn Func[T]) (T, error) {
	var zero T

	if e, ok := s.cache[name]; ok {
		if e.outcome == outcomeFailed {
			return zero, e.err
		}
		return e.value.(T), nil
	}

	for _, k := range s.stack {
		if k == name {
			err := dlerr.Wrap(dlerr.ErrCycle, "%s", name)
			s.cache[name] = &cacheEntry{outcome: outcomeFailed, err: err}
			return zero, err
		}
	}

	s.Logger.Debug("check starting", "check", name)
	s.stack = append(s.stack, name)
	v, err := fn(s)
	s.stack = s.stack[:len(s.stack)-1]

	if err != nil {
		s.Logger.Debug("check failed", "check", name, "error", err)
		s.cache[name] = &cacheEntry{outcome: outcomeFailed, err: err}
		return zero, err
	}

	s.Logger.Debug("check finished", "check", name)
	s.cache[name] = &cacheEntry{outcome: outcomeOK, value: v}
	return v, nil
}

// RequestOptional is Request for a top-level request site that should
// see "absent" rather than an error on failure.
func RequestOptional[T any](s *Scheduler, name string, fn Func[T]) (T, bool) {
	v, err := Request(s, name, fn)
	return v, err == nil
}

// RequestIf runs fn only if pred is true, otherwise returning an absent
// result that is not a failure.
func RequestIf[T any](s *Scheduler, name string, pred bool, fn Func[T]) (T, bool) {
	var zero T
	if !pred {
		return zero, false
	}
	return RequestOptional(s, name, fn)
}
