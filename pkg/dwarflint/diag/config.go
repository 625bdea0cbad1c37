package diag

// Config is the explicit, no-global-state configuration threaded into
// every check.
type Config struct {
	// Accept/Reject implement the category filter:
	// a diagnostic prints iff mask&Accept != 0 && mask&Reject == 0.
	Accept Category
	Reject Category

	// ErrorCriteria controls which diagnostics count as errors for the
	// purpose of the process exit code. The default is Impact4|Error; an
	// entry carrying the Error category counts whatever the criteria.
	ErrorCriteria Category

	IgnoreMissingDebug bool
	Quiet              bool
	Verbose            bool
	Strict             bool
	GNU                bool
	Tolerant           bool
	NoHighLevel        bool
	DumpOffsets        bool
	Ref                bool
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	cfg := Config{
		Accept:        AllCategories,
		Reject:        0,
		ErrorCriteria: Impact4 | Error,
	}
	return cfg
}

// Apply folds the --strict/--gnu/--tolerant toggles into the category
// filter, mirroring the source's documented interaction between named
// options and the accept/reject masks.
func (c *Config) Apply() {
	if c.GNU {
		c.Reject |= GNUBloat
	}
	if c.Tolerant {
		c.ErrorCriteria = Error
	}
	if !c.Strict {
		c.Reject |= AreaStrings
	}
}
