package check

// Descriptor documents one top-level check for the registrar: its name,
// tag groups, whether it runs unconditionally, and a human-readable
// description.
type Descriptor struct {
	Name        string
	Groups      []string
	Schedule    bool
	Description string
}

// TopLevel is a check the top-level driver runs unconditionally at
// startup, via the registrar.
type TopLevel struct {
	Descriptor Descriptor
	Run        func(s *Scheduler) error
}

// registry is the process-wide list of top-level checks, populated at
// program start-up by each check package's init().
var registry []TopLevel

// Register adds t to the process-wide registrar.
func Register(t TopLevel) {
	registry = append(registry, t)
}

// All returns every registered top-level check, in registration order.
func All() []TopLevel {
	return append([]TopLevel(nil), registry...)
}
