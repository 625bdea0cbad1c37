// Package config binds dwarflint's cobra/viper-sourced CLI flags onto
// the explicit diag.Config every check is threaded through.
package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
)

// Keys are the viper keys the check subcommand's flags bind to.
const (
	KeyIgnoreMissingDebug = "ignore-missing-debug"
	KeyQuiet              = "quiet"
	KeyVerbose            = "verbose"
	KeyStrict             = "strict"
	KeyGNU                = "gnu"
	KeyTolerant           = "tolerant"
	KeyNoHighLevel        = "nohl"
	KeyDumpOffsets        = "dump-offsets"
	KeyRef                = "ref"
	KeyAccept             = "accept"
	KeyReject             = "reject"
	KeyErrorCriteria      = "error-criteria"
)

// BindFlags registers the check subcommand's flags on fs and binds each
// to its viper key, following cmd/root.go's pflag/viper wiring pattern.
func BindFlags(fs *pflag.FlagSet) {
	fs.Bool(KeyIgnoreMissingDebug, false, "do not fail when the object carries no debug information")
	fs.Bool(KeyQuiet, false, "only print errors, suppress warnings")
	fs.Bool(KeyVerbose, false, "trace check scheduling to stderr")
	fs.Bool(KeyStrict, false, "also check things the GNU toolchain has historically produced sloppily")
	fs.Bool(KeyGNU, false, "accept GCC's documented bloat as not worth reporting")
	fs.Bool(KeyTolerant, false, "only diagnostics tagged Error count as errors for the exit code")
	fs.Bool(KeyNoHighLevel, false, "accepted but has no effect: every registered check still runs")
	fs.Bool(KeyDumpOffsets, false, "include raw section offsets in diagnostic messages")
	fs.Bool(KeyRef, false, "accepted but has no effect: no diagnostic is printed with a referring locus")
	fs.String(KeyAccept, "", "comma-separated category mask to accept (default: all)")
	fs.String(KeyReject, "", "comma-separated category mask to reject")
	fs.String(KeyErrorCriteria, "", "comma-separated category mask promoted to error severity")

	_ = viper.BindPFlags(fs)
}

// FromViper builds a diag.Config from the currently bound viper values,
// applying the --strict/--gnu/--tolerant interactions via Config.Apply.
func FromViper() diag.Config {
	cfg := diag.DefaultConfig()

	cfg.IgnoreMissingDebug = viper.GetBool(KeyIgnoreMissingDebug)
	cfg.Quiet = viper.GetBool(KeyQuiet)
	cfg.Verbose = viper.GetBool(KeyVerbose)
	cfg.Strict = viper.GetBool(KeyStrict)
	cfg.GNU = viper.GetBool(KeyGNU)
	cfg.Tolerant = viper.GetBool(KeyTolerant)
	cfg.NoHighLevel = viper.GetBool(KeyNoHighLevel)
	cfg.DumpOffsets = viper.GetBool(KeyDumpOffsets)
	cfg.Ref = viper.GetBool(KeyRef)

	if s := viper.GetString(KeyAccept); s != "" {
		cfg.Accept = diag.ParseCategories(s)
	}
	if s := viper.GetString(KeyReject); s != "" {
		cfg.Reject = diag.ParseCategories(s)
	}
	if s := viper.GetString(KeyErrorCriteria); s != "" {
		cfg.ErrorCriteria = diag.ParseCategories(s)
	}

	cfg.Apply()
	return cfg
}
