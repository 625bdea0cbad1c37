// Package check implements dwarflint's "check" subcommand: the only
// subcommand the CLI exposes, since the whole tool is one validation
// pass over one ELF object.
package check

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/config"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/interactive"
)

var interactiveFlag bool

// Cmd is the "check" subcommand, wired onto cmd.RootCmd.
var Cmd = &cobra.Command{
	Use:   "check <elf-file>",
	Short: "Validate the DWARF debug information in an ELF object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromViper()
		useColor := !cfg.Quiet && isatty.IsTerminal(os.Stdout.Fd())

		if interactiveFlag {
			return runInteractive(args[0], cfg)
		}

		exitCode, err := dwarflint.Run(args[0], cfg, os.Stdout, useColor)
		if err != nil {
			return err
		}
		if exitCode != 0 {
			os.Exit(exitCode)
		}
		return nil
	},
}

func init() {
	config.BindFlags(Cmd.Flags())
	Cmd.Flags().BoolVar(&interactiveFlag, "interactive", false, "browse the checked DIE tree instead of printing a diagnostic stream")
}

// runInteractive opens path, runs every check once, and hands the
// resulting DIE tree to whichever frontend the terminal supports: the
// full-screen tview view on a real TTY, the readline REPL otherwise.
func runInteractive(path string, cfg diag.Config) error {
	sess, err := dwarflint.Open(path, cfg, os.Stderr, nil)
	if err != nil {
		return err
	}
	sess.RunChecks()

	idx, err := sess.CUIndex()
	if err != nil {
		return fmt.Errorf("building DIE tree: %w", err)
	}

	root := interactive.BuildTree(idx, sess.Diag)

	if isatty.IsTerminal(os.Stdout.Fd()) {
		if err := interactive.RunTreeView(root); err == nil {
			return nil
		}
	}
	return interactive.RunREPL(root, os.Stdout)
}
