package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-dwarf/dwarflint/cmd/check"
)

var cfgFile string

// RootCmd is the base command when dwarflint is called without a
// subcommand.
var RootCmd = &cobra.Command{
	Use:   "dwarflint",
	Short: "A pedantic structural validator for DWARF debug information",
	Long: `dwarflint inspects the DWARF 2/3 debug sections of an ELF object and
reports every structural inconsistency it finds: malformed headers,
dangling references, relocation mismatches, and coverage gaps between
sections that are supposed to describe the same thing.`,
}

// Execute adds all child commands to RootCmd and runs it. Called once
// by main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dwarflint.yaml)")
	RootCmd.AddCommand(check.Cmd)
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".dwarflint")
	}

	viper.SetEnvPrefix("DWARFLINT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
