// Package cmd implements the crosplan command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crosplan/config"
)

var Version = "dev"

var (
	flagDebug     bool
	flagForce     bool
	flagYesAll    bool
	flagProfile   string
	flagConfigDir string
	flagDisableUI bool
)

var rootCmd = &cobra.Command{
	Use:   "crosplan",
	Short: "Binary package installation planner",
	Long: `crosplan computes which binary packages must be installed on a
target device and in what order, by diffing a binary package repository
against the device's installed package database and walking runtime
dependencies.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(flagConfigDir, flagProfile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if flagDebug {
			cfg.Debug = true
		}
		if flagForce {
			cfg.Force = true
		}
		if flagYesAll {
			cfg.YesAll = true
		}
		if flagDisableUI {
			cfg.DisableUI = true
		}
		config.SetConfig(cfg)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagDebug, "debug", "d", false, "Debug verbosity")
	pf.BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompts")
	pf.BoolVarP(&flagYesAll, "yes", "y", false, "Answer yes to all prompts")
	pf.StringVarP(&flagProfile, "profile", "p", "default", "Profile to use")
	pf.StringVarP(&flagConfigDir, "config-dir", "C", "", "Config base directory")
	pf.BoolVarP(&flagDisableUI, "no-ui", "S", false, "Disable full-screen UI")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
