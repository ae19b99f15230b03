package main

import (
	"context"
	"fmt"
	"os"

	"pystrict/internal/config"
	"pystrict/internal/console"
	"pystrict/internal/runner"

	"github.com/spf13/cobra"
)

var (
	configPath    string
	recursive     bool
	refactor      int
	autoformat    bool
	customModules []string
	printTree     bool

	rootCmd = &cobra.Command{
		Use:   "pystrict [flags] targets...",
		Short: "Style rule checker and refactoring tool for Python sources",
		Args:  cobra.MinimumNArgs(1),
		// Runtime failures are not usage errors.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyFlags(cmd, cfg)

			cons := console.New()
			code, err := runner.New(cfg, cons).Run(context.Background(), args)
			if err != nil {
				return err
			}
			// Findings are already rendered; the exit code is the verdict.
			if code != runner.ExitOK {
				os.Exit(code)
			}
			return nil
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(runner.ExitFailed)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the config file.")
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Search for files recursively.")
	rootCmd.Flags().IntVarP(&refactor, "refactor", "f", 0, "Modify target files instead of just checking them. The number caps the per-file refactoring passes.")
	rootCmd.Flags().BoolVarP(&autoformat, "autoformat", "a", false, "Reformat each clean file with the external formatter.")
	rootCmd.Flags().StringArrayVarP(&customModules, "custom-modules", "m", nil, "Modules with this name prefix are considered custom (non 3rd party) modules.")
	rootCmd.Flags().BoolVarP(&printTree, "print-tree", "t", false, "Print the syntax tree of each file.")
}

// applyFlags overrides file-loaded options with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("recursive") {
		cfg.Recursive = recursive
	}
	if cmd.Flags().Changed("refactor") {
		cfg.RefactorAttempts = refactor
	}
	if cmd.Flags().Changed("autoformat") {
		cfg.Autoformat = autoformat
	}
	if cmd.Flags().Changed("custom-modules") {
		cfg.CustomModules = customModules
	}
	if cmd.Flags().Changed("print-tree") {
		cfg.PrintTree = printTree
	}
}
