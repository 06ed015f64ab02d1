package commands

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/conceptgen/internal/cli/config"
	"github.com/conduit-lang/conceptgen/internal/logging"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// GlobalOptions holds the persistent flags shared by every command
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

// loadConfig loads the configuration named by --config, or the project default.
// Without --config, a command run below the project root moves to the root first
// so that relative paths in the configuration resolve the same way.
func (o *GlobalOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath == "" && !config.InProject() {
		if root, err := config.GetProjectRoot(); err == nil {
			if err := os.Chdir(root); err != nil {
				return nil, fmt.Errorf("failed to enter project root %s: %w", root, err)
			}
		}
	}
	return config.Load(o.ConfigPath)
}

// newLogger builds the run logger. --verbose forces debug level.
func (o *GlobalOptions) newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Development)
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "conceptgen",
		Short: "Concept model generator for versioned API specifications",
		Long: color.CyanString(`conceptgen - Concept Model Generator

conceptgen reads versioned specifications of an API object model and builds a
normalized concept model: a namespace hierarchy, an entity inheritance graph,
resolved property types and a visitor tree, ready for code generation.

Features:
  • Trait composition with transparent traits
  • Shared properties pulled up to common ancestors
  • Deterministic union discrimination rules
  • Incremental generation and watch mode`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.NoColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./conceptgen.yml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewInitCommand(opts))
	rootCmd.AddCommand(NewGenerateCommand(opts))
	rootCmd.AddCommand(NewInspectCommand(opts))
	rootCmd.AddCommand(NewWatchCommand(opts))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the conceptgen version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "conceptgen version: ")
			fmt.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return execute(NewRootCommand())
}

// execute runs rootCmd and prints errors not already reported by the command
func execute(rootCmd *cobra.Command) error {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errGenerateFailed) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
