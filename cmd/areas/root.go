// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands of areas.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/invowk/areas/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the global flags shared by every command.
type rootFlagValues struct {
	configPath string
	root       string
	verbose    bool
	debug      bool
	dev        bool
}

// NewRootCommand creates the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "areas",
		Short: "Aggregate feature areas into one route table and store",
		Long: TitleStyle.Render("areas") + SubtitleStyle.Render(" - feature areas for your app") + `

areas scans the areas folder of a project, where every subfolder is a
self-contained feature with its own pages and stores, and merges them
into the host's route table, store modules, aliases and watch list.

` + SubtitleStyle.Render("Examples:") + `
  areas build                    Write .areas/manifest.json and .areas/areas.js
  areas build --manifest app.json
                                 Merge the areas into an existing manifest
  areas inspect routes           Show the derived route table
  areas watch                    Rebuild on every change
  areas config show              Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is <root>/areas.config.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.root, "root", "", "project root (default is the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "write build snapshots to <base>/.debug")
	rootCmd.PersistentFlags().BoolVar(&flags.dev, "dev", false, "development mode: include the watch list")

	rootCmd.AddCommand(newBuildCommand(app, flags))
	rootCmd.AddCommand(newInspectCommand(app, flags))
	rootCmd.AddCommand(newWatchCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// errorHints returns the suggestions of an actionable error, and in verbose
// mode its error chain and the linked issue rendered with style. The
// headline itself is printed by fang.
func errorHints(err error, verboseMode bool, style string) string {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return ""
	}
	out := strings.TrimSpace(strings.TrimPrefix(ae.Format(verboseMode), ae.Error()))
	if !verboseMode || ae.Issue == 0 {
		return out
	}
	if is := issue.Get(ae.Issue); is != nil {
		if md, renderErr := is.Render(style); renderErr == nil {
			out += "\n" + md
		}
	}
	return out
}

// withHints wraps a RunE handler so that failures print their hints to
// stderr before fang reports the error.
func withHints(app *App, flags *rootFlagValues, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err == nil {
			return nil
		}
		if hints := errorHints(err, flags.verbose, "auto"); hints != "" {
			fmt.Fprintln(app.stderr, hints)
		}
		return err
	}
}
