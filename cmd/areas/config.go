// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invowk/areas/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `areas config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the areas configuration",
		Long: `Inspect the areas configuration.

Configuration is read from areas.config.cue in the project root, then
overridden by a .env file in the project root, AREAS_* environment
variables and command-line flags, in that order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: withHints(app, flags, func(cmd *cobra.Command, _ []string) error {
			p, err := app.loadProject(cmd, flags)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := json.MarshalIndent(p.Options.WithDefaults(), "", "  ")
				if err != nil {
					return fmt.Errorf("encode options: %w", err)
				}
				fmt.Fprintln(app.stdout, string(data))
				return nil
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(p.Config))
			return nil
		}),
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the resolved build options as JSON")
	cfgCmd.AddCommand(show)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: withHints(app, flags, func(cmd *cobra.Command, _ []string) error {
			p, err := app.loadProject(cmd, flags)
			if err != nil {
				return err
			}
			if p.Config.SourceFile == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("no "+config.FileName()+" found, using defaults"))
				return nil
			}
			fmt.Fprintln(app.stdout, p.Config.SourceFile)
			return nil
		}),
	})

	return cfgCmd
}
