// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/invowk/areas/internal/aggregate"
	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/routes"

	"github.com/spf13/cobra"
)

// exitCodeDiagnostics is returned by --strict builds that reported problems.
const exitCodeDiagnostics = 2

func newBuildCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		manifestPath string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Aggregate the areas and write the generated files",
		Long: `Aggregate the areas and write the generated files.

The output folder (default .areas) receives:
  manifest.json           routes, stores, aliases, folders and watch list
  areas.js                the plugin registering every store module
  components/Missing.vue  the placeholder for routes without a component`,
		Args: cobra.NoArgs,
		RunE: withHints(app, flags, func(cmd *cobra.Command, _ []string) error {
			p, err := app.loadProject(cmd, flags)
			if err != nil {
				return err
			}
			agg, err := app.newAggregator(p, metricsFor(p))
			if err != nil {
				return err
			}
			res, written, err := app.buildAndEmit(cmd.Context(), agg, manifestPath)
			if err != nil {
				return err
			}
			renderSummary(app.stdout, res, written)
			if strict && len(res.Diagnostics) > 0 {
				return &ExitError{
					Code: exitCodeDiagnostics,
					Err:  fmt.Errorf("build reported %d diagnostic(s)", len(res.Diagnostics)),
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "host manifest (JSON) to merge the areas into")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 2 when the build reports diagnostics")
	return cmd
}

// metricsFor returns a metrics set when p asks for a textfile.
func metricsFor(p *project) *aggregate.Metrics {
	if p.Options.MetricsFile == "" {
		return nil
	}
	return aggregate.NewMetrics()
}

// renderSummary prints the outcome of a build.
func renderSummary(w io.Writer, res *aggregate.Result, written []string) {
	leaves, groups := area.Count(res.Areas)
	style := SuccessStyle
	if len(res.Diagnostics) > 0 {
		style = WarningStyle
	}
	fmt.Fprintf(w, "%s %d routes, %d stores from %d areas in %s\n",
		style.Render("built"),
		routes.Count(res.Routes),
		len(res.Stores),
		leaves+groups,
		res.Duration.Round(time.Millisecond),
	)
	if len(res.Diagnostics) > 0 {
		fmt.Fprintf(w, "%s\n", WarningStyle.Render(fmt.Sprintf("%d diagnostic(s), see the log above", len(res.Diagnostics))))
	}
	for _, p := range written {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("wrote"), PathStyle.Render(p))
	}
}
