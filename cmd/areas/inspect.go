// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/invowk/areas/internal/aggregate"
	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/routes"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// inspectViews are the result views `areas inspect` can print.
var inspectViews = []string{"areas", "routes", "stores", "aliases", "watch"}

func newInspectCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		format string
		style  string
	)

	cmd := &cobra.Command{
		Use:       "inspect [" + strings.Join(inspectViews, "|") + "]",
		Short:     "Build without writing and print part of the result",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: inspectViews,
		RunE: withHints(app, flags, func(cmd *cobra.Command, args []string) error {
			view := "routes"
			if len(args) == 1 {
				view = args[0]
			}
			if format != formatMarkdown && format != formatJSON {
				return fmt.Errorf("unknown format %q (expected %s or %s)", format, formatMarkdown, formatJSON)
			}

			p, err := app.loadProject(cmd, flags)
			if err != nil {
				return err
			}
			agg, err := app.newAggregator(p, nil)
			if err != nil {
				return err
			}
			res, err := agg.Build(cmd.Context())
			if err != nil {
				return err
			}

			if format == formatJSON {
				data, err := json.MarshalIndent(viewData(view, res), "", "  ")
				if err != nil {
					return fmt.Errorf("encode %s: %w", view, err)
				}
				fmt.Fprintln(app.stdout, string(data))
				return nil
			}

			out, err := glamour.Render(viewMarkdown(view, res), style)
			if err != nil {
				return fmt.Errorf("render %s: %w", view, err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		}),
	}

	cmd.Flags().StringVar(&format, "format", formatMarkdown, "output format: markdown or json")
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style for markdown output (auto, dark, light, notty)")
	return cmd
}

func viewData(view string, res *aggregate.Result) any {
	switch view {
	case "areas":
		return res.Areas
	case "stores":
		return res.Stores
	case "aliases":
		return res.Aliases
	case "watch":
		return res.Watch
	default:
		return res.Routes
	}
}

// viewMarkdown renders a view of res as Markdown.
func viewMarkdown(view string, res *aggregate.Result) string {
	var sb strings.Builder

	switch view {
	case "areas":
		sb.WriteString("# Areas\n\n")
		writeAreas(&sb, res.Areas, 0)

	case "stores":
		sb.WriteString("# Stores\n\n")
		for _, s := range res.Stores {
			ns := s.Namespace
			if ns == "" {
				ns = "(root)"
			}
			fmt.Fprintf(&sb, "- `%s` from `%s` as `%s`\n", ns, s.Path, s.Ref)
		}

	case "aliases":
		sb.WriteString("# Aliases\n\n")
		for _, k := range slices.Sorted(maps.Keys(res.Aliases)) {
			fmt.Fprintf(&sb, "- `%s` resolves to `%s`\n", k, res.Aliases[k])
		}

	case "watch":
		sb.WriteString("# Watch list\n\n")
		if len(res.Watch) == 0 {
			sb.WriteString("Empty outside development mode, pass `--dev`.\n")
		}
		for _, p := range res.Watch {
			fmt.Fprintf(&sb, "- `%s`\n", p)
		}

	default:
		sb.WriteString("# Routes\n\n")
		writeRoutes(&sb, res.Routes, 0)
	}

	if len(res.Diagnostics) > 0 {
		sb.WriteString("\n## Diagnostics\n\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&sb, "- **%s** %s\n", d.Code, d.Message)
		}
	}
	return sb.String()
}

func writeRoutes(sb *strings.Builder, rs []routes.Route, depth int) {
	for _, r := range rs {
		fmt.Fprintf(sb, "%s- `%s`", strings.Repeat("  ", depth), r.Path)
		if r.Name != "" {
			fmt.Fprintf(sb, " named `%s`", r.Name)
		}
		fmt.Fprintf(sb, " renders `%s`\n", r.Component)
		writeRoutes(sb, r.Children, depth+1)
	}
}

func writeAreas(sb *strings.Builder, areas []*area.Area, depth int) {
	for _, a := range areas {
		fmt.Fprintf(sb, "%s- **%s** (%s) route `%s`, namespace `%s`", strings.Repeat("  ", depth), a.Name, a.Kind, a.Route, a.Namespace)
		if a.ConfigFile != "" {
			fmt.Fprintf(sb, ", override `%s`", a.ConfigFile)
		}
		if a.External {
			sb.WriteString(", external")
		}
		sb.WriteString("\n")
		writeAreas(sb, a.Areas, depth+1)
	}
}
