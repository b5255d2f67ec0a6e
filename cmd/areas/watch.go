// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"slices"

	"github.com/invowk/areas/internal/issue"
	"github.com/invowk/areas/internal/watch"

	"github.com/spf13/cobra"
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever an area changes",
		Long: `Build, then rebuild whenever an area changes.

Development mode is always on: the watch list covers the areas folder and
every override file, including those of external areas. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: withHints(app, flags, func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, app, flags, manifestPath)
		}),
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "host manifest (JSON) to merge the areas into")
	return cmd
}

func runWatch(cmd *cobra.Command, app *App, flags *rootFlagValues, manifestPath string) error {
	p, err := app.loadProject(cmd, flags)
	if err != nil {
		return err
	}
	p.Options.Dev = true

	agg, err := app.newAggregator(p, metricsFor(p))
	if err != nil {
		return err
	}

	res, written, err := app.buildAndEmit(cmd.Context(), agg, manifestPath)
	if err != nil {
		return err
	}
	renderSummary(app.stdout, res, written)

	paths := slices.Clone(res.Watch)
	if p.Config.SourceFile != "" {
		paths = append(paths, p.Config.SourceFile)
	}

	var w *watch.Watcher
	w, err = watch.New(watch.Config{
		Paths:    paths,
		Ignore:   p.Config.Watch.Ignore,
		Debounce: p.Config.Watch.Debounce,
		Logger:   app.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			if p.Config.SourceFile != "" && slices.Contains(changed, p.Config.SourceFile) {
				app.logger.Warn("configuration changed, restart watch to apply it", "path", p.Config.SourceFile)
			}
			app.logger.Info("rebuilding", "changed", len(changed))

			res, written, err := app.buildAndEmit(ctx, agg, manifestPath)
			if err != nil {
				return err
			}
			renderSummary(app.stdout, res, written)
			return w.Track(res.Watch...)
		},
	})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("watch areas").
			WithResource(p.Options.BasePath()).
			WithSuggestion("Raise the inotify watch limit (fs.inotify.max_user_watches)").
			WithSuggestion("Exclude large folders with watch.ignore in areas.config.cue").
			WithIssue(issue.WatchFailedId).
			Wrap(err).
			BuildError()
	}

	app.logger.Info("watching for changes", "base", p.Options.BasePath())
	if err := w.Run(cmd.Context()); err != nil {
		return issue.NewErrorContext().
			WithOperation("watch areas").
			WithResource(p.Options.BasePath()).
			WithIssue(issue.WatchFailedId).
			Wrap(err).
			BuildError()
	}
	return nil
}
