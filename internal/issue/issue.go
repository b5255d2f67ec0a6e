// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a documented issue.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	ConfigInvalidId
	ProjectRootNotFoundId
	AreasFolderNotFoundId
	ManifestInvalidId
	PageCompileFailedId
	OutputWriteFailedId
	WatchFailedId
)

type (
	// MarkdownMsg is Markdown rendered with glamour.
	MarkdownMsg string

	// HttpLink is a documentation link.
	HttpLink string

	// Issue is a documented failure with remediation steps.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the message followed by a "See also" section listing the
// links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the issue for the terminal with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the areas configuration!

The configuration file could not be read or evaluated.

## Things you can try:
- Check the CUE syntax of ` + "`areas.config.cue`" + `
- Remove the file to fall back to the defaults
- Print the effective configuration:
~~~
$ areas config show
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid configuration value!

One of the configuration values is not allowed.

## Valid values:
- ` + "`policy`" + `: "pages" or "config"
- ` + "`trailing_slash`" + `: "", "always" or "never"
- ` + "`externals[].src`" + `: a folder (./x, ~/x, @/x) or an installed package name`,
	}

	projectRootNotFoundIssue = &Issue{
		id: ProjectRootNotFoundId,
		mdMsg: `
# Project root not found!

The folder given with ` + "`--root`" + ` does not exist or is not a folder.

## Things you can try:
- Run the command from the project folder
- Pass an absolute path:
~~~
$ areas build --root /path/to/project
~~~`,
	}

	areasFolderNotFoundIssue = &Issue{
		id: AreasFolderNotFoundId,
		mdMsg: `
# No areas folder!

The build found no areas. The areas folder is missing, so no routes or stores were generated.

## Things you can try:
- Create ` + "`areas/<name>/pages/index.vue`" + `
- Point ` + "`base`" + ` in ` + "`areas.config.cue`" + ` at your areas folder`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# The host manifest is not valid JSON!

The manifest passed with ` + "`--manifest`" + ` could not be parsed.

## Things you can try:
- Validate the file with a JSON linter
- Delete it so that a new manifest is generated`,
	}

	pageCompileFailedIssue = &Issue{
		id: PageCompileFailedId,
		mdMsg: `
# Failed to compile the pages of an area!

A pages folder could not be read.

## Things you can try:
- Check the permissions of the pages folder
- Remove dangling symlinks, or disable ` + "`follow_symlinks`",
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Failed to write the build output!

The manifest, the store plugin or the debug snapshots could not be written.

## Things you can try:
- Check that the output folder is writable
- Change ` + "`out_dir`" + ` in ` + "`areas.config.cue`",
	}

	watchFailedIssue = &Issue{
		id: WatchFailedId,
		mdMsg: `
# Failed to watch the areas folder!

The file watcher could not be started.

## Things you can try:
- Raise the inotify watch limit:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Run ` + "`areas build`" + ` manually after each change`,
		extLinks: []HttpLink{"https://github.com/fsnotify/fsnotify#faq"},
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		configInvalidIssue.Id():       configInvalidIssue,
		projectRootNotFoundIssue.Id(): projectRootNotFoundIssue,
		areasFolderNotFoundIssue.Id(): areasFolderNotFoundIssue,
		manifestInvalidIssue.Id():     manifestInvalidIssue,
		pageCompileFailedIssue.Id():   pageCompileFailedIssue,
		outputWriteFailedIssue.Id():   outputWriteFailedIssue,
		watchFailedIssue.Id():         watchFailedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
}

// Get returns the issue with id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
