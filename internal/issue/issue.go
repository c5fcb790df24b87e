// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PluginsRootNotFoundId Id = iota + 1
	DescriptorParseErrorId
	BundleFailedId
	FrontendToolNotFoundId
	WebviewOutputMissingId
	ReloadUnreachableId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

// Issue is a documented, recurring failure mode with a rendered help page.
type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // links to relevant upstream documentation
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	pluginsRootNotFoundIssue = &Issue{
		id: PluginsRootNotFoundId,
		mdMsg: `
# Plugins root not found

cfxforge could not find the configured plugins directory.

## Things you can try
- Check the ` + "`paths.plugins`" + ` key in your config:
~~~
$ cfxforge config show
~~~
- Override the path for a single run:
~~~
$ CFXFORGE_PATHS_PLUGINS=./src/plugins cfxforge build
~~~`,
	}

	descriptorParseErrorIssue = &Issue{
		id: DescriptorParseErrorId,
		mdMsg: `
# Plugin descriptor could not be parsed

A ` + "`plugin.json`" + ` was found but could not be decoded. The plugin is
skipped; the rest of the build continues.

## Common causes
- Trailing commas or comments (plugin.json is strict JSON)
- A missing or invalid ` + "`name`" + ` field
- Glob lists written as strings instead of arrays:
~~~json
{ "client_scripts": ["client/*.ts"] }
~~~`,
	}

	bundleFailedIssue = &Issue{
		id: BundleFailedId,
		mdMsg: `
# Script bundling failed

The bundler reported errors for one or more source files. Failures are
per-file: sibling files of the same plugin still build.

## Things you can try
- Read the file/line in the error output; bundler errors point at the source
- Make sure imported modules resolve from the plugin directory
- Type-only imports belong in ` + "`.d.ts`" + ` files, which are not bundled`,
	}

	frontendToolNotFoundIssue = &Issue{
		id: FrontendToolNotFoundId,
		mdMsg: `
# Frontend build tool not found

A plugin has a UI entry file but the configured webview build command could
not be started.

## Things you can try
- Install the frontend toolchain:
~~~
$ npm install
~~~
- Check the ` + "`webview.build_command`" + ` key in your config
- Skip webview builds entirely:
~~~
$ cfxforge build --skip-webview
~~~`,
		docLinks: []HttpLink{"https://vitejs.dev/guide/cli.html"},
	}

	webviewOutputMissingIssue = &Issue{
		id: WebviewOutputMissingId,
		mdMsg: `
# Webview build produced no usable output

The frontend build finished but the output directory is missing its
` + "`index.html`" + ` or ` + "`assets/`" + ` directory.

## Things you can try
- Run the build command manually from the scaffold directory to see its output
- Check that the build does not override the output directory cfxforge passes`,
	}

	reloadUnreachableIssue = &Issue{
		id: ReloadUnreachableId,
		mdMsg: `
# Reload server unreachable

A resource was rebuilt but the restart notification could not be delivered.
Build outputs are intact; only the live restart was skipped.

## Things you can try
- Check ` + "`reload.host`" + ` / ` + "`reload.port`" + ` / ` + "`reload.api_key`" + ` in your config
- Verify the reload endpoint is running on the game server
- Disable reload notifications if you restart resources manually:
~~~
$ cfxforge watch --no-reload
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The config file exists but failed CUE validation or decoding. cfxforge falls
back to built-in defaults for this run.

## Things you can try
- Check the reported key path against the schema:
~~~
$ cfxforge config show
~~~
- Validate the file is CUE, not JSON or YAML`,
	}

	registry = map[Id]*Issue{
		PluginsRootNotFoundId:  pluginsRootNotFoundIssue,
		DescriptorParseErrorId: descriptorParseErrorIssue,
		BundleFailedId:         bundleFailedIssue,
		FrontendToolNotFoundId: frontendToolNotFoundIssue,
		WebviewOutputMissingId: webviewOutputMissingIssue,
		ReloadUnreachableId:    reloadUnreachableIssue,
		ConfigLoadFailedId:     configLoadFailedIssue,
	}
)

// Lookup returns the Issue registered under id, or nil when unknown.
func Lookup(id Id) *Issue {
	return registry[id]
}

// Known returns all registered issue IDs in ascending order.
func Known() []Id {
	ids := maps.Keys(registry)
	slices.Sort(ids)
	return ids
}
