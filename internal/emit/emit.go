// SPDX-License-Identifier: MPL-2.0

// Package emit writes the artefacts of a build into the output folder: the
// host manifest, the store plugin and the placeholder component used by
// routes whose page is missing.
package emit

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/template"

	"github.com/invowk/areas/internal/aggregate"
	"github.com/invowk/areas/internal/stores"
	"github.com/invowk/areas/pkg/nspath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	// ManifestFile is the host manifest written by Emit.
	ManifestFile = "manifest.json"
	// PluginFile is the store plugin written by Emit.
	PluginFile = "areas.js"
	// MissingFile is the placeholder component, relative to the output folder.
	MissingFile = "components/Missing.vue"
)

var (
	//go:embed plugin.js.tmpl
	pluginSource string

	//go:embed Missing.vue
	missingComponent []byte

	pluginTemplate = template.Must(template.New(PluginFile).Funcs(template.FuncMap{
		"json": func(v any) (string, error) {
			data, err := json.Marshal(v)
			return string(data), err
		},
	}).Parse(pluginSource))
)

// Emitter writes build artefacts below one folder.
type Emitter struct {
	fs  billy.Filesystem
	dir string
}

// New returns an Emitter writing into dir on fs.
func New(fs billy.Filesystem, dir string) *Emitter {
	return &Emitter{fs: fs, dir: nspath.ToSlash(dir)}
}

// Emit writes the manifest, the plugin and the placeholder component. Files
// whose content is unchanged are left alone. It returns the paths it wrote.
func (e *Emitter) Emit(host *aggregate.Manifest, res *aggregate.Result) ([]string, error) {
	manifest, err := Manifest(host)
	if err != nil {
		return nil, err
	}
	plugin, err := Plugin(res.Stores)
	if err != nil {
		return nil, err
	}

	files := []struct {
		name string
		data []byte
	}{
		{ManifestFile, manifest},
		{PluginFile, plugin},
		{MissingFile, missingComponent},
	}

	var written []string
	for _, f := range files {
		p := nspath.Join(e.dir, f.name)
		changed, err := e.write(p, f.data)
		if err != nil {
			return written, err
		}
		if changed {
			written = append(written, p)
		}
	}
	return written, nil
}

func (e *Emitter) write(p string, data []byte) (bool, error) {
	if old, err := util.ReadFile(e.fs, p); err == nil && bytes.Equal(old, data) {
		return false, nil
	}
	if err := e.fs.MkdirAll(nspath.Dir(p), 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", nspath.Dir(p), err)
	}
	if err := util.WriteFile(e.fs, p, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", p, err)
	}
	return true, nil
}

// Manifest encodes host as indented JSON.
func Manifest(host *aggregate.Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(host, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Plugin renders the store plugin registering records in order.
func Plugin(records []stores.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := pluginTemplate.Execute(&buf, records); err != nil {
		return nil, fmt.Errorf("render store plugin: %w", err)
	}
	return buf.Bytes(), nil
}

// MissingComponent returns the placeholder component source.
func MissingComponent() []byte {
	return bytes.Clone(missingComponent)
}

// LoadManifest reads a host manifest from p. A missing file yields an empty
// manifest.
func LoadManifest(fs billy.Filesystem, p string) (*aggregate.Manifest, error) {
	data, err := util.ReadFile(fs, p)
	if errors.Is(err, os.ErrNotExist) {
		return &aggregate.Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", p, err)
	}

	var m aggregate.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", p, err)
	}
	return &m, nil
}
