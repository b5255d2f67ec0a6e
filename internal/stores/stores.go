// SPDX-License-Identifier: MPL-2.0

// Package stores derives the namespaced store modules contributed by an area
// tree.
//
// A leaf area contributes its store.{ext} file and every file below its
// store/ folder. File paths map to namespaces relative to the area
// namespace; store and index files stand for the namespace itself:
//
//	/shop/cart + store/index.js      -> shop/cart
//	/shop/cart + store/items.js      -> shop/cart/items
//	/shop/cart + store/items/tax.ts  -> shop/cart/items/tax
//	/shop/cart + store.js            -> shop/cart
//
// The final list is ordered by namespace so that parents precede children.
package stores

import (
	"cmp"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/diag"
	"github.com/invowk/areas/internal/fsscan"
	"github.com/invowk/areas/pkg/nspath"

	"github.com/cespare/xxhash/v2"
)

const (
	storeFolder = "store"
	indexName   = "index"
	refPrefix   = "_"
)

// DefaultExtensions are the store file extensions globbed when none are configured.
var DefaultExtensions = []string{"js", "ts"}

type (
	// Record is one store module to register.
	Record struct {
		// Ref is a unique import-safe identifier.
		Ref string `json:"ref" toml:"ref"`
		// Namespace is the slash-separated namespace, without a leading slash.
		// The empty namespace is the store root.
		Namespace string `json:"namespace" toml:"namespace"`
		// Path is the aliased import path of the module.
		Path string `json:"path" toml:"path"`
		// File is the absolute file path.
		File string `json:"file" toml:"file"`
	}

	// Deriver produces the store list of an area tree.
	Deriver struct {
		scanner    *fsscan.Scanner
		diags      *diag.Collector
		extensions []string
		aliases    map[string]string
	}

	// Option configures a Deriver.
	Option func(*Deriver)
)

// Segments returns the namespace split into its levels.
func (r Record) Segments() []string {
	return nspath.Segments(r.Namespace)
}

// WithExtensions sets the store file extensions, without the dot.
func WithExtensions(exts []string) Option {
	return func(d *Deriver) {
		if len(exts) > 0 {
			d.extensions = slices.Clone(exts)
		}
	}
}

// WithAliases sets the aliases applied to Record.Path.
func WithAliases(aliases map[string]string) Option {
	return func(d *Deriver) { d.aliases = aliases }
}

// WithDiagnostics sets the collector receiving recoverable problems.
func WithDiagnostics(c *diag.Collector) Option {
	return func(d *Deriver) {
		if c != nil {
			d.diags = c
		}
	}
}

// NewDeriver returns a Deriver globbing through scanner.
func NewDeriver(scanner *fsscan.Scanner, opts ...Option) *Deriver {
	d := &Deriver{scanner: scanner, extensions: DefaultExtensions}
	for _, opt := range opts {
		opt(d)
	}
	if d.diags == nil {
		d.diags = diag.NewCollector(nil)
	}
	return d
}

// Derive returns the store records of areas ordered by namespace, with refs
// unique across the whole list.
func (d *Deriver) Derive(areas []*area.Area) []Record {
	records := d.derive(areas)
	slices.SortStableFunc(records, func(a, b Record) int { return cmp.Compare(a.Namespace, b.Namespace) })
	assignRefs(records)
	return records
}

func (d *Deriver) derive(areas []*area.Area) []Record {
	var all []Record
	for _, a := range areas {
		if !a.IsLeaf() {
			all = append(all, d.derive(a.Areas)...)
			continue
		}
		all = append(all, d.deriveLeaf(a)...)
	}
	return all
}

func (d *Deriver) deriveLeaf(a *area.Area) []Record {
	files, err := d.glob(a.Path)
	if err != nil {
		d.diags.Warn(diag.CodeStoreGlobFailed, a.Path, err, "cannot list stores of area %q, skipping them", a.Name)
		return nil
	}

	records := make([]Record, 0, len(files))
	for _, file := range files {
		records = append(records, Record{
			Namespace: Namespace(a.Namespace, nspath.Relative(a.Path, file)),
			Path:      nspath.Alias(file, d.aliases),
			File:      file,
		})
	}
	return records
}

// glob lists the store files of folder in import order.
func (d *Deriver) glob(folder string) ([]string, error) {
	exts := "{" + strings.Join(d.extensions, ",") + "}"
	matches, err := d.scanner.Glob(folder, storeFolder+"."+exts, storeFolder+"/**")
	if err != nil {
		return nil, err
	}

	files := matches[:0]
	for _, m := range matches {
		if slices.Contains(d.extensions, strings.TrimPrefix(path.Ext(m), ".")) {
			files = append(files, m)
		}
	}
	slices.SortFunc(files, comparePaths)
	return files, nil
}

// Namespace maps a store file, relative to its area folder, to a namespace
// below areaNamespace.
func Namespace(areaNamespace, rel string) string {
	rel = strings.TrimPrefix(nspath.ToSlash(rel), storeFolder+"/")
	ns := strings.TrimPrefix(nspath.TrimExt(nspath.Resolve(areaNamespace, rel)), "/")

	segs := nspath.Segments(ns)
	if len(segs) > 0 {
		if last := segs[len(segs)-1]; last == storeFolder || last == indexName {
			segs = segs[:len(segs)-1]
		}
	}
	return strings.Join(segs, "/")
}

// comparePaths orders paths by folder, then index files first, then name,
// ignoring case.
func comparePaths(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if c := cmp.Compare(path.Dir(la), path.Dir(lb)); c != 0 {
		return c
	}
	ba, bb := path.Base(la), path.Base(lb)
	ia, ib := strings.HasPrefix(ba, indexName+"."), strings.HasPrefix(bb, indexName+".")
	if ia != ib {
		if ia {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(ba, bb); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// assignRefs gives every record an identifier derived from its file path,
// suffixing collisions in list order.
func assignRefs(records []Record) {
	seen := make(map[string]int, len(records))
	for i := range records {
		ref := refPrefix + strconv.FormatUint(xxhash.Sum64String(records[i].File), 16)
		if n := seen[ref]; n > 0 {
			seen[ref] = n + 1
			ref += "_" + strconv.Itoa(n+1)
		} else {
			seen[ref] = 1
		}
		records[i].Ref = ref
	}
}
