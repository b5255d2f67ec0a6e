// SPDX-License-Identifier: MPL-2.0

// Package areaconfig loads the optional override descriptors that live at the
// root of an area folder.
//
// A descriptor can rename the route or namespace segment of a group folder
// ("areas" files) or hand an explicit route list to a leaf folder ("routes"
// files). CUE, TOML and HCL are accepted; every format is reduced to the same
// raw map before it is turned into a Descriptor.
package areaconfig

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/invowk/areas/internal/fsscan"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultMaxFileSize is the largest descriptor file that will be parsed.
	DefaultMaxFileSize int64 = 5 * 1024 * 1024

	// DefaultCacheSize is the number of parsed descriptors kept in memory.
	DefaultCacheSize = 256
)

var (
	// RoutesCandidates lists leaf routes files in precedence order.
	RoutesCandidates = []string{"routes.cue", "routes.toml", "routes.hcl"}

	// GroupCandidates lists group override files in precedence order.
	GroupCandidates = []string{"areas.cue", "areas.toml", "areas.hcl"}

	// ErrUnsupportedFormat is returned for a descriptor file with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported descriptor format")

	// ErrInvalidDescriptor is returned when a descriptor value has the wrong shape.
	ErrInvalidDescriptor = errors.New("invalid descriptor")

	// ErrRoutesNotList is recorded in Descriptor.RoutesErr when routes is not a list.
	ErrRoutesNotList = errors.New("routes must be a list")

	// ErrFileTooLarge is returned when a descriptor exceeds the size limit.
	ErrFileTooLarge = errors.New("descriptor file too large")
)

type (
	// RouteDef is one entry of an explicit route list.
	RouteDef struct {
		Path      string     `json:"path" toml:"path"`
		Component string     `json:"component,omitempty" toml:"component,omitempty"`
		Page      string     `json:"page,omitempty" toml:"page,omitempty"`
		Name      string     `json:"name,omitempty" toml:"name,omitempty"`
		Children  []RouteDef `json:"children,omitempty" toml:"children,omitempty"`
	}

	// Descriptor is the evaluated content of an override file. Descriptors
	// returned by a Loader may be shared and must be treated as read-only.
	Descriptor struct {
		// Namespace replaces the folder-name namespace segment when set.
		Namespace *string
		// Route replaces the folder-name route segment when set.
		Route *string
		// Routes is the explicit route list. Only meaningful when HasRoutes is set.
		Routes []RouteDef
		// HasRoutes reports that the file defines a well-formed routes list.
		HasRoutes bool
		// RoutesErr is set when routes is present but malformed.
		RoutesErr error
	}

	// Loader evaluates a descriptor file.
	Loader interface {
		Load(path string) (*Descriptor, error)
	}

	// FileLoader reads descriptor files through a Scanner and dispatches on the
	// file extension. Parsed results are cached by path, size and modification
	// time.
	FileLoader struct {
		scanner     *fsscan.Scanner
		cache       *lru.Cache[cacheKey, *Descriptor]
		maxFileSize int64
	}

	// Option configures a FileLoader.
	Option func(*FileLoader)

	cacheKey struct {
		path string
		sum  uint64
	}

	decodeFunc func(filename string, data []byte) (map[string]any, error)
)

var decoders = map[string]decodeFunc{
	".cue":  decodeCUE,
	".toml": decodeTOML,
	".hcl":  decodeHCL,
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(l *FileLoader) {
		if n > 0 {
			l.maxFileSize = n
		}
	}
}

// WithCacheSize overrides DefaultCacheSize. A size of zero or less disables
// caching.
func WithCacheSize(n int) Option {
	return func(l *FileLoader) {
		if n <= 0 {
			l.cache = nil
			return
		}
		l.cache = newCache(n)
	}
}

// NewFileLoader returns a Loader reading through scanner.
func NewFileLoader(scanner *fsscan.Scanner, opts ...Option) *FileLoader {
	l := &FileLoader{
		scanner:     scanner,
		cache:       newCache(DefaultCacheSize),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newCache(n int) *lru.Cache[cacheKey, *Descriptor] {
	c, err := lru.New[cacheKey, *Descriptor](n)
	if err != nil {
		// lru.New only fails for a non-positive size
		panic(err)
	}
	return c
}

// Load reads and evaluates the descriptor at p.
func (l *FileLoader) Load(p string) (*Descriptor, error) {
	ext := strings.ToLower(path.Ext(p))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p)
	}

	info, err := l.scanner.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat descriptor: %w", err)
	}
	if info.Size() > l.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, p, info.Size(), l.maxFileSize)
	}

	data, err := l.scanner.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	key := cacheKey{path: p, sum: xxhash.Sum64(data)}
	if l.cache != nil {
		if d, hit := l.cache.Get(key); hit {
			return d, nil
		}
	}

	raw, err := decode(p, data)
	if err != nil {
		return nil, err
	}
	d, err := FromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	if l.cache != nil {
		l.cache.Add(key, d)
	}
	return d, nil
}

// Len returns the number of cached descriptors.
func (l *FileLoader) Len() int {
	if l.cache == nil {
		return 0
	}
	return l.cache.Len()
}

// Empty returns a descriptor with no overrides.
func Empty() *Descriptor {
	return &Descriptor{}
}
