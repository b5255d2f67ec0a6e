// SPDX-License-Identifier: MPL-2.0

// Package nspath implements the slash-separated path algebra shared by route
// paths, store namespaces and (slash-normalized) filesystem paths.
//
// Routes and namespaces both go through the same functions so that ".."
// escapes in override configuration behave identically for either kind.
package nspath

import (
	"path"
	"regexp"
	"strings"
)

var rxDrive = regexp.MustCompile(`^[A-Za-z]:`)

// Resolve resolves segments right to left until an absolute segment is found,
// joins what it collected and cleans the result. The result is always rooted
// at "/"; ".." above the root is clamped.
func Resolve(segments ...string) string {
	var parts []string
	for i := len(segments) - 1; i >= 0; i-- {
		seg := ToSlash(segments[i])
		if seg == "" {
			continue
		}
		parts = append(parts, seg)
		if strings.HasPrefix(seg, "/") {
			break
		}
	}

	// parts were collected in reverse order
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return path.Clean("/" + strings.Join(parts, "/"))
}

// Join concatenates segments and cleans the result without forcing it to be
// absolute. Joining nothing yields "".
func Join(segments ...string) string {
	slashed := make([]string, 0, len(segments))
	for _, seg := range segments {
		slashed = append(slashed, ToSlash(seg))
	}
	return path.Join(slashed...)
}

// Relative returns the path that leads from one resolved path to another.
// Equal paths yield "".
func Relative(from, to string) string {
	fromSegs := Segments(Resolve(from))
	toSegs := Segments(Resolve(to))

	common := 0
	for common < len(fromSegs) && common < len(toSegs) && fromSegs[common] == toSegs[common] {
		common++
	}

	rel := make([]string, 0, len(fromSegs)-common+len(toSegs)-common)
	for range fromSegs[common:] {
		rel = append(rel, "..")
	}
	rel = append(rel, toSegs[common:]...)

	return strings.Join(rel, "/")
}

// Normalize converts back-slashes to forward slashes and strips a leading
// drive letter. Use it on logical strings (routes, namespaces) coming from
// configuration.
func Normalize(p string) string {
	return rxDrive.ReplaceAllString(ToSlash(p), "")
}

// ToSlash converts back-slashes to forward slashes. Unlike Normalize it keeps
// drive letters, so it is safe on filesystem paths.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Segments splits p into its non-empty segments.
func Segments(p string) []string {
	raw := strings.Split(ToSlash(p), "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Base returns the last segment of p, or "" for the root.
func Base(p string) string {
	segs := Segments(p)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Dir returns p without its last segment. Absolute inputs stay absolute.
func Dir(p string) string {
	return path.Dir(ToSlash(p))
}

// TrimExt removes the extension of the last segment.
func TrimExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

// IsAbs reports whether p is rooted, accepting Windows drive-letter paths.
func IsAbs(p string) bool {
	p = ToSlash(p)
	return strings.HasPrefix(p, "/") || rxDrive.MatchString(p)
}

// HasPrefixPath reports whether p equals prefix or lives underneath it,
// comparing whole segments.
func HasPrefixPath(p, prefix string) bool {
	p, prefix = ToSlash(p), strings.TrimSuffix(ToSlash(prefix), "/")
	if prefix == "" {
		return strings.HasPrefix(p, "/")
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Alias rewrites p to use the prefix of the alias whose folder is the longest
// match, for example "/project/areas/blog/pages/x.vue" becomes
// "~/areas/blog/pages/x.vue" given {"~": "/project"}. Ties go to the
// alphabetically first prefix. p is returned unchanged when nothing matches.
func Alias(p string, aliases map[string]string) string {
	p = ToSlash(p)

	best, bestDir := "", ""
	for prefix, dir := range aliases {
		dir = strings.TrimSuffix(ToSlash(dir), "/")
		if !HasPrefixPath(p, dir) {
			continue
		}
		if best == "" || len(dir) > len(bestDir) || (len(dir) == len(bestDir) && prefix < best) {
			best, bestDir = prefix, dir
		}
	}
	if best == "" {
		return p
	}
	return best + strings.TrimPrefix(p, bestDir)
}
