// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"regexp"
	"strings"
	"sync"
)

var separatorRuns sync.Map // separator -> *regexp.Regexp

// MakeName builds a route name such as "blog-post-id" from path fragments:
// the parts are joined with sep, lower-cased, optional markers ("?") are
// dropped, runs of "/", ":" and sep collapse into one sep and leading or
// trailing separators are trimmed.
func MakeName(sep string, parts ...string) string {
	if sep == "" {
		sep = DefaultNameSeparator
	}
	name := strings.ToLower(strings.Join(parts, sep))
	name = strings.ReplaceAll(name, "?", "")
	name = separatorRun(sep).ReplaceAllString(name, sep)
	return strings.Trim(name, sep)
}

func separatorRun(sep string) *regexp.Regexp {
	if rx, ok := separatorRuns.Load(sep); ok {
		return rx.(*regexp.Regexp)
	}
	rx := regexp.MustCompile(`(?:/|:|` + regexp.QuoteMeta(sep) + `)+`)
	separatorRuns.Store(sep, rx)
	return rx
}
