// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"cmp"
	"slices"
	"strings"

	"github.com/invowk/areas/pkg/nspath"
)

// segment ranks; lower sorts first
const (
	rankEnd      = -1
	rankStatic   = 0
	rankParam    = 1
	rankCatchAll = 2
	rankEndAll   = 3
)

// Compare orders two route paths the way a router matches them: static
// segments before parameters, parameters before catch-alls, a shorter path
// before its extensions, and byte order when the shapes are equal. The empty
// path and "/" sort first.
func Compare(a, b string) int {
	if c := slices.Compare(ranks(a), ranks(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// Sort orders routes and, recursively, their children with Compare. The sort
// is stable.
func Sort(routes []Route) {
	slices.SortStableFunc(routes, func(a, b Route) int { return Compare(a.Path, b.Path) })
	for i := range routes {
		Sort(routes[i].Children)
	}
}

// ranks maps every segment of p to its rank and terminates the vector with an
// end marker. A catch-all tail ends with a marker that sorts after any
// continuation.
func ranks(p string) []int {
	segs := nspath.Segments(p)
	out := make([]int, 0, len(segs)+1)
	for _, s := range segs {
		out = append(out, segmentRank(s))
	}
	if len(out) > 0 && out[len(out)-1] == rankCatchAll {
		return append(out, rankEndAll)
	}
	return append(out, rankEnd)
}

func segmentRank(s string) int {
	switch {
	case strings.Contains(s, "*"):
		return rankCatchAll
	case strings.Contains(s, ":"):
		return rankParam
	default:
		return rankStatic
	}
}
