// SPDX-License-Identifier: MPL-2.0

package routes

// MergeByKey drops every entry of existing whose key matches an entry of
// incoming and appends incoming. Merging the same incoming list twice yields
// the same result as merging it once.
func MergeByKey[T any, K comparable](existing, incoming []T, keyOf func(T) K) []T {
	replaced := make(map[K]struct{}, len(incoming))
	for _, v := range incoming {
		replaced[keyOf(v)] = struct{}{}
	}

	merged := make([]T, 0, len(existing)+len(incoming))
	for _, v := range existing {
		if _, ok := replaced[keyOf(v)]; !ok {
			merged = append(merged, v)
		}
	}
	return append(merged, incoming...)
}

// MergeByPath merges routes into a host route table, replacing entries with
// the same path.
func MergeByPath(existing, incoming []Route) []Route {
	return MergeByKey(existing, incoming, func(r Route) string { return r.Path })
}
